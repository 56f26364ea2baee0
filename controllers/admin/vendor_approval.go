package adminController

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/pagination"
	"gorm.io/gorm"
)

var applicationSorts = pagination.Sorts{"updated_at": "updated_at", "store_name": "store_name"}

// ListVendorApplications returns users awaiting approval to sell.
func ListVendorApplications(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := pagination.Parse(c, applicationSorts, "updated_at")
		if err != nil {
			c.Error(err)
			return
		}
		query := db.WithContext(c.Request.Context()).Model(&models.User{}).
			Where("vendor_status = ?", models.VendorStatusPending)
		if p.Search != "" {
			query = query.Where("(LOWER(store_name) LIKE ? OR LOWER(email) LIKE ?)", p.Like(), p.Like())
		}
		page, err := pagination.Paginate[models.User](query, p)
		if err != nil {
			c.Error(apperr.Internal("list vendor applications", err))
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func ApproveVendor(db *gorm.DB) gin.HandlerFunc {
	return decideApplication(db, map[string]interface{}{
		"vendor_status": models.VendorStatusApproved,
		"role":          models.RoleVendor,
	})
}

func RejectVendor(db *gorm.DB) gin.HandlerFunc {
	return decideApplication(db, map[string]interface{}{
		"vendor_status": models.VendorStatusRejected,
	})
}

func decideApplication(db *gorm.DB, updates map[string]interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		// Only a pending application can be decided, so a double click is harmless.
		res := db.WithContext(ctx).Model(&models.User{}).
			Where("id = ? AND vendor_status = ?", c.Param("id"), models.VendorStatusPending).
			Updates(updates)
		if res.Error != nil {
			c.Error(apperr.Internal("decide vendor application", res.Error))
			return
		}
		if res.RowsAffected == 0 {
			c.Error(apperr.NotFound("no pending application for this user"))
			return
		}

		var user models.User
		if err := db.WithContext(ctx).First(&user, "id = ?", c.Param("id")).Error; err != nil {
			c.Error(apperr.NotFoundOr(err, "user not found"))
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
