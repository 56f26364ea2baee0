package userControllers

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/cache"
	"github.com/junaidrashid-git/market-hub/controllers"
	productcontroller "github.com/junaidrashid-git/market-hub/controllers/product"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/pagination"
	"gorm.io/gorm"
)

var userSorts = pagination.Sorts{"created_at": "created_at", "name": "name", "email": "email"}

var roles = []models.Role{models.RoleUser, models.RoleVendor, models.RoleAdmin}

// GET /api/admin/users
func ListUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := pagination.Parse(c, userSorts, "created_at")
		if err != nil {
			c.Error(err)
			return
		}
		query := db.WithContext(c.Request.Context()).Model(&models.User{})
		if p.Search != "" {
			query = query.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", p.Like(), p.Like())
		}
		if raw := c.Query("role"); raw != "" {
			if !slices.Contains(roles, models.Role(raw)) {
				c.Error(apperr.Field("role", "must be one of: user, vendor, admin"))
				return
			}
			query = query.Where("role = ?", raw)
		}

		page, err := pagination.Paginate[models.User](query, p)
		if err != nil {
			c.Error(apperr.Internal("list users", err))
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// PATCH /api/admin/users/:id/role
// Promoting to vendor approves the store; other changes leave vendor_status alone.
func ChangeRole(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Role models.Role `json:"role" binding:"required,oneof=user vendor admin"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		id := c.Param("id")
		if id == middleware.CurrentUserID(c) {
			c.Error(apperr.Validation("you cannot change your own role"))
			return
		}
		ctx := c.Request.Context()

		var user models.User
		if err := db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
			c.Error(apperr.NotFoundOr(err, "user not found"))
			return
		}
		updates := map[string]interface{}{"role": input.Role}
		if input.Role == models.RoleVendor {
			updates["vendor_status"] = models.VendorStatusApproved
		}
		if err := db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			c.Error(apperr.Internal("change role", err))
			return
		}
		user.Role = input.Role
		if input.Role == models.RoleVendor {
			user.VendorStatus = models.VendorStatusApproved
		}
		loader.Invalidate(ctx, productcontroller.CachePrefix)
		c.JSON(http.StatusOK, user)
	}
}

// DELETE /api/admin/users/:id
// The account's cart, orders, ratings and products cascade with it.
func DeleteUser(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if id == middleware.CurrentUserID(c) {
			c.Error(apperr.Validation("you cannot delete your own account"))
			return
		}
		ctx := c.Request.Context()

		var user models.User
		if err := db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
			c.Error(apperr.NotFoundOr(err, "user not found"))
			return
		}
		if err := db.WithContext(ctx).Delete(&user).Error; err != nil {
			c.Error(apperr.Internal("delete user", err))
			return
		}
		loader.Invalidate(ctx, productcontroller.CachePrefix)
		c.JSON(http.StatusOK, controllers.Message("User deleted"))
	}
}
