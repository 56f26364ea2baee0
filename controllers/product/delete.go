package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/cache"
	"github.com/junaidrashid-git/market-hub/controllers"
	"github.com/junaidrashid-git/market-hub/models"
	"gorm.io/gorm"
)

// DELETE /api/vendor/products/:id, DELETE /api/admin/products/:id
// Products are soft-deleted so order history keeps resolving; they are taken
// out of every cart.
func DeleteProduct(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := controllers.UintParam(c, "id")
		if err != nil {
			c.Error(err)
			return
		}
		product, err := loadOwnedProduct(c, db, id)
		if err != nil {
			c.Error(err)
			return
		}

		ctx := c.Request.Context()
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("product_id = ?", product.ID).Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
			return tx.Delete(product).Error
		})
		if err != nil {
			c.Error(apperr.Internal("delete product", err))
			return
		}
		invalidate(ctx, loader)
		c.JSON(http.StatusOK, controllers.Message("Product deleted"))
	}
}
