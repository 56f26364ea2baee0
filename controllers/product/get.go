package productcontroller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/cache"
	"github.com/junaidrashid-git/market-hub/models"
	"gorm.io/gorm"
)

// GET /api/products/:slug
func GetProduct(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := c.Param("slug")
		view, err := cache.Fetch(c.Request.Context(), loader, productKeyPrefix+s, func(ctx context.Context) (models.ProductView, error) {
			var product models.Product
			if err := withDetails(db.WithContext(ctx)).Where("slug = ?", s).First(&product).Error; err != nil {
				return models.ProductView{}, apperr.NotFoundOr(err, "product not found")
			}
			return product.View(), nil
		})
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, view)
	}
}
