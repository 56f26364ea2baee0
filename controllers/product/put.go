package productcontroller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/cache"
	"github.com/junaidrashid-git/market-hub/controllers"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Nil fields are left unchanged. An empty category_ids list clears them.
type updateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" binding:"omitempty,gte=0"`
	Images      []string         `json:"images" binding:"omitempty,max=10,dive,url"`
	Featured    *bool            `json:"featured"`
	BrandID     *uint            `json:"brand_id"`
	ClearBrand  bool             `json:"clear_brand"`
	CategoryIDs []uint           `json:"category_ids"`
}

// PUT /api/vendor/products/:id, PUT /api/admin/products/:id
func UpdateProduct(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := controllers.UintParam(c, "id")
		if err != nil {
			c.Error(err)
			return
		}
		var req updateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		if err := validPrice(req.Price); err != nil {
			c.Error(err)
			return
		}
		if req.Featured != nil && !middleware.IsAdmin(c) {
			c.Error(apperr.Forbidden("only admins can feature products"))
			return
		}

		product, err := loadOwnedProduct(c, db, id)
		if err != nil {
			c.Error(err)
			return
		}

		ctx := c.Request.Context()
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// Only touched columns are written so concurrent stock and rating
			// updates are not overwritten with the snapshot loaded above.
			var cols []string
			if req.Name != nil && strings.TrimSpace(*req.Name) != product.Name {
				product.Name = strings.TrimSpace(*req.Name)
				if product.Slug, err = uniqueSlug(ctx, tx, &models.Product{}, product.Name, product.ID); err != nil {
					return err
				}
				cols = append(cols, "name", "slug")
			}
			if req.Description != nil {
				product.Description = *req.Description
				cols = append(cols, "description")
			}
			if req.Price != nil {
				product.Price = req.Price.Round(2)
				cols = append(cols, "price")
			}
			if req.Stock != nil {
				product.Stock = *req.Stock
				cols = append(cols, "stock")
			}
			if req.Images != nil {
				product.Images = cleanImages(req.Images)
				cols = append(cols, "images")
			}
			if req.Featured != nil {
				product.Featured = *req.Featured
				cols = append(cols, "featured")
			}
			if req.BrandID != nil {
				if err := checkBrand(tx, req.BrandID); err != nil {
					return err
				}
				product.BrandID = req.BrandID
				cols = append(cols, "brand_id")
			} else if req.ClearBrand {
				product.BrandID = nil
				cols = append(cols, "brand_id")
			}
			if len(cols) > 0 {
				cols = append(cols, "updated_at")
				if err := tx.Model(product).Select(cols).Updates(product).Error; err != nil {
					return apperr.Internal("update product", err)
				}
			}
			if req.CategoryIDs != nil {
				categories, err := loadCategories(tx, req.CategoryIDs)
				if err != nil {
					return err
				}
				if err := tx.Model(product).Association("Categories").Replace(categories); err != nil {
					return apperr.Internal("update product categories", err)
				}
			}
			return nil
		})
		if err != nil {
			c.Error(err)
			return
		}
		invalidate(ctx, loader)

		var updated models.Product
		if err := withDetails(db.WithContext(ctx)).First(&updated, product.ID).Error; err != nil {
			c.Error(apperr.Internal("reload product", err))
			return
		}
		c.JSON(http.StatusOK, updated.View())
	}
}
