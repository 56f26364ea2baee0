package productcontroller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/cache"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type createProductRequest struct {
	Name        string           `json:"name" binding:"required,max=200"`
	Description string           `json:"description" binding:"max=5000"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Stock       int              `json:"stock" binding:"gte=0"`
	Images      []string         `json:"images" binding:"max=10,dive,url"`
	Featured    bool             `json:"featured"`
	BrandID     *uint            `json:"brand_id"`
	CategoryIDs []uint           `json:"category_ids"`
	// Admins may create on behalf of a vendor.
	VendorID string `json:"vendor_id"`
}

func validPrice(price *decimal.Decimal) error {
	if price != nil && !price.IsPositive() {
		return apperr.Field("price", "must be greater than 0")
	}
	return nil
}

// POST /api/vendor/products, POST /api/admin/products
func CreateProduct(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		if err := validPrice(req.Price); err != nil {
			c.Error(err)
			return
		}
		user, _ := middleware.CurrentUser(c)
		isAdmin := user.Role == models.RoleAdmin
		if req.Featured && !isAdmin {
			c.Error(apperr.Forbidden("only admins can feature products"))
			return
		}
		vendorID := user.ID
		if isAdmin && req.VendorID != "" {
			vendorID = req.VendorID
		}

		ctx := c.Request.Context()
		product := models.Product{
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
			Price:       req.Price.Round(2),
			Stock:       req.Stock,
			Images:      cleanImages(req.Images),
			Featured:    req.Featured,
			VendorID:    vendorID,
			BrandID:     req.BrandID,
		}

		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if vendorID != user.ID {
				var vendor models.User
				if err := tx.First(&vendor, "id = ?", vendorID).Error; err != nil || vendor.Role != models.RoleVendor {
					return apperr.Field("vendor_id", "is not a vendor")
				}
			}
			if err := checkBrand(tx, req.BrandID); err != nil {
				return err
			}
			categories, err := loadCategories(tx, req.CategoryIDs)
			if err != nil {
				return err
			}
			product.Categories = categories
			if product.Slug, err = uniqueSlug(ctx, tx, &models.Product{}, product.Name, 0); err != nil {
				return err
			}
			if err := tx.Omit("Categories.*").Create(&product).Error; err != nil {
				return apperr.Internal("create product", err)
			}
			return nil
		})
		if err != nil {
			c.Error(err)
			return
		}
		invalidate(ctx, loader)

		if err := withDetails(db.WithContext(ctx)).First(&product, product.ID).Error; err != nil {
			c.Error(apperr.Internal("reload product", err))
			return
		}
		c.JSON(http.StatusCreated, product.View())
	}
}
