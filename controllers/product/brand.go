package productcontroller

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/cache"
	"github.com/junaidrashid-git/market-hub/controllers"
	"github.com/junaidrashid-git/market-hub/models"
	"gorm.io/gorm"
)

type brandRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Logo        *string `json:"logo" binding:"omitempty,url"`
}

// GET /api/brands
func ListBrands(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		brands, err := cache.Fetch(c.Request.Context(), loader, brandsKey, func(ctx context.Context) ([]models.Brand, error) {
			var brands []models.Brand
			if err := db.WithContext(ctx).Order("name asc").Find(&brands).Error; err != nil {
				return nil, apperr.Internal("list brands", err)
			}
			return brands, nil
		})
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, brands)
	}
}

// GET /api/brands/:slug
func GetBrand(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var brand models.Brand
		if err := db.WithContext(c.Request.Context()).Where("slug = ?", c.Param("slug")).First(&brand).Error; err != nil {
			c.Error(apperr.NotFoundOr(err, "brand not found"))
			return
		}
		c.JSON(http.StatusOK, brand)
	}
}

// POST /api/admin/brands
func CreateBrand(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req brandRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
			c.Error(apperr.Field("name", "is required"))
			return
		}
		ctx := c.Request.Context()

		brand := models.Brand{Name: strings.TrimSpace(*req.Name)}
		if req.Description != nil {
			brand.Description = *req.Description
		}
		if req.Logo != nil {
			brand.Logo = *req.Logo
		}
		var err error
		if brand.Slug, err = uniqueSlug(ctx, db, &models.Brand{}, brand.Name, 0); err != nil {
			c.Error(err)
			return
		}
		if err := db.WithContext(ctx).Create(&brand).Error; err != nil {
			c.Error(duplicateName(err, "brand"))
			return
		}
		invalidate(ctx, loader)
		c.JSON(http.StatusCreated, brand)
	}
}

// PUT /api/admin/brands/:id
func UpdateBrand(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := controllers.UintParam(c, "id")
		if err != nil {
			c.Error(err)
			return
		}
		var req brandRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		ctx := c.Request.Context()

		var brand models.Brand
		if err := db.WithContext(ctx).First(&brand, id).Error; err != nil {
			c.Error(apperr.NotFoundOr(err, "brand not found"))
			return
		}
		if req.Name != nil && strings.TrimSpace(*req.Name) != brand.Name {
			brand.Name = strings.TrimSpace(*req.Name)
			if brand.Slug, err = uniqueSlug(ctx, db, &models.Brand{}, brand.Name, brand.ID); err != nil {
				c.Error(err)
				return
			}
		}
		if req.Description != nil {
			brand.Description = *req.Description
		}
		if req.Logo != nil {
			brand.Logo = *req.Logo
		}
		if err := db.WithContext(ctx).Save(&brand).Error; err != nil {
			c.Error(duplicateName(err, "brand"))
			return
		}
		invalidate(ctx, loader)
		c.JSON(http.StatusOK, brand)
	}
}

// DELETE /api/admin/brands/:id leaves its products unbranded.
func DeleteBrand(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := controllers.UintParam(c, "id")
		if err != nil {
			c.Error(err)
			return
		}
		ctx := c.Request.Context()

		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var brand models.Brand
			if err := tx.First(&brand, id).Error; err != nil {
				return apperr.NotFoundOr(err, "brand not found")
			}
			if err := tx.Unscoped().Model(&models.Product{}).Where("brand_id = ?", brand.ID).Update("brand_id", nil).Error; err != nil {
				return apperr.Internal("unlink brand", err)
			}
			if err := tx.Delete(&brand).Error; err != nil {
				return apperr.Internal("delete brand", err)
			}
			return nil
		})
		if err != nil {
			c.Error(err)
			return
		}
		invalidate(ctx, loader)
		c.JSON(http.StatusOK, controllers.Message("Brand deleted"))
	}
}
