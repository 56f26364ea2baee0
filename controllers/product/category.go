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
	"github.com/junaidrashid-git/market-hub/pagination"
	"gorm.io/gorm"
)

type categoryRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Image       *string `json:"image" binding:"omitempty,url"`
}

// GET /api/categories
func ListCategories(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := cache.Fetch(c.Request.Context(), loader, categoriesKey, func(ctx context.Context) ([]models.Category, error) {
			var categories []models.Category
			if err := db.WithContext(ctx).Order("name asc").Find(&categories).Error; err != nil {
				return nil, apperr.Internal("list categories", err)
			}
			return categories, nil
		})
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

// GET /api/categories/:slug returns the category with a page of its products.
func GetCategory(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := pagination.Parse(c, productSorts, "created_at")
		if err != nil {
			c.Error(err)
			return
		}
		ctx := c.Request.Context()

		var category models.Category
		if err := db.WithContext(ctx).Where("slug = ?", c.Param("slug")).First(&category).Error; err != nil {
			c.Error(apperr.NotFoundOr(err, "category not found"))
			return
		}

		query := db.WithContext(ctx).Model(&models.Product{}).
			Joins("JOIN product_categories ON product_categories.product_id = products.id").
			Where("product_categories.category_id = ?", category.ID)
		if p.Search != "" {
			query = query.Where("LOWER(products.name) LIKE ?", p.Like())
		}
		page, err := pagination.Paginate[models.Product](query, p, withDetails)
		if err != nil {
			c.Error(apperr.Internal("list category products", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"category": category,
			"products": pagination.Map(page, models.Product.View),
		})
	}
}

// POST /api/admin/categories
func CreateCategory(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req categoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
			c.Error(apperr.Field("name", "is required"))
			return
		}
		ctx := c.Request.Context()

		category := models.Category{Name: strings.TrimSpace(*req.Name)}
		if req.Description != nil {
			category.Description = *req.Description
		}
		if req.Image != nil {
			category.Image = *req.Image
		}
		var err error
		if category.Slug, err = uniqueSlug(ctx, db, &models.Category{}, category.Name, 0); err != nil {
			c.Error(err)
			return
		}
		if err := db.WithContext(ctx).Create(&category).Error; err != nil {
			c.Error(duplicateName(err, "category"))
			return
		}
		invalidate(ctx, loader)
		c.JSON(http.StatusCreated, category)
	}
}

// PUT /api/admin/categories/:id
func UpdateCategory(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := controllers.UintParam(c, "id")
		if err != nil {
			c.Error(err)
			return
		}
		var req categoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		ctx := c.Request.Context()

		var category models.Category
		if err := db.WithContext(ctx).First(&category, id).Error; err != nil {
			c.Error(apperr.NotFoundOr(err, "category not found"))
			return
		}
		if req.Name != nil && strings.TrimSpace(*req.Name) != category.Name {
			category.Name = strings.TrimSpace(*req.Name)
			if category.Slug, err = uniqueSlug(ctx, db, &models.Category{}, category.Name, category.ID); err != nil {
				c.Error(err)
				return
			}
		}
		if req.Description != nil {
			category.Description = *req.Description
		}
		if req.Image != nil {
			category.Image = *req.Image
		}
		if err := db.WithContext(ctx).Save(&category).Error; err != nil {
			c.Error(duplicateName(err, "category"))
			return
		}
		invalidate(ctx, loader)
		c.JSON(http.StatusOK, category)
	}
}

// DELETE /api/admin/categories/:id detaches the category from its products
// before removing it.
func DeleteCategory(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := controllers.UintParam(c, "id")
		if err != nil {
			c.Error(err)
			return
		}
		ctx := c.Request.Context()

		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var category models.Category
			if err := tx.First(&category, id).Error; err != nil {
				return apperr.NotFoundOr(err, "category not found")
			}
			if err := tx.Model(&category).Association("Products").Clear(); err != nil {
				return apperr.Internal("detach category", err)
			}
			if err := tx.Delete(&category).Error; err != nil {
				return apperr.Internal("delete category", err)
			}
			return nil
		})
		if err != nil {
			c.Error(err)
			return
		}
		invalidate(ctx, loader)
		c.JSON(http.StatusOK, controllers.Message("Category deleted"))
	}
}
