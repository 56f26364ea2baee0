package productcontroller

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/cache"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/slug"
	"gorm.io/gorm"
)

// Every catalog key lives under this prefix so one write can drop them all.
const (
	CachePrefix      = "catalog:"
	categoriesKey    = CachePrefix + "categories"
	brandsKey        = CachePrefix + "brands"
	productKeyPrefix = CachePrefix + "product:"
)

func invalidate(ctx context.Context, loader *cache.Loader) {
	loader.Invalidate(ctx, CachePrefix)
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Vendor").Preload("Brand").Preload("Categories")
}

// loadOwnedProduct loads a product the caller may manage: admins any, vendors
// only their own.
func loadOwnedProduct(c *gin.Context, db *gorm.DB, id uint) (*models.Product, error) {
	var product models.Product
	if err := db.WithContext(c.Request.Context()).First(&product, id).Error; err != nil {
		return nil, apperr.NotFoundOr(err, "product not found")
	}
	user, _ := middleware.CurrentUser(c)
	if user == nil || (user.Role != models.RoleAdmin && product.VendorID != user.ID) {
		return nil, apperr.Forbidden("you can only manage your own products")
	}
	return &product, nil
}

func loadCategories(tx *gorm.DB, ids []uint) ([]models.Category, error) {
	if len(ids) == 0 {
		return []models.Category{}, nil
	}
	var categories []models.Category
	if err := tx.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, apperr.Internal("load categories", err)
	}
	if len(categories) != len(uniq(ids)) {
		return nil, apperr.Field("category_ids", "contains unknown categories")
	}
	return categories, nil
}

func checkBrand(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Brand{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return apperr.Internal("load brand", err)
	}
	if count == 0 {
		return apperr.Field("brand_id", "does not exist")
	}
	return nil
}

func uniq(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func uniqueSlug(ctx context.Context, db *gorm.DB, model any, name string, excludeID uint) (string, error) {
	s, err := slug.Unique(ctx, name, slug.GormExists(db, model, excludeID))
	if err != nil {
		return "", apperr.Internal("generate slug", err)
	}
	return s, nil
}

// duplicateName turns a unique-name violation into a field error.
func duplicateName(err error, what string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Field("name", "a "+what+" with this name already exists")
	}
	return apperr.Internal("save "+what, err)
}

func cleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			out = append(out, img)
		}
	}
	return out
}
