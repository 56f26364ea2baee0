package productcontroller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/controllers"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/pagination"
	"gorm.io/gorm"
)

var productSorts = pagination.Sorts{
	"created_at": "products.created_at",
	"price":      "products.price",
	"name":       "products.name",
	"rating":     "products.average_rating",
	"stock":      "products.stock",
}

// GET /api/products
func ListProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		listProducts(c, db, c.Query("vendor"))
	}
}

// GET /api/vendor/products lists the caller's own products.
func ListOwnProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		listProducts(c, db, middleware.CurrentUserID(c))
	}
}

func listProducts(c *gin.Context, db *gorm.DB, vendorID string) {
	p, err := pagination.Parse(c, productSorts, "created_at")
	if err != nil {
		c.Error(err)
		return
	}
	query, err := filterProducts(c, db.WithContext(c.Request.Context()).Model(&models.Product{}), p)
	if err != nil {
		c.Error(err)
		return
	}
	if vendorID != "" {
		query = query.Where("products.vendor_id = ?", vendorID)
	}

	page, err := pagination.Paginate[models.Product](query, p, withDetails)
	if err != nil {
		c.Error(apperr.Internal("list products", err))
		return
	}
	c.JSON(http.StatusOK, pagination.Map(page, models.Product.View))
}

func filterProducts(c *gin.Context, query *gorm.DB, p pagination.Params) (*gorm.DB, error) {
	if p.Search != "" {
		like := p.Like()
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", like, like)
	}
	if category := c.Query("category"); category != "" {
		sub := query.Session(&gorm.Session{NewDB: true}).
			Table("product_categories").
			Select("product_categories.product_id").
			Joins("JOIN categories ON categories.id = product_categories.category_id").
			Where("categories.slug = ?", category)
		query = query.Where("products.id IN (?)", sub)
	}
	if brand := c.Query("brand"); brand != "" {
		sub := query.Session(&gorm.Session{NewDB: true}).Model(&models.Brand{}).Select("id").Where("slug = ?", brand)
		query = query.Where("products.brand_id IN (?)", sub)
	}
	for param, op := range map[string]string{"min_price": ">=", "max_price": "<="} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return nil, apperr.Field(param, "must be a non-negative number")
		}
		query = query.Where("products.price "+op+" ?", v)
	}
	featured, err := controllers.BoolQuery(c, "featured")
	if err != nil {
		return nil, err
	}
	if featured != nil {
		query = query.Where("products.featured = ?", *featured)
	}
	inStock, err := controllers.BoolQuery(c, "in_stock")
	if err != nil {
		return nil, err
	}
	if inStock != nil {
		if *inStock {
			query = query.Where("products.stock > 0")
		} else {
			query = query.Where("products.stock <= 0")
		}
	}
	return query, nil
}
