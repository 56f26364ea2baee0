package productcontroller

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/cache"
	"github.com/junaidrashid-git/market-hub/controllers"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ratingSorts = pagination.Sorts{"created_at": "created_at", "value": "value"}

type RatingView struct {
	ID        uint               `json:"id"`
	Value     int                `json:"value"`
	Comment   string             `json:"comment"`
	User      *models.PublicUser `json:"user,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func ratingView(r models.Rate) RatingView {
	v := RatingView{ID: r.ID, Value: r.Value, Comment: r.Comment, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
	if r.User != nil {
		pub := r.User.Public()
		v.User = &pub
	}
	return v
}

func productBySlug(c *gin.Context, db *gorm.DB) (*models.Product, error) {
	var product models.Product
	if err := db.WithContext(c.Request.Context()).Where("slug = ?", c.Param("slug")).First(&product).Error; err != nil {
		return nil, apperr.NotFoundOr(err, "product not found")
	}
	return &product, nil
}

// GET /api/products/:slug/ratings
func ListRatings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := pagination.Parse(c, ratingSorts, "created_at")
		if err != nil {
			c.Error(err)
			return
		}
		product, err := productBySlug(c, db)
		if err != nil {
			c.Error(err)
			return
		}
		query := db.WithContext(c.Request.Context()).Model(&models.Rate{}).Where("product_id = ?", product.ID)
		page, err := pagination.Paginate[models.Rate](query, p, func(q *gorm.DB) *gorm.DB { return q.Preload("User") })
		if err != nil {
			c.Error(apperr.Internal("list ratings", err))
			return
		}
		c.JSON(http.StatusOK, pagination.Map(page, ratingView))
	}
}

// PUT /api/products/:slug/rating creates or replaces the caller's rating.
// Only customers with a non-cancelled order for the product may rate it.
func RateProduct(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Value   int    `json:"value" binding:"required,min=1,max=5"`
			Comment string `json:"comment" binding:"max=2000"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		product, err := productBySlug(c, db)
		if err != nil {
			c.Error(err)
			return
		}
		userID := middleware.CurrentUserID(c)
		ctx := c.Request.Context()

		rate := models.Rate{UserID: userID, ProductID: product.ID, Value: req.Value, Comment: req.Comment}
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var purchased int64
			err := tx.Model(&models.OrderItem{}).
				Joins("JOIN orders ON orders.id = order_items.order_id").
				Where("orders.user_id = ? AND order_items.product_id = ? AND orders.status <> ?", userID, product.ID, models.OrderStatusCancelled).
				Count(&purchased).Error
			if err != nil {
				return apperr.Internal("check purchase", err)
			}
			if purchased == 0 {
				return apperr.Forbidden("you can only rate products you have ordered")
			}

			err = tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "comment", "updated_at"}),
			}).Create(&rate).Error
			if err != nil {
				return apperr.Internal("save rating", err)
			}
			return recomputeRating(tx, product.ID)
		})
		if err != nil {
			c.Error(err)
			return
		}
		invalidate(ctx, loader)

		if err := db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, product.ID).First(&rate).Error; err != nil {
			c.Error(apperr.Internal("reload rating", err))
			return
		}
		c.JSON(http.StatusOK, ratingView(rate))
	}
}

// DELETE /api/products/:slug/rating
func DeleteRating(db *gorm.DB, loader *cache.Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := productBySlug(c, db)
		if err != nil {
			c.Error(err)
			return
		}
		ctx := c.Request.Context()

		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Where("user_id = ? AND product_id = ?", middleware.CurrentUserID(c), product.ID).Delete(&models.Rate{})
			if res.Error != nil {
				return apperr.Internal("delete rating", res.Error)
			}
			if res.RowsAffected == 0 {
				return apperr.NotFound("you have not rated this product")
			}
			return recomputeRating(tx, product.ID)
		})
		if err != nil {
			c.Error(err)
			return
		}
		invalidate(ctx, loader)
		c.JSON(http.StatusOK, controllers.Message("Rating removed"))
	}
}

func recomputeRating(tx *gorm.DB, productID uint) error {
	var agg struct {
		Average float64
		Count   int
	}
	err := tx.Model(&models.Rate{}).
		Select("COALESCE(AVG(value), 0) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		return apperr.Internal("aggregate ratings", err)
	}
	err = tx.Model(&models.Product{}).Where("id = ?", productID).UpdateColumns(map[string]any{
		"average_rating": math.Round(agg.Average*100) / 100,
		"rating_count":   agg.Count,
	}).Error
	if err != nil {
		return apperr.Internal("update product rating", err)
	}
	return nil
}
