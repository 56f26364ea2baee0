package couponControllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/controllers"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var couponSorts = pagination.Sorts{"created_at": "created_at", "code": "code", "expires_at": "expires_at", "used_count": "used_count"}

type couponRequest struct {
	Code           *string          `json:"code" binding:"omitempty,min=3,max=50,alphanum"`
	Description    *string          `json:"description" binding:"omitempty,max=500"`
	DiscountType   *string          `json:"discount_type" binding:"omitempty,oneof=percent fixed"`
	DiscountValue  *decimal.Decimal `json:"discount_value"`
	MinOrderAmount *decimal.Decimal `json:"min_order_amount"`
	MaxDiscount    *decimal.Decimal `json:"max_discount"`
	UsageLimit     *int             `json:"usage_limit" binding:"omitempty,gte=0"`
	StartsAt       *time.Time       `json:"starts_at"`
	ExpiresAt      *time.Time       `json:"expires_at"`
	ClearStartsAt  bool             `json:"clear_starts_at"`
	ClearExpiresAt bool             `json:"clear_expires_at"`
	Active         *bool            `json:"active"`
}

func (r couponRequest) apply(c *models.Coupon) {
	if r.Code != nil {
		c.Code = NormalizeCode(*r.Code)
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.DiscountType != nil {
		c.DiscountType = models.DiscountType(*r.DiscountType)
	}
	if r.DiscountValue != nil {
		c.DiscountValue = r.DiscountValue.Round(2)
	}
	if r.MinOrderAmount != nil {
		c.MinOrderAmount = r.MinOrderAmount.Round(2)
	}
	if r.MaxDiscount != nil {
		c.MaxDiscount = r.MaxDiscount.Round(2)
	}
	if r.UsageLimit != nil {
		c.UsageLimit = *r.UsageLimit
	}
	if r.StartsAt != nil {
		c.StartsAt = r.StartsAt
	} else if r.ClearStartsAt {
		c.StartsAt = nil
	}
	if r.ExpiresAt != nil {
		c.ExpiresAt = r.ExpiresAt
	} else if r.ClearExpiresAt {
		c.ExpiresAt = nil
	}
	if r.Active != nil {
		c.Active = *r.Active
	}
}

func validateCoupon(c models.Coupon) error {
	switch {
	case c.Code == "":
		return apperr.Field("code", "is required")
	case c.DiscountType != models.DiscountPercent && c.DiscountType != models.DiscountFixed:
		return apperr.Field("discount_type", "must be one of: percent, fixed")
	case !c.DiscountValue.IsPositive():
		return apperr.Field("discount_value", "must be greater than 0")
	case c.DiscountType == models.DiscountPercent && c.DiscountValue.GreaterThan(hundred):
		return apperr.Field("discount_value", "must be at most 100 for percent coupons")
	case c.MinOrderAmount.IsNegative():
		return apperr.Field("min_order_amount", "must not be negative")
	case c.MaxDiscount.IsNegative():
		return apperr.Field("max_discount", "must not be negative")
	case c.StartsAt != nil && c.ExpiresAt != nil && !c.ExpiresAt.After(*c.StartsAt):
		return apperr.Field("expires_at", "must be after starts_at")
	}
	return nil
}

func saveError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Field("code", "is already in use")
	}
	return apperr.Internal("save coupon", err)
}

// GET /api/admin/coupons
func ListCoupons(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := pagination.Parse(c, couponSorts, "created_at")
		if err != nil {
			c.Error(err)
			return
		}
		query := db.WithContext(c.Request.Context()).Model(&models.Coupon{})
		if p.Search != "" {
			query = query.Where("LOWER(code) LIKE ? OR LOWER(description) LIKE ?", p.Like(), p.Like())
		}
		active, err := controllers.BoolQuery(c, "active")
		if err != nil {
			c.Error(err)
			return
		}
		if active != nil {
			query = query.Where("active = ?", *active)
		}
		page, err := pagination.Paginate[models.Coupon](query, p)
		if err != nil {
			c.Error(apperr.Internal("list coupons", err))
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// GET /api/admin/coupons/:id
func GetCoupon(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := controllers.UintParam(c, "id")
		if err != nil {
			c.Error(err)
			return
		}
		var coupon models.Coupon
		if err := db.WithContext(c.Request.Context()).First(&coupon, id).Error; err != nil {
			c.Error(apperr.NotFoundOr(err, "coupon not found"))
			return
		}
		c.JSON(http.StatusOK, coupon)
	}
}

// POST /api/admin/coupons
func CreateCoupon(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req couponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		coupon := models.Coupon{Active: true}
		req.apply(&coupon)
		if err := validateCoupon(coupon); err != nil {
			c.Error(err)
			return
		}
		if err := db.WithContext(c.Request.Context()).Create(&coupon).Error; err != nil {
			c.Error(saveError(err))
			return
		}
		c.JSON(http.StatusCreated, coupon)
	}
}

// PUT /api/admin/coupons/:id
func UpdateCoupon(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := controllers.UintParam(c, "id")
		if err != nil {
			c.Error(err)
			return
		}
		var req couponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		ctx := c.Request.Context()

		var coupon models.Coupon
		if err := db.WithContext(ctx).First(&coupon, id).Error; err != nil {
			c.Error(apperr.NotFoundOr(err, "coupon not found"))
			return
		}
		req.apply(&coupon)
		if err := validateCoupon(coupon); err != nil {
			c.Error(err)
			return
		}
		// used_count belongs to Redeem and Release; never write it back from here.
		err = db.WithContext(ctx).Model(&coupon).Select("*").Omit("id", "used_count", "created_at").Updates(&coupon).Error
		if err != nil {
			c.Error(saveError(err))
			return
		}
		if err := db.WithContext(ctx).First(&coupon, id).Error; err != nil {
			c.Error(apperr.Internal("reload coupon", err))
			return
		}
		c.JSON(http.StatusOK, coupon)
	}
}

// DELETE /api/admin/coupons/:id
// Orders keep their coupon_code snapshot after the coupon is gone.
func DeleteCoupon(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := controllers.UintParam(c, "id")
		if err != nil {
			c.Error(err)
			return
		}
		ctx := c.Request.Context()
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Order{}).Where("coupon_id = ?", id).Update("coupon_id", nil).Error; err != nil {
				return apperr.Internal("unlink coupon", err)
			}
			res := tx.Delete(&models.Coupon{}, id)
			if res.Error != nil {
				return apperr.Internal("delete coupon", res.Error)
			}
			if res.RowsAffected == 0 {
				return apperr.NotFound("coupon not found")
			}
			return nil
		})
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, controllers.Message("Coupon deleted"))
	}
}

// POST /api/coupons/validate previews a coupon against the caller's cart.
func ValidateCoupon(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Code string `json:"coupon_code" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		tx := db.WithContext(c.Request.Context())

		var cart models.Cart
		err := tx.Preload("Items.Product").Where("user_id = ?", middleware.CurrentUserID(c)).First(&cart).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			c.Error(apperr.Internal("load cart", err))
			return
		}
		subtotal := cart.Subtotal()

		coupon, amount, err := Lookup(tx, req.Code, subtotal, time.Now())
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"valid":         true,
			"code":          coupon.Code,
			"discount_type": coupon.DiscountType,
			"subtotal":      subtotal,
			"discount":      amount,
			"total":         subtotal.Sub(amount),
		})
	}
}
