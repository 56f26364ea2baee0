package couponControllers

import (
	"errors"
	"strings"
	"time"

	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func couponError(msg string) error {
	return apperr.Field("coupon_code", msg)
}

// Discount checks that coupon can be applied to subtotal at now and returns
// the amount taken off, rounded to cents and never more than subtotal.
func Discount(coupon models.Coupon, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	switch {
	case !coupon.Active:
		return decimal.Zero, couponError("this coupon is not active")
	case coupon.StartsAt != nil && now.Before(*coupon.StartsAt):
		return decimal.Zero, couponError("this coupon is not valid yet")
	case coupon.ExpiresAt != nil && !now.Before(*coupon.ExpiresAt):
		return decimal.Zero, couponError("this coupon has expired")
	case coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit:
		return decimal.Zero, couponError("this coupon has reached its usage limit")
	case subtotal.LessThan(coupon.MinOrderAmount):
		return decimal.Zero, couponError("order subtotal must be at least " + coupon.MinOrderAmount.StringFixed(2))
	}

	var amount decimal.Decimal
	switch coupon.DiscountType {
	case models.DiscountPercent:
		amount = subtotal.Mul(coupon.DiscountValue).Div(hundred)
		if coupon.MaxDiscount.IsPositive() && amount.GreaterThan(coupon.MaxDiscount) {
			amount = coupon.MaxDiscount
		}
	case models.DiscountFixed:
		amount = coupon.DiscountValue
	default:
		return decimal.Zero, couponError("this coupon cannot be applied")
	}
	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	return amount.Round(2), nil
}

// Lookup loads a coupon by code and prices it against subtotal.
func Lookup(tx *gorm.DB, code string, subtotal decimal.Decimal, now time.Time) (*models.Coupon, decimal.Decimal, error) {
	var coupon models.Coupon
	if err := tx.Where("code = ?", NormalizeCode(code)).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, decimal.Zero, couponError("coupon not found")
		}
		return nil, decimal.Zero, apperr.Internal("load coupon", err)
	}
	amount, err := Discount(coupon, subtotal, now)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return &coupon, amount, nil
}

// Redeem takes one use of the coupon. The conditional update keeps concurrent
// checkouts from going over the limit.
func Redeem(tx *gorm.DB, coupon *models.Coupon) error {
	res := tx.Model(&models.Coupon{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", coupon.ID).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return apperr.Internal("redeem coupon", res.Error)
	}
	if res.RowsAffected == 0 {
		return couponError("this coupon has reached its usage limit")
	}
	return nil
}

// Release gives back a use taken by a cancelled order.
func Release(tx *gorm.DB, couponID uint) error {
	return tx.Model(&models.Coupon{}).
		Where("id = ? AND used_count > 0", couponID).
		UpdateColumn("used_count", gorm.Expr("used_count - 1")).Error
}
