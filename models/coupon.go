package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

type Coupon struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Code           string          `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Description    string          `json:"description"`
	DiscountType   DiscountType    `gorm:"type:VARCHAR(10);not null" json:"discount_type"`
	DiscountValue  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_value"`
	MinOrderAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"min_order_amount"`
	MaxDiscount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"max_discount"` // 0 = uncapped
	UsageLimit     int             `gorm:"not null;default:0" json:"usage_limit"`                     // 0 = unlimited
	UsedCount      int             `gorm:"not null;default:0" json:"used_count"`
	StartsAt       *time.Time      `json:"starts_at"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	Active         bool            `gorm:"not null" json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type Rate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:36;uniqueIndex:idx_rate_user_product;not null" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ProductID uint      `gorm:"uniqueIndex:idx_rate_user_product;index;not null" json:"product_id"`
	Value     int       `gorm:"not null" json:"value"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&User{},
		&Token{},
		&Category{},
		&Brand{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Coupon{},
		&Order{},
		&OrderItem{},
		&Rate{},
	}
}
