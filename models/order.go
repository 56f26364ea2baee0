package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type PaymentStatus string

const (
	// Order statuses (typical e-commerce flow)
	OrderStatusPending     OrderStatus = "pending"       // Order placed, awaiting confirmation
	OrderStatusConfirmed   OrderStatus = "confirmed"     // Confirmed by seller
	OrderStatusReadyToShip OrderStatus = "ready_to_ship" // Packed and ready for dispatch
	OrderStatusShipped     OrderStatus = "shipped"       // Out for delivery
	OrderStatusDelivered   OrderStatus = "delivered"     // Customer received the item
	OrderStatusReturned    OrderStatus = "returned"      // Customer returned the item
	OrderStatusCancelled   OrderStatus = "cancelled"     // Cancelled before shipping

	// Payment statuses
	PaymentStatusPending  PaymentStatus = "pending"  // Payment not completed yet
	PaymentStatusPaid     PaymentStatus = "paid"     // Payment completed successfully
	PaymentStatusFailed   PaymentStatus = "failed"   // Payment attempt failed
	PaymentStatusRefunded PaymentStatus = "refunded" // Money returned to customer
)

const (
	PaymentMethodCOD  = "cod"
	PaymentMethodCard = "card"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending, OrderStatusConfirmed, OrderStatusReadyToShip, OrderStatusShipped,
	OrderStatusDelivered, OrderStatusReturned, OrderStatusCancelled,
}

var PaymentStatuses = []PaymentStatus{
	PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded,
}

// ReleasesStock reports whether entering this status puts the items back on the shelf.
func (s OrderStatus) ReleasesStock() bool {
	return s == OrderStatusCancelled || s == OrderStatusReturned
}

// Cancellable reports whether the customer may still cancel.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Ref             string          `gorm:"uniqueIndex;not null;size:64" json:"ref"`
	UserID          string          `gorm:"size:36;index;not null" json:"user_id"`
	User            *User           `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Discount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	ShippingCost    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping_cost"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	CouponID        *uint           `gorm:"index" json:"coupon_id,omitempty"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	Status          OrderStatus     `gorm:"type:VARCHAR(20);default:'pending';index" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"type:VARCHAR(20);default:'pending'" json:"payment_status"`
	PaymentMethod   string          `gorm:"type:VARCHAR(20)" json:"payment_method"` // "card" or "cod"
	ShippingAddress Address         `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	Note            string          `json:"note,omitempty"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      uint            `gorm:"index;not null" json:"order_id"`
	ProductID    uint            `gorm:"index;not null" json:"product_id"`
	VendorID     string          `gorm:"size:36;index" json:"vendor_id"`
	ProductName  string          `json:"product_name"`
	ProductSlug  string          `json:"product_slug"`
	ProductImage string          `json:"product_image"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	LineTotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
}
