package orderControllers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/junaidrashid-git/market-hub/apperr"
	couponControllers "github.com/junaidrashid-git/market-hub/controllers/coupon"
	"github.com/junaidrashid-git/market-hub/events"
	"github.com/junaidrashid-git/market-hub/mailer"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShippingRates is a flat fee waived once the discounted subtotal reaches
// FreeThreshold. A zero threshold never waives it.
type ShippingRates struct {
	FlatRate      decimal.Decimal
	FreeThreshold decimal.Decimal
}

func (s ShippingRates) Cost(net decimal.Decimal) decimal.Decimal {
	if s.FreeThreshold.IsPositive() && net.GreaterThanOrEqual(s.FreeThreshold) {
		return decimal.Zero
	}
	return s.FlatRate.Round(2)
}

type addressInput struct {
	Street     string `json:"street" binding:"max=200"`
	City       string `json:"city" binding:"max=100"`
	State      string `json:"state" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Country    string `json:"country" binding:"max=100"`
}

func (a addressInput) address() models.Address {
	return models.Address{
		Street:     strings.TrimSpace(a.Street),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
	}
}

type PlaceOrderRequest struct {
	ShippingAddress *addressInput `json:"shipping_address"`
	PaymentMethod   string        `json:"payment_method" binding:"omitempty,oneof=cod card"`
	CouponCode      string        `json:"coupon_code" binding:"max=50"`
	Note            string        `json:"note" binding:"max=500"`
}

func shippingAddress(req PlaceOrderRequest, user *models.User) (models.Address, error) {
	addr := user.Address
	if req.ShippingAddress != nil {
		addr = req.ShippingAddress.address()
	}
	if addr.Street == "" || addr.City == "" || addr.Country == "" {
		return models.Address{}, apperr.Field("shipping_address", "street, city and country are required")
	}
	return addr, nil
}

// Generate unique order reference, e.g. 20250908130500-<uuid4>
func generateOrderRef(now time.Time) string {
	return now.UTC().Format("20060102150405") + "-" + uuid.NewString()
}

// PlaceOrder turns the user's cart into an order in one transaction. Stock is
// taken with conditional updates so two checkouts can never oversell.
func PlaceOrder(ctx context.Context, db *gorm.DB, user *models.User, req PlaceOrderRequest, rates ShippingRates) (*models.Order, error) {
	addr, err := shippingAddress(req, user)
	if err != nil {
		return nil, err
	}
	method := req.PaymentMethod
	if method == "" {
		method = models.PaymentMethodCOD
	}
	now := time.Now()

	var order models.Order
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Preload("Items.Product").Where("user_id = ?", user.ID).First(&cart).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Internal("load cart", err)
		}
		if len(cart.Items) == 0 {
			return apperr.Validation("your cart is empty")
		}

		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			product := item.Product
			if product == nil {
				return apperr.Validation("a product in your cart is no longer available")
			}
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", product.ID, item.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return apperr.Internal("reserve stock", res.Error)
			}
			if res.RowsAffected == 0 {
				return apperr.Validation(fmt.Sprintf("insufficient stock for %s", product.Name))
			}

			line := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
			subtotal = subtotal.Add(line)
			image := ""
			if len(product.Images) > 0 {
				image = product.Images[0]
			}
			items = append(items, models.OrderItem{
				ProductID:    product.ID,
				VendorID:     product.VendorID,
				ProductName:  product.Name,
				ProductSlug:  product.Slug,
				ProductImage: image,
				UnitPrice:    product.Price,
				Quantity:     item.Quantity,
				LineTotal:    line,
			})
		}

		discount := decimal.Zero
		var couponID *uint
		var couponCode string
		if strings.TrimSpace(req.CouponCode) != "" {
			coupon, amount, err := couponControllers.Lookup(tx, req.CouponCode, subtotal, now)
			if err != nil {
				return err
			}
			if err := couponControllers.Redeem(tx, coupon); err != nil {
				return err
			}
			discount, couponID, couponCode = amount, &coupon.ID, coupon.Code
		}

		shipping := rates.Cost(subtotal.Sub(discount))
		order = models.Order{
			Ref:             generateOrderRef(now),
			UserID:          user.ID,
			Items:           items,
			Subtotal:        subtotal,
			Discount:        discount,
			ShippingCost:    shipping,
			Total:           subtotal.Sub(discount).Add(shipping).Round(2),
			CouponID:        couponID,
			CouponCode:      couponCode,
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusPending,
			PaymentMethod:   method,
			ShippingAddress: addr,
			Note:            strings.TrimSpace(req.Note),
		}
		if err := tx.Create(&order).Error; err != nil {
			return apperr.Internal("create order", err)
		}
		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
			return apperr.Internal("clear cart", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// POST /api/user/orders
func PlaceOrderHandler(db *gorm.DB, rates ShippingRates, mail *mailer.Mailer, pub events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		user, _ := middleware.CurrentUser(c)
		ctx := c.Request.Context()

		order, err := PlaceOrder(ctx, db, user, req, rates)
		if err != nil {
			c.Error(err)
			return
		}
		slog.InfoContext(ctx, "order placed", "order_ref", order.Ref, "user_id", user.ID, "total", order.Total.String())

		events.Emit(ctx, pub, orderEvent(events.OrderPlaced, order))
		if err := mail.OrderConfirmation(ctx, *user, *order); err != nil {
			slog.ErrorContext(ctx, "send order confirmation failed", "order_ref", order.Ref, "error", err)
		}
		c.JSON(http.StatusCreated, order)
	}
}

func orderEvent(t events.Type, order *models.Order) events.Event {
	return events.Event{
		Type:          t,
		OrderRef:      order.Ref,
		UserID:        order.UserID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		Total:         order.Total,
	}
}
