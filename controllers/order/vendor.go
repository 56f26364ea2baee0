package orderControllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/pagination"
	"gorm.io/gorm"
)

// VendorOrderItem is one line a vendor has to fulfil, with its order's state.
type VendorOrderItem struct {
	models.OrderItem
	OrderRef      string               `json:"order_ref"`
	OrderStatus   models.OrderStatus   `json:"order_status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	OrderedAt     time.Time            `json:"ordered_at"`
	ShipCity      string               `json:"ship_city"`
	ShipCountry   string               `json:"ship_country"`
}

var vendorItemSorts = pagination.Sorts{"created_at": "orders.created_at", "line_total": "order_items.line_total"}

// GET /api/vendor/orders
func ListVendorOrderItems(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := pagination.Parse(c, vendorItemSorts, "created_at")
		if err != nil {
			c.Error(err)
			return
		}
		query := db.WithContext(c.Request.Context()).Model(&models.OrderItem{}).
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("order_items.vendor_id = ?", middleware.CurrentUserID(c))
		if query, err = statusFilter(c, query); err != nil {
			c.Error(err)
			return
		}
		if p.Search != "" {
			query = query.Where("(LOWER(order_items.product_name) LIKE ? OR LOWER(orders.ref) LIKE ?)", p.Like(), p.Like())
		}

		page, err := pagination.Paginate[VendorOrderItem](query, p, func(q *gorm.DB) *gorm.DB {
			return q.Select("order_items.*, orders.ref AS order_ref, orders.status AS order_status, " +
				"orders.payment_status AS payment_status, orders.created_at AS ordered_at, " +
				"orders.ship_city AS ship_city, orders.ship_country AS ship_country")
		})
		if err != nil {
			c.Error(apperr.Internal("list vendor orders", err))
			return
		}
		c.JSON(http.StatusOK, page)
	}
}
