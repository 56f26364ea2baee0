package orderControllers

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/controllers"
	couponControllers "github.com/junaidrashid-git/market-hub/controllers/coupon"
	"github.com/junaidrashid-git/market-hub/events"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var orderSorts = pagination.Sorts{"created_at": "orders.created_at", "total": "orders.total", "status": "orders.status"}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items")
}

func withItemsAndUser(db *gorm.DB) *gorm.DB {
	return db.Preload("Items").Preload("User")
}

func statusFilter(c *gin.Context, query *gorm.DB) (*gorm.DB, error) {
	if raw := c.Query("status"); raw != "" {
		if !slices.Contains(models.OrderStatuses, models.OrderStatus(raw)) {
			return nil, apperr.Field("status", "is not a valid order status")
		}
		query = query.Where("orders.status = ?", raw)
	}
	if raw := c.Query("payment_status"); raw != "" {
		if !slices.Contains(models.PaymentStatuses, models.PaymentStatus(raw)) {
			return nil, apperr.Field("payment_status", "is not a valid payment status")
		}
		query = query.Where("orders.payment_status = ?", raw)
	}
	return query, nil
}

// restock returns the order's items to the shelf, including products that
// have since been withdrawn.
func restock(tx *gorm.DB, order *models.Order) error {
	for _, item := range order.Items {
		err := tx.Unscoped().Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error
		if err != nil {
			return apperr.Internal("restock", err)
		}
	}
	return nil
}

// releaseHoldings undoes what checkout took: stock and the coupon use.
func releaseHoldings(tx *gorm.DB, order *models.Order) error {
	if err := restock(tx, order); err != nil {
		return err
	}
	if order.CouponID != nil {
		if err := couponControllers.Release(tx, *order.CouponID); err != nil {
			return apperr.Internal("release coupon", err)
		}
	}
	return nil
}

// GET /api/user/orders
func ListMyOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := pagination.Parse(c, orderSorts, "created_at")
		if err != nil {
			c.Error(err)
			return
		}
		query := db.WithContext(c.Request.Context()).Model(&models.Order{}).Where("orders.user_id = ?", middleware.CurrentUserID(c))
		if query, err = statusFilter(c, query); err != nil {
			c.Error(err)
			return
		}
		page, err := pagination.Paginate[models.Order](query, p, withItems)
		if err != nil {
			c.Error(apperr.Internal("list orders", err))
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// GET /api/user/orders/:ref
func GetMyOrder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var order models.Order
		err := withItems(db.WithContext(c.Request.Context())).
			Where("ref = ? AND user_id = ?", c.Param("ref"), middleware.CurrentUserID(c)).
			First(&order).Error
		if err != nil {
			c.Error(apperr.NotFoundOr(err, "order not found"))
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// POST /api/user/orders/:ref/cancel
func CancelMyOrder(db *gorm.DB, pub events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var order models.Order
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := withItems(tx).Where("ref = ? AND user_id = ?", c.Param("ref"), middleware.CurrentUserID(c)).First(&order).Error; err != nil {
				return apperr.NotFoundOr(err, "order not found")
			}
			if !order.Status.Cancellable() {
				return apperr.Validation("this order can no longer be cancelled")
			}
			// Guard against an admin moving the order on concurrently.
			res := tx.Model(&models.Order{}).
				Where("id = ? AND status IN ?", order.ID, []models.OrderStatus{models.OrderStatusPending, models.OrderStatusConfirmed}).
				Update("status", models.OrderStatusCancelled)
			if res.Error != nil {
				return apperr.Internal("cancel order", res.Error)
			}
			if res.RowsAffected == 0 {
				return apperr.Validation("this order can no longer be cancelled")
			}
			order.Status = models.OrderStatusCancelled
			return releaseHoldings(tx, &order)
		})
		if err != nil {
			c.Error(err)
			return
		}
		events.Emit(ctx, pub, orderEvent(events.OrderCancelled, &order))
		c.JSON(http.StatusOK, order)
	}
}

// GET /api/admin/orders
func ListOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := pagination.Parse(c, orderSorts, "created_at")
		if err != nil {
			c.Error(err)
			return
		}
		query := db.WithContext(c.Request.Context()).Model(&models.Order{})
		if query, err = statusFilter(c, query); err != nil {
			c.Error(err)
			return
		}
		if p.Search != "" {
			query = query.Where("LOWER(orders.ref) LIKE ?", p.Like())
		}
		if userID := c.Query("user"); userID != "" {
			query = query.Where("orders.user_id = ?", userID)
		}
		page, err := pagination.Paginate[models.Order](query, p, withItemsAndUser)
		if err != nil {
			c.Error(apperr.Internal("list orders", err))
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// GET /api/admin/orders/:ref
func GetOrder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var order models.Order
		if err := withItemsAndUser(db.WithContext(c.Request.Context())).Where("ref = ?", c.Param("ref")).First(&order).Error; err != nil {
			c.Error(apperr.NotFoundOr(err, "order not found"))
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PATCH /api/admin/orders/:ref/status
// Entering cancelled or returned puts the stock back; cancelling also returns
// the coupon use. Both are final.
func UpdateOrderStatus(db *gorm.DB, pub events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Status models.OrderStatus `json:"status" binding:"required,oneof=pending confirmed ready_to_ship shipped delivered returned cancelled"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		ctx := c.Request.Context()

		var order models.Order
		changed := false
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := withItems(tx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("ref = ?", c.Param("ref")).First(&order).Error; err != nil {
				return apperr.NotFoundOr(err, "order not found")
			}
			if order.Status == req.Status {
				return nil
			}
			if order.Status.ReleasesStock() {
				return apperr.Field("status", "cancelled and returned orders cannot change status")
			}
			if err := tx.Model(&order).Update("status", req.Status).Error; err != nil {
				return apperr.Internal("update status", err)
			}
			order.Status = req.Status
			changed = true
			switch req.Status {
			case models.OrderStatusCancelled:
				return releaseHoldings(tx, &order)
			case models.OrderStatusReturned:
				return restock(tx, &order)
			}
			return nil
		})
		if err != nil {
			c.Error(err)
			return
		}
		if changed {
			events.Emit(ctx, pub, orderEvent(events.OrderStatusChanged, &order))
		}
		c.JSON(http.StatusOK, order)
	}
}

// PATCH /api/admin/orders/:ref/payment-status
func UpdatePaymentStatus(db *gorm.DB, pub events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			PaymentStatus models.PaymentStatus `json:"payment_status" binding:"required,oneof=pending paid failed refunded"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}
		ctx := c.Request.Context()

		var order models.Order
		if err := withItems(db.WithContext(ctx)).Where("ref = ?", c.Param("ref")).First(&order).Error; err != nil {
			c.Error(apperr.NotFoundOr(err, "order not found"))
			return
		}
		if order.PaymentStatus == req.PaymentStatus {
			c.JSON(http.StatusOK, order)
			return
		}
		if err := db.WithContext(ctx).Model(&order).Update("payment_status", req.PaymentStatus).Error; err != nil {
			c.Error(apperr.Internal("update payment status", err))
			return
		}
		order.PaymentStatus = req.PaymentStatus
		events.Emit(ctx, pub, orderEvent(events.OrderStatusChanged, &order))
		c.JSON(http.StatusOK, order)
	}
}

// DELETE /api/admin/orders/:ref
// Removing an order that still holds stock releases it first.
func DeleteOrder(db *gorm.DB, pub events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var order models.Order
		err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := withItems(tx).Where("ref = ?", c.Param("ref")).First(&order).Error; err != nil {
				return apperr.NotFoundOr(err, "order not found")
			}
			if !order.Status.ReleasesStock() {
				if err := releaseHoldings(tx, &order); err != nil {
					return err
				}
			}
			if err := tx.Select("Items").Delete(&order).Error; err != nil {
				return apperr.Internal("delete order", err)
			}
			return nil
		})
		if err != nil {
			c.Error(err)
			return
		}
		events.Emit(ctx, pub, orderEvent(events.OrderDeleted, &order))
		c.JSON(http.StatusOK, controllers.Message("Order deleted"))
	}
}
