package adminController

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	defaultStatsDays = 30
	maxStatsDays     = 365
	topProductsLimit = 5
)

// Orders in these states no longer count as sales.
var unsold = []models.OrderStatus{models.OrderStatusCancelled, models.OrderStatusReturned}

type TopProduct struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitsSold   int64           `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type DailyRevenue struct {
	Date    string          `json:"date"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Stats struct {
	Days                int                          `json:"days"`
	Users               int64                        `json:"users"`
	Vendors             int64                        `json:"vendors"`
	PendingApplications int64                        `json:"pending_applications"`
	Products            int64                        `json:"products"`
	Orders              int64                        `json:"orders"`
	Revenue             decimal.Decimal              `json:"revenue"`
	OrdersByStatus      map[models.OrderStatus]int64 `json:"orders_by_status"`
	TopProducts         []TopProduct                 `json:"top_products"`
	DailyRevenue        []DailyRevenue               `json:"daily_revenue"`
}

func parseDays(c *gin.Context) (int, error) {
	raw := c.Query("days")
	if raw == "" {
		return defaultStatsDays, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxStatsDays {
		return 0, apperr.Field("days", "must be between 1 and 365")
	}
	return n, nil
}

// GET /api/admin/stats?days=N
func AdminStats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		days, err := parseDays(c)
		if err != nil {
			c.Error(err)
			return
		}
		stats, err := collectStats(c.Request.Context(), db, days, time.Now().UTC())
		if err != nil {
			c.Error(apperr.Internal("collect stats", err))
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func collectStats(ctx context.Context, db *gorm.DB, days int, now time.Time) (*Stats, error) {
	g, ctx := errgroup.WithContext(ctx)
	q := func() *gorm.DB { return db.WithContext(ctx) }
	since := startOfDay(now).AddDate(0, 0, -(days - 1))
	stats := &Stats{Days: days}

	g.Go(func() error {
		return q().Model(&models.User{}).Count(&stats.Users).Error
	})
	g.Go(func() error {
		return q().Model(&models.User{}).Where("role = ?", models.RoleVendor).Count(&stats.Vendors).Error
	})
	g.Go(func() error {
		return q().Model(&models.User{}).Where("vendor_status = ?", models.VendorStatusPending).Count(&stats.PendingApplications).Error
	})
	g.Go(func() error {
		return q().Model(&models.Product{}).Count(&stats.Products).Error
	})
	g.Go(func() error {
		return q().Model(&models.Order{}).Count(&stats.Orders).Error
	})
	g.Go(func() error {
		var row struct{ Revenue decimal.Decimal }
		err := q().Model(&models.Order{}).
			Select("COALESCE(SUM(total), 0) AS revenue").
			Where("payment_status = ? AND status <> ?", models.PaymentStatusPaid, models.OrderStatusCancelled).
			Scan(&row).Error
		stats.Revenue = row.Revenue
		return err
	})
	g.Go(func() error {
		var rows []struct {
			Status models.OrderStatus
			Count  int64
		}
		if err := q().Model(&models.Order{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
			return err
		}
		stats.OrdersByStatus = make(map[models.OrderStatus]int64, len(models.OrderStatuses))
		for _, s := range models.OrderStatuses {
			stats.OrdersByStatus[s] = 0
		}
		for _, r := range rows {
			stats.OrdersByStatus[r.Status] = r.Count
		}
		return nil
	})
	g.Go(func() error {
		stats.TopProducts = make([]TopProduct, 0, topProductsLimit)
		return q().Model(&models.OrderItem{}).
			Select("order_items.product_id, MAX(order_items.product_name) AS product_name, "+
				"SUM(order_items.quantity) AS units_sold, COALESCE(SUM(order_items.line_total), 0) AS revenue").
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("orders.status NOT IN ? AND orders.created_at >= ?", unsold, since).
			Group("order_items.product_id").
			Order("units_sold DESC").
			Limit(topProductsLimit).
			Scan(&stats.TopProducts).Error
	})
	g.Go(func() error {
		var orders []models.Order
		err := q().Select("created_at", "total").
			Where("payment_status = ? AND status <> ? AND created_at >= ?", models.PaymentStatusPaid, models.OrderStatusCancelled, since).
			Find(&orders).Error
		if err != nil {
			return err
		}
		stats.DailyRevenue = bucketByDay(orders, since, days)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// bucketByDay sums orders per UTC day, with an entry for every day in the window.
func bucketByDay(orders []models.Order, since time.Time, days int) []DailyRevenue {
	out := make([]DailyRevenue, days)
	index := make(map[string]int, days)
	for i := range out {
		day := since.AddDate(0, 0, i).Format(time.DateOnly)
		out[i] = DailyRevenue{Date: day, Revenue: decimal.Zero}
		index[day] = i
	}
	for _, o := range orders {
		i, ok := index[o.CreatedAt.UTC().Format(time.DateOnly)]
		if !ok {
			continue
		}
		out[i].Orders++
		out[i].Revenue = out[i].Revenue.Add(o.Total)
	}
	return out
}

type VendorStats struct {
	Products   int64           `json:"products"`
	OutOfStock int64           `json:"out_of_stock"`
	UnitsSold  int64           `json:"units_sold"`
	Revenue    decimal.Decimal `json:"revenue"`
	OpenOrders int64           `json:"open_orders"`
}

// GET /api/vendor/stats
func VendorStatsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		vendorID := middleware.CurrentUserID(c)
		g, ctx := errgroup.WithContext(c.Request.Context())
		q := func() *gorm.DB { return db.WithContext(ctx) }
		var stats VendorStats

		g.Go(func() error {
			return q().Model(&models.Product{}).Where("vendor_id = ?", vendorID).Count(&stats.Products).Error
		})
		g.Go(func() error {
			return q().Model(&models.Product{}).Where("vendor_id = ? AND stock = 0", vendorID).Count(&stats.OutOfStock).Error
		})
		g.Go(func() error {
			var row struct {
				UnitsSold int64
				Revenue   decimal.Decimal
			}
			err := q().Model(&models.OrderItem{}).
				Select("COALESCE(SUM(order_items.quantity), 0) AS units_sold, COALESCE(SUM(order_items.line_total), 0) AS revenue").
				Joins("JOIN orders ON orders.id = order_items.order_id").
				Where("order_items.vendor_id = ? AND orders.status NOT IN ?", vendorID, unsold).
				Scan(&row).Error
			stats.UnitsSold, stats.Revenue = row.UnitsSold, row.Revenue
			return err
		})
		g.Go(func() error {
			return q().Model(&models.Order{}).
				Where("status IN ?", []models.OrderStatus{models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusReadyToShip}).
				Where("EXISTS (SELECT 1 FROM order_items WHERE order_items.order_id = orders.id AND order_items.vendor_id = ?)", vendorID).
				Count(&stats.OpenOrders).Error
		})

		if err := g.Wait(); err != nil {
			c.Error(apperr.Internal("collect vendor stats", err))
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
