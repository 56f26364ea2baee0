package productcontroller

import (
	"context"
	"net/http"
	"testing"

	"github.com/junaidrashid-git/market-hub/events"
	"github.com/junaidrashid-git/market-hub/models"
	"github.com/junaidrashid-git/market-hub/testutil"
	"github.com/junaidrashid-git/market-hub/testutil/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockSync_DropsProductDetailOnStockMoves(t *testing.T) {
	e := setup(t)
	vendor := testutil.CreateUser(t, e.db, models.RoleVendor)
	p := testutil.CreateProduct(t, e.db, vendor, "Lamp", "30", 4)
	key := "markethub:catalog:product:" + p.Slug
	sync := StockSync{Loader: e.loader}
	ctx := context.Background()

	cases := []struct {
		event events.Event
		drops bool
	}{
		{events.Event{Type: events.OrderPlaced}, true},
		{events.Event{Type: events.OrderCancelled, Status: "cancelled"}, true},
		{events.Event{Type: events.OrderDeleted}, true},
		{events.Event{Type: events.OrderStatusChanged, Status: "returned"}, true},
		{events.Event{Type: events.OrderStatusChanged, Status: "shipped"}, false},
		{events.Event{Type: events.OrderStatusChanged, Status: "pending", PaymentStatus: "paid"}, false},
	}
	for _, tc := range cases {
		w := apitest.Do(e.r, http.MethodGet, "/api/products/"+p.Slug, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		require.True(t, e.redis.Exists(key))

		require.NoError(t, sync.Publish(ctx, tc.event))
		assert.Equal(t, tc.drops, !e.redis.Exists(key), "%s %s", tc.event.Type, tc.event.Status)
	}
}

func TestStockSync_ServesFreshStockAfterCheckout(t *testing.T) {
	e := setup(t)
	vendor := testutil.CreateUser(t, e.db, models.RoleVendor)
	p := testutil.CreateProduct(t, e.db, vendor, "Lamp", "30", 4)

	w := apitest.Do(e.r, http.MethodGet, "/api/products/"+p.Slug, nil, "")
	require.Equal(t, 4, apitest.Decode[models.ProductView](t, w).Stock)

	require.NoError(t, e.db.Model(&models.Product{}).Where("id = ?", p.ID).Update("stock", 1).Error)
	require.NoError(t, StockSync{Loader: e.loader}.Publish(context.Background(), events.Event{Type: events.OrderPlaced}))

	w = apitest.Do(e.r, http.MethodGet, "/api/products/"+p.Slug, nil, "")
	assert.Equal(t, 1, apitest.Decode[models.ProductView](t, w).Stock)
}

func TestStockSync_NilLoader(t *testing.T) {
	assert.NoError(t, StockSync{}.Publish(context.Background(), events.Event{Type: events.OrderPlaced}))
}
