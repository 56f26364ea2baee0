package productcontroller

import (
	"context"

	"github.com/junaidrashid-git/market-hub/cache"
	"github.com/junaidrashid-git/market-hub/events"
	"github.com/junaidrashid-git/market-hub/models"
)

// StockSync drops cached product details whenever an order event means stock
// moved: a checkout took it, or a cancel, return or delete put it back.
type StockSync struct {
	Loader *cache.Loader
}

func (s StockSync) Publish(ctx context.Context, e events.Event) error {
	if s.Loader == nil || !movesStock(e) {
		return nil
	}
	s.Loader.Invalidate(ctx, productKeyPrefix)
	return nil
}

func movesStock(e events.Event) bool {
	switch e.Type {
	case events.OrderPlaced, events.OrderCancelled, events.OrderDeleted:
		return true
	case events.OrderStatusChanged:
		return models.OrderStatus(e.Status).ReleasesStock()
	}
	return false
}
