// Package events carries order lifecycle notifications to the admin feed and,
// when configured, to Kafka.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	OrderPlaced        Type = "order.placed"
	OrderStatusChanged Type = "order.status_changed"
	OrderCancelled     Type = "order.cancelled"
	OrderDeleted       Type = "order.deleted"
)

type Event struct {
	Type          Type            `json:"type"`
	OrderRef      string          `json:"order_ref"`
	UserID        string          `json:"user_id,omitempty"`
	Status        string          `json:"status,omitempty"`
	PaymentStatus string          `json:"payment_status,omitempty"`
	Total         decimal.Decimal `json:"total"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Fanout delivers to every publisher and joins the failures.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Emit publishes e and logs a failure instead of returning it. Order writes
// have already committed when events go out.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "publish event failed", "type", e.Type, "order_ref", e.OrderRef, "error", err)
	}
}
