package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/sony/gobreaker/v2"
)

// emailAPI is the part of the Resend client the sender uses.
type emailAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type ResendSender struct {
	api  emailAPI
	from string
}

func NewResendSender(apiKey, from string) *ResendSender {
	client := resend.NewClient(apiKey)
	return &ResendSender{api: client.Emails, from: from}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	resp, err := s.api.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	slog.DebugContext(ctx, "email sent", "id", resp.Id, "subject", msg.Subject)
	return nil
}

// BreakerSender stops calling a provider that keeps failing and lets a probe
// through after the cool-down.
type BreakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func WithBreaker(next Sender, consecutiveFailures uint32, coolDown time.Duration) *BreakerSender {
	st := gobreaker.Settings{
		Name:        "mailer",
		MaxRequests: 1,
		Timeout:     coolDown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerSender{next: next, cb: gobreaker.NewCircuitBreaker[struct{}](st)}
}

func (b *BreakerSender) Send(ctx context.Context, msg Message) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Send(ctx, msg)
	})
	return err
}
