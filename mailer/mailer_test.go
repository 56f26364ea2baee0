package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/junaidrashid-git/market-hub/models"
	"github.com/resend/resend-go/v2"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestVerifyEmail(t *testing.T) {
	rec := &recordingSender{}
	m, err := New(rec, "https://shop.example.com")
	require.NoError(t, err)

	err = m.VerifyEmail(context.Background(), models.User{Email: "a@example.com", Name: "Ana"}, "tok123")
	require.NoError(t, err)

	require.Len(t, rec.sent, 1)
	msg := rec.sent[0]
	assert.Equal(t, "a@example.com", msg.To)
	assert.Contains(t, msg.Subject, "Verify")
	assert.Contains(t, msg.HTML, "Welcome to Market Hub, Ana!")
	assert.Contains(t, msg.HTML, "https://shop.example.com/verify-email?token=tok123")
}

func TestResetPassword_EscapesName(t *testing.T) {
	rec := &recordingSender{}
	m, err := New(rec, "https://shop.example.com")
	require.NoError(t, err)

	require.NoError(t, m.ResetPassword(context.Background(), models.User{Email: "a@example.com", Name: "<script>"}, "t"))
	assert.NotContains(t, rec.sent[0].HTML, "<script>")
	assert.Contains(t, rec.sent[0].HTML, "&lt;script&gt;")
}

func TestOrderConfirmation(t *testing.T) {
	rec := &recordingSender{}
	m, err := New(rec, "https://shop.example.com")
	require.NoError(t, err)

	order := models.Order{
		Ref:          "20260101-abc",
		Status:       models.OrderStatusPending,
		Subtotal:     decimal.RequireFromString("40"),
		Discount:     decimal.RequireFromString("4"),
		ShippingCost: decimal.RequireFromString("5"),
		Total:        decimal.RequireFromString("41"),
		CouponCode:   "SAVE10",
		Items: []models.OrderItem{
			{ProductName: "Mug", Quantity: 2, LineTotal: decimal.RequireFromString("40")},
		},
	}
	require.NoError(t, m.OrderConfirmation(context.Background(), models.User{Email: "b@example.com"}, order))

	html := rec.sent[0].HTML
	assert.Contains(t, rec.sent[0].Subject, "20260101-abc")
	assert.Contains(t, html, "Mug")
	assert.Contains(t, html, "40.00")
	assert.Contains(t, html, "SAVE10")
	assert.Contains(t, html, "41.00")
	assert.Contains(t, html, "https://shop.example.com/orders/20260101-abc")
}

func TestSendError(t *testing.T) {
	m, err := New(&recordingSender{err: errors.New("smtp down")}, "")
	require.NoError(t, err)
	err = m.VerifyEmail(context.Background(), models.User{Email: "a@example.com"}, "t")
	assert.ErrorContains(t, err, "smtp down")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	failing := &recordingSender{err: errors.New("provider 500")}
	b := WithBreaker(failing, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorContains(t, b.Send(ctx, Message{To: "x"}), "provider 500")
	}
	assert.ErrorIs(t, b.Send(ctx, Message{To: "x"}), gobreaker.ErrOpenState)
}

type fakeEmailAPI struct {
	got *resend.SendEmailRequest
}

// SendWithContext fails like the HTTP client does once ctx is done.
func (f *fakeEmailAPI) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.got = params
	return &resend.SendEmailResponse{Id: "em_1"}, nil
}

func TestResendSender(t *testing.T) {
	api := &fakeEmailAPI{}
	s := &ResendSender{api: api, from: "Market Hub <hi@example.com>"}

	require.NoError(t, s.Send(context.Background(), Message{To: "c@example.com", Subject: "Hi", HTML: "<p>x</p>"}))
	assert.Equal(t, "Market Hub <hi@example.com>", api.got.From)
	assert.Equal(t, []string{"c@example.com"}, api.got.To)
	assert.Equal(t, "<p>x</p>", api.got.Html)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{To: "c@example.com"}), context.Canceled)
}

func TestResendSender_PassesContextToClient(t *testing.T) {
	type ctxKey struct{}
	var seen context.Context
	api := contextSpy(func(ctx context.Context) { seen = ctx })
	s := &ResendSender{api: api, from: "hi@example.com"}

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	require.NoError(t, s.Send(ctx, Message{To: "c@example.com"}))
	require.NotNil(t, seen)
	assert.Equal(t, "req-1", seen.Value(ctxKey{}))
}

type contextSpy func(ctx context.Context)

func (f contextSpy) SendWithContext(ctx context.Context, _ *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f(ctx)
	return &resend.SendEmailResponse{Id: "em_2"}, nil
}
