package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/junaidrashid-git/market-hub/models"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer renders the transactional templates and hands them to a Sender.
type Mailer struct {
	sender Sender
	appURL string
	tmpl   *template.Template
}

func New(sender Sender, appURL string) (*Mailer, error) {
	tmpl, err := template.New("mail").Funcs(template.FuncMap{
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Mailer{sender: sender, appURL: appURL, tmpl: tmpl}, nil
}

func (m *Mailer) VerifyEmail(ctx context.Context, user models.User, token string) error {
	return m.send(ctx, user.Email, "Verify your Market Hub email", "verify_email.html", map[string]any{
		"Name": user.Name,
		"Link": fmt.Sprintf("%s/verify-email?token=%s", m.appURL, token),
	})
}

func (m *Mailer) ResetPassword(ctx context.Context, user models.User, token string) error {
	return m.send(ctx, user.Email, "Reset your Market Hub password", "reset_password.html", map[string]any{
		"Name": user.Name,
		"Link": fmt.Sprintf("%s/reset-password?token=%s", m.appURL, token),
	})
}

func (m *Mailer) OrderConfirmation(ctx context.Context, user models.User, order models.Order) error {
	return m.send(ctx, user.Email, "Your Market Hub order "+order.Ref, "order_confirmation.html", map[string]any{
		"Name":  user.Name,
		"Order": order,
		"Link":  fmt.Sprintf("%s/orders/%s", m.appURL, order.Ref),
	})
}

func (m *Mailer) send(ctx context.Context, to, subject, name string, data map[string]any) error {
	var buf bytes.Buffer
	if err := m.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	if err := m.sender.Send(ctx, Message{To: to, Subject: subject, HTML: buf.String()}); err != nil {
		return fmt.Errorf("send %s: %w", name, err)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them. Used when
// no email provider is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "email not delivered (no provider configured)", "to", msg.To, "subject", msg.Subject)
	return nil
}
