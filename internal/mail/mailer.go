package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/royaljewels/shop/internal/models"
)

// Mailer sends customer notifications. Delivery failures are a logging
// concern for callers, never a request failure.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order, user *models.User) error
	SendGiftCard(ctx context.Context, card *models.GiftCard, recipient string) error
	SendInvestmentConfirmation(ctx context.Context, inv *models.Investment, user *models.User) error
}

type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
}

func NewSMTPMailer(host, port, username, password string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password}
}

func (m *SMTPMailer) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	msg := []byte(
		"From: " + m.username + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			body,
	)

	if err := smtp.SendMail(addr, auth, m.username, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

func (m *SMTPMailer) SendOrderConfirmation(ctx context.Context, order *models.Order, user *models.User) error {
	body := fmt.Sprintf(
		"<h2>Thank you for your order, %s!</h2><p>Order <b>%s</b> for ₹%d is confirmed and being processed.</p>",
		user.Name, order.ID, order.Total,
	)
	return m.send(user.Email, "Your Royal Jewels order is confirmed", body)
}

func (m *SMTPMailer) SendGiftCard(ctx context.Context, card *models.GiftCard, recipient string) error {
	body := fmt.Sprintf(
		"<h2>You received a Royal Jewels gift card!</h2><p>Code: <b>%s</b><br>Value: ₹%d<br>Valid until %s.</p>",
		card.Code, card.Amount, card.ExpiresAt.Format("2 Jan 2006"),
	)
	return m.send(recipient, "A gift card for you", body)
}

func (m *SMTPMailer) SendInvestmentConfirmation(ctx context.Context, inv *models.Investment, user *models.User) error {
	body := fmt.Sprintf(
		"<h2>Investment confirmed</h2><p>%sg of Digital %s for ₹%s has been credited to your account.</p>",
		inv.Amount.String(), inv.Type, inv.Price.StringFixed(2),
	)
	return m.send(user.Email, "Your digital "+inv.Type+" purchase", body)
}

// Noop is used when SMTP is not configured.
type Noop struct{}

func (Noop) SendOrderConfirmation(context.Context, *models.Order, *models.User) error { return nil }
func (Noop) SendGiftCard(context.Context, *models.GiftCard, string) error             { return nil }
func (Noop) SendInvestmentConfirmation(context.Context, *models.Investment, *models.User) error {
	return nil
}
