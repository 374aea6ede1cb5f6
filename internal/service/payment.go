package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/royaljewels/shop/pkg/logging"

	"github.com/royaljewels/shop/internal/events"
	"github.com/royaljewels/shop/internal/mail"
	"github.com/royaljewels/shop/internal/models"
	"github.com/royaljewels/shop/internal/payments"
	"github.com/royaljewels/shop/internal/repo"
	"github.com/royaljewels/shop/internal/transport"
)

type PaymentService struct {
	Repo          *repo.GormRepo
	Gateway       payments.Gateway
	Mailer        mail.Mailer
	Producer      events.Producer
	FrontendURL   string
	WebhookSecret []byte
}

// Checkout requests a payment session for an order. When a gift card code
// is supplied the card is redeemed and the charged amount reduced in one
// step, so a card can never end up redeemed without its discount applied.
func (s *PaymentService) Checkout(ctx context.Context, userID uuid.UUID, req transport.CheckoutRequest) (*transport.CheckoutResponse, error) {
	order, err := s.Repo.OrderByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order does not exist", ErrNotFound)
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	}
	if order.Status == models.OrderStatusCompleted || order.Status == models.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: order is %s", ErrConflict, order.Status)
	}

	finalAmount := order.Total
	var card *models.GiftCard

	if req.GiftCardCode != "" {
		card, err = s.Repo.RedeemGiftCard(ctx, req.GiftCardCode)
		if err != nil {
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				return nil, fmt.Errorf("%w: gift card does not exist", ErrNotFound)
			case errors.Is(err, repo.ErrAlreadyRedeemed):
				return nil, fmt.Errorf("%w: gift card already redeemed", ErrConflict)
			case errors.Is(err, repo.ErrExpired):
				return nil, fmt.Errorf("%w: gift card expired", ErrValidation)
			default:
				return nil, err
			}
		}
		finalAmount = order.Total - card.Amount
		if finalAmount < 0 {
			finalAmount = 0
		}
	}

	var lineItems []payments.LineItem
	if card != nil {
		lineItems = []payments.LineItem{{
			Name:       fmt.Sprintf("Order %s (gift card applied)", order.ID),
			UnitAmount: finalAmount * 100,
			Quantity:   1,
		}}
	} else {
		lineItems = make([]payments.LineItem, 0, len(order.Items))
		for _, it := range order.Items {
			lineItems = append(lineItems, payments.LineItem{
				Name:       it.Name,
				UnitAmount: it.UnitPrice * 100,
				Quantity:   it.Quantity,
			})
		}
	}

	session, err := s.Gateway.CreateSession(ctx, lineItems,
		s.FrontendURL+"/checkout?session_id={CHECKOUT_SESSION_ID}",
		s.FrontendURL+"/cart",
	)
	if err != nil {
		if card != nil {
			if uerr := s.Repo.UnredeemGiftCard(ctx, card.Code); uerr != nil {
				logging.FromContext(ctx).Error("giftcard_unredeem_failed", "code", card.Code, "error", uerr)
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if err := s.Repo.SetOrderSession(ctx, order.ID, session.ID); err != nil {
		return nil, err
	}

	return &transport.CheckoutResponse{URL: session.URL}, nil
}

// Verify checks the session with the gateway and advances the order from
// Pending to Processing. The transition is a conditional update: calling
// verify again for the same paid session is a no-op and sends no second
// confirmation email.
func (s *PaymentService) Verify(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session_id required", ErrValidation)
	}

	session, err := s.Gateway.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if session.PaymentStatus != payments.StatusPaid {
		return fmt.Errorf("%w: session %s is %q", ErrPaymentIncomplete, sessionID, session.PaymentStatus)
	}

	advanced, err := s.Repo.AdvanceOrderStatus(ctx, sessionID,
		[]string{models.OrderStatusPending}, models.OrderStatusProcessing)
	if err != nil {
		return err
	}

	order, err := s.Repo.OrderBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: no order for session", ErrNotFound)
		}
		return err
	}

	if !advanced {
		// already verified earlier, nothing more to do
		return nil
	}

	if user, uerr := s.Repo.UserByID(ctx, order.UserID); uerr == nil {
		if merr := s.Mailer.SendOrderConfirmation(ctx, order, user); merr != nil {
			logging.FromContext(ctx).Warn("order_confirmation_mail_failed", "order_id", order.ID, "error", merr)
		}
	}

	s.publishStatus(ctx, order, models.OrderStatusProcessing)
	return nil
}

// HandleWebhook processes an asynchronous gateway notification. The HMAC
// signature is checked over the raw body before the payload is trusted.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if !payments.VerifySignature(payload, signature, s.WebhookSecret) {
		return fmt.Errorf("%w: invalid webhook signature", ErrValidation)
	}

	event, err := payments.ParseWebhookEvent(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if event.Type != payments.EventSessionCompleted {
		return nil
	}

	advanced, err := s.Repo.AdvanceOrderStatus(ctx, event.Data.SessionID,
		[]string{models.OrderStatusPending, models.OrderStatusProcessing},
		models.OrderStatusCompleted)
	if err != nil {
		return err
	}
	if !advanced {
		return nil
	}

	if order, oerr := s.Repo.OrderBySessionID(ctx, event.Data.SessionID); oerr == nil {
		s.publishStatus(ctx, order, models.OrderStatusCompleted)
	}
	return nil
}

func (s *PaymentService) publishStatus(ctx context.Context, order *models.Order, status string) {
	err := s.Producer.Publish(ctx, events.TopicOrders, order.UserID.String(), map[string]any{
		"type":     "order_status_changed",
		"order_id": order.ID.String(),
		"user_id":  order.UserID.String(),
		"status":   status,
	})
	if err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", events.TopicOrders, "error", err)
	}
}
