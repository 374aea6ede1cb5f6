package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

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

const (
	GiftCardMinAmount = 5000
	GiftCardMaxAmount = 99999

	giftCardValidity   = 365 * 24 * time.Hour
	giftCardCodeLen    = 16
	giftCardCodeChars  = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeMintRetryLimit = 5
)

type GiftCardService struct {
	Repo        *repo.GormRepo
	Gateway     payments.Gateway
	Mailer      mail.Mailer
	Producer    events.Producer
	FrontendURL string
}

func validGiftCardAmount(amount int64) error {
	if amount < GiftCardMinAmount || amount > GiftCardMaxAmount {
		return fmt.Errorf("%w: amount must be between %d and %d", ErrValidation, GiftCardMinAmount, GiftCardMaxAmount)
	}
	return nil
}

// Generate opens a checkout session for a gift card purchase. The card
// itself is minted in VerifyPurchase once payment is confirmed.
func (s *GiftCardService) Generate(ctx context.Context, userID uuid.UUID, req transport.GenerateGiftCardRequest) (*transport.BuyResponse, error) {
	if err := validGiftCardAmount(req.Amount); err != nil {
		return nil, err
	}

	session, err := s.Gateway.CreateSession(ctx, []payments.LineItem{{
		Name:        "Gift Card",
		Description: fmt.Sprintf("Gift Card worth ₹%d", req.Amount),
		UnitAmount:  req.Amount * 100,
		Quantity:    1,
	}},
		s.FrontendURL+"/gift-card?session_id={CHECKOUT_SESSION_ID}",
		s.FrontendURL+"/gift-card",
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return &transport.BuyResponse{URL: session.URL, SessionID: session.ID}, nil
}

// VerifyPurchase mints the card for a paid session. The session id is
// unique per card, so verifying the same purchase twice returns the card
// that was already minted.
func (s *GiftCardService) VerifyPurchase(ctx context.Context, userID uuid.UUID, req transport.VerifyGiftCardRequest) (*models.GiftCard, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: session_id required", ErrValidation)
	}
	if err := validGiftCardAmount(req.Amount); err != nil {
		return nil, err
	}

	if card, err := s.Repo.GiftCardBySession(ctx, req.SessionID); err == nil {
		return card, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	session, err := s.Gateway.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if session.PaymentStatus != payments.StatusPaid {
		return nil, fmt.Errorf("%w: session %s is %q", ErrPaymentIncomplete, req.SessionID, session.PaymentStatus)
	}

	sid := req.SessionID
	card, err := s.mint(ctx, req.Amount, &userID, &sid, req.RecipientEmail)
	if err != nil {
		return nil, err
	}

	if req.RecipientEmail != "" {
		if merr := s.Mailer.SendGiftCard(ctx, card, req.RecipientEmail); merr != nil {
			logging.FromContext(ctx).Warn("giftcard_mail_failed", "code", card.Code, "error", merr)
		}
	}

	s.publish(ctx, card)
	return card, nil
}

// AdminIssue mints a card without a payment round trip.
func (s *GiftCardService) AdminIssue(ctx context.Context, amount int64) (*models.GiftCard, error) {
	if err := validGiftCardAmount(amount); err != nil {
		return nil, err
	}
	card, err := s.mint(ctx, amount, nil, nil, "")
	if err != nil {
		return nil, err
	}
	s.publish(ctx, card)
	return card, nil
}

func (s *GiftCardService) Get(ctx context.Context, code string) (*models.GiftCard, error) {
	card, err := s.Repo.GiftCardByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: gift card does not exist", ErrNotFound)
		}
		return nil, err
	}
	return card, nil
}

func (s *GiftCardService) Redeem(ctx context.Context, code string) (*transport.RedeemResponse, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: code required", ErrValidation)
	}

	card, err := s.Repo.RedeemGiftCard(ctx, code)
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

	return &transport.RedeemResponse{
		Message: "gift card redeemed successfully",
		Amount:  card.Amount,
	}, nil
}

func (s *GiftCardService) List(ctx context.Context) ([]models.GiftCard, error) {
	return s.Repo.ListGiftCards(ctx)
}

func (s *GiftCardService) Stats(ctx context.Context) (*repo.GiftCardStats, error) {
	return s.Repo.GiftCardStats(ctx)
}

// mint generates a fresh code and persists the card. Codes come from
// crypto/rand; the unique index plus a bounded regenerate loop rules out
// collisions.
func (s *GiftCardService) mint(ctx context.Context, amount int64, issuedBy *uuid.UUID, sessionID *string, recipient string) (*models.GiftCard, error) {
	for attempt := 0; attempt < codeMintRetryLimit; attempt++ {
		code, err := newGiftCardCode()
		if err != nil {
			return nil, err
		}

		if _, err := s.Repo.GiftCardByCode(ctx, code); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		card := &models.GiftCard{
			Code:           code,
			Amount:         amount,
			IssuedBy:       issuedBy,
			RecipientEmail: recipient,
			SessionID:      sessionID,
			ExpiresAt:      time.Now().UTC().Add(giftCardValidity),
		}
		if err := s.Repo.CreateGiftCard(ctx, card); err != nil {
			return nil, err
		}
		return card, nil
	}
	return nil, fmt.Errorf("could not mint a unique gift card code after %d attempts", codeMintRetryLimit)
}

func newGiftCardCode() (string, error) {
	out := make([]byte, giftCardCodeLen)
	max := big.NewInt(int64(len(giftCardCodeChars)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = giftCardCodeChars[n.Int64()]
	}
	return string(out), nil
}

func (s *GiftCardService) publish(ctx context.Context, card *models.GiftCard) {
	err := s.Producer.Publish(ctx, events.TopicGiftCards, card.Code, map[string]any{
		"type":   "giftcard_issued",
		"code":   card.Code,
		"amount": card.Amount,
	})
	if err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", events.TopicGiftCards, "error", err)
	}
}
