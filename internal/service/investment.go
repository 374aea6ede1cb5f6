package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/royaljewels/shop/pkg/logging"

	"github.com/royaljewels/shop/internal/events"
	"github.com/royaljewels/shop/internal/mail"
	"github.com/royaljewels/shop/internal/models"
	"github.com/royaljewels/shop/internal/payments"
	"github.com/royaljewels/shop/internal/repo"
	"github.com/royaljewels/shop/internal/transport"
)

type InvestmentService struct {
	Repo        *repo.GormRepo
	Gateway     payments.Gateway
	Mailer      mail.Mailer
	Producer    events.Producer
	FrontendURL string
}

func validMetal(metal string) bool {
	return metal == models.MetalGold || metal == models.MetalSilver
}

func (s *InvestmentService) Rates(ctx context.Context) (*transport.RatesResponse, error) {
	gold, err := s.Repo.LatestRate(ctx, models.MetalGold)
	if err != nil {
		return nil, err
	}
	silver, err := s.Repo.LatestRate(ctx, models.MetalSilver)
	if err != nil {
		return nil, err
	}
	return &transport.RatesResponse{
		GoldRate:   gold.PerGram,
		SilverRate: silver.PerGram,
	}, nil
}

// Buy quotes the trade and opens a checkout session. Nothing is written
// yet: the ledger row and balance credit happen in VerifyBuy once the
// gateway confirms payment.
func (s *InvestmentService) Buy(ctx context.Context, userID uuid.UUID, req transport.TradeRequest) (*transport.BuyResponse, error) {
	if !validMetal(req.Type) {
		return nil, fmt.Errorf("%w: type must be Gold or Silver", ErrValidation)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	}

	rate, err := s.Repo.LatestRate(ctx, req.Type)
	if err != nil {
		return nil, err
	}
	price := req.Amount.Mul(rate.PerGram)

	session, err := s.Gateway.CreateSession(ctx, []payments.LineItem{{
		Name:        "Digital " + req.Type,
		Description: fmt.Sprintf("%sg of Digital %s", req.Amount.String(), req.Type),
		UnitAmount:  price.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
		Quantity:    1,
	}},
		s.FrontendURL+"/investment?session_id={CHECKOUT_SESSION_ID}&type=buy",
		s.FrontendURL+"/investment",
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return &transport.BuyResponse{URL: session.URL, SessionID: session.ID}, nil
}

// VerifyBuy settles a paid buy session: one ledger row, one balance credit.
// The session id is unique in the ledger, so repeated verification of the
// same session credits the balance exactly once.
func (s *InvestmentService) VerifyBuy(ctx context.Context, userID uuid.UUID, req transport.VerifyBuyRequest) (*models.Investment, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: session_id required", ErrValidation)
	}
	if !validMetal(req.Type) {
		return nil, fmt.Errorf("%w: type must be Gold or Silver", ErrValidation)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	}

	session, err := s.Gateway.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if session.PaymentStatus != payments.StatusPaid {
		return nil, fmt.Errorf("%w: session %s is %q", ErrPaymentIncomplete, req.SessionID, session.PaymentStatus)
	}

	rate, err := s.Repo.LatestRate(ctx, req.Type)
	if err != nil {
		return nil, err
	}

	sid := req.SessionID
	inv := &models.Investment{
		UserID:    userID,
		Type:      req.Type,
		Amount:    req.Amount,
		Price:     req.Amount.Mul(rate.PerGram),
		SessionID: &sid,
	}

	if err := s.Repo.SettleBuy(ctx, inv); err != nil {
		if errors.Is(err, repo.ErrAlreadySettled) {
			// second verification of the same session, nothing to do
			return inv, nil
		}
		return nil, err
	}

	if user, uerr := s.Repo.UserByID(ctx, userID); uerr == nil {
		if merr := s.Mailer.SendInvestmentConfirmation(ctx, inv, user); merr != nil {
			logging.FromContext(ctx).Warn("investment_mail_failed", "user_id", userID, "error", merr)
		}
	}
	s.publish(ctx, inv)

	return inv, nil
}

// Sell settles immediately: proceeds flow to the user, so there is no
// gateway round trip. The balance decrement is conditional, a request for
// more grams than the user holds fails and mutates nothing.
func (s *InvestmentService) Sell(ctx context.Context, userID uuid.UUID, req transport.TradeRequest) (*models.Investment, error) {
	if !validMetal(req.Type) {
		return nil, fmt.Errorf("%w: type must be Gold or Silver", ErrValidation)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	}

	rate, err := s.Repo.LatestRate(ctx, req.Type)
	if err != nil {
		return nil, err
	}

	inv := &models.Investment{
		UserID: userID,
		Type:   req.Type,
		Amount: req.Amount.Neg(),
		Price:  req.Amount.Mul(rate.PerGram),
	}

	if err := s.Repo.SettleSell(ctx, inv, req.Amount); err != nil {
		if errors.Is(err, repo.ErrInsufficientBalance) {
			return nil, fmt.Errorf("%w: insufficient %s balance", ErrInsufficientBalance, req.Type)
		}
		return nil, err
	}

	s.publish(ctx, inv)
	return inv, nil
}

func (s *InvestmentService) Balances(ctx context.Context, userID uuid.UUID) (*transport.BalancesResponse, error) {
	user, err := s.Repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user does not exist", ErrNotFound)
		}
		return nil, err
	}
	return &transport.BalancesResponse{
		GoldBalance:   user.GoldBalance,
		SilverBalance: user.SilverBalance,
	}, nil
}

func (s *InvestmentService) History(ctx context.Context, userID uuid.UUID) ([]models.Investment, error) {
	return s.Repo.ListInvestments(ctx, userID)
}

// UpdateRates appends new versioned rate rows, the investment service
// always reads the latest version.
func (s *InvestmentService) UpdateRates(ctx context.Context, req transport.UpdateRatesRequest) error {
	if req.GoldRate == nil && req.SilverRate == nil {
		return fmt.Errorf("%w: at least one rate required", ErrValidation)
	}

	if req.GoldRate != nil {
		if !req.GoldRate.IsPositive() {
			return fmt.Errorf("%w: goldRate must be positive", ErrValidation)
		}
		if err := s.Repo.InsertRate(ctx, &models.MetalRate{Metal: models.MetalGold, PerGram: *req.GoldRate}); err != nil {
			return err
		}
	}
	if req.SilverRate != nil {
		if !req.SilverRate.IsPositive() {
			return fmt.Errorf("%w: silverRate must be positive", ErrValidation)
		}
		if err := s.Repo.InsertRate(ctx, &models.MetalRate{Metal: models.MetalSilver, PerGram: *req.SilverRate}); err != nil {
			return err
		}
	}
	return nil
}

func (s *InvestmentService) publish(ctx context.Context, inv *models.Investment) {
	err := s.Producer.Publish(ctx, events.TopicInvestments, inv.UserID.String(), map[string]any{
		"type":    "investment_settled",
		"user_id": inv.UserID.String(),
		"metal":   inv.Type,
		"amount":  inv.Amount.String(),
		"price":   inv.Price.String(),
	})
	if err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", events.TopicInvestments, "error", err)
	}
}
