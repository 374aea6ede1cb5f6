package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/royaljewels/shop/internal/models"
	"github.com/royaljewels/shop/internal/transport"
)

func newTestInvestmentService(t *testing.T) (*InvestmentService, *fakeGateway, *fakeMailer) {
	r := newTestRepo(t)
	seedTestRates(t, r)
	gw := newFakeGateway()
	mailer := &fakeMailer{}
	return &InvestmentService{
		Repo:        r,
		Gateway:     gw,
		Mailer:      mailer,
		Producer:    &fakeProducer{},
		FrontendURL: "http://localhost:3000",
	}, gw, mailer
}

func TestInvestmentService_Rates(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestInvestmentService(t)

	rates, err := svc.Rates(context.Background())
	require.NoError(t, err)
	assert.True(t, rates.GoldRate.Equal(decimal.NewFromInt(5300)), "gold rate: %s", rates.GoldRate)
	assert.True(t, rates.SilverRate.Equal(decimal.NewFromInt(100)), "silver rate: %s", rates.SilverRate)
}

func TestInvestmentService_Buy_Validation(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestInvestmentService(t)
	user := createTestUser(t, svc.Repo, "invest@example.com")
	ctx := context.Background()

	_, err := svc.Buy(ctx, user.ID, transport.TradeRequest{Type: "Platinum", Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Buy(ctx, user.ID, transport.TradeRequest{Type: models.MetalGold, Amount: decimal.NewFromInt(-2)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Buy(ctx, user.ID, transport.TradeRequest{Type: models.MetalGold})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestInvestmentService_Buy_QuotesAtCurrentRate(t *testing.T) {
	t.Parallel()

	svc, gw, _ := newTestInvestmentService(t)
	user := createTestUser(t, svc.Repo, "invest@example.com")
	ctx := context.Background()

	res, err := svc.Buy(ctx, user.ID, transport.TradeRequest{
		Type:   models.MetalGold,
		Amount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.SessionID)

	// 10g x 5300 = 53000 rupees = 5300000 paise
	items := gw.lineItems(res.SessionID)
	require.Len(t, items, 1)
	assert.Equal(t, int64(5300000), items[0].UnitAmount)

	// nothing is credited until the payment is verified
	balances, err := svc.Balances(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, balances.GoldBalance.IsZero())
}

func TestInvestmentService_VerifyBuy_CreditsOnce(t *testing.T) {
	t.Parallel()

	svc, gw, mailer := newTestInvestmentService(t)
	user := createTestUser(t, svc.Repo, "invest@example.com")
	ctx := context.Background()

	res, err := svc.Buy(ctx, user.ID, transport.TradeRequest{
		Type:   models.MetalGold,
		Amount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	req := transport.VerifyBuyRequest{
		SessionID: res.SessionID,
		Type:      models.MetalGold,
		Amount:    decimal.NewFromInt(10),
	}

	// unpaid session settles nothing
	_, err = svc.VerifyBuy(ctx, user.ID, req)
	assert.ErrorIs(t, err, ErrPaymentIncomplete)

	gw.markPaid(res.SessionID)

	inv, err := svc.VerifyBuy(ctx, user.ID, req)
	require.NoError(t, err)
	assert.True(t, inv.Price.Equal(decimal.NewFromInt(53000)), "price: %s", inv.Price)

	// the success page reloading must not double-credit
	_, err = svc.VerifyBuy(ctx, user.ID, req)
	require.NoError(t, err)

	balances, err := svc.Balances(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, balances.GoldBalance.Equal(decimal.NewFromInt(10)), "gold balance: %s", balances.GoldBalance)

	history, err := svc.History(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, 1, mailer.investMails)
}

func TestInvestmentService_Sell_InsufficientBalance(t *testing.T) {
	t.Parallel()

	svc, gw, _ := newTestInvestmentService(t)
	user := createTestUser(t, svc.Repo, "invest@example.com")
	ctx := context.Background()

	buyGrams(t, svc, gw, user.ID, models.MetalGold, 10)

	_, err := svc.Sell(ctx, user.ID, transport.TradeRequest{
		Type:   models.MetalGold,
		Amount: decimal.NewFromInt(15),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// a failed sell leaves the balance and the ledger untouched
	balances, err := svc.Balances(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, balances.GoldBalance.Equal(decimal.NewFromInt(10)), "gold balance: %s", balances.GoldBalance)

	history, err := svc.History(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestInvestmentService_Sell(t *testing.T) {
	t.Parallel()

	svc, gw, _ := newTestInvestmentService(t)
	user := createTestUser(t, svc.Repo, "invest@example.com")
	ctx := context.Background()

	buyGrams(t, svc, gw, user.ID, models.MetalSilver, 50)

	inv, err := svc.Sell(ctx, user.ID, transport.TradeRequest{
		Type:   models.MetalSilver,
		Amount: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	assert.True(t, inv.Amount.Equal(decimal.NewFromInt(-20)), "ledger amount: %s", inv.Amount)
	assert.True(t, inv.Price.Equal(decimal.NewFromInt(2000)), "price: %s", inv.Price)

	balances, err := svc.Balances(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, balances.SilverBalance.Equal(decimal.NewFromInt(30)), "silver balance: %s", balances.SilverBalance)
}

func TestInvestmentService_Sell_ConcurrentOneWinner(t *testing.T) {
	t.Parallel()

	svc, gw, _ := newTestInvestmentService(t)
	user := createTestUser(t, svc.Repo, "invest@example.com")
	ctx := context.Background()

	buyGrams(t, svc, gw, user.ID, models.MetalGold, 10)

	const sellers = 2
	errs := make([]error, sellers)
	var wg sync.WaitGroup
	for i := 0; i < sellers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Sell(ctx, user.ID, transport.TradeRequest{
				Type:   models.MetalGold,
				Amount: decimal.NewFromInt(8),
			})
		}(i)
	}
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrInsufficientBalance):
			insufficient++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)

	balances, err := svc.Balances(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, balances.GoldBalance.Equal(decimal.NewFromInt(2)), "gold balance: %s", balances.GoldBalance)
}

func TestInvestmentService_UpdateRates(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestInvestmentService(t)
	ctx := context.Background()

	newGold := decimal.NewFromInt(6000)
	require.NoError(t, svc.UpdateRates(ctx, transport.UpdateRatesRequest{GoldRate: &newGold}))

	rates, err := svc.Rates(ctx)
	require.NoError(t, err)
	assert.True(t, rates.GoldRate.Equal(newGold), "gold rate: %s", rates.GoldRate)
	// silver keeps its previous version
	assert.True(t, rates.SilverRate.Equal(decimal.NewFromInt(100)), "silver rate: %s", rates.SilverRate)

	require.ErrorIs(t, svc.UpdateRates(ctx, transport.UpdateRatesRequest{}), ErrValidation)

	negative := decimal.NewFromInt(-5)
	require.ErrorIs(t, svc.UpdateRates(ctx, transport.UpdateRatesRequest{SilverRate: &negative}), ErrValidation)
}

func buyGrams(t *testing.T, svc *InvestmentService, gw *fakeGateway, userID uuid.UUID, metal string, grams int64) {
	t.Helper()

	ctx := context.Background()
	res, err := svc.Buy(ctx, userID, transport.TradeRequest{
		Type:   metal,
		Amount: decimal.NewFromInt(grams),
	})
	require.NoError(t, err)

	gw.markPaid(res.SessionID)

	_, err = svc.VerifyBuy(ctx, userID, transport.VerifyBuyRequest{
		SessionID: res.SessionID,
		Type:      metal,
		Amount:    decimal.NewFromInt(grams),
	})
	require.NoError(t, err)
}
