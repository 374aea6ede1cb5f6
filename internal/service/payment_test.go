package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/royaljewels/shop/internal/models"
	"github.com/royaljewels/shop/internal/payments"
	"github.com/royaljewels/shop/internal/transport"
)

func newTestPaymentService(t *testing.T) (*PaymentService, *fakeGateway, *fakeMailer, *fakeProducer) {
	r := newTestRepo(t)
	gw := newFakeGateway()
	mailer := &fakeMailer{}
	producer := &fakeProducer{}
	return &PaymentService{
		Repo:          r,
		Gateway:       gw,
		Mailer:        mailer,
		Producer:      producer,
		FrontendURL:   "http://localhost:3000",
		WebhookSecret: []byte("whsec-test"),
	}, gw, mailer, producer
}

func placeTestOrder(t *testing.T, svc *PaymentService, gw *fakeGateway, userID uuid.UUID) *models.Order {
	t.Helper()

	cart := &CartService{Repo: svc.Repo}
	orders := &OrderService{
		Repo:        svc.Repo,
		Gateway:     gw,
		Producer:    &fakeProducer{},
		FrontendURL: svc.FrontendURL,
	}
	ctx := context.Background()

	ring := createTestProduct(t, svc.Repo, "Gold Ring", 12000)
	_, err := cart.AddToCart(ctx, userID, ring.ID, 1)
	require.NoError(t, err)

	res, err := orders.CreateOrder(ctx, userID)
	require.NoError(t, err)

	order, err := svc.Repo.OrderByID(ctx, res.OrderID)
	require.NoError(t, err)
	return order
}

func TestPaymentService_Verify_Idempotent(t *testing.T) {
	t.Parallel()

	svc, gw, mailer, producer := newTestPaymentService(t)
	ctx := context.Background()
	user := createTestUser(t, svc.Repo, "pay@example.com")
	order := placeTestOrder(t, svc, gw, user.ID)

	gw.markPaid(order.PaymentSessionID)

	require.NoError(t, svc.Verify(ctx, order.PaymentSessionID))
	require.NoError(t, svc.Verify(ctx, order.PaymentSessionID))
	require.NoError(t, svc.Verify(ctx, order.PaymentSessionID))

	got, err := svc.Repo.OrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)

	// exactly one confirmation, no matter how often the success page retries
	assert.Equal(t, 1, mailer.orderCount())
	assert.Equal(t, 1, producer.count("order_status_changed"))
}

func TestPaymentService_Verify_Unpaid(t *testing.T) {
	t.Parallel()

	svc, gw, mailer, _ := newTestPaymentService(t)
	ctx := context.Background()
	user := createTestUser(t, svc.Repo, "pay@example.com")
	order := placeTestOrder(t, svc, gw, user.ID)

	err := svc.Verify(ctx, order.PaymentSessionID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPaymentIncomplete)

	got, err := svc.Repo.OrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.Equal(t, 0, mailer.orderCount())
}

func TestPaymentService_Checkout_GiftCardDiscount(t *testing.T) {
	t.Parallel()

	svc, gw, _, _ := newTestPaymentService(t)
	ctx := context.Background()
	user := createTestUser(t, svc.Repo, "pay@example.com")
	order := placeTestOrder(t, svc, gw, user.ID)

	card := &models.GiftCard{
		Code:      "TESTCARD12345678",
		Amount:    5000,
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	}
	require.NoError(t, svc.Repo.CreateGiftCard(ctx, card))

	res, err := svc.Checkout(ctx, user.ID, transport.CheckoutRequest{
		OrderID:      order.ID,
		GiftCardCode: card.Code,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.URL)

	got, err := svc.Repo.GiftCardByCode(ctx, card.Code)
	require.NoError(t, err)
	assert.True(t, got.IsRedeemed)

	// order total 12000, card 5000 -> charge 7000 in paise
	updated, err := svc.Repo.OrderByID(ctx, order.ID)
	require.NoError(t, err)
	items := gw.lineItems(updated.PaymentSessionID)
	require.Len(t, items, 1)
	assert.Equal(t, int64(700000), items[0].UnitAmount)
}

func TestPaymentService_Checkout_GatewayFailureReleasesCard(t *testing.T) {
	t.Parallel()

	svc, gw, _, _ := newTestPaymentService(t)
	ctx := context.Background()
	user := createTestUser(t, svc.Repo, "pay@example.com")
	order := placeTestOrder(t, svc, gw, user.ID)

	card := &models.GiftCard{
		Code:      "TESTCARD12345678",
		Amount:    5000,
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	}
	require.NoError(t, svc.Repo.CreateGiftCard(ctx, card))

	gw.failNext = true
	_, err := svc.Checkout(ctx, user.ID, transport.CheckoutRequest{
		OrderID:      order.ID,
		GiftCardCode: card.Code,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)

	// the card must be usable again after the failed attempt
	got, err := svc.Repo.GiftCardByCode(ctx, card.Code)
	require.NoError(t, err)
	assert.False(t, got.IsRedeemed)
}

func TestPaymentService_Checkout_CompletedOrder(t *testing.T) {
	t.Parallel()

	svc, gw, _, _ := newTestPaymentService(t)
	ctx := context.Background()
	user := createTestUser(t, svc.Repo, "pay@example.com")
	order := placeTestOrder(t, svc, gw, user.ID)

	_, err := svc.Repo.SetOrderStatus(ctx, order.ID, models.OrderStatusCompleted)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, user.ID, transport.CheckoutRequest{OrderID: order.ID})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestPaymentService_HandleWebhook(t *testing.T) {
	t.Parallel()

	svc, gw, _, producer := newTestPaymentService(t)
	ctx := context.Background()
	user := createTestUser(t, svc.Repo, "pay@example.com")
	order := placeTestOrder(t, svc, gw, user.ID)

	payload, err := json.Marshal(map[string]any{
		"type": payments.EventSessionCompleted,
		"data": map[string]any{"session_id": order.PaymentSessionID},
	})
	require.NoError(t, err)

	// forged signature is rejected before the payload is parsed
	err = svc.HandleWebhook(ctx, payload, "deadbeef")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	got, err := svc.Repo.OrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)

	sig := payments.Sign(payload, svc.WebhookSecret)
	require.NoError(t, svc.HandleWebhook(ctx, payload, sig))

	got, err = svc.Repo.OrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)

	// replaying the delivery changes nothing further
	require.NoError(t, svc.HandleWebhook(ctx, payload, sig))
	assert.Equal(t, 1, producer.count("order_status_changed"))
}
