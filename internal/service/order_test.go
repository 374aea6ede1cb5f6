package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/royaljewels/shop/internal/search"
	"github.com/royaljewels/shop/internal/transport"
)

func newTestOrderService(t *testing.T) (*OrderService, *fakeGateway) {
	r := newTestRepo(t)
	gw := newFakeGateway()
	return &OrderService{
		Repo:        r,
		Gateway:     gw,
		Producer:    &fakeProducer{},
		FrontendURL: "http://localhost:3000",
	}, gw
}

func TestOrderService_CreateOrder_EmptyCart(t *testing.T) {
	t.Parallel()

	svc, _ := newTestOrderService(t)
	user := createTestUser(t, svc.Repo, "order@example.com")

	_, err := svc.CreateOrder(context.Background(), user.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOrderService_CreateOrder_SnapshotsCart(t *testing.T) {
	t.Parallel()

	svc, gw := newTestOrderService(t)
	cart := &CartService{Repo: svc.Repo}
	ctx := context.Background()

	user := createTestUser(t, svc.Repo, "order@example.com")
	ring := createTestProduct(t, svc.Repo, "Gold Ring", 12000)
	chain := createTestProduct(t, svc.Repo, "Silver Chain", 3500)

	_, err := cart.AddToCart(ctx, user.ID, ring.ID, 2)
	require.NoError(t, err)
	_, err = cart.AddToCart(ctx, user.ID, chain.ID, 1)
	require.NoError(t, err)

	res, err := svc.CreateOrder(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, res.CheckoutURL)

	order, err := svc.GetOrder(ctx, user.ID, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "Pending", order.Status)
	assert.Equal(t, int64(2*12000+3500), order.Total)
	require.Len(t, order.Items, 2)

	// the order total always equals the sum of its line totals
	var sum int64
	for _, it := range order.Items {
		assert.Equal(t, it.UnitPrice*int64(it.Quantity), it.LineTotal)
		sum += it.LineTotal
	}
	assert.Equal(t, order.Total, sum)

	// cart is emptied in the same transaction
	lines, err := cart.GetCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// gateway got the amounts in paise
	items := gw.lineItems(order.PaymentSessionID)
	require.Len(t, items, 2)
	for _, it := range items {
		if it.Name == "Gold Ring" {
			assert.Equal(t, int64(1200000), it.UnitAmount)
		}
	}
}

func TestOrderService_CreateOrder_PriceFrozen(t *testing.T) {
	t.Parallel()

	svc, _ := newTestOrderService(t)
	cart := &CartService{Repo: svc.Repo}
	catalog := &CatalogService{Repo: svc.Repo, Index: search.NoopIndex{}}
	ctx := context.Background()

	user := createTestUser(t, svc.Repo, "order@example.com")
	ring := createTestProduct(t, svc.Repo, "Gold Ring", 12000)

	_, err := cart.AddToCart(ctx, user.ID, ring.ID, 1)
	require.NoError(t, err)

	res, err := svc.CreateOrder(ctx, user.ID)
	require.NoError(t, err)

	newPrice := int64(99000)
	_, err = catalog.PatchProduct(ctx, transport.PatchProductRequest{Price: &newPrice}, ring.ID)
	require.NoError(t, err)

	order, err := svc.GetOrder(ctx, user.ID, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, int64(12000), order.Total)
	assert.Equal(t, int64(12000), order.Items[0].UnitPrice)
}

func TestOrderService_CreateOrder_GatewayFailureLeavesNothing(t *testing.T) {
	t.Parallel()

	svc, gw := newTestOrderService(t)
	cart := &CartService{Repo: svc.Repo}
	ctx := context.Background()

	user := createTestUser(t, svc.Repo, "order@example.com")
	ring := createTestProduct(t, svc.Repo, "Gold Ring", 12000)

	_, err := cart.AddToCart(ctx, user.ID, ring.ID, 1)
	require.NoError(t, err)

	gw.failNext = true
	_, err = svc.CreateOrder(ctx, user.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)

	// the cart survives a failed checkout attempt
	lines, err := cart.GetCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	orders, err := svc.ListOrders(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestOrderService_GetOrder_OtherUser(t *testing.T) {
	t.Parallel()

	svc, _ := newTestOrderService(t)
	cart := &CartService{Repo: svc.Repo}
	ctx := context.Background()

	owner := createTestUser(t, svc.Repo, "owner@example.com")
	other := createTestUser(t, svc.Repo, "other@example.com")
	ring := createTestProduct(t, svc.Repo, "Gold Ring", 12000)

	_, err := cart.AddToCart(ctx, owner.ID, ring.ID, 1)
	require.NoError(t, err)

	res, err := svc.CreateOrder(ctx, owner.ID)
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, other.ID, res.OrderID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
}
