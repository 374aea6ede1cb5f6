package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/royaljewels/shop/internal/models"
	"github.com/royaljewels/shop/internal/payments"
	"github.com/royaljewels/shop/internal/repo"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// a single connection keeps the in-memory database alive and
	// serializes concurrent test goroutines
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Investment{},
		&models.GiftCard{},
		&models.MetalRate{},
	))

	return &repo.GormRepo{DB: db}
}

func createTestUser(t *testing.T, r *repo.GormRepo, email string) *models.User {
	t.Helper()

	user := &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "x",
		Role:         models.RoleUser,
		IsActive:     true,
	}
	require.NoError(t, r.CreateUser(context.Background(), user))
	return user
}

func createTestProduct(t *testing.T, r *repo.GormRepo, name string, price int64) *models.Product {
	t.Helper()

	prod, err := r.CreateProduct(context.Background(), &models.Product{
		Name:     name,
		Price:    price,
		Category: "Rings",
	})
	require.NoError(t, err)
	return prod
}

func seedTestRates(t *testing.T, r *repo.GormRepo) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, r.InsertRate(ctx, &models.MetalRate{
		Metal:   models.MetalGold,
		PerGram: decimal.NewFromInt(5300),
	}))
	require.NoError(t, r.InsertRate(ctx, &models.MetalRate{
		Metal:   models.MetalSilver,
		PerGram: decimal.NewFromInt(100),
	}))
}

// fakeGateway hands out predictable sessions and lets tests flip the paid
// flag per session.
type fakeGateway struct {
	mu       sync.Mutex
	sessions map[string]*payments.Session
	items    map[string][]payments.LineItem
	nextID   int
	failNext bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		sessions: make(map[string]*payments.Session),
		items:    make(map[string][]payments.LineItem),
	}
}

func (g *fakeGateway) CreateSession(ctx context.Context, items []payments.LineItem, successURL, cancelURL string) (*payments.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failNext {
		g.failNext = false
		return nil, fmt.Errorf("gateway unavailable")
	}

	g.nextID++
	s := &payments.Session{
		ID:            fmt.Sprintf("sess_%d", g.nextID),
		URL:           fmt.Sprintf("https://pay.test/s/%d", g.nextID),
		PaymentStatus: "unpaid",
	}
	g.sessions[s.ID] = s
	g.items[s.ID] = items
	return s, nil
}

func (g *fakeGateway) GetSession(ctx context.Context, sessionID string) (*payments.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such session %s", sessionID)
	}
	cp := *s
	return &cp, nil
}

func (g *fakeGateway) markPaid(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.sessions[sessionID]; ok {
		s.PaymentStatus = payments.StatusPaid
	}
}

func (g *fakeGateway) lineItems(sessionID string) []payments.LineItem {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.items[sessionID]
}

// fakeMailer counts deliveries so tests can assert exactly-once semantics.
type fakeMailer struct {
	mu          sync.Mutex
	orderMails  int
	giftMails   int
	investMails int
}

func (m *fakeMailer) SendOrderConfirmation(context.Context, *models.Order, *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderMails++
	return nil
}

func (m *fakeMailer) SendGiftCard(context.Context, *models.GiftCard, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.giftMails++
	return nil
}

func (m *fakeMailer) SendInvestmentConfirmation(context.Context, *models.Investment, *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.investMails++
	return nil
}

func (m *fakeMailer) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orderMails
}

// fakeProducer records published events.
type fakeProducer struct {
	mu     sync.Mutex
	events []map[string]any
}

func (p *fakeProducer) Publish(ctx context.Context, topic, key string, event map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func (p *fakeProducer) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev["type"] == eventType {
			n++
		}
	}
	return n
}
