package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/royaljewels/shop/pkg/logging"

	"github.com/royaljewels/shop/internal/events"
	"github.com/royaljewels/shop/internal/models"
	"github.com/royaljewels/shop/internal/payments"
	"github.com/royaljewels/shop/internal/repo"
	"github.com/royaljewels/shop/internal/transport"
)

type OrderService struct {
	Repo        *repo.GormRepo
	Gateway     payments.Gateway
	Producer    events.Producer
	FrontendURL string
}

// CreateOrder snapshots the cart into an immutable order. Unit prices are
// frozen at this moment; later catalog price changes never touch the order.
// The payment session is requested before anything is persisted, so a
// gateway failure leaves no half-created order behind.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID) (*transport.CreateOrderResponse, error) {
	cartItems, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrValidation)
	}

	ids := make([]uuid.UUID, len(cartItems))
	for i, it := range cartItems {
		ids[i] = it.ProductID
	}
	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var total int64
	items := make([]models.OrderItem, 0, len(cartItems))
	lineItems := make([]payments.LineItem, 0, len(cartItems))

	for _, ci := range cartItems {
		prod, ok := products[ci.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %s no longer exists", ErrNotFound, ci.ProductID)
		}

		lineTotal := prod.Price * int64(ci.Quantity)
		total += lineTotal

		items = append(items, models.OrderItem{
			ProductID: prod.ID,
			Name:      prod.Name,
			Quantity:  ci.Quantity,
			UnitPrice: prod.Price,
			LineTotal: lineTotal,
		})
		lineItems = append(lineItems, payments.LineItem{
			Name:       prod.Name,
			UnitAmount: prod.Price * 100,
			Quantity:   ci.Quantity,
		})
	}

	session, err := s.Gateway.CreateSession(ctx, lineItems,
		s.FrontendURL+"/checkout?session_id={CHECKOUT_SESSION_ID}",
		s.FrontendURL+"/cart",
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	order := &models.Order{
		UserID:           userID,
		Items:            items,
		Total:            total,
		Status:           models.OrderStatusPending,
		PaymentSessionID: session.ID,
	}
	if _, err := s.Repo.CreateOrderAndClearCart(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, order, "order_created")

	return &transport.CreateOrderResponse{
		OrderID:     order.ID,
		CheckoutURL: session.URL,
	}, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.OrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order does not exist", ErrNotFound)
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, userID, limit, offset)
}

func (s *OrderService) publish(ctx context.Context, order *models.Order, eventType string) {
	err := s.Producer.Publish(ctx, events.TopicOrders, order.UserID.String(), map[string]any{
		"type":     eventType,
		"order_id": order.ID.String(),
		"user_id":  order.UserID.String(),
		"total":    order.Total,
		"status":   order.Status,
	})
	if err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", events.TopicOrders, "error", err)
	}
}
