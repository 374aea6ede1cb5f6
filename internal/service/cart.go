package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/royaljewels/shop/internal/models"
	"github.com/royaljewels/shop/internal/repo"
	"github.com/royaljewels/shop/internal/transport"
)

type CartService struct {
	Repo *repo.GormRepo
}

// GetCart returns the cart lines with product details resolved. A user who
// never added anything simply gets an empty list.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) ([]transport.CartLine, error) {
	items, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []transport.CartLine{}, nil
	}

	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]transport.CartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, transport.CartLine{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Product:   products[it.ProductID],
		})
	}
	return lines, nil
}

// AddToCart puts a product in the cart. Adding a product that is already
// there replaces its quantity.
func (s *CartService) AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity uint) (*models.CartItem, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	if quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}

	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product does not exist", ErrNotFound)
		}
		return nil, err
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.Repo.UpsertCartItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity uint) (*models.CartItem, error) {
	if quantity == 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}

	item, err := s.Repo.UpdateCartItemQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item not in cart", ErrNotFound)
		}
		return nil, err
	}
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.Repo.DeleteCartItem(ctx, userID, itemID)
}
