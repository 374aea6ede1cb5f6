package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/royaljewels/shop/internal/models"
	"github.com/royaljewels/shop/internal/repo"
)

type AdminService struct {
	Repo *repo.GormRepo
}

func (s *AdminService) Overview(ctx context.Context) (*repo.Overview, error) {
	return s.Repo.Overview(ctx)
}

func (s *AdminService) InvestmentReport(ctx context.Context) (*repo.InvestmentReport, error) {
	return s.Repo.InvestmentReport(ctx)
}

func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.Repo.ListUsers(ctx)
}

type UserDetail struct {
	User        models.User         `json:"user"`
	Orders      []models.Order      `json:"orders"`
	Investments []models.Investment `json:"investments"`
}

func (s *AdminService) UserDetail(ctx context.Context, id uuid.UUID) (*UserDetail, error) {
	user, err := s.Repo.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user does not exist", ErrNotFound)
		}
		return nil, err
	}

	orders, err := s.Repo.ListOrders(ctx, id, 100, 0)
	if err != nil {
		return nil, err
	}
	investments, err := s.Repo.ListInvestments(ctx, id)
	if err != nil {
		return nil, err
	}

	return &UserDetail{User: *user, Orders: orders, Investments: investments}, nil
}

func (s *AdminService) BanUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.Repo.BanUser(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user does not exist", ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *AdminService) ListOrders(ctx context.Context, limit, offset int) ([]models.Order, error) {
	return s.Repo.ListAllOrders(ctx, limit, offset)
}

func validOrderStatus(status string) bool {
	switch status {
	case models.OrderStatusPending, models.OrderStatusProcessing,
		models.OrderStatusCompleted, models.OrderStatusCancelled:
		return true
	}
	return false
}

func (s *AdminService) SetOrderStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.Order, error) {
	if !validOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	order, err := s.Repo.SetOrderStatus(ctx, orderID, status)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order does not exist", ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}
