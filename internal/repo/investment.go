package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/royaljewels/shop/internal/models"
)

func balanceColumn(metal string) string {
	if metal == models.MetalGold {
		return "gold_balance"
	}
	return "silver_balance"
}

func (r *GormRepo) LatestRate(ctx context.Context, metal string) (*models.MetalRate, error) {
	var rate models.MetalRate
	if err := r.DB.WithContext(ctx).
		Where("metal = ?", metal).
		Order("created_at DESC").
		First(&rate).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *GormRepo) InsertRate(ctx context.Context, rate *models.MetalRate) error {
	return r.DB.WithContext(ctx).Create(rate).Error
}

// SettleBuy appends the positive ledger row and credits the balance in one
// transaction. The session id is checked inside the transaction (and backed
// by a unique index), so settling the same checkout session twice credits
// the balance exactly once.
func (r *GormRepo) SettleBuy(ctx context.Context, inv *models.Investment) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if inv.SessionID != nil {
			var count int64
			if err := tx.Model(&models.Investment{}).
				Where("session_id = ?", *inv.SessionID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrAlreadySettled
			}
		}

		if err := tx.Create(inv).Error; err != nil {
			return err
		}

		col := balanceColumn(inv.Type)
		return tx.Model(&models.User{}).
			Where("id = ?", inv.UserID).
			Update(col, gorm.Expr(col+" + ?", inv.Amount)).Error
	})
}

// SettleSell decrements the balance with a single conditional update: the
// row only matches while the balance still covers the sale, so concurrent
// sells cannot drive it negative.
func (r *GormRepo) SettleSell(ctx context.Context, inv *models.Investment, amount decimal.Decimal) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		col := balanceColumn(inv.Type)
		res := tx.Model(&models.User{}).
			Where("id = ? AND "+col+" >= ?", inv.UserID, amount).
			Update(col, gorm.Expr(col+" - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientBalance
		}

		return tx.Create(inv).Error
	})
}

func (r *GormRepo) ListInvestments(ctx context.Context, userID uuid.UUID) ([]models.Investment, error) {
	var items []models.Investment
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
