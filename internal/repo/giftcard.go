package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/royaljewels/shop/internal/models"
)

func (r *GormRepo) CreateGiftCard(ctx context.Context, card *models.GiftCard) error {
	return r.DB.WithContext(ctx).Create(card).Error
}

func (r *GormRepo) GiftCardByCode(ctx context.Context, code string) (*models.GiftCard, error) {
	var card models.GiftCard
	if err := r.DB.WithContext(ctx).First(&card, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *GormRepo) GiftCardBySession(ctx context.Context, sessionID string) (*models.GiftCard, error) {
	var card models.GiftCard
	if err := r.DB.WithContext(ctx).First(&card, "session_id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// RedeemGiftCard flips the redeemed flag with a conditional update so two
// concurrent redemptions admit exactly one winner. The losing call gets the
// precise reason back.
func (r *GormRepo) RedeemGiftCard(ctx context.Context, code string) (*models.GiftCard, error) {
	var card models.GiftCard

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		res := tx.Model(&models.GiftCard{}).
			Where("code = ? AND is_redeemed = ? AND expires_at > ?", code, false, now).
			Update("is_redeemed", true)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			if err := tx.First(&card, "code = ?", code).Error; err != nil {
				return err
			}
			if card.IsRedeemed {
				return ErrAlreadyRedeemed
			}
			return ErrExpired
		}

		return tx.First(&card, "code = ?", code).Error
	})
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// UnredeemGiftCard is the compensation path: if the gateway call that was
// supposed to consume the card fails, the redemption is rolled back.
func (r *GormRepo) UnredeemGiftCard(ctx context.Context, code string) error {
	return r.DB.WithContext(ctx).Model(&models.GiftCard{}).
		Where("code = ?", code).
		Update("is_redeemed", false).Error
}

func (r *GormRepo) ListGiftCards(ctx context.Context) ([]models.GiftCard, error) {
	var cards []models.GiftCard
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

type GiftCardStats struct {
	TotalIssued   int64 `json:"total_issued"`
	TotalRedeemed int64 `json:"total_redeemed"`
	TotalValue    int64 `json:"total_value"`
}

func (r *GormRepo) GiftCardStats(ctx context.Context) (*GiftCardStats, error) {
	var stats GiftCardStats

	if err := r.DB.WithContext(ctx).Model(&models.GiftCard{}).Count(&stats.TotalIssued).Error; err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Model(&models.GiftCard{}).
		Where("is_redeemed = ?", true).Count(&stats.TotalRedeemed).Error; err != nil {
		return nil, err
	}

	var total struct{ Total int64 }
	if err := r.DB.WithContext(ctx).Model(&models.GiftCard{}).
		Select("COALESCE(SUM(amount), 0) AS total").Scan(&total).Error; err != nil {
		return nil, err
	}
	stats.TotalValue = total.Total

	return &stats, nil
}
