package repo

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/royaljewels/shop/internal/models"
)

type SalesPoint struct {
	Day        string `json:"day"`
	TotalSales int64  `json:"total_sales"`
}

type Overview struct {
	TotalSales      int64           `json:"total_sales"`
	ActiveUsers     int64           `json:"active_users"`
	ProductsSold    int64           `json:"products_sold"`
	GiftCardsIssued int64           `json:"gift_cards_issued"`
	SalesOverTime   []SalesPoint    `json:"sales_over_time"`
	GoldGrams       decimal.Decimal `json:"gold_grams"`
	SilverGrams     decimal.Decimal `json:"silver_grams"`
}

func (r *GormRepo) Overview(ctx context.Context) (*Overview, error) {
	var out Overview

	var sales struct{ Total int64 }
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS total").Scan(&sales).Error; err != nil {
		return nil, err
	}
	out.TotalSales = sales.Total

	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("is_active = ?", true).Count(&out.ActiveUsers).Error; err != nil {
		return nil, err
	}

	var sold struct{ Total int64 }
	if err := r.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Select("COALESCE(SUM(quantity), 0) AS total").Scan(&sold).Error; err != nil {
		return nil, err
	}
	out.ProductsSold = sold.Total

	if err := r.DB.WithContext(ctx).Model(&models.GiftCard{}).
		Count(&out.GiftCardsIssued).Error; err != nil {
		return nil, err
	}

	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("DATE(created_at) AS day, SUM(total) AS total_sales").
		Group("DATE(created_at)").
		Order("day ASC").
		Limit(30).
		Scan(&out.SalesOverTime).Error; err != nil {
		return nil, err
	}

	gold, silver, err := r.metalNetGrams(ctx)
	if err != nil {
		return nil, err
	}
	out.GoldGrams, out.SilverGrams = gold, silver

	return &out, nil
}

func (r *GormRepo) metalNetGrams(ctx context.Context) (gold, silver decimal.Decimal, err error) {
	var rows []struct {
		Type  string
		Total decimal.Decimal
	}
	if err = r.DB.WithContext(ctx).Model(&models.Investment{}).
		Select("type, COALESCE(SUM(amount), 0) AS total").
		Group("type").
		Scan(&rows).Error; err != nil {
		return
	}
	for _, row := range rows {
		switch row.Type {
		case models.MetalGold:
			gold = row.Total
		case models.MetalSilver:
			silver = row.Total
		}
	}
	return
}

type InvestmentPoint struct {
	Day          string          `json:"day"`
	GoldAmount   decimal.Decimal `json:"gold_amount"`
	SilverAmount decimal.Decimal `json:"silver_amount"`
}

type InvestmentReport struct {
	TotalGoldBought   decimal.Decimal   `json:"total_gold_bought"`
	TotalSilverBought decimal.Decimal   `json:"total_silver_bought"`
	TotalGoldSold     decimal.Decimal   `json:"total_gold_sold"`
	TotalSilverSold   decimal.Decimal   `json:"total_silver_sold"`
	Trends            []InvestmentPoint `json:"trends"`
}

func (r *GormRepo) InvestmentReport(ctx context.Context) (*InvestmentReport, error) {
	var out InvestmentReport

	sum := func(metal string, buys bool) (decimal.Decimal, error) {
		q := r.DB.WithContext(ctx).Model(&models.Investment{}).Where("type = ?", metal)
		if buys {
			q = q.Where("amount > 0").Select("COALESCE(SUM(amount), 0) AS total")
		} else {
			q = q.Where("amount < 0").Select("COALESCE(SUM(-amount), 0) AS total")
		}
		var row struct{ Total decimal.Decimal }
		if err := q.Scan(&row).Error; err != nil {
			return decimal.Zero, err
		}
		return row.Total, nil
	}

	var err error
	if out.TotalGoldBought, err = sum(models.MetalGold, true); err != nil {
		return nil, err
	}
	if out.TotalSilverBought, err = sum(models.MetalSilver, true); err != nil {
		return nil, err
	}
	if out.TotalGoldSold, err = sum(models.MetalGold, false); err != nil {
		return nil, err
	}
	if out.TotalSilverSold, err = sum(models.MetalSilver, false); err != nil {
		return nil, err
	}

	if err := r.DB.WithContext(ctx).Model(&models.Investment{}).
		Select(
			"DATE(created_at) AS day, " +
				"COALESCE(SUM(CASE WHEN type = 'Gold' THEN amount ELSE 0 END), 0) AS gold_amount, " +
				"COALESCE(SUM(CASE WHEN type = 'Silver' THEN amount ELSE 0 END), 0) AS silver_amount").
		Group("DATE(created_at)").
		Order("day ASC").
		Limit(30).
		Scan(&out.Trends).Error; err != nil {
		return nil, err
	}

	return &out, nil
}
