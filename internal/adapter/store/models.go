package store

import (
	"time"

	"currency-rates-service/internal/domain/model"
)

type RateModel struct {
	ID        string  `gorm:"primaryKey;type:uuid"`
	Date      string  `gorm:"uniqueIndex:idx_rates_date_from_to;not null"`
	From      string  `gorm:"column:from_currency;uniqueIndex:idx_rates_date_from_to;not null"`
	To        string  `gorm:"column:to_currency;uniqueIndex:idx_rates_date_from_to;not null"`
	Rate      float64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RateModel) TableName() string {
	return "rates"
}

func ToRateModel(rate *model.PersistedRate) *RateModel {
	return &RateModel{
		ID:        rate.ID,
		Date:      rate.Date,
		From:      rate.From.String(),
		To:        rate.To.String(),
		Rate:      rate.Rate,
		CreatedAt: rate.CreatedAt,
		UpdatedAt: rate.UpdatedAt,
	}
}

func ToDomainRate(m *RateModel) *model.PersistedRate {
	return &model.PersistedRate{
		ID:        m.ID,
		Date:      m.Date,
		From:      model.Currency(m.From),
		To:        model.Currency(m.To),
		Rate:      m.Rate,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
