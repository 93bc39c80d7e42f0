package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StoreSettingID is the id of the single store_settings row.
const StoreSettingID = 1

type StoreSetting struct {
	ID                       int64               `json:"id" gorm:"primaryKey"`
	StoreName                string              `json:"store_name" gorm:"type:text;not null"`
	CommissionDefaultPercent decimal.NullDecimal `json:"commission_default_percent" gorm:"type:numeric(5,2)"`
}

func (StoreSetting) TableName() string { return "store_settings" }

type Repository interface {
	Get(ctx context.Context, db *gorm.DB) (*StoreSetting, error)
}

type Service interface {
	// CommissionDefault is the store-wide fallback commission percent.
	CommissionDefault(ctx context.Context, db *gorm.DB) (decimal.Decimal, error)
}
