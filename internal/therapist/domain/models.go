package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TherapistLevel bounds the commission a therapist of this level may earn.
type TherapistLevel struct {
	ID                snowflake.ID    `json:"id" gorm:"primaryKey"`
	Name              string          `json:"name" gorm:"type:text;not null"`
	DefaultCommission decimal.Decimal `json:"default_commission" gorm:"type:numeric(5,2);not null"`
	MinCommission     decimal.Decimal `json:"min_commission" gorm:"type:numeric(5,2);not null"`
	MaxCommission     decimal.Decimal `json:"max_commission" gorm:"type:numeric(5,2);not null"`
}

func (TherapistLevel) TableName() string { return "therapist_levels" }

type Therapist struct {
	ID                snowflake.ID        `json:"id" gorm:"primaryKey"`
	Name              string              `json:"name" gorm:"type:text;not null"`
	Phone             *string             `json:"phone,omitempty" gorm:"type:text"`
	LevelID           *snowflake.ID       `json:"level_id,omitempty"`
	CommissionPercent decimal.NullDecimal `json:"commission_percent" gorm:"type:numeric(5,2)"`
	Active            bool                `json:"active" gorm:"not null"`
	CreatedAt         time.Time           `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Level *TherapistLevel `json:"level,omitempty" gorm:"-"`
}

func (Therapist) TableName() string { return "therapists" }

type Repository interface {
	// FindByID loads the therapist with its level, or nil when absent.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Therapist, error)
}
