package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CheckoutFailure records why a checkout attempt was rejected together with
// the shape of the request. Rows are written outside the checkout transaction.
type CheckoutFailure struct {
	ID        snowflake.ID      `json:"id" gorm:"primaryKey"`
	Reason    string            `json:"reason" gorm:"type:text;not null"`
	Payload   datatypes.JSONMap `json:"payload" gorm:"type:jsonb"`
	CreatedAt time.Time         `json:"created_at" gorm:"not null"`
}

func (CheckoutFailure) TableName() string { return "checkout_failures" }

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, failure *CheckoutFailure) error
}

// Recorder is a best-effort sink. Record never fails the caller.
type Recorder interface {
	Record(ctx context.Context, reason string, payload map[string]any)
}
