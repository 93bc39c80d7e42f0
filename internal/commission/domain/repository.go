package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertBatch(ctx context.Context, db *gorm.DB, rows []TherapistCommission) error
	ListByTherapist(ctx context.Context, db *gorm.DB, therapistID snowflake.ID, from, to time.Time) ([]TherapistCommission, error)
}
