package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kasir/internal/commission/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertBatch(ctx context.Context, db *gorm.DB, rows []domain.TherapistCommission) error {
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&rows).Error
}

func (r *repo) ListByTherapist(ctx context.Context, db *gorm.DB, therapistID snowflake.ID, from, to time.Time) ([]domain.TherapistCommission, error) {
	var rows []domain.TherapistCommission
	err := db.WithContext(ctx).
		Where("therapist_id = ? AND created_at >= ? AND created_at < ?", therapistID, from.UTC(), to.UTC()).
		Order("created_at asc, id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
