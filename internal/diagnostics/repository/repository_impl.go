package repository

import (
	"context"

	"github.com/smallbiznis/kasir/internal/diagnostics/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, failure *domain.CheckoutFailure) error {
	return db.WithContext(ctx).Create(failure).Error
}
