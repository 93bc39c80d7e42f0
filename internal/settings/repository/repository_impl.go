package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/kasir/internal/settings/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Get(ctx context.Context, db *gorm.DB) (*domain.StoreSetting, error) {
	var setting domain.StoreSetting
	err := db.WithContext(ctx).Where("id = ?", domain.StoreSettingID).Take(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}
