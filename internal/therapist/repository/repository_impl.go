package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kasir/internal/therapist/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Therapist, error) {
	var therapist domain.Therapist
	err := db.WithContext(ctx).Where("id = ?", id).Take(&therapist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if therapist.LevelID != nil && *therapist.LevelID != 0 {
		var level domain.TherapistLevel
		err := db.WithContext(ctx).Where("id = ?", *therapist.LevelID).Take(&level).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
		case err != nil:
			return nil, err
		default:
			therapist.Level = &level
		}
	}
	return &therapist, nil
}
