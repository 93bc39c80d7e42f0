package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kasir/internal/member/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindMemberByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Member, error) {
	var member domain.Member
	err := db.WithContext(ctx).
		Where("member_code = ?", strings.TrimSpace(code)).
		Take(&member).Error
	return found(&member, err)
}

func (r *repo) FindMemberByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Member, error) {
	var member domain.Member
	err := db.WithContext(ctx).Where("id = ?", id).Take(&member).Error
	return found(&member, err)
}

func (r *repo) FindCategoryByCode(ctx context.Context, db *gorm.DB, code string) (*domain.CustomerCategory, error) {
	var category domain.CustomerCategory
	err := db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Take(&category).Error
	return found(&category, err)
}

func (r *repo) FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CustomerCategory, error) {
	var category domain.CustomerCategory
	err := db.WithContext(ctx).Where("id = ?", id).Take(&category).Error
	return found(&category, err)
}

func found[T any](row *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}
