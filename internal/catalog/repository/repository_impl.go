package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kasir/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindProduct(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var product domain.Product
	err := db.WithContext(ctx).Where("id = ?", id).Take(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repo) FindProducts(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]*domain.Product, error) {
	out := make(map[snowflake.ID]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []*domain.Product
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *repo) FindTreatment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Treatment, error) {
	var treatment domain.Treatment
	err := db.WithContext(ctx).Where("id = ?", id).Take(&treatment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &treatment, nil
}

func (r *repo) FindProductPrice(ctx context.Context, db *gorm.DB, productID, categoryID snowflake.ID) (*domain.ProductPrice, error) {
	var price domain.ProductPrice
	err := db.WithContext(ctx).
		Where("product_id = ? AND category_id = ?", productID, categoryID).
		Take(&price).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &price, nil
}
