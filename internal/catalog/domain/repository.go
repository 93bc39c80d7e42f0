package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound   = errors.New("product_not_found")
	ErrProductInactive   = errors.New("product_inactive")
	ErrTreatmentNotFound = errors.New("treatment_not_found")
	ErrTreatmentInactive = errors.New("treatment_inactive")
)

// Repository reads catalog rows. Lookups of a missing row return nil, nil.
type Repository interface {
	FindProduct(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	FindProducts(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]*Product, error)
	FindTreatment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Treatment, error)
	FindProductPrice(ctx context.Context, db *gorm.DB, productID, categoryID snowflake.ID) (*ProductPrice, error)
}
