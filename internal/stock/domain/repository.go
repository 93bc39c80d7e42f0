package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// LockProducts row-locks the given products in ascending id order and
	// returns the ids that exist.
	LockProducts(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]snowflake.ID, error)
	// Balances aggregates movements per product. A nil ids covers every
	// product; products without movements report zero.
	Balances(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]int64, error)
	Insert(ctx context.Context, db *gorm.DB, movements []StockMovement) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*StockMovement, error)
}
