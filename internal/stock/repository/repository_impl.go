package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kasir/internal/stock/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) LockProducts(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]snowflake.ID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []int64
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM products WHERE id IN ? ORDER BY id FOR UPDATE`,
		ids,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	locked := make([]snowflake.ID, 0, len(rows))
	for _, id := range rows {
		locked = append(locked, snowflake.ID(id))
	}
	return locked, nil
}

const balanceSQL = `SELECT p.id AS product_id,
	COALESCE(SUM(CASE
		WHEN m.kind IN ('IN', 'ADJUST') THEN m.quantity
		WHEN m.kind IN ('OUT', 'SALE') THEN -m.quantity
		ELSE 0
	END), 0) AS quantity
FROM products p
LEFT JOIN stock_movements m ON m.product_id = p.id`

func (r *repo) Balances(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]int64, error) {
	type row struct {
		ProductID int64
		Quantity  int64
	}

	var rows []row
	var err error
	if ids == nil {
		err = db.WithContext(ctx).Raw(balanceSQL + ` GROUP BY p.id ORDER BY p.id`).Scan(&rows).Error
	} else {
		if len(ids) == 0 {
			return map[snowflake.ID]int64{}, nil
		}
		err = db.WithContext(ctx).Raw(balanceSQL+` WHERE p.id IN ? GROUP BY p.id ORDER BY p.id`, ids).Scan(&rows).Error
	}
	if err != nil {
		return nil, err
	}

	out := make(map[snowflake.ID]int64, len(rows))
	for _, r := range rows {
		out[snowflake.ID(r.ProductID)] = r.Quantity
	}
	return out, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, movements []domain.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&movements).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.StockMovement, error) {
	var movements []*domain.StockMovement
	stmt := db.WithContext(ctx).Model(&domain.StockMovement{})

	if filter.ProductID != nil {
		stmt = stmt.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}
	if filter.StartAt != nil {
		stmt = stmt.Where("created_at >= ?", filter.StartAt.UTC())
	}
	if filter.EndAt != nil {
		stmt = stmt.Where("created_at <= ?", filter.EndAt.UTC())
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}
	if err := stmt.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
