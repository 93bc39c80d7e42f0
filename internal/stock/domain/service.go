package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kasir/pkg/db/pagination"
	"gorm.io/gorm"
)

type Service interface {
	// ReserveAndValidate locks every requested product inside tx and checks
	// that its balance covers the requested quantity.
	ReserveAndValidate(ctx context.Context, tx *gorm.DB, quantities map[snowflake.ID]int64) error
	RecordSales(ctx context.Context, tx *gorm.DB, sales []SaleMovement) error
	CurrentStock(ctx context.Context, productID snowflake.ID) (int64, error)
	AllStocks(ctx context.Context) (map[snowflake.ID]int64, error)
	Adjust(ctx context.Context, req AdjustRequest) (*AdjustResponse, error)
	ListMovements(ctx context.Context, req ListMovementsRequest) (ListMovementsResponse, error)
}

// AdjustRequest is a manual correction. A positive Delta is recorded as
// ADJUST, a negative one as OUT.
type AdjustRequest struct {
	ProductID string `json:"product_id"`
	Delta     int64  `json:"delta"`
	Note      string `json:"note"`
}

type AdjustResponse struct {
	Movement StockMovement `json:"movement"`
	Stock    int64         `json:"stock"`
}

type ListMovementsRequest struct {
	pagination.Pagination
	ProductID string     `form:"product_id"`
	Kind      string     `form:"kind"`
	StartAt   *time.Time `form:"start_at" time_format:"2006-01-02T15:04:05Z07:00"`
	EndAt     *time.Time `form:"end_at" time_format:"2006-01-02T15:04:05Z07:00"`
}

type ListMovementsResponse struct {
	pagination.PageInfo
	Movements []StockMovement `json:"movements"`
}
