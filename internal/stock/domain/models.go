package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type MovementKind string

const (
	KindIn     MovementKind = "IN"
	KindOut    MovementKind = "OUT"
	KindAdjust MovementKind = "ADJUST"
	KindSale   MovementKind = "SALE"
)

// Inbound reports whether the kind adds to stock.
func (k MovementKind) Inbound() bool {
	return k == KindIn || k == KindAdjust
}

func (k MovementKind) Valid() bool {
	switch k {
	case KindIn, KindOut, KindAdjust, KindSale:
		return true
	}
	return false
}

// StockMovement is one append-only ledger entry. Quantity is always positive;
// the direction comes from Kind.
type StockMovement struct {
	ID            snowflake.ID    `json:"id" gorm:"primaryKey"`
	ProductID     snowflake.ID    `json:"product_id" gorm:"not null;index"`
	Kind          MovementKind    `json:"kind" gorm:"type:text;not null"`
	Quantity      int64           `json:"quantity" gorm:"not null"`
	UnitCost      decimal.Decimal `json:"unit_cost" gorm:"type:numeric(14,2);not null"`
	TransactionID *snowflake.ID   `json:"transaction_id,omitempty"`
	Note          *string         `json:"note,omitempty" gorm:"type:text"`
	ActorID       *string         `json:"actor_id,omitempty" gorm:"type:text"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null"`
}

func (StockMovement) TableName() string { return "stock_movements" }

// SaleMovement is what checkout hands to the ledger per product line.
type SaleMovement struct {
	ProductID     snowflake.ID
	Quantity      int64
	UnitCost      decimal.Decimal
	TransactionID snowflake.ID
}

type Balance struct {
	ProductID snowflake.ID `json:"product_id"`
	Quantity  int64        `json:"quantity"`
}

type MovementCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	ProductID *snowflake.ID
	Kind      MovementKind
	StartAt   *time.Time
	EndAt     *time.Time
	Cursor    *MovementCursor
	Limit     int
}
