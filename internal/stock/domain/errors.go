package domain

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInsufficientStock = errors.New("insufficient_stock")
	ErrInvalidAdjustment = errors.New("invalid_adjustment")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrNoteRequired      = errors.New("note_required")
	ErrInvalidProductID  = errors.New("invalid_product_id")
	ErrInvalidKind       = errors.New("invalid_kind")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
	ErrInvalidTimeRange  = errors.New("invalid_time_range")
)

// InsufficientStockError names the first product that cannot cover its
// requested quantity. It matches ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	ProductID snowflake.ID
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d", e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
