package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/kasir/internal/catalog/domain"
	"gorm.io/gorm"
)

// ErrPricingMissing means a product has no price for the customer category.
// A missing price is never treated as zero.
var ErrPricingMissing = errors.New("pricing_missing")

type Service interface {
	// Resolve returns the unit sell price of item for categoryID, rounded to
	// two places. Treatments carry one price for every category.
	Resolve(ctx context.Context, db *gorm.DB, item catalogdomain.Item, categoryID snowflake.ID) (decimal.Decimal, error)
}
