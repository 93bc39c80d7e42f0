package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/smallbiznis/kasir/internal/commission/domain"
	"gorm.io/gorm"
)

// Repository persists transactions. Find methods return nil, nil when the
// row does not exist.
type Repository interface {
	// InsertTransaction reports false when another transaction already holds
	// the checkout session id.
	InsertTransaction(ctx context.Context, db *gorm.DB, txn *Transaction) (bool, error)
	InsertItems(ctx context.Context, db *gorm.DB, items []TransactionItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Transaction, error)
	FindBySession(ctx context.Context, db *gorm.DB, sessionID string) (*Transaction, error)
	ListItems(ctx context.Context, db *gorm.DB, transactionID snowflake.ID) ([]TransactionItem, error)
	ListCommissions(ctx context.Context, db *gorm.DB, itemIDs []snowflake.ID) ([]commissiondomain.TherapistCommission, error)
}
