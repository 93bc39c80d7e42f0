package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kasir/internal/checkout/domain"
	commissiondomain "github.com/smallbiznis/kasir/internal/commission/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertTransaction(ctx context.Context, db *gorm.DB, txn *domain.Transaction) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "checkout_session_id"}},
			DoNothing: true,
		}).
		Create(txn)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.TransactionItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := db.WithContext(ctx).Where("id = ?", id).Take(&txn).Error
	return found(&txn, err)
}

func (r *repo) FindBySession(ctx context.Context, db *gorm.DB, sessionID string) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := db.WithContext(ctx).Where("checkout_session_id = ?", sessionID).Take(&txn).Error
	return found(&txn, err)
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, transactionID snowflake.ID) ([]domain.TransactionItem, error) {
	var items []domain.TransactionItem
	err := db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListCommissions(ctx context.Context, db *gorm.DB, itemIDs []snowflake.ID) ([]commissiondomain.TherapistCommission, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var rows []commissiondomain.TherapistCommission
	err := db.WithContext(ctx).
		Where("transaction_item_id IN ?", itemIDs).
		Order("transaction_item_id asc, role desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
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
