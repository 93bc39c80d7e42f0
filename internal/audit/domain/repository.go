package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, log *AuditLog) error
	// List returns up to filter.Limit+1 rows, newest first, so the caller can
	// tell whether another page exists.
	List(ctx context.Context, db *gorm.DB, filter Filter) ([]*AuditLog, error)
}
