package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/kasir/pkg/db/pagination"
	"gorm.io/gorm"
)

type Query struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
	ActorID    string
	StartAt    *time.Time
	EndAt      *time.Time
}

type Page struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

// Service records who did what. Record writes through tx when given so the
// entry commits or rolls back with the caller's transaction.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, entry Entry) error
	List(ctx context.Context, q Query) (Page, error)
}

var (
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrInvalidAction    = errors.New("invalid_action")
)
