package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	ReasonLockTimeout          = "db_lock_timeout"
	ReasonSerializationFailure = "serialization_failure"
	ReasonDeadlock             = "deadlock"
	ReasonUniqueViolation      = "unique_violation"
	ReasonDeadlineExceeded     = "deadline_exceeded"
	ReasonUnknown              = "unknown"
)

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, "23505") {
		return true
	}

	msg := err.Error()
	// PostgreSQL without TranslateError
	if strings.Contains(msg, "duplicate key value violates unique constraint") {
		return true
	}
	// MySQL 1062
	if strings.Contains(msg, "Error 1062") {
		return true
	}
	// SQLite 2067
	return strings.Contains(msg, "UNIQUE constraint failed")
}

// IsConcurrencyErr reports lock timeouts, serialization failures and
// deadlocks. A caller may retry the whole unit of work on these.
func IsConcurrencyErr(err error) bool {
	switch ClassifyReason(err) {
	case ReasonLockTimeout, ReasonSerializationFailure, ReasonDeadlock:
		return true
	}
	return false
}

// ClassifyReason maps a database error to a low-cardinality label.
func ClassifyReason(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ReasonDeadlineExceeded
	case hasPGCode(err, "55P03"):
		return ReasonLockTimeout
	case hasPGCode(err, "40001"):
		return ReasonSerializationFailure
	case hasPGCode(err, "40P01"):
		return ReasonDeadlock
	case IsDuplicateKeyErr(err):
		return ReasonUniqueViolation
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "lock wait timeout"):
		return ReasonLockTimeout
	case strings.Contains(msg, "deadlock"):
		return ReasonDeadlock
	}
	return ReasonUnknown
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
