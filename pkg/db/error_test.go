package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassifyReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: ReasonLockTimeout},
		{name: "serialization", err: fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"}), want: ReasonSerializationFailure},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: ReasonDeadlock},
		{name: "unique", err: gorm.ErrDuplicatedKey, want: ReasonUniqueViolation},
		{name: "sqlite_unique", err: errors.New("UNIQUE constraint failed: transactions.checkout_session_id"), want: ReasonUniqueViolation},
		{name: "sqlite_busy", err: errors.New("database is locked (5) (SQLITE_BUSY)"), want: ReasonLockTimeout},
		{name: "deadline", err: context.DeadlineExceeded, want: ReasonDeadlineExceeded},
		{name: "unknown", err: errors.New("boom"), want: ReasonUnknown},
		{name: "nil", err: nil, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyReason(tc.err))
		})
	}
}

func TestIsConcurrencyErr(t *testing.T) {
	assert.True(t, IsConcurrencyErr(&pgconn.PgError{Code: "55P03"}))
	assert.True(t, IsConcurrencyErr(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, IsConcurrencyErr(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsConcurrencyErr(errors.New("boom")))
}
