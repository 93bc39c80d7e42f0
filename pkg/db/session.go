package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SetLocalTimeouts bounds lock waits and statement time for the rest of tx.
// Only PostgreSQL supports SET LOCAL; other dialects are left untouched.
func SetLocalTimeouts(tx *gorm.DB, lockTimeout, statementTimeout time.Duration) error {
	if !IsPostgres(tx) {
		return nil
	}
	if lockTimeout > 0 {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = %d", lockTimeout.Milliseconds())).Error; err != nil {
			return err
		}
	}
	if statementTimeout > 0 {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL statement_timeout = %d", statementTimeout.Milliseconds())).Error; err != nil {
			return err
		}
	}
	return nil
}
