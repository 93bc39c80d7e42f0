// Package dbtest opens throwaway in-memory SQLite databases carrying the
// kasir schema.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// Schema mirrors the PostgreSQL migrations in SQLite syntax.
var Schema = []string{
	`CREATE TABLE customer_categories (
		id INTEGER PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE members (
		id INTEGER PRIMARY KEY,
		member_code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		phone TEXT,
		category_id INTEGER NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE products (
		id INTEGER PRIMARY KEY,
		sku TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT 'pcs',
		cost_price NUMERIC NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE product_prices (
		id INTEGER PRIMARY KEY,
		product_id INTEGER NOT NULL,
		category_id INTEGER NOT NULL,
		price NUMERIC NOT NULL,
		UNIQUE (product_id, category_id)
	)`,
	`CREATE TABLE treatments (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		sell_price NUMERIC NOT NULL,
		cost_price NUMERIC NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE therapist_levels (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		default_commission NUMERIC NOT NULL,
		min_commission NUMERIC NOT NULL,
		max_commission NUMERIC NOT NULL
	)`,
	`CREATE TABLE therapists (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		level_id INTEGER,
		commission_percent NUMERIC,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE store_settings (
		id INTEGER PRIMARY KEY,
		store_name TEXT NOT NULL DEFAULT '',
		commission_default_percent NUMERIC
	)`,
	`CREATE TABLE stock_movements (
		id INTEGER PRIMARY KEY,
		product_id INTEGER NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('IN','OUT','ADJUST','SALE')),
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_cost NUMERIC NOT NULL DEFAULT 0,
		transaction_id INTEGER,
		note TEXT,
		actor_id TEXT,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE transactions (
		id INTEGER PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		checkout_session_id TEXT NOT NULL UNIQUE,
		cashier_id TEXT NOT NULL,
		member_id INTEGER,
		category_id INTEGER NOT NULL,
		status TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		paid_amount NUMERIC NOT NULL,
		subtotal NUMERIC NOT NULL,
		discount_total NUMERIC NOT NULL,
		total NUMERIC NOT NULL,
		cost_total NUMERIC NOT NULL,
		profit_total NUMERIC NOT NULL,
		commission_total NUMERIC NOT NULL,
		change_amount NUMERIC NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE transaction_items (
		id INTEGER PRIMARY KEY,
		transaction_id INTEGER NOT NULL,
		type TEXT NOT NULL,
		product_id INTEGER,
		treatment_id INTEGER,
		therapist_id INTEGER,
		assistant_id INTEGER,
		name TEXT NOT NULL,
		qty INTEGER NOT NULL,
		unit_price NUMERIC NOT NULL,
		discount_type TEXT NOT NULL,
		discount_value NUMERIC NOT NULL,
		line_subtotal NUMERIC NOT NULL,
		line_discount NUMERIC NOT NULL,
		line_total NUMERIC NOT NULL,
		cost_price NUMERIC NOT NULL,
		profit NUMERIC NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE therapist_commissions (
		id INTEGER PRIMARY KEY,
		transaction_item_id INTEGER NOT NULL,
		therapist_id INTEGER NOT NULL,
		role TEXT NOT NULL,
		percent NUMERIC NOT NULL,
		base_amount NUMERIC NOT NULL,
		amount NUMERIC NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE checkout_failures (
		id INTEGER PRIMARY KEY,
		reason TEXT NOT NULL,
		payload TEXT,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE audit_logs (
		id INTEGER PRIMARY KEY,
		actor_type TEXT NOT NULL,
		actor_id TEXT,
		action TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_id TEXT,
		metadata TEXT,
		created_at DATETIME NOT NULL
	)`,
}

// Open returns a fresh database limited to one connection, so concurrent
// transactions queue behind each other the way row locks would serialize
// them on PostgreSQL. FOR UPDATE clauses are stripped before execution.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:kasir_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	stripForUpdate := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			sql = strings.ReplaceAll(sql, "FOR UPDATE SKIP LOCKED", "")
			sql = strings.ReplaceAll(sql, "FOR UPDATE", "")
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(sql)
		}
	}
	if err := db.Callback().Query().Before("gorm:query").Register("sqlite_strip_for_update", stripForUpdate); err != nil {
		t.Fatalf("register query callback: %v", err)
	}
	if err := db.Callback().Row().Before("gorm:row").Register("sqlite_strip_for_update_row", stripForUpdate); err != nil {
		t.Fatalf("register row callback: %v", err)
	}

	for _, stmt := range Schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

// AssertCount fails t unless query returns expected.
func AssertCount(t testing.TB, db *gorm.DB, query string, expected int64, args ...any) {
	t.Helper()
	var count int64
	if err := db.Raw(query, args...).Scan(&count).Error; err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected %d rows for %q, got %d", expected, query, count)
	}
}
