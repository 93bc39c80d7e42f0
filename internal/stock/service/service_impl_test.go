package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditrepo "github.com/smallbiznis/kasir/internal/audit/repository"
	auditservice "github.com/smallbiznis/kasir/internal/audit/service"
	catalogdomain "github.com/smallbiznis/kasir/internal/catalog/domain"
	catalogrepo "github.com/smallbiznis/kasir/internal/catalog/repository"
	"github.com/smallbiznis/kasir/internal/clock"
	stockdomain "github.com/smallbiznis/kasir/internal/stock/domain"
	"github.com/smallbiznis/kasir/internal/stock/repository"
	"github.com/smallbiznis/kasir/internal/stock/service"
	"github.com/smallbiznis/kasir/pkg/db/dbtest"
	"github.com/smallbiznis/kasir/pkg/db/pagination"
	"github.com/smallbiznis/kasir/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   stockdomain.Service
	clock *clock.FakeClock
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := dbtest.Open(t)

	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  auditrepo.Provide(),
	})
	svc := service.New(service.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        repository.Provide(),
		CatalogRepo: catalogrepo.Provide(),
		AuditSvc:    auditSvc,
	})

	mustExec(t, db, `INSERT INTO products (id, sku, name, cost_price, active) VALUES (101, 'SRM', 'Serum', 30000, 1)`)
	mustExec(t, db, `INSERT INTO products (id, sku, name, cost_price, active) VALUES (102, 'MSK', 'Masker', 12000.50, 1)`)
	return fixture{db: db, svc: svc, clock: clk}
}

func mustExec(t *testing.T, db *gorm.DB, sql string, args ...any) {
	t.Helper()
	if err := db.Exec(sql, args...).Error; err != nil {
		t.Fatalf("exec %q: %v", sql, err)
	}
}

func seedMovement(t *testing.T, db *gorm.DB, id, productID int64, kind string, qty int64) {
	t.Helper()
	mustExec(t, db,
		`INSERT INTO stock_movements (id, product_id, kind, quantity, unit_cost, created_at) VALUES (?, ?, ?, ?, 0, ?)`,
		id, productID, kind, qty, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id)*time.Second),
	)
}

func TestCurrentStockConservation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	seedMovement(t, f.db, 1, 101, "IN", 10)
	seedMovement(t, f.db, 2, 101, "ADJUST", 3)
	seedMovement(t, f.db, 3, 101, "OUT", 2)
	seedMovement(t, f.db, 4, 101, "SALE", 4)

	qty, err := f.svc.CurrentStock(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, int64(7), qty)

	all, err := f.svc.AllStocks(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[snowflake.ID]int64{101: 7, 102: 0}, all)

	_, err = f.svc.CurrentStock(ctx, 999)
	assert.ErrorIs(t, err, catalogdomain.ErrProductNotFound)
}

func TestReserveAndValidateInsufficientStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	seedMovement(t, f.db, 1, 101, "IN", 1)

	err := f.db.Transaction(func(tx *gorm.DB) error {
		return f.svc.ReserveAndValidate(ctx, tx, map[snowflake.ID]int64{101: 2})
	})

	var insufficient *stockdomain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, errors.Is(err, stockdomain.ErrInsufficientStock))
	assert.Equal(t, snowflake.ID(101), insufficient.ProductID)
	assert.Equal(t, int64(1), insufficient.Available)
	assert.Equal(t, int64(2), insufficient.Requested)

	qty, err := f.svc.CurrentStock(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, int64(1), qty)
}

func TestReserveAndValidateUnknownProduct(t *testing.T) {
	f := setup(t)
	err := f.db.Transaction(func(tx *gorm.DB) error {
		return f.svc.ReserveAndValidate(context.Background(), tx, map[snowflake.ID]int64{101: 1, 555: 1})
	})
	assert.ErrorIs(t, err, catalogdomain.ErrProductNotFound)
}

func TestReserveAndValidateRejectsNonPositiveQuantity(t *testing.T) {
	f := setup(t)
	seedMovement(t, f.db, 1, 101, "IN", 1)

	for _, requested := range []int64{0, -1, math.MinInt64} {
		err := f.db.Transaction(func(tx *gorm.DB) error {
			return f.svc.ReserveAndValidate(context.Background(), tx, map[snowflake.ID]int64{101: requested})
		})
		assert.ErrorIs(t, err, stockdomain.ErrInvalidQuantity, "requested %d", requested)
	}
}

func TestRecordSalesReducesStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	seedMovement(t, f.db, 1, 101, "IN", 5)
	seedMovement(t, f.db, 2, 102, "IN", 5)

	err := f.db.Transaction(func(tx *gorm.DB) error {
		quantities := map[snowflake.ID]int64{101: 2, 102: 5}
		if err := f.svc.ReserveAndValidate(ctx, tx, quantities); err != nil {
			return err
		}
		return f.svc.RecordSales(ctx, tx, []stockdomain.SaleMovement{
			{ProductID: 101, Quantity: 2, UnitCost: money.MustParse("30000"), TransactionID: 77},
			{ProductID: 102, Quantity: 5, UnitCost: money.MustParse("12000.50"), TransactionID: 77},
		})
	})
	require.NoError(t, err)

	all, err := f.svc.AllStocks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), all[101])
	assert.Equal(t, int64(0), all[102])
	dbtest.AssertCount(t, f.db, `SELECT COUNT(*) FROM stock_movements WHERE kind = 'SALE' AND transaction_id = 77`, 2)
}

func TestAdjustPositiveAndNegative(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	resp, err := f.svc.Adjust(ctx, stockdomain.AdjustRequest{ProductID: "101", Delta: 4, Note: "opname"})
	require.NoError(t, err)
	assert.Equal(t, stockdomain.KindAdjust, resp.Movement.Kind)
	assert.Equal(t, int64(4), resp.Movement.Quantity)
	assert.True(t, resp.Movement.UnitCost.Equal(money.MustParse("30000")))
	assert.Equal(t, int64(4), resp.Stock)

	resp, err = f.svc.Adjust(ctx, stockdomain.AdjustRequest{ProductID: "101", Delta: -3, Note: "rusak"})
	require.NoError(t, err)
	assert.Equal(t, stockdomain.KindOut, resp.Movement.Kind)
	assert.Equal(t, int64(3), resp.Movement.Quantity)
	assert.Equal(t, int64(1), resp.Stock)

	dbtest.AssertCount(t, f.db, `SELECT COUNT(*) FROM audit_logs WHERE action = 'stock.adjusted' AND target_id = '101'`, 2)
}

func TestAdjustRejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Adjust(ctx, stockdomain.AdjustRequest{ProductID: "101", Delta: 0, Note: "x"})
	assert.ErrorIs(t, err, stockdomain.ErrInvalidAdjustment)

	_, err = f.svc.Adjust(ctx, stockdomain.AdjustRequest{ProductID: "101", Delta: 1, Note: "  "})
	assert.ErrorIs(t, err, stockdomain.ErrNoteRequired)

	_, err = f.svc.Adjust(ctx, stockdomain.AdjustRequest{ProductID: "abc", Delta: 1, Note: "x"})
	assert.ErrorIs(t, err, stockdomain.ErrInvalidProductID)

	_, err = f.svc.Adjust(ctx, stockdomain.AdjustRequest{ProductID: "404", Delta: 1, Note: "x"})
	assert.ErrorIs(t, err, catalogdomain.ErrProductNotFound)

	_, err = f.svc.Adjust(ctx, stockdomain.AdjustRequest{ProductID: "101", Delta: -1, Note: "x"})
	assert.ErrorIs(t, err, stockdomain.ErrInsufficientStock)

	dbtest.AssertCount(t, f.db, `SELECT COUNT(*) FROM stock_movements`, 0)
	dbtest.AssertCount(t, f.db, `SELECT COUNT(*) FROM audit_logs`, 0)
}

func TestListMovementsPaginates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		seedMovement(t, f.db, i, 101, "IN", i)
	}
	seedMovement(t, f.db, 6, 102, "IN", 1)

	page, err := f.svc.ListMovements(ctx, stockdomain.ListMovementsRequest{
		Pagination: pagination.Pagination{PageSize: 2},
		ProductID:  "101",
	})
	require.NoError(t, err)
	require.Len(t, page.Movements, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, snowflake.ID(5), page.Movements[0].ID)
	assert.Equal(t, snowflake.ID(4), page.Movements[1].ID)

	next, err := f.svc.ListMovements(ctx, stockdomain.ListMovementsRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: page.NextPageToken},
		ProductID:  "101",
	})
	require.NoError(t, err)
	require.Len(t, next.Movements, 2)
	assert.Equal(t, snowflake.ID(3), next.Movements[0].ID)

	_, err = f.svc.ListMovements(ctx, stockdomain.ListMovementsRequest{Kind: "GIFT"})
	assert.ErrorIs(t, err, stockdomain.ErrInvalidKind)
}
