package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/kasir/internal/catalog/domain"
	catalogrepo "github.com/smallbiznis/kasir/internal/catalog/repository"
	pricingdomain "github.com/smallbiznis/kasir/internal/pricing/domain"
	"github.com/smallbiznis/kasir/internal/pricing/service"
	"github.com/smallbiznis/kasir/pkg/db/dbtest"
	"github.com/smallbiznis/kasir/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveProductPricePerCategory(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	require.NoError(t, db.Exec(`INSERT INTO products (id, sku, name, cost_price, active) VALUES (1, 'SRM-01', 'Serum', 30000, 1)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO product_prices (id, product_id, category_id, price) VALUES (1, 1, 10, 50000), (2, 1, 20, 45000)`).Error)

	svc := service.New(service.Params{DB: db, Log: zap.NewNop(), CatalogRepo: catalogrepo.Provide()})
	product := &catalogdomain.Product{ID: 1, Name: "Serum", Active: true}

	general, err := svc.Resolve(ctx, db, product, snowflake.ID(10))
	require.NoError(t, err)
	assert.True(t, general.Equal(money.MustParse("50000")), "got %s", general)

	member, err := svc.Resolve(ctx, db, product, snowflake.ID(20))
	require.NoError(t, err)
	assert.True(t, member.Equal(money.MustParse("45000")), "got %s", member)
}

func TestResolveMissingPriceIsAnError(t *testing.T) {
	db := dbtest.Open(t)
	svc := service.New(service.Params{DB: db, Log: zap.NewNop(), CatalogRepo: catalogrepo.Provide()})

	price, err := svc.Resolve(context.Background(), nil, &catalogdomain.Product{ID: 9}, snowflake.ID(10))
	if !errors.Is(err, pricingdomain.ErrPricingMissing) {
		t.Fatalf("expected ErrPricingMissing, got %v", err)
	}
	assert.True(t, price.IsZero())
}

func TestResolveTreatmentIgnoresCategory(t *testing.T) {
	db := dbtest.Open(t)
	svc := service.New(service.Params{DB: db, Log: zap.NewNop(), CatalogRepo: catalogrepo.Provide()})
	treatment := &catalogdomain.Treatment{ID: 3, SellPrice: money.MustParse("100000.004")}

	price, err := svc.Resolve(context.Background(), db, treatment, snowflake.ID(999))
	require.NoError(t, err)
	assert.True(t, price.Equal(money.MustParse("100000")), "got %s", price)
}
