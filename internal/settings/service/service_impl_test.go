package service_test

import (
	"context"
	"testing"

	"github.com/smallbiznis/kasir/internal/config"
	"github.com/smallbiznis/kasir/internal/settings/repository"
	"github.com/smallbiznis/kasir/internal/settings/service"
	"github.com/smallbiznis/kasir/pkg/db/dbtest"
	"github.com/smallbiznis/kasir/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCommissionDefaultFallsBackToConfig(t *testing.T) {
	db := dbtest.Open(t)
	cfg := config.DefaultCheckoutConfig()
	cfg.DefaultCommissionPercent = "12.5"
	svc := service.New(service.Params{
		DB:     db,
		Log:    zap.NewNop(),
		Repo:   repository.Provide(),
		Config: config.NewStaticCheckoutConfigHolder(cfg),
	})

	got, err := svc.CommissionDefault(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, got.Equal(money.MustParse("12.5")), "got %s", got)
}

func TestCommissionDefaultFromStoreSettings(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, db.Exec(`INSERT INTO store_settings (id, store_name, commission_default_percent) VALUES (1, 'Klinik', 7.5)`).Error)
	svc := service.New(service.Params{
		DB:     db,
		Log:    zap.NewNop(),
		Repo:   repository.Provide(),
		Config: config.NewStaticCheckoutConfigHolder(config.DefaultCheckoutConfig()),
	})

	got, err := svc.CommissionDefault(context.Background(), db)
	require.NoError(t, err)
	assert.True(t, got.Equal(money.MustParse("7.5")), "got %s", got)
}
