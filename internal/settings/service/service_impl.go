package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/kasir/internal/config"
	"github.com/smallbiznis/kasir/internal/settings/domain"
	"github.com/smallbiznis/kasir/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   domain.Repository
	Config *config.CheckoutConfigHolder
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
	cfg  *config.CheckoutConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("settings.service"),
		repo: p.Repo,
		cfg:  p.Config,
	}
}

func (s *Service) CommissionDefault(ctx context.Context, db *gorm.DB) (decimal.Decimal, error) {
	if db == nil {
		db = s.db
	}
	setting, err := s.repo.Get(ctx, db)
	if err != nil {
		return decimal.Zero, err
	}
	if setting != nil && setting.CommissionDefaultPercent.Valid {
		if money.ValidPercent(setting.CommissionDefaultPercent.Decimal) {
			return setting.CommissionDefaultPercent.Decimal, nil
		}
		s.log.Warn("store commission default out of range, using configured fallback",
			zap.String("percent", setting.CommissionDefaultPercent.Decimal.String()),
		)
	}
	return s.cfg.Get().CommissionPercent(), nil
}
