package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/kasir/internal/catalog/domain"
	pricingdomain "github.com/smallbiznis/kasir/internal/pricing/domain"
	"github.com/smallbiznis/kasir/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	CatalogRepo catalogdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	catalogRepo catalogdomain.Repository
}

func New(p Params) pricingdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("pricing.service"),
		catalogRepo: p.CatalogRepo,
	}
}

func (s *Service) Resolve(ctx context.Context, db *gorm.DB, item catalogdomain.Item, categoryID snowflake.ID) (decimal.Decimal, error) {
	if db == nil {
		db = s.db
	}

	switch it := item.(type) {
	case *catalogdomain.Treatment:
		return money.Round2(it.SellPrice), nil
	case *catalogdomain.Product:
		price, err := s.catalogRepo.FindProductPrice(ctx, db, it.ID, categoryID)
		if err != nil {
			return decimal.Zero, err
		}
		if price == nil {
			s.log.Debug("no price for category",
				zap.String("product_id", it.ID.String()),
				zap.String("category_id", categoryID.String()),
			)
			return decimal.Zero, fmt.Errorf("product %s category %s: %w", it.ID, categoryID, pricingdomain.ErrPricingMissing)
		}
		return money.Round2(price.Price), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported item %T", item)
	}
}
