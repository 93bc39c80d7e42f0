package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/kasir/internal/audit/domain"
	catalogdomain "github.com/smallbiznis/kasir/internal/catalog/domain"
	"github.com/smallbiznis/kasir/internal/clock"
	obscontext "github.com/smallbiznis/kasir/internal/observability/context"
	"github.com/smallbiznis/kasir/internal/observability/metrics"
	stockdomain "github.com/smallbiznis/kasir/internal/stock/domain"
	"github.com/smallbiznis/kasir/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	Repo            stockdomain.Repository
	CatalogRepo     catalogdomain.Repository
	AuditSvc        auditdomain.Service
	Metrics         *metrics.Metrics         `optional:"true"`
	CheckoutMetrics *metrics.CheckoutMetrics `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	repo            stockdomain.Repository
	catalogRepo     catalogdomain.Repository
	auditSvc        auditdomain.Service
	metrics         *metrics.Metrics
	checkoutMetrics *metrics.CheckoutMetrics
}

func New(p Params) stockdomain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("stock.service"),
		genID:           p.GenID,
		clock:           p.Clock,
		repo:            p.Repo,
		catalogRepo:     p.CatalogRepo,
		auditSvc:        p.AuditSvc,
		metrics:         p.Metrics,
		checkoutMetrics: p.CheckoutMetrics,
	}
}

func (s *Service) ReserveAndValidate(ctx context.Context, tx *gorm.DB, quantities map[snowflake.ID]int64) error {
	if len(quantities) == 0 {
		return nil
	}

	ids := make([]snowflake.ID, 0, len(quantities))
	for id, requested := range quantities {
		if requested <= 0 {
			return fmt.Errorf("product %s requested %d: %w", id, requested, stockdomain.ErrInvalidQuantity)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if err := s.lock(ctx, tx, ids); err != nil {
		return err
	}

	// Balances are read only after every lock is held.
	balances, err := s.repo.Balances(ctx, tx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		requested := quantities[id]
		if available := balances[id]; requested > available {
			return &stockdomain.InsufficientStockError{
				ProductID: id,
				Available: available,
				Requested: requested,
			}
		}
	}
	return nil
}

func (s *Service) RecordSales(ctx context.Context, tx *gorm.DB, sales []stockdomain.SaleMovement) error {
	if len(sales) == 0 {
		return nil
	}

	now := s.clock.Now().UTC()
	actorID := operatorID(ctx)
	movements := make([]stockdomain.StockMovement, 0, len(sales))
	for _, sale := range sales {
		if sale.Quantity <= 0 {
			return fmt.Errorf("sale of product %s: %w", sale.ProductID, stockdomain.ErrInvalidAdjustment)
		}
		transactionID := sale.TransactionID
		movements = append(movements, stockdomain.StockMovement{
			ID:            s.genID.Generate(),
			ProductID:     sale.ProductID,
			Kind:          stockdomain.KindSale,
			Quantity:      sale.Quantity,
			UnitCost:      sale.UnitCost,
			TransactionID: &transactionID,
			ActorID:       actorID,
			CreatedAt:     now,
		})
	}
	return s.repo.Insert(ctx, tx, movements)
}

func (s *Service) CurrentStock(ctx context.Context, productID snowflake.ID) (int64, error) {
	balances, err := s.repo.Balances(ctx, s.db, []snowflake.ID{productID})
	if err != nil {
		return 0, err
	}
	qty, ok := balances[productID]
	if !ok {
		return 0, catalogdomain.ErrProductNotFound
	}
	return qty, nil
}

func (s *Service) AllStocks(ctx context.Context) (map[snowflake.ID]int64, error) {
	return s.repo.Balances(ctx, s.db, nil)
}

func (s *Service) Adjust(ctx context.Context, req stockdomain.AdjustRequest) (*stockdomain.AdjustResponse, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(req.ProductID))
	if err != nil || productID == 0 {
		return nil, stockdomain.ErrInvalidProductID
	}
	if req.Delta == 0 {
		return nil, stockdomain.ErrInvalidAdjustment
	}
	note := strings.TrimSpace(req.Note)
	if note == "" {
		return nil, stockdomain.ErrNoteRequired
	}

	kind := stockdomain.KindAdjust
	quantity := req.Delta
	if req.Delta < 0 {
		kind = stockdomain.KindOut
		quantity = -req.Delta
	}

	var resp stockdomain.AdjustResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lock(ctx, tx, []snowflake.ID{productID}); err != nil {
			return err
		}
		product, err := s.catalogRepo.FindProduct(ctx, tx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return catalogdomain.ErrProductNotFound
		}

		balances, err := s.repo.Balances(ctx, tx, []snowflake.ID{productID})
		if err != nil {
			return err
		}
		before := balances[productID]
		if kind == stockdomain.KindOut && quantity > before {
			return &stockdomain.InsufficientStockError{ProductID: productID, Available: before, Requested: quantity}
		}

		movement := stockdomain.StockMovement{
			ID:        s.genID.Generate(),
			ProductID: productID,
			Kind:      kind,
			Quantity:  quantity,
			UnitCost:  product.CostPrice,
			Note:      &note,
			ActorID:   operatorID(ctx),
			CreatedAt: s.clock.Now().UTC(),
		}
		if err := s.repo.Insert(ctx, tx, []stockdomain.StockMovement{movement}); err != nil {
			return err
		}

		after := before + req.Delta
		if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
			Action:     auditdomain.ActionStockAdjusted,
			TargetType: auditdomain.TargetProduct,
			TargetID:   productID.String(),
			Metadata: map[string]any{
				"movement_id": movement.ID.String(),
				"kind":        string(kind),
				"delta":       req.Delta,
				"before":      before,
				"after":       after,
				"note":        note,
			},
		}); err != nil {
			return err
		}

		resp = stockdomain.AdjustResponse{Movement: movement, Stock: after}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordStockMovements(ctx, string(kind), 1)
	s.log.Info("stock adjusted",
		zap.String("product_id", productID.String()),
		zap.String("kind", string(kind)),
		zap.Int64("delta", req.Delta),
		zap.Int64("stock", resp.Stock),
	)
	return &resp, nil
}

func (s *Service) ListMovements(ctx context.Context, req stockdomain.ListMovementsRequest) (stockdomain.ListMovementsResponse, error) {
	filter := stockdomain.ListFilter{
		StartAt: req.StartAt,
		EndAt:   req.EndAt,
		Limit:   req.Limit(),
	}
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return stockdomain.ListMovementsResponse{}, stockdomain.ErrInvalidTimeRange
	}
	if raw := strings.TrimSpace(req.ProductID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return stockdomain.ListMovementsResponse{}, stockdomain.ErrInvalidProductID
		}
		filter.ProductID = &id
	}
	if raw := strings.TrimSpace(req.Kind); raw != "" {
		kind := stockdomain.MovementKind(strings.ToUpper(raw))
		if !kind.Valid() {
			return stockdomain.ListMovementsResponse{}, stockdomain.ErrInvalidKind
		}
		filter.Kind = kind
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := decodeCursor(token)
		if err != nil {
			return stockdomain.ListMovementsResponse{}, stockdomain.ErrInvalidPageToken
		}
		filter.Cursor = cursor
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return stockdomain.ListMovementsResponse{}, err
	}
	items, pageInfo := pagination.BuildCursorPage(items, filter.Limit, func(m *stockdomain.StockMovement) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        m.ID.String(),
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		return token
	})

	movements := make([]stockdomain.StockMovement, 0, len(items))
	for _, item := range items {
		movements = append(movements, *item)
	}
	return stockdomain.ListMovementsResponse{PageInfo: pageInfo, Movements: movements}, nil
}

func (s *Service) lock(ctx context.Context, tx *gorm.DB, ids []snowflake.ID) error {
	start := time.Now()
	locked, err := s.repo.LockProducts(ctx, tx, ids)
	s.checkoutMetrics.ObserveLockWait(metrics.LockResourceProducts, time.Since(start))
	if err != nil {
		return err
	}
	if len(locked) == len(ids) {
		return nil
	}

	present := make(map[snowflake.ID]struct{}, len(locked))
	for _, id := range locked {
		present[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			return fmt.Errorf("product %s: %w", id, catalogdomain.ErrProductNotFound)
		}
	}
	return nil
}

func decodeCursor(token string) (*stockdomain.MovementCursor, error) {
	decoded, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
	if err != nil {
		return nil, err
	}
	id, err := snowflake.ParseString(decoded.ID)
	if err != nil {
		return nil, err
	}
	return &stockdomain.MovementCursor{ID: id, CreatedAt: createdAt}, nil
}

func operatorID(ctx context.Context) *string {
	id := obscontext.OperatorIDFromContext(ctx)
	if id == "" {
		return nil
	}
	return &id
}
