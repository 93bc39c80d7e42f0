package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/kasir/internal/audit/domain"
	"github.com/smallbiznis/kasir/internal/cache"
	catalogdomain "github.com/smallbiznis/kasir/internal/catalog/domain"
	checkoutdomain "github.com/smallbiznis/kasir/internal/checkout/domain"
	"github.com/smallbiznis/kasir/internal/clock"
	commissiondomain "github.com/smallbiznis/kasir/internal/commission/domain"
	"github.com/smallbiznis/kasir/internal/config"
	diagnosticsdomain "github.com/smallbiznis/kasir/internal/diagnostics/domain"
	memberdomain "github.com/smallbiznis/kasir/internal/member/domain"
	obscontext "github.com/smallbiznis/kasir/internal/observability/context"
	"github.com/smallbiznis/kasir/internal/observability/logger"
	"github.com/smallbiznis/kasir/internal/observability/metrics"
	"github.com/smallbiznis/kasir/internal/observability/tracing"
	pricingdomain "github.com/smallbiznis/kasir/internal/pricing/domain"
	settingsdomain "github.com/smallbiznis/kasir/internal/settings/domain"
	stockdomain "github.com/smallbiznis/kasir/internal/stock/domain"
	therapistdomain "github.com/smallbiznis/kasir/internal/therapist/domain"
	pkgdb "github.com/smallbiznis/kasir/pkg/db"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const systemCashierID = "system"

// errSessionTaken aborts an attempt whose insert lost the checkout session
// id to a concurrent request.
var errSessionTaken = errors.New("checkout_session_taken")

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config *config.CheckoutConfigHolder

	Repo           checkoutdomain.Repository
	CatalogRepo    catalogdomain.Repository
	MemberRepo     memberdomain.Repository
	TherapistRepo  therapistdomain.Repository
	CommissionRepo commissiondomain.Repository

	PricingSvc    pricingdomain.Service
	StockSvc      stockdomain.Service
	CommissionSvc commissiondomain.Service
	SettingsSvc   settingsdomain.Service
	AuditSvc      auditdomain.Service
	Recorder      diagnosticsdomain.Recorder

	ReplayCache     *cache.ReplayCache       `optional:"true"`
	Metrics         *metrics.Metrics         `optional:"true"`
	CheckoutMetrics *metrics.CheckoutMetrics `optional:"true"`
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	cfg    *config.CheckoutConfigHolder
	tracer trace.Tracer

	repo           checkoutdomain.Repository
	catalogRepo    catalogdomain.Repository
	memberRepo     memberdomain.Repository
	therapistRepo  therapistdomain.Repository
	commissionRepo commissiondomain.Repository

	pricingSvc    pricingdomain.Service
	stockSvc      stockdomain.Service
	commissionSvc commissiondomain.Service
	settingsSvc   settingsdomain.Service
	auditSvc      auditdomain.Service
	recorder      diagnosticsdomain.Recorder

	replayCache     *cache.ReplayCache
	metrics         *metrics.Metrics
	checkoutMetrics *metrics.CheckoutMetrics
}

func New(p Params) checkoutdomain.Service {
	cfg := p.Config
	if cfg == nil {
		cfg = config.NewStaticCheckoutConfigHolder(config.DefaultCheckoutConfig())
	}
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("checkout.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		cfg:    cfg,
		tracer: otel.Tracer("kasir/checkout"),

		repo:           p.Repo,
		catalogRepo:    p.CatalogRepo,
		memberRepo:     p.MemberRepo,
		therapistRepo:  p.TherapistRepo,
		commissionRepo: p.CommissionRepo,

		pricingSvc:    p.PricingSvc,
		stockSvc:      p.StockSvc,
		commissionSvc: p.CommissionSvc,
		settingsSvc:   p.SettingsSvc,
		auditSvc:      p.AuditSvc,
		recorder:      p.Recorder,

		replayCache:     p.ReplayCache,
		metrics:         p.Metrics,
		checkoutMetrics: p.CheckoutMetrics,
	}
}

func (s *Service) Checkout(ctx context.Context, req checkoutdomain.Request) (*checkoutdomain.Response, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "checkout.Checkout", trace.WithAttributes(tracing.SafeAttributes(
		attribute.String("checkout_session_id", strings.TrimSpace(req.CheckoutSessionID)),
		attribute.Int("items_count", len(req.Items)),
		attribute.String("member_code", req.MemberCode),
	)...))
	defer span.End()

	resp, err := s.checkout(ctx, req)
	outcome := s.observe(ctx, start, resp, err)
	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, checkoutdomain.Reason(err))
	}
	return resp, err
}

func (s *Service) checkout(ctx context.Context, req checkoutdomain.Request) (*checkoutdomain.Response, error) {
	cart, err := checkoutdomain.ParseCart(req)
	if err != nil {
		return nil, err
	}
	s.checkoutMetrics.ObserveCartLines(len(cart.Lines))

	resp, err := s.commit(ctx, cart)
	if err != nil {
		s.recorder.Record(ctx, checkoutdomain.Reason(err), failurePayload(cart, err))
		return nil, err
	}
	return resp, nil
}

func (s *Service) commit(ctx context.Context, cart *checkoutdomain.Cart) (*checkoutdomain.Response, error) {
	cfg := s.cfg.Get()

	category, member, err := s.resolveCategory(ctx, cart, cfg.DefaultCategoryCode)
	if err != nil {
		return nil, err
	}

	replayed, err := s.replay(ctx, cart.SessionID)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return replayed, nil
	}

	globalDefault, err := s.settingsSvc.CommissionDefault(ctx, s.db)
	if err != nil {
		return nil, err
	}

	var (
		resp  *checkoutdomain.Response
		sales int
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := pkgdb.SetLocalTimeouts(tx, cfg.LockTimeout, cfg.StatementTimeout); err != nil {
			return err
		}
		if err := s.stockSvc.ReserveAndValidate(ctx, tx, cart.ProductQuantities()); err != nil {
			return err
		}

		draft, err := s.priceLines(ctx, tx, cart, category.ID, globalDefault)
		if err != nil {
			return err
		}

		local := s.clock.Now()
		number, err := newNumber(local)
		if err != nil {
			return err
		}
		txn, err := draft.transaction(s.genID.Generate(), number, cart, category, member, cashierID(ctx), local.UTC())
		if err != nil {
			return err
		}

		inserted, err := s.repo.InsertTransaction(ctx, tx, txn)
		if err != nil {
			return err
		}
		if !inserted {
			return errSessionTaken
		}

		items, commissions, saleMovements := draft.rows(s.genID, txn)
		if err := s.repo.InsertItems(ctx, tx, items); err != nil {
			return err
		}
		if err := s.commissionRepo.InsertBatch(ctx, tx, commissions); err != nil {
			return err
		}
		if err := s.stockSvc.RecordSales(ctx, tx, saleMovements); err != nil {
			return err
		}
		sales = len(saleMovements)

		if err := s.auditSvc.Record(ctx, tx, auditdomain.Entry{
			Action:     auditdomain.ActionCheckoutCompleted,
			TargetType: auditdomain.TargetTransaction,
			TargetID:   txn.ID.String(),
			Metadata: map[string]any{
				"number":              txn.Number,
				"checkout_session_id": txn.CheckoutSessionID,
				"total":               txn.Total.String(),
				"items_count":         len(items),
				"payment_method":      txn.PaymentMethod,
			},
		}); err != nil {
			return err
		}

		resp, err = s.project(ctx, tx, txn.ID)
		return err
	})
	if err != nil {
		return s.afterFailedAttempt(ctx, cart.SessionID, err)
	}

	s.metrics.RecordStockMovements(ctx, string(stockdomain.KindSale), sales)
	s.storeReplay(ctx, resp)
	logger.WithContext(ctx, s.log).Info("checkout committed",
		zap.String("transaction_id", resp.ID.String()),
		zap.String("number", resp.Number),
		zap.String("checkout_session_id", resp.CheckoutSessionID),
		zap.Int("items", len(resp.Items)),
	)
	return resp, nil
}

// afterFailedAttempt runs once the transaction has rolled back. If another
// request committed the same session meanwhile, its transaction is returned
// instead of the error; that covers both the lost insert race and a loser
// that failed stock validation because the winner took the stock.
func (s *Service) afterFailedAttempt(ctx context.Context, sessionID string, cause error) (*checkoutdomain.Response, error) {
	winner, err := s.repo.FindBySession(context.WithoutCancel(ctx), s.db, sessionID)
	if err == nil && winner != nil {
		resp, err := s.project(ctx, s.db, winner.ID)
		if err == nil {
			resp.Replayed = true
			s.metrics.RecordReplay(ctx, "race")
			return resp, nil
		}
		s.log.Warn("failed to load concurrent winner", zap.String("checkout_session_id", sessionID), zap.Error(err))
	}

	switch {
	case errors.Is(cause, errSessionTaken), pkgdb.IsDuplicateKeyErr(cause):
		s.checkoutMetrics.IncDBError(pkgdb.ReasonUniqueViolation)
		return nil, fmt.Errorf("%w: %v", checkoutdomain.ErrConcurrencyConflict, cause)
	case pkgdb.IsConcurrencyErr(cause):
		s.checkoutMetrics.IncDBError(pkgdb.ClassifyReason(cause))
		return nil, fmt.Errorf("%w: %v", checkoutdomain.ErrConcurrencyConflict, cause)
	}
	return nil, cause
}

func (s *Service) resolveCategory(ctx context.Context, cart *checkoutdomain.Cart, defaultCode string) (*memberdomain.CustomerCategory, *memberdomain.Member, error) {
	if cart.MemberCode != "" {
		member, err := s.memberRepo.FindMemberByCode(ctx, s.db, cart.MemberCode)
		if err != nil {
			return nil, nil, err
		}
		if member == nil {
			return nil, nil, checkoutdomain.ErrMemberNotFound
		}
		if !member.Active {
			return nil, nil, checkoutdomain.ErrMemberInactive
		}
		category, err := s.memberRepo.FindCategoryByID(ctx, s.db, member.CategoryID)
		if err != nil {
			return nil, nil, err
		}
		if category == nil {
			return nil, nil, checkoutdomain.ErrCategoryRequired
		}
		if category.ID != member.CategoryID {
			return nil, nil, fmt.Errorf("member %s bound to category %s, loaded %s: %w",
				member.MemberCode, member.CategoryID, category.ID, checkoutdomain.ErrCategoryMismatch)
		}
		if cart.CategoryCode != "" && cart.CategoryCode != category.Code {
			s.log.Debug("client category ignored for member cart",
				zap.String("requested", cart.CategoryCode),
				zap.String("applied", category.Code),
			)
		}
		return category, member, nil
	}

	code := cart.CategoryCode
	if code == "" {
		code = defaultCode
	}
	if strings.TrimSpace(code) == "" {
		return nil, nil, checkoutdomain.ErrCategoryRequired
	}
	category, err := s.memberRepo.FindCategoryByCode(ctx, s.db, code)
	if err != nil {
		return nil, nil, err
	}
	if category == nil {
		return nil, nil, fmt.Errorf("category %q: %w", code, checkoutdomain.ErrCategoryRequired)
	}
	return category, nil, nil
}

func (s *Service) replay(ctx context.Context, sessionID string) (*checkoutdomain.Response, error) {
	if s.replayCache.Enabled() {
		var cached checkoutdomain.Response
		hit, err := s.replayCache.Get(ctx, sessionID, &cached)
		switch {
		case err != nil:
			s.log.Warn("replay cache read failed", zap.String("checkout_session_id", sessionID), zap.Error(err))
		case hit:
			cached.Replayed = true
			s.metrics.RecordReplay(ctx, "cache")
			return &cached, nil
		}
	}

	txn, err := s.repo.FindBySession(ctx, s.db, sessionID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, nil
	}
	resp, err := s.project(ctx, s.db, txn.ID)
	if err != nil {
		return nil, err
	}
	s.storeReplay(ctx, resp)
	resp.Replayed = true
	s.metrics.RecordReplay(ctx, "db")
	return resp, nil
}

func (s *Service) storeReplay(ctx context.Context, resp *checkoutdomain.Response) {
	if !s.replayCache.Enabled() || resp == nil {
		return
	}
	if err := s.replayCache.Set(ctx, resp.CheckoutSessionID, resp); err != nil {
		s.log.Warn("replay cache write failed", zap.String("checkout_session_id", resp.CheckoutSessionID), zap.Error(err))
	}
}

func (s *Service) Get(ctx context.Context, id string) (*checkoutdomain.Response, error) {
	txnID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || txnID <= 0 {
		return nil, checkoutdomain.ErrInvalidTransactionID
	}
	txn, err := s.repo.FindByID(ctx, s.db, txnID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, checkoutdomain.ErrTransactionNotFound
	}
	return s.project(ctx, s.db, txn.ID)
}

func (s *Service) GetBySession(ctx context.Context, sessionID string) (*checkoutdomain.Response, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		verr := &checkoutdomain.ValidationError{}
		verr.Add("checkout_session_id", "required", "checkout session id is required")
		return nil, verr
	}
	txn, err := s.repo.FindBySession(ctx, s.db, sessionID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, checkoutdomain.ErrTransactionNotFound
	}
	return s.project(ctx, s.db, txn.ID)
}

func (s *Service) observe(ctx context.Context, start time.Time, resp *checkoutdomain.Response, err error) string {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil && resp != nil && resp.Replayed:
		outcome = metrics.OutcomeReplayed
	case err != nil:
		switch checkoutdomain.Kind(err) {
		case checkoutdomain.KindValidation:
			outcome = metrics.OutcomeValidation
		case checkoutdomain.KindBusinessRule:
			outcome = metrics.OutcomeBusinessRule
		case checkoutdomain.KindConcurrency:
			outcome = metrics.OutcomeConcurrency
		default:
			outcome = metrics.OutcomeInternal
		}
	}

	s.metrics.RecordCheckout(ctx, outcome)
	s.checkoutMetrics.ObserveCheckout(outcome, time.Since(start))

	if err != nil {
		log := logger.WithContext(ctx, s.log)
		fields := []zap.Field{
			zap.String("outcome", outcome),
			zap.String("reason", checkoutdomain.Reason(err)),
			zap.Error(err),
		}
		if outcome == metrics.OutcomeInternal {
			log.Error("checkout failed", fields...)
		} else {
			log.Info("checkout rejected", fields...)
		}
	}
	return outcome
}

func cashierID(ctx context.Context) string {
	if id := obscontext.OperatorIDFromContext(ctx); id != "" {
		return id
	}
	return systemCashierID
}

func failurePayload(cart *checkoutdomain.Cart, err error) map[string]any {
	return map[string]any{
		"checkout_session_id": cart.SessionID,
		"member_code":         cart.MemberCode,
		"category_code":       cart.CategoryCode,
		"items_count":         len(cart.Lines),
		"payment_method":      cart.PaymentMethod,
		"paid_amount":         cart.PaidAmount.String(),
		"kind":                string(checkoutdomain.Kind(err)),
		"error":               err.Error(),
	}
}
