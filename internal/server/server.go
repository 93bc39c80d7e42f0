package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/kasir/internal/audit"
	auditdomain "github.com/smallbiznis/kasir/internal/audit/domain"
	"github.com/smallbiznis/kasir/internal/cache"
	"github.com/smallbiznis/kasir/internal/catalog"
	"github.com/smallbiznis/kasir/internal/checkout"
	checkoutdomain "github.com/smallbiznis/kasir/internal/checkout/domain"
	"github.com/smallbiznis/kasir/internal/clock"
	"github.com/smallbiznis/kasir/internal/commission"
	commissiondomain "github.com/smallbiznis/kasir/internal/commission/domain"
	"github.com/smallbiznis/kasir/internal/config"
	"github.com/smallbiznis/kasir/internal/diagnostics"
	"github.com/smallbiznis/kasir/internal/member"
	obslogger "github.com/smallbiznis/kasir/internal/observability/logger"
	obstracing "github.com/smallbiznis/kasir/internal/observability/tracing"
	"github.com/smallbiznis/kasir/internal/pricing"
	"github.com/smallbiznis/kasir/internal/ratelimit"
	"github.com/smallbiznis/kasir/internal/settings"
	"github.com/smallbiznis/kasir/internal/stock"
	stockdomain "github.com/smallbiznis/kasir/internal/stock/domain"
	"github.com/smallbiznis/kasir/internal/therapist"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	audit.Module,
	catalog.Module,
	member.Module,
	therapist.Module,
	settings.Module,
	pricing.Module,
	commission.Module,
	stock.Module,
	diagnostics.Module,
	cache.Module,
	checkout.Module,
	ratelimit.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine()
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	log           *zap.Logger
	clock         clock.Clock
	checkoutSvc   checkoutdomain.Service
	stockSvc      stockdomain.Service
	commissionSvc commissiondomain.Service
	auditSvc      auditdomain.Service

	checkoutLimiter *ratelimit.CheckoutLimiter
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Log           *zap.Logger
	Clock         clock.Clock
	CheckoutSvc   checkoutdomain.Service
	StockSvc      stockdomain.Service
	CommissionSvc commissiondomain.Service
	AuditSvc      auditdomain.Service

	CheckoutLimiter *ratelimit.CheckoutLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		log:           p.Log.Named("http.server"),
		clock:         p.Clock,
		checkoutSvc:   p.CheckoutSvc,
		stockSvc:      p.StockSvc,
		commissionSvc: p.CommissionSvc,
		auditSvc:      p.AuditSvc,

		checkoutLimiter: p.CheckoutLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(OperatorRequired())

	// -------- Checkout --------
	api.POST("/checkout", s.CheckoutRateLimit(), s.Checkout)
	api.GET("/transactions/:id", s.GetTransactionByID)

	// -------- Stock --------
	api.GET("/stocks", s.ListStocks)
	api.GET("/stocks/:product_id", s.GetStock)
	api.GET("/stock_movements", s.ListStockMovements)
	api.POST("/stock_adjustments", s.AdjustStock)

	// -------- Commissions --------
	api.GET("/therapists/:id/commissions", s.GetTherapistCommissions)

	// -------- Audit --------
	api.GET("/audit_logs", s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
