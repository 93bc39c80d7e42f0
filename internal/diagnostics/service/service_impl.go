package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/kasir/internal/clock"
	"github.com/smallbiznis/kasir/internal/diagnostics/domain"
	"github.com/smallbiznis/kasir/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Recorder struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Recorder {
	return &Recorder{
		db:      p.DB,
		log:     p.Log.Named("diagnostics.recorder"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (r *Recorder) Record(ctx context.Context, reason string, payload map[string]any) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	if payload == nil {
		payload = map[string]any{}
	}

	failure := domain.CheckoutFailure{
		ID:        r.genID.Generate(),
		Reason:    reason,
		Payload:   datatypes.JSONMap(payload),
		CreatedAt: r.clock.Now().UTC(),
	}

	// The caller's context may already be cancelled by the failure being
	// recorded; the write still gets a chance.
	writeCtx := context.WithoutCancel(ctx)
	if err := r.repo.Insert(writeCtx, r.db, &failure); err != nil {
		r.metrics.RecordFailureWrite(ctx, "error")
		r.log.Warn("failed to record checkout failure",
			zap.String("reason", reason),
			zap.Error(err),
		)
		return
	}
	r.metrics.RecordFailureWrite(ctx, "ok")
}
