package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/kasir/internal/audit/domain"
	"github.com/smallbiznis/kasir/internal/audit/masking"
	"github.com/smallbiznis/kasir/internal/clock"
	obscontext "github.com/smallbiznis/kasir/internal/observability/context"
	"github.com/smallbiznis/kasir/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, tx *gorm.DB, entry auditdomain.Entry) error {
	action := auditdomain.Action(strings.TrimSpace(string(entry.Action)))
	if action == "" {
		return auditdomain.ErrInvalidAction
	}
	if tx == nil {
		tx = s.db
	}

	targetType := entry.TargetType
	if targetType == "" {
		targetType = "unknown"
	}

	metadata := masking.MaskMetadata(entry.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		metadata["request_id"] = requestID
	}

	actorType, actorID := actorFrom(ctx)
	log := &auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  actorType,
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   optional(entry.TargetID),
		Metadata:   datatypes.JSONMap(metadata),
		CreatedAt:  s.clock.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, tx, log); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", string(action)),
			zap.String("target_type", string(targetType)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, q auditdomain.Query) (auditdomain.Page, error) {
	if q.StartAt != nil && q.EndAt != nil && q.StartAt.After(*q.EndAt) {
		return auditdomain.Page{}, auditdomain.ErrInvalidTimeRange
	}

	cursor, err := decodeCursor(q.PageToken)
	if err != nil {
		return auditdomain.Page{}, err
	}

	limit := q.Limit()
	rows, err := s.repo.List(ctx, s.db, auditdomain.Filter{
		Action:     q.Action,
		TargetType: q.TargetType,
		TargetID:   q.TargetID,
		ActorID:    q.ActorID,
		StartAt:    q.StartAt,
		EndAt:      q.EndAt,
		Cursor:     cursor,
		Limit:      limit,
	})
	if err != nil {
		return auditdomain.Page{}, err
	}

	rows, pageInfo := pagination.BuildCursorPage(rows, limit, encodeCursor)

	logs := make([]auditdomain.AuditLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, *row)
	}
	return auditdomain.Page{PageInfo: pageInfo, AuditLogs: logs}, nil
}

func decodeCursor(token string) (*auditdomain.Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	decoded, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, auditdomain.ErrInvalidPageToken
	}
	createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
	if err != nil {
		return nil, auditdomain.ErrInvalidPageToken
	}
	id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
	if err != nil || id == 0 {
		return nil, auditdomain.ErrInvalidPageToken
	}
	return &auditdomain.Cursor{ID: id, CreatedAt: createdAt}, nil
}

func encodeCursor(log *auditdomain.AuditLog) string {
	token, _ := pagination.EncodeCursor(pagination.Cursor{
		ID:        log.ID.String(),
		CreatedAt: log.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	return token
}

// actorFrom attributes the entry to the operator on ctx, or to the system
// when the call did not come through an operator request.
func actorFrom(ctx context.Context) (auditdomain.ActorType, *string) {
	if operatorID := optional(obscontext.OperatorIDFromContext(ctx)); operatorID != nil {
		return auditdomain.ActorTypeOperator, operatorID
	}
	return auditdomain.ActorTypeSystem, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
