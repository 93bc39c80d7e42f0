package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	commissiondomain "github.com/smallbiznis/kasir/internal/commission/domain"
	therapistdomain "github.com/smallbiznis/kasir/internal/therapist/domain"
	"github.com/smallbiznis/kasir/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo commissiondomain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo commissiondomain.Repository
}

func New(p Params) commissiondomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("commission.service"),
		repo: p.Repo,
	}
}

func (s *Service) ResolveRate(therapist *therapistdomain.Therapist, globalDefault decimal.Decimal) (decimal.Decimal, error) {
	if therapist == nil {
		return decimal.Zero, commissiondomain.ErrTherapistMissing
	}
	if !therapist.Active {
		return decimal.Zero, fmt.Errorf("therapist %s: %w", therapist.ID, commissiondomain.ErrTherapistInactive)
	}

	var rate decimal.Decimal
	switch {
	case therapist.CommissionPercent.Valid:
		rate = therapist.CommissionPercent.Decimal
		if lvl := therapist.Level; lvl != nil {
			if rate.LessThan(lvl.MinCommission) || rate.GreaterThan(lvl.MaxCommission) {
				return decimal.Zero, fmt.Errorf("therapist %s percent %s outside level %s [%s, %s]: %w",
					therapist.ID, rate, lvl.Name, lvl.MinCommission, lvl.MaxCommission,
					commissiondomain.ErrCommissionOutOfRange)
			}
		}
	case therapist.Level != nil:
		rate = therapist.Level.DefaultCommission
	default:
		rate = globalDefault
	}

	if !money.ValidPercent(rate) {
		return decimal.Zero, fmt.Errorf("therapist %s percent %s: %w", therapist.ID, rate, commissiondomain.ErrCommissionOutOfRange)
	}
	return rate, nil
}

func (s *Service) ComputeAmount(lineTotal, percent decimal.Decimal) decimal.Decimal {
	return money.Percent(lineTotal, percent)
}

func (s *Service) ForLine(primary, assistant *therapistdomain.Therapist, lineTotal, globalDefault decimal.Decimal) ([]commissiondomain.Line, error) {
	if primary == nil {
		return nil, commissiondomain.ErrTherapistMissing
	}

	roles := []struct {
		role      commissiondomain.Role
		therapist *therapistdomain.Therapist
	}{
		{commissiondomain.RolePrimary, primary},
		{commissiondomain.RoleAssistant, assistant},
	}

	lines := make([]commissiondomain.Line, 0, len(roles))
	for _, r := range roles {
		if r.therapist == nil {
			continue
		}
		rate, err := s.ResolveRate(r.therapist, globalDefault)
		if err != nil {
			return nil, err
		}
		lines = append(lines, commissiondomain.Line{
			TherapistID:   r.therapist.ID,
			TherapistName: r.therapist.Name,
			Role:          r.role,
			Percent:       rate,
			BaseAmount:    lineTotal,
			Amount:        s.ComputeAmount(lineTotal, rate),
		})
	}
	return lines, nil
}

func (s *Service) Summary(ctx context.Context, req commissiondomain.SummaryRequest) (*commissiondomain.SummaryResponse, error) {
	if !req.EndAt.After(req.StartAt) {
		return nil, commissiondomain.ErrInvalidTimeRange
	}

	rows, err := s.repo.ListByTherapist(ctx, s.db, req.TherapistID, req.StartAt, req.EndAt)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Amount)
	}
	if rows == nil {
		rows = []commissiondomain.TherapistCommission{}
	}

	return &commissiondomain.SummaryResponse{
		TherapistID: req.TherapistID.String(),
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Count:       len(rows),
		Total:       money.Round2(total),
		Entries:     rows,
	}, nil
}
