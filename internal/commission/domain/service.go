package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	therapistdomain "github.com/smallbiznis/kasir/internal/therapist/domain"
)

var (
	ErrTherapistMissing     = errors.New("therapist_missing")
	ErrTherapistInactive    = errors.New("therapist_inactive")
	ErrCommissionOutOfRange = errors.New("commission_out_of_range")
	ErrInvalidTimeRange     = errors.New("invalid_time_range")
)

type Service interface {
	// ResolveRate picks the therapist's explicit percent, then the level
	// default, then globalDefault.
	ResolveRate(therapist *therapistdomain.Therapist, globalDefault decimal.Decimal) (decimal.Decimal, error)
	ComputeAmount(lineTotal, percent decimal.Decimal) decimal.Decimal
	// ForLine returns one commission per present role. Each role earns its
	// full rate on lineTotal.
	ForLine(primary, assistant *therapistdomain.Therapist, lineTotal, globalDefault decimal.Decimal) ([]Line, error)
	Summary(ctx context.Context, req SummaryRequest) (*SummaryResponse, error)
}

type SummaryRequest struct {
	TherapistID snowflake.ID
	StartAt     time.Time
	EndAt       time.Time
}

type SummaryResponse struct {
	TherapistID string                `json:"therapist_id"`
	StartAt     time.Time             `json:"start_at"`
	EndAt       time.Time             `json:"end_at"`
	Count       int                   `json:"count"`
	Total       decimal.Decimal       `json:"total"`
	Entries     []TherapistCommission `json:"entries"`
}
