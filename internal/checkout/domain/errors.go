package domain

import (
	"context"
	"errors"
	"strings"

	catalogdomain "github.com/smallbiznis/kasir/internal/catalog/domain"
	commissiondomain "github.com/smallbiznis/kasir/internal/commission/domain"
	"github.com/smallbiznis/kasir/internal/discount"
	pricingdomain "github.com/smallbiznis/kasir/internal/pricing/domain"
	stockdomain "github.com/smallbiznis/kasir/internal/stock/domain"
	"github.com/smallbiznis/kasir/pkg/db"
)

var (
	ErrMemberNotFound       = errors.New("member_not_found")
	ErrMemberInactive       = errors.New("member_inactive")
	ErrCategoryRequired     = errors.New("category_required")
	ErrCategoryMismatch     = errors.New("category_mismatch")
	ErrNonPositiveTotal     = errors.New("non_positive_total")
	ErrConcurrencyConflict  = errors.New("concurrency_conflict")
	ErrTransactionNotFound  = errors.New("transaction_not_found")
	ErrInvalidTransactionID = errors.New("invalid_transaction_id")
)

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError collects shape problems found before any storage access.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Add(field, code, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Code: code, Message: message})
}

func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Errors) > 0
}

func (e *ValidationError) Error() string {
	if !e.HasErrors() {
		return "validation_error"
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation_error: " + strings.Join(parts, "; ")
}

type ErrorKind string

const (
	KindValidation   ErrorKind = "validation_error"
	KindBusinessRule ErrorKind = "business_rule_violation"
	KindConcurrency  ErrorKind = "concurrency_conflict"
	KindInternal     ErrorKind = "internal_error"
)

var validationErrors = []error{
	ErrCategoryRequired,
	ErrInvalidTransactionID,
	discount.ErrInvalidDiscount,
	stockdomain.ErrInvalidAdjustment,
	stockdomain.ErrInvalidQuantity,
	stockdomain.ErrNoteRequired,
	stockdomain.ErrInvalidProductID,
	stockdomain.ErrInvalidKind,
	stockdomain.ErrInvalidPageToken,
	stockdomain.ErrInvalidTimeRange,
	commissiondomain.ErrInvalidTimeRange,
}

var businessErrors = []error{
	stockdomain.ErrInsufficientStock,
	catalogdomain.ErrProductNotFound,
	catalogdomain.ErrProductInactive,
	catalogdomain.ErrTreatmentNotFound,
	catalogdomain.ErrTreatmentInactive,
	pricingdomain.ErrPricingMissing,
	discount.ErrDiscountExceedsPrice,
	discount.ErrNonPositiveLineTotal,
	commissiondomain.ErrTherapistMissing,
	commissiondomain.ErrTherapistInactive,
	commissiondomain.ErrCommissionOutOfRange,
	ErrMemberNotFound,
	ErrMemberInactive,
	ErrCategoryMismatch,
	ErrNonPositiveTotal,
	ErrTransactionNotFound,
}

// Kind places err in the checkout error taxonomy.
func Kind(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) || matchesAny(err, validationErrors) {
		return KindValidation
	}
	if matchesAny(err, businessErrors) {
		return KindBusinessRule
	}
	if errors.Is(err, ErrConcurrencyConflict) || db.IsConcurrencyErr(err) || errors.Is(err, context.DeadlineExceeded) {
		return KindConcurrency
	}
	return KindInternal
}

// Reason returns the most specific snake_case code for err, falling back to
// its kind. It is used for failure records and metric labels.
func Reason(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return string(KindValidation)
	}
	for _, group := range [][]error{validationErrors, businessErrors, {ErrConcurrencyConflict}} {
		for _, target := range group {
			if errors.Is(err, target) {
				return target.Error()
			}
		}
	}
	if db.IsConcurrencyErr(err) {
		return db.ClassifyReason(err)
	}
	return string(Kind(err))
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
