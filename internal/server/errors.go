package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/kasir/internal/audit/domain"
	checkoutdomain "github.com/smallbiznis/kasir/internal/checkout/domain"
	stockdomain "github.com/smallbiznis/kasir/internal/stock/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var cartErr *checkoutdomain.ValidationError
	if errors.As(err, &cartErr) {
		fields := make([]ValidationError, 0, len(cartErr.Errors))
		for _, fe := range cartErr.Errors {
			fields = append(fields, ValidationError{Field: fe.Field, Code: fe.Code, Message: fe.Message})
		}
		return http.StatusBadRequest, errorPayload{
			Type:    string(checkoutdomain.KindValidation),
			Message: "validation error",
			Errors:  fields,
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many checkouts from this operator, retry later",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    string(checkoutdomain.KindValidation),
			Message: "validation error",
			Errors:  []ValidationError{{Code: validationErrorCode(err), Message: err.Error()}},
		}
	}

	switch checkoutdomain.Kind(err) {
	case checkoutdomain.KindBusinessRule:
		return http.StatusUnprocessableEntity, businessRulePayload(err)
	case checkoutdomain.KindConcurrency:
		return http.StatusConflict, errorPayload{
			Type:    string(checkoutdomain.KindConcurrency),
			Message: "the request conflicted with a concurrent checkout, retry with the same checkout_session_id",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    string(checkoutdomain.KindInternal),
			Message: "internal server error",
		}
	}
}

// businessRulePayload names the rule that was broken. Field is filled for
// errors that point at a specific cart line or product.
func businessRulePayload(err error) errorPayload {
	detail := ValidationError{Code: checkoutdomain.Reason(err), Message: err.Error()}
	var stockErr *stockdomain.InsufficientStockError
	if errors.As(err, &stockErr) {
		detail.Field = "product_id:" + stockErr.ProductID.String()
	}
	return errorPayload{
		Type:    string(checkoutdomain.KindBusinessRule),
		Message: err.Error(),
		Errors:  []ValidationError{detail},
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var requestErrors = []error{
	ErrInvalidRequest,
	auditdomain.ErrInvalidPageToken,
	auditdomain.ErrInvalidTimeRange,
	auditdomain.ErrInvalidAction,
}

func isValidationError(err error) bool {
	for _, target := range requestErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return checkoutdomain.Kind(err) == checkoutdomain.KindValidation
}

func validationErrorCode(err error) string {
	for _, target := range requestErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return checkoutdomain.Reason(err)
}

// isNotFoundError covers lookups by id in the URL. Catalog misses inside a
// cart are business rule violations instead.
func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, checkoutdomain.ErrTransactionNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog feeds the request logger's error_type and error_code
// fields.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if errors.Is(err, ErrUnauthorized) {
		return "unauthorized", "unauthorized"
	}
	if errors.Is(err, ErrRateLimited) {
		return "rate_limited", "rate_limited"
	}
	if isNotFoundError(err) {
		return "not_found", "not_found"
	}
	if asValidationErrors(err) != nil {
		return string(checkoutdomain.KindValidation), "invalid_request"
	}
	if isValidationError(err) {
		return string(checkoutdomain.KindValidation), validationErrorCode(err)
	}
	return string(checkoutdomain.Kind(err)), checkoutdomain.Reason(err)
}
