package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/kasir/internal/audit/domain"
	catalogdomain "github.com/smallbiznis/kasir/internal/catalog/domain"
	checkoutdomain "github.com/smallbiznis/kasir/internal/checkout/domain"
	"github.com/smallbiznis/kasir/internal/clock"
	commissiondomain "github.com/smallbiznis/kasir/internal/commission/domain"
	obscontext "github.com/smallbiznis/kasir/internal/observability/context"
	stockdomain "github.com/smallbiznis/kasir/internal/stock/domain"
	therapistdomain "github.com/smallbiznis/kasir/internal/therapist/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeCheckoutService struct {
	lastReq      checkoutdomain.Request
	lastOperator string
	resp         *checkoutdomain.Response
	err          error
}

func (f *fakeCheckoutService) Checkout(ctx context.Context, req checkoutdomain.Request) (*checkoutdomain.Response, error) {
	f.lastReq = req
	f.lastOperator = obscontext.OperatorIDFromContext(ctx)
	return f.resp, f.err
}

func (f *fakeCheckoutService) Get(ctx context.Context, id string) (*checkoutdomain.Response, error) {
	_ = ctx
	if f.resp == nil || id != f.resp.ID.String() {
		return nil, checkoutdomain.ErrTransactionNotFound
	}
	return f.resp, nil
}

func (f *fakeCheckoutService) GetBySession(ctx context.Context, sessionID string) (*checkoutdomain.Response, error) {
	_ = ctx
	_ = sessionID
	return nil, checkoutdomain.ErrTransactionNotFound
}

type fakeStockService struct {
	balances map[snowflake.ID]int64
}

func (f *fakeStockService) ReserveAndValidate(ctx context.Context, tx *gorm.DB, quantities map[snowflake.ID]int64) error {
	return nil
}

func (f *fakeStockService) RecordSales(ctx context.Context, tx *gorm.DB, sales []stockdomain.SaleMovement) error {
	return nil
}

func (f *fakeStockService) CurrentStock(ctx context.Context, productID snowflake.ID) (int64, error) {
	qty, ok := f.balances[productID]
	if !ok {
		return 0, catalogdomain.ErrProductNotFound
	}
	return qty, nil
}

func (f *fakeStockService) AllStocks(ctx context.Context) (map[snowflake.ID]int64, error) {
	return f.balances, nil
}

func (f *fakeStockService) Adjust(ctx context.Context, req stockdomain.AdjustRequest) (*stockdomain.AdjustResponse, error) {
	if req.Note == "" {
		return nil, stockdomain.ErrNoteRequired
	}
	return &stockdomain.AdjustResponse{Stock: req.Delta}, nil
}

func (f *fakeStockService) ListMovements(ctx context.Context, req stockdomain.ListMovementsRequest) (stockdomain.ListMovementsResponse, error) {
	return stockdomain.ListMovementsResponse{Movements: []stockdomain.StockMovement{}}, nil
}

type fakeCommissionService struct {
	lastReq commissiondomain.SummaryRequest
}

func (f *fakeCommissionService) ResolveRate(therapist *therapistdomain.Therapist, globalDefault decimal.Decimal) (decimal.Decimal, error) {
	return globalDefault, nil
}

func (f *fakeCommissionService) ComputeAmount(lineTotal, percent decimal.Decimal) decimal.Decimal {
	return lineTotal
}

func (f *fakeCommissionService) ForLine(primary, assistant *therapistdomain.Therapist, lineTotal, globalDefault decimal.Decimal) ([]commissiondomain.Line, error) {
	return nil, nil
}

func (f *fakeCommissionService) Summary(ctx context.Context, req commissiondomain.SummaryRequest) (*commissiondomain.SummaryResponse, error) {
	f.lastReq = req
	if !req.EndAt.After(req.StartAt) {
		return nil, commissiondomain.ErrInvalidTimeRange
	}
	return &commissiondomain.SummaryResponse{TherapistID: req.TherapistID.String()}, nil
}

type fakeAuditService struct{}

func (fakeAuditService) Record(ctx context.Context, tx *gorm.DB, entry auditdomain.Entry) error {
	return nil
}

func (fakeAuditService) List(ctx context.Context, q auditdomain.Query) (auditdomain.Page, error) {
	if q.PageToken == "garbage" {
		return auditdomain.Page{}, auditdomain.ErrInvalidPageToken
	}
	return auditdomain.Page{AuditLogs: []auditdomain.AuditLog{}}, nil
}

type harness struct {
	engine     *gin.Engine
	checkout   *fakeCheckoutService
	commission *fakeCommissionService
}

func newHarness(t *testing.T) harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := harness{
		checkout:   &fakeCheckoutService{},
		commission: &fakeCommissionService{},
	}
	srv := NewServer(ServerParams{
		Gin:           NewEngine(),
		Log:           zap.NewNop(),
		CheckoutSvc:   h.checkout,
		StockSvc:      &fakeStockService{balances: map[snowflake.ID]int64{102: 0, 101: 7}},
		CommissionSvc: h.commission,
		AuditSvc:      fakeAuditService{},
		Clock:         clock.NewFakeClock(time.Date(2026, 5, 5, 1, 30, 0, 0, time.FixedZone("WIB", 7*3600))),
	})
	h.engine = srv.Engine()
	return h
}

func (h harness) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

var operatorHeader = map[string]string{HeaderOperatorID: "kasir-01"}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealthDoesNotNeedOperator(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresOperator(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/api/checkout", map[string]any{}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeError(t, rec).Type)
}

func TestCheckoutStatusAndIdempotencyHeader(t *testing.T) {
	h := newHarness(t)
	h.checkout.resp = &checkoutdomain.Response{ID: 900, Number: "20260504-093015-AB12"}

	headers := map[string]string{HeaderOperatorID: "kasir-01", HeaderIdempotencyKey: "sess-hdr"}
	rec := h.do(t, http.MethodPost, "/api/checkout", map[string]any{"items": []any{}}, headers)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "sess-hdr", h.checkout.lastReq.CheckoutSessionID)
	assert.Equal(t, "kasir-01", h.checkout.lastOperator)

	var body struct {
		Data checkoutdomain.Response `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "20260504-093015-AB12", body.Data.Number)
	created := rec.Body.String()

	h.checkout.resp.Replayed = true
	rec = h.do(t, http.MethodPost, "/api/checkout", map[string]any{"checkout_session_id": "sess-body"}, headers)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-body", h.checkout.lastReq.CheckoutSessionID)
	assert.JSONEq(t, created, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "replayed")
}

func TestCheckoutMalformedBody(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", bytes.NewBufferString("{not json"))
	req.Header.Set(HeaderOperatorID, "kasir-01")
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_request", payload.Errors[0].Code)
}

func TestCheckoutErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
		code   string
	}{
		{
			name:   "cart validation",
			err:    &checkoutdomain.ValidationError{Errors: []checkoutdomain.FieldError{{Field: "items[0].qty", Code: "invalid", Message: "qty must be greater than zero"}}},
			status: http.StatusBadRequest,
			kind:   "validation_error",
			code:   "invalid",
		},
		{
			name:   "insufficient stock",
			err:    fmt.Errorf("items[0]: %w", &stockdomain.InsufficientStockError{ProductID: 103, Available: 1, Requested: 2}),
			status: http.StatusUnprocessableEntity,
			kind:   "business_rule_violation",
			code:   "insufficient_stock",
		},
		{
			name:   "category mismatch",
			err:    fmt.Errorf("member M-001: %w", checkoutdomain.ErrCategoryMismatch),
			status: http.StatusUnprocessableEntity,
			kind:   "business_rule_violation",
			code:   "category_mismatch",
		},
		{
			name:   "concurrency",
			err:    fmt.Errorf("%w: lock timeout", checkoutdomain.ErrConcurrencyConflict),
			status: http.StatusConflict,
			kind:   "concurrency_conflict",
		},
		{
			name:   "internal",
			err:    errors.New("driver: bad connection"),
			status: http.StatusInternalServerError,
			kind:   "internal_error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.checkout.err = tc.err
			rec := h.do(t, http.MethodPost, "/api/checkout", map[string]any{"checkout_session_id": "s"}, operatorHeader)

			assert.Equal(t, tc.status, rec.Code)
			payload := decodeError(t, rec)
			assert.Equal(t, tc.kind, payload.Type)
			if tc.code != "" {
				require.NotEmpty(t, payload.Errors)
				assert.Equal(t, tc.code, payload.Errors[0].Code)
			}
		})
	}
}

func TestInsufficientStockNamesProduct(t *testing.T) {
	h := newHarness(t)
	h.checkout.err = &stockdomain.InsufficientStockError{ProductID: 103, Available: 1, Requested: 2}
	rec := h.do(t, http.MethodPost, "/api/checkout", map[string]any{"checkout_session_id": "s"}, operatorHeader)

	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "product_id:103", payload.Errors[0].Field)
}

func TestGetTransaction(t *testing.T) {
	h := newHarness(t)
	h.checkout.resp = &checkoutdomain.Response{ID: 900}

	rec := h.do(t, http.MethodGet, "/api/transactions/900", nil, operatorHeader)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/transactions/901", nil, operatorHeader)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStocks(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/stocks", nil, operatorHeader)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []stockdomain.Balance `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 2)
	assert.Equal(t, snowflake.ID(101), list.Data[0].ProductID)
	assert.Equal(t, int64(7), list.Data[0].Quantity)

	rec = h.do(t, http.MethodGet, "/api/stocks/999", nil, operatorHeader)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/stocks/abc", nil, operatorHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdjustStockValidation(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/stock_adjustments", map[string]any{"product_id": "101", "delta": 3}, operatorHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "note_required", decodeError(t, rec).Errors[0].Code)

	rec = h.do(t, http.MethodPost, "/api/stock_adjustments", map[string]any{"product_id": "101", "delta": 3, "note": "opname"}, operatorHeader)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestTherapistCommissionsRange(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/therapists/301/commissions?start_at=2026-05-01&end_at=2026-05-31", nil, operatorHeader)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, snowflake.ID(301), h.commission.lastReq.TherapistID)
	assert.Equal(t, 31, h.commission.lastReq.EndAt.Day())

	rec = h.do(t, http.MethodGet, "/api/therapists/301/commissions?start_at=2026-05-31&end_at=2026-05-01", nil, operatorHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/therapists/301/commissions?start_at=yesterday", nil, operatorHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTherapistCommissionsDefaultToClockDay(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/therapists/301/commissions", nil, operatorHeader)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), h.commission.lastReq.StartAt)
	assert.Equal(t, time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC), h.commission.lastReq.EndAt)
}

func TestAuditLogsBadToken(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/audit_logs?page_token=garbage", nil, operatorHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_page_token", decodeError(t, rec).Errors[0].Code)

	rec = h.do(t, http.MethodGet, "/api/audit_logs", nil, operatorHeader)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
