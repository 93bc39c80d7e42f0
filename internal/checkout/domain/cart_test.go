package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/kasir/internal/catalog/domain"
	"github.com/smallbiznis/kasir/internal/discount"
	stockdomain "github.com/smallbiznis/kasir/internal/stock/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCartNormalizes(t *testing.T) {
	cart, err := ParseCart(Request{
		MemberCode:   "  M-001 ",
		CategoryCode: "pasien",
		Items: []ItemRequest{
			{Type: "product", ProductID: "101", Qty: 2},
			{Type: "Treatment", TreatmentID: "201", TherapistID: "301", AssistantID: "302", Qty: 1, DiscountType: "percent", DiscountValue: decimal.NewFromInt(10)},
			{Type: "PRODUCT", ProductID: "101", Qty: 3},
		},
		PaymentMethod:     " qris ",
		PaidAmount:        decimal.NewFromInt(500),
		CheckoutSessionID: " sess-1 ",
	})
	require.NoError(t, err)

	assert.Equal(t, "sess-1", cart.SessionID)
	assert.Equal(t, "M-001", cart.MemberCode)
	assert.Equal(t, "PASIEN", cart.CategoryCode)
	assert.Equal(t, "QRIS", cart.PaymentMethod)
	require.Len(t, cart.Lines, 3)

	product, ok := cart.Lines[0].(ProductLine)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(101), product.ProductID)
	assert.Equal(t, catalogdomain.ItemKindProduct, product.Kind())

	treatment, ok := cart.Lines[1].(TreatmentLine)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(301), treatment.TherapistID)
	require.NotNil(t, treatment.AssistantID)
	assert.Equal(t, snowflake.ID(302), *treatment.AssistantID)
	assert.Equal(t, discount.Type("PERCENT"), treatment.Terms().DiscountType)

	assert.Equal(t, map[snowflake.ID]int64{101: 5}, cart.ProductQuantities())
}

func TestParseCartCollectsFieldErrors(t *testing.T) {
	_, err := ParseCart(Request{
		Items: []ItemRequest{
			{Type: "PRODUCT", Qty: 0},
			{Type: "TREATMENT", TreatmentID: "abc", Qty: 1},
			{Type: "VOUCHER", Qty: 1},
			{Type: "TREATMENT", TreatmentID: "201", TherapistID: "301", AssistantID: "x", Qty: 1},
		},
		PaidAmount: decimal.NewFromInt(-1),
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	fields := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{
		"checkout_session_id",
		"payment_method",
		"paid_amount",
		"items[0].qty",
		"items[0].product_id",
		"items[1].treatment_id",
		"items[1].therapist_id",
		"items[2].type",
		"items[3].assistant_id",
	}, fields)
	assert.Contains(t, err.Error(), "validation_error")
}

func TestParseCartBoundsQuantity(t *testing.T) {
	_, err := ParseCart(Request{
		Items: []ItemRequest{
			{Type: "PRODUCT", ProductID: "103", Qty: 1 << 62},
			{Type: "PRODUCT", ProductID: "103", Qty: 1 << 62},
			{Type: "PRODUCT", ProductID: "101", Qty: MaxQty},
			{Type: "PRODUCT", ProductID: "101", Qty: 1},
			{Type: "PRODUCT", ProductID: "104", Qty: MaxQty},
		},
		PaymentMethod:     "CASH",
		CheckoutSessionID: "sess-big",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		assert.Equal(t, "too_large", fe.Code)
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"items[0].qty", "items[1].qty", "items[3].qty"}, fields)
}

func TestProductQuantitiesSaturates(t *testing.T) {
	cart := Cart{Lines: []Line{
		ProductLine{LineTerms: LineTerms{Qty: math.MaxInt64 - 1}, ProductID: 103},
		ProductLine{LineTerms: LineTerms{Qty: 5}, ProductID: 103},
		ProductLine{LineTerms: LineTerms{Qty: 2}, ProductID: 101},
	}}
	assert.Equal(t, map[snowflake.ID]int64{103: math.MaxInt64, 101: 2}, cart.ProductQuantities())
}

func TestKindAndReason(t *testing.T) {
	cases := []struct {
		err    error
		kind   ErrorKind
		reason string
	}{
		{&ValidationError{Errors: []FieldError{{Field: "items", Code: "required"}}}, KindValidation, "validation_error"},
		{fmt.Errorf("items[0]: %w", stockdomain.ErrInsufficientStock), KindBusinessRule, "insufficient_stock"},
		{fmt.Errorf("member M-001: %w", ErrCategoryMismatch), KindBusinessRule, "category_mismatch"},
		{fmt.Errorf("product 101 requested 0: %w", stockdomain.ErrInvalidQuantity), KindValidation, "invalid_quantity"},
		{ErrCategoryRequired, KindValidation, "category_required"},
		{fmt.Errorf("%w: duplicate", ErrConcurrencyConflict), KindConcurrency, "concurrency_conflict"},
		{errors.New("connection reset"), KindInternal, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.reason, func(t *testing.T) {
			assert.Equal(t, tc.kind, Kind(tc.err))
			assert.Equal(t, tc.reason, Reason(tc.err))
		})
	}
	assert.Equal(t, ErrorKind(""), Kind(nil))
}
