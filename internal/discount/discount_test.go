package discount

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/kasir/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return money.MustParse(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(d(want)), "want %s, got %s", want, got)
}

func TestComputeLineNoDiscount(t *testing.T) {
	got, err := ComputeLine(LineInput{UnitPrice: d("100"), Qty: 2, CostPrice: d("50")})
	require.NoError(t, err)

	assertDecimal(t, "200", got.Subtotal)
	assertDecimal(t, "0", got.Discount)
	assertDecimal(t, "200", got.Total)
	assertDecimal(t, "100", got.CostTotal)
	assertDecimal(t, "100", got.Profit)
}

func TestComputeLineNominalIsPerUnit(t *testing.T) {
	got, err := ComputeLine(LineInput{
		UnitPrice:     d("200"),
		Qty:           1,
		DiscountType:  TypeNominal,
		DiscountValue: d("50"),
	})
	require.NoError(t, err)
	assertDecimal(t, "150", got.Total)

	got, err = ComputeLine(LineInput{
		UnitPrice:     d("200"),
		Qty:           3,
		DiscountType:  TypeNominal,
		DiscountValue: d("50"),
	})
	require.NoError(t, err)
	assertDecimal(t, "150", got.Discount)
	assertDecimal(t, "450", got.Total)
}

func TestComputeLinePercentRoundsHalfUp(t *testing.T) {
	got, err := ComputeLine(LineInput{
		UnitPrice:     d("33.33"),
		Qty:           1,
		DiscountType:  TypePercent,
		DiscountValue: d("15"),
		CostPrice:     d("40"),
	})
	require.NoError(t, err)

	assertDecimal(t, "5", got.Discount)
	assertDecimal(t, "28.33", got.Total)
	assertDecimal(t, "-11.67", got.Profit)
}

func TestComputeLineRejections(t *testing.T) {
	cases := []struct {
		name string
		in   LineInput
		want error
	}{
		{
			name: "negative value",
			in:   LineInput{UnitPrice: d("100"), Qty: 1, DiscountType: TypeNominal, DiscountValue: d("-1")},
			want: ErrInvalidDiscount,
		},
		{
			name: "percent above hundred",
			in:   LineInput{UnitPrice: d("100"), Qty: 1, DiscountType: TypePercent, DiscountValue: d("101")},
			want: ErrInvalidDiscount,
		},
		{
			name: "unknown type",
			in:   LineInput{UnitPrice: d("100"), Qty: 1, DiscountType: Type("BOGO"), DiscountValue: d("1")},
			want: ErrInvalidDiscount,
		},
		{
			name: "full percent makes line free",
			in:   LineInput{UnitPrice: d("100"), Qty: 1, DiscountType: TypePercent, DiscountValue: d("100")},
			want: ErrDiscountExceedsPrice,
		},
		{
			name: "nominal equals price",
			in:   LineInput{UnitPrice: d("100"), Qty: 2, DiscountType: TypeNominal, DiscountValue: d("100")},
			want: ErrDiscountExceedsPrice,
		},
		{
			name: "zero price",
			in:   LineInput{UnitPrice: d("0"), Qty: 1},
			want: ErrNonPositiveLineTotal,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeLine(tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestComputeLineDiscountBound(t *testing.T) {
	prices := []string{"0.01", "1", "9.99", "1000", "123456.78"}
	values := []string{"0", "0.5", "1", "10", "49.99", "99.99"}
	for _, p := range prices {
		for _, v := range values {
			for _, typ := range []Type{TypeNone, TypePercent, TypeNominal} {
				got, err := ComputeLine(LineInput{UnitPrice: d(p), Qty: 3, DiscountType: typ, DiscountValue: d(v)})
				if err != nil {
					continue
				}
				assert.False(t, got.Discount.IsNegative())
				assert.True(t, got.Discount.LessThan(got.Subtotal), "price %s value %s type %s", p, v, typ)
				assert.True(t, got.Total.IsPositive())
				assert.True(t, got.Total.Equal(got.Subtotal.Sub(got.Discount)))
			}
		}
	}
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("")
	require.NoError(t, err)
	assert.Equal(t, TypeNone, typ)

	typ, err = ParseType(" percent ")
	require.NoError(t, err)
	assert.Equal(t, TypePercent, typ)

	_, err = ParseType("free")
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}
