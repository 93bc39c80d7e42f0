// Package discount computes the money of a single cart line: subtotal,
// discount, total, cost and profit. Every step is rounded to two places.
package discount

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/kasir/pkg/money"
)

type Type string

const (
	TypeNone    Type = "NONE"
	TypePercent Type = "PERCENT"
	TypeNominal Type = "NOMINAL"
)

var (
	ErrInvalidDiscount      = errors.New("invalid_discount")
	ErrDiscountExceedsPrice = errors.New("discount_exceeds_price")
	ErrNonPositiveLineTotal = errors.New("non_positive_line_total")
)

// ParseType normalizes a client supplied discount type. Empty means NONE.
func ParseType(raw string) (Type, error) {
	switch Type(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", TypeNone:
		return TypeNone, nil
	case TypePercent:
		return TypePercent, nil
	case TypeNominal:
		return TypeNominal, nil
	default:
		return "", ErrInvalidDiscount
	}
}

type LineInput struct {
	UnitPrice     decimal.Decimal
	Qty           int64
	DiscountType  Type
	DiscountValue decimal.Decimal
	CostPrice     decimal.Decimal
}

type LineAmounts struct {
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
	CostTotal decimal.Decimal
	Profit    decimal.Decimal
}

// ComputeLine validates the discount on one line and returns its amounts.
// A NOMINAL value is per unit. Profit may be negative.
func ComputeLine(in LineInput) (LineAmounts, error) {
	discountType := in.DiscountType
	if discountType == "" {
		discountType = TypeNone
	}
	if in.DiscountValue.IsNegative() {
		return LineAmounts{}, ErrInvalidDiscount
	}

	qty := decimal.NewFromInt(in.Qty)
	subtotal := money.Round2(in.UnitPrice.Mul(qty))

	var discount decimal.Decimal
	switch discountType {
	case TypeNone:
		discount = decimal.Zero
	case TypePercent:
		if !money.ValidPercent(in.DiscountValue) {
			return LineAmounts{}, ErrInvalidDiscount
		}
		discount = money.Percent(subtotal, in.DiscountValue)
	case TypeNominal:
		discount = money.Round2(in.DiscountValue.Mul(qty))
	default:
		return LineAmounts{}, ErrInvalidDiscount
	}

	if !subtotal.IsPositive() {
		return LineAmounts{}, ErrNonPositiveLineTotal
	}
	if discount.GreaterThanOrEqual(subtotal) {
		return LineAmounts{}, ErrDiscountExceedsPrice
	}

	total := money.Round2(subtotal.Sub(discount))
	if !total.IsPositive() {
		return LineAmounts{}, ErrNonPositiveLineTotal
	}

	costTotal := money.Round2(in.CostPrice.Mul(qty))
	return LineAmounts{
		Subtotal:  subtotal,
		Discount:  discount,
		Total:     total,
		CostTotal: costTotal,
		Profit:    money.Round2(total.Sub(costTotal)),
	}, nil
}
