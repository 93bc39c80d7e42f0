package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/kasir/internal/catalog/domain"
	"github.com/smallbiznis/kasir/internal/discount"
)

// Request is the checkout payload as received from the client.
type Request struct {
	MemberCode        string          `json:"member_code"`
	CategoryCode      string          `json:"category_code"`
	Items             []ItemRequest   `json:"items"`
	PaymentMethod     string          `json:"payment_method"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	CheckoutSessionID string          `json:"checkout_session_id"`
}

type ItemRequest struct {
	Type          string          `json:"type"`
	ProductID     string          `json:"product_id,omitempty"`
	TreatmentID   string          `json:"treatment_id,omitempty"`
	TherapistID   string          `json:"therapist_id,omitempty"`
	AssistantID   string          `json:"assistant_id,omitempty"`
	Qty           int64           `json:"qty"`
	DiscountType  string          `json:"discount_type,omitempty"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// LineTerms are the quantity and discount shared by both line shapes.
type LineTerms struct {
	Qty           int64
	DiscountType  discount.Type
	DiscountValue decimal.Decimal
}

// Line is either a ProductLine or a TreatmentLine.
type Line interface {
	Kind() catalogdomain.ItemKind
	Terms() LineTerms
	sealed()
}

type ProductLine struct {
	LineTerms
	ProductID snowflake.ID
}

func (ProductLine) Kind() catalogdomain.ItemKind { return catalogdomain.ItemKindProduct }
func (l ProductLine) Terms() LineTerms           { return l.LineTerms }
func (ProductLine) sealed()                      {}

type TreatmentLine struct {
	LineTerms
	TreatmentID snowflake.ID
	TherapistID snowflake.ID
	AssistantID *snowflake.ID
}

func (TreatmentLine) Kind() catalogdomain.ItemKind { return catalogdomain.ItemKindTreatment }
func (l TreatmentLine) Terms() LineTerms           { return l.LineTerms }
func (TreatmentLine) sealed()                      {}

// Cart is a shape-validated Request.
type Cart struct {
	SessionID     string
	MemberCode    string
	CategoryCode  string
	Lines         []Line
	PaymentMethod string
	PaidAmount    decimal.Decimal
}

// MaxQty bounds the quantity of one line and the total of one product
// across a cart.
const MaxQty int64 = 1_000_000

// ProductQuantities sums requested quantities per product. A sum that would
// overflow saturates at math.MaxInt64, which no stock balance can cover.
func (c *Cart) ProductQuantities() map[snowflake.ID]int64 {
	out := make(map[snowflake.ID]int64)
	for _, line := range c.Lines {
		if p, ok := line.(ProductLine); ok {
			sum, ok := addQty(out[p.ProductID], p.Qty)
			if !ok {
				sum = math.MaxInt64
			}
			out[p.ProductID] = sum
		}
	}
	return out
}

func addQty(a, b int64) (int64, bool) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, false
	}
	if b < 0 && a < math.MinInt64-b {
		return 0, false
	}
	return a + b, true
}

// ParseCart checks the request shape without touching storage. All problems
// are reported at once in a *ValidationError.
func ParseCart(req Request) (*Cart, error) {
	verr := &ValidationError{}

	sessionID := strings.TrimSpace(req.CheckoutSessionID)
	if sessionID == "" {
		verr.Add("checkout_session_id", "required", "checkout session id is required")
	}
	paymentMethod := strings.ToUpper(strings.TrimSpace(req.PaymentMethod))
	if paymentMethod == "" {
		verr.Add("payment_method", "required", "payment method is required")
	}
	if req.PaidAmount.IsNegative() {
		verr.Add("paid_amount", "invalid", "paid amount cannot be negative")
	}
	if len(req.Items) == 0 {
		verr.Add("items", "required", "cart is empty")
	}

	lines := make([]Line, 0, len(req.Items))
	totals := make(map[snowflake.ID]int64)
	for i, item := range req.Items {
		path := fmt.Sprintf("items[%d]", i)
		line := parseLine(verr, path, item)
		if line == nil {
			continue
		}
		lines = append(lines, line)

		if p, ok := line.(ProductLine); ok {
			sum, ok := addQty(totals[p.ProductID], p.Qty)
			if !ok || sum > MaxQty {
				verr.Add(path+".qty", "too_large", fmt.Sprintf("total qty of product %s exceeds %d", p.ProductID, MaxQty))
				continue
			}
			totals[p.ProductID] = sum
		}
	}

	if verr.HasErrors() {
		return nil, verr
	}
	return &Cart{
		SessionID:     sessionID,
		MemberCode:    strings.TrimSpace(req.MemberCode),
		CategoryCode:  strings.ToUpper(strings.TrimSpace(req.CategoryCode)),
		Lines:         lines,
		PaymentMethod: paymentMethod,
		PaidAmount:    req.PaidAmount,
	}, nil
}

func parseLine(verr *ValidationError, path string, item ItemRequest) Line {
	before := len(verr.Errors)

	switch {
	case item.Qty <= 0:
		verr.Add(path+".qty", "invalid", "qty must be greater than zero")
	case item.Qty > MaxQty:
		verr.Add(path+".qty", "too_large", fmt.Sprintf("qty must not exceed %d", MaxQty))
	}
	terms := LineTerms{
		Qty:           item.Qty,
		DiscountType:  discount.Type(strings.ToUpper(strings.TrimSpace(item.DiscountType))),
		DiscountValue: item.DiscountValue,
	}

	switch catalogdomain.ItemKind(strings.ToUpper(strings.TrimSpace(item.Type))) {
	case catalogdomain.ItemKindProduct:
		productID := parseRequiredID(verr, path+".product_id", item.ProductID)
		if len(verr.Errors) > before {
			return nil
		}
		return ProductLine{LineTerms: terms, ProductID: productID}

	case catalogdomain.ItemKindTreatment:
		treatmentID := parseRequiredID(verr, path+".treatment_id", item.TreatmentID)
		therapistID := parseRequiredID(verr, path+".therapist_id", item.TherapistID)
		var assistantID *snowflake.ID
		if raw := strings.TrimSpace(item.AssistantID); raw != "" {
			id, err := snowflake.ParseString(raw)
			if err != nil || id <= 0 {
				verr.Add(path+".assistant_id", "invalid", "assistant id is not a valid id")
			} else {
				assistantID = &id
			}
		}
		if len(verr.Errors) > before {
			return nil
		}
		return TreatmentLine{
			LineTerms:   terms,
			TreatmentID: treatmentID,
			TherapistID: therapistID,
			AssistantID: assistantID,
		}

	default:
		verr.Add(path+".type", "invalid", "type must be PRODUCT or TREATMENT")
		return nil
	}
}

func parseRequiredID(verr *ValidationError, field, raw string) snowflake.ID {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		verr.Add(field, "required", field[strings.LastIndex(field, ".")+1:]+" is required")
		return 0
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id <= 0 {
		verr.Add(field, "invalid", "not a valid id")
		return 0
	}
	return id
}
