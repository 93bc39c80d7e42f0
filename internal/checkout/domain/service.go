package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/kasir/internal/catalog/domain"
	commissiondomain "github.com/smallbiznis/kasir/internal/commission/domain"
	"github.com/smallbiznis/kasir/internal/discount"
)

type Service interface {
	// Checkout commits the cart as one PAID transaction, or writes nothing.
	// A repeated checkout session id returns the stored transaction with
	// Replayed set.
	Checkout(ctx context.Context, req Request) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	GetBySession(ctx context.Context, sessionID string) (*Response, error)
}

// Response is the persisted projection of a transaction.
type Response struct {
	ID                snowflake.ID    `json:"id"`
	Number            string          `json:"number"`
	Status            Status          `json:"status"`
	CheckoutSessionID string          `json:"checkout_session_id"`
	CashierID         string          `json:"cashier_id"`
	PaymentMethod     string          `json:"payment_method"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	DiscountTotal     decimal.Decimal `json:"discount_total"`
	Total             decimal.Decimal `json:"total"`
	CostTotal         decimal.Decimal `json:"cost_total"`
	ProfitTotal       decimal.Decimal `json:"profit_total"`
	CommissionTotal   decimal.Decimal `json:"commission_total"`
	Change            decimal.Decimal `json:"change"`
	CreatedAt         time.Time       `json:"created_at"`
	Category          CategoryRef     `json:"category"`
	Member            *MemberRef      `json:"member,omitempty"`
	Items             []ItemResponse  `json:"items"`
	// Replayed only picks the HTTP status; the body of a replay equals the
	// body of the original checkout.
	Replayed bool `json:"-"`
}

type CategoryRef struct {
	ID   snowflake.ID `json:"id"`
	Code string       `json:"code"`
	Name string       `json:"name"`
}

type MemberRef struct {
	ID   snowflake.ID `json:"id"`
	Code string       `json:"code"`
	Name string       `json:"name"`
}

type TherapistRef struct {
	ID   snowflake.ID `json:"id"`
	Name string       `json:"name"`
}

type ItemResponse struct {
	ID            snowflake.ID           `json:"id"`
	Type          catalogdomain.ItemKind `json:"type"`
	ProductID     *snowflake.ID          `json:"product_id,omitempty"`
	TreatmentID   *snowflake.ID          `json:"treatment_id,omitempty"`
	Name          string                 `json:"name"`
	Qty           int64                  `json:"qty"`
	UnitPrice     decimal.Decimal        `json:"unit_price"`
	DiscountType  discount.Type          `json:"discount_type"`
	DiscountValue decimal.Decimal        `json:"discount_value"`
	LineSubtotal  decimal.Decimal        `json:"line_subtotal"`
	Discount      decimal.Decimal        `json:"discount"`
	LineTotal     decimal.Decimal        `json:"line_total"`
	CostPrice     decimal.Decimal        `json:"cost_price"`
	Profit        decimal.Decimal        `json:"profit"`
	Therapist     *TherapistRef          `json:"therapist,omitempty"`
	Assistant     *TherapistRef          `json:"assistant,omitempty"`
	Commissions   []CommissionResponse   `json:"commissions,omitempty"`
}

type CommissionResponse struct {
	TherapistID snowflake.ID          `json:"therapist_id"`
	Role        commissiondomain.Role `json:"role"`
	Percent     decimal.Decimal       `json:"percent"`
	BaseAmount  decimal.Decimal       `json:"base_amount"`
	Amount      decimal.Decimal       `json:"amount"`
}
