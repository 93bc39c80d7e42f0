package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/kasir/internal/catalog/domain"
	"github.com/smallbiznis/kasir/internal/discount"
)

type Status string

// StatusPaid is the only persisted state. Nothing is written for a checkout
// that does not commit.
const StatusPaid Status = "PAID"

// Transaction is the header of a committed sale. Rows are never updated.
type Transaction struct {
	ID                snowflake.ID    `json:"id" gorm:"primaryKey"`
	Number            string          `json:"number" gorm:"type:text;not null;uniqueIndex"`
	CheckoutSessionID string          `json:"checkout_session_id" gorm:"type:text;not null;uniqueIndex"`
	CashierID         string          `json:"cashier_id" gorm:"type:text;not null"`
	MemberID          *snowflake.ID   `json:"member_id,omitempty"`
	CategoryID        snowflake.ID    `json:"category_id" gorm:"not null"`
	Status            Status          `json:"status" gorm:"type:text;not null"`
	PaymentMethod     string          `json:"payment_method" gorm:"type:text;not null"`
	PaidAmount        decimal.Decimal `json:"paid_amount" gorm:"type:numeric(14,2);not null"`
	Subtotal          decimal.Decimal `json:"subtotal" gorm:"type:numeric(14,2);not null"`
	DiscountTotal     decimal.Decimal `json:"discount_total" gorm:"type:numeric(14,2);not null"`
	Total             decimal.Decimal `json:"total" gorm:"type:numeric(14,2);not null"`
	CostTotal         decimal.Decimal `json:"cost_total" gorm:"type:numeric(14,2);not null"`
	ProfitTotal       decimal.Decimal `json:"profit_total" gorm:"type:numeric(14,2);not null"`
	CommissionTotal   decimal.Decimal `json:"commission_total" gorm:"type:numeric(14,2);not null"`
	ChangeAmount      decimal.Decimal `json:"change_amount" gorm:"type:numeric(14,2);not null"`
	CreatedAt         time.Time       `json:"created_at" gorm:"not null"`
}

func (Transaction) TableName() string { return "transactions" }

// TransactionItem snapshots price, cost and display name at sale time.
type TransactionItem struct {
	ID            snowflake.ID           `json:"id" gorm:"primaryKey"`
	TransactionID snowflake.ID           `json:"transaction_id" gorm:"not null;index"`
	Type          catalogdomain.ItemKind `json:"type" gorm:"type:text;not null"`
	ProductID     *snowflake.ID          `json:"product_id,omitempty"`
	TreatmentID   *snowflake.ID          `json:"treatment_id,omitempty"`
	TherapistID   *snowflake.ID          `json:"therapist_id,omitempty"`
	AssistantID   *snowflake.ID          `json:"assistant_id,omitempty"`
	Name          string                 `json:"name" gorm:"type:text;not null"`
	Qty           int64                  `json:"qty" gorm:"not null"`
	UnitPrice     decimal.Decimal        `json:"unit_price" gorm:"type:numeric(14,2);not null"`
	DiscountType  discount.Type          `json:"discount_type" gorm:"type:text;not null"`
	DiscountValue decimal.Decimal        `json:"discount_value" gorm:"type:numeric(14,2);not null"`
	LineSubtotal  decimal.Decimal        `json:"line_subtotal" gorm:"type:numeric(14,2);not null"`
	LineDiscount  decimal.Decimal        `json:"line_discount" gorm:"type:numeric(14,2);not null"`
	LineTotal     decimal.Decimal        `json:"line_total" gorm:"type:numeric(14,2);not null"`
	CostPrice     decimal.Decimal        `json:"cost_price" gorm:"type:numeric(14,2);not null"`
	Profit        decimal.Decimal        `json:"profit" gorm:"type:numeric(14,2);not null"`
	CreatedAt     time.Time              `json:"created_at" gorm:"not null"`
}

func (TransactionItem) TableName() string { return "transaction_items" }
