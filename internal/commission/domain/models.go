package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RolePrimary   Role = "PRIMARY"
	RoleAssistant Role = "ASSISTANT"
)

// TherapistCommission is the commission owed to one therapist for one
// transaction item. Rows are never updated.
type TherapistCommission struct {
	ID                snowflake.ID    `json:"id" gorm:"primaryKey"`
	TransactionItemID snowflake.ID    `json:"transaction_item_id" gorm:"not null;index"`
	TherapistID       snowflake.ID    `json:"therapist_id" gorm:"not null;index"`
	Role              Role            `json:"role" gorm:"type:text;not null"`
	Percent           decimal.Decimal `json:"percent" gorm:"type:numeric(5,2);not null"`
	BaseAmount        decimal.Decimal `json:"base_amount" gorm:"type:numeric(14,2);not null"`
	Amount            decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
	CreatedAt         time.Time       `json:"created_at" gorm:"not null"`
}

func (TherapistCommission) TableName() string { return "therapist_commissions" }

// Line is a computed commission not yet attached to a stored item.
type Line struct {
	TherapistID   snowflake.ID
	TherapistName string
	Role          Role
	Percent       decimal.Decimal
	BaseAmount    decimal.Decimal
	Amount        decimal.Decimal
}
