package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeOperator ActorType = "OPERATOR"
	ActorTypeSystem   ActorType = "SYSTEM"
)

type Action string

const (
	ActionCheckoutCompleted Action = "checkout.completed"
	ActionStockAdjusted     Action = "stock.adjusted"
)

type TargetType string

const (
	TargetTransaction TargetType = "transaction"
	TargetProduct     TargetType = "product"
)

// Entry is what a domain service hands to Record. The actor is taken from
// the request context.
type Entry struct {
	Action     Action
	TargetType TargetType
	TargetID   string
	Metadata   map[string]any
}

// AuditLog is a stored audit row. Rows are never updated.
type AuditLog struct {
	ID         snowflake.ID      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ActorType  ActorType         `json:"actor_type" gorm:"type:text;not null"`
	ActorID    *string           `json:"actor_id,omitempty" gorm:"type:text"`
	Action     Action            `json:"action" gorm:"type:text;not null"`
	TargetType TargetType        `json:"target_type" gorm:"type:text;not null"`
	TargetID   *string           `json:"target_id,omitempty" gorm:"type:text"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null;autoCreateTime:false"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Filter struct {
	Action     string
	TargetType string
	TargetID   string
	ActorID    string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *Cursor
	Limit      int
}
