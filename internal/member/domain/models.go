package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// CustomerCategory selects which price list applies, e.g. PASIEN or MEMBER.
type CustomerCategory struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Code      string       `json:"code" gorm:"type:text;not null;uniqueIndex"`
	Name      string       `json:"name" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (CustomerCategory) TableName() string { return "customer_categories" }

type Member struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	MemberCode string       `json:"member_code" gorm:"type:text;not null;uniqueIndex"`
	Name       string       `json:"name" gorm:"type:text;not null"`
	Phone      *string      `json:"phone,omitempty" gorm:"type:text"`
	CategoryID snowflake.ID `json:"category_id" gorm:"not null"`
	Active     bool         `json:"active" gorm:"not null"`
	CreatedAt  time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Member) TableName() string { return "members" }

// Repository lookups return nil, nil when the row does not exist.
type Repository interface {
	FindMemberByCode(ctx context.Context, db *gorm.DB, code string) (*Member, error)
	FindMemberByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Member, error)
	FindCategoryByCode(ctx context.Context, db *gorm.DB, code string) (*CustomerCategory, error)
	FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CustomerCategory, error)
}
