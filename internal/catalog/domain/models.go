package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type ItemKind string

const (
	ItemKindProduct   ItemKind = "PRODUCT"
	ItemKindTreatment ItemKind = "TREATMENT"
)

// Item is the sellable view shared by products and treatments.
type Item interface {
	Kind() ItemKind
	ItemID() snowflake.ID
	DisplayName() string
	UnitCost() decimal.Decimal
	IsActive() bool
}

type Product struct {
	ID        snowflake.ID    `json:"id" gorm:"primaryKey"`
	SKU       string          `json:"sku" gorm:"column:sku;type:text;not null"`
	Name      string          `json:"name" gorm:"type:text;not null"`
	Unit      string          `json:"unit" gorm:"type:text;not null"`
	CostPrice decimal.Decimal `json:"cost_price" gorm:"type:numeric(14,2);not null"`
	Active    bool            `json:"active" gorm:"not null"`
	CreatedAt time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }

func (p *Product) Kind() ItemKind            { return ItemKindProduct }
func (p *Product) ItemID() snowflake.ID      { return p.ID }
func (p *Product) DisplayName() string       { return p.Name }
func (p *Product) UnitCost() decimal.Decimal { return p.CostPrice }
func (p *Product) IsActive() bool            { return p.Active }

// ProductPrice is the sell price of a product for one customer category.
type ProductPrice struct {
	ID         snowflake.ID    `json:"id" gorm:"primaryKey"`
	ProductID  snowflake.ID    `json:"product_id" gorm:"not null;uniqueIndex:ux_product_prices_product_category"`
	CategoryID snowflake.ID    `json:"category_id" gorm:"not null;uniqueIndex:ux_product_prices_product_category"`
	Price      decimal.Decimal `json:"price" gorm:"type:numeric(14,2);not null"`
}

func (ProductPrice) TableName() string { return "product_prices" }

type Treatment struct {
	ID        snowflake.ID    `json:"id" gorm:"primaryKey"`
	Name      string          `json:"name" gorm:"type:text;not null"`
	SellPrice decimal.Decimal `json:"sell_price" gorm:"type:numeric(14,2);not null"`
	CostPrice decimal.Decimal `json:"cost_price" gorm:"type:numeric(14,2);not null"`
	Active    bool            `json:"active" gorm:"not null"`
	CreatedAt time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Treatment) TableName() string { return "treatments" }

func (t *Treatment) Kind() ItemKind            { return ItemKindTreatment }
func (t *Treatment) ItemID() snowflake.ID      { return t.ID }
func (t *Treatment) DisplayName() string       { return t.Name }
func (t *Treatment) UnitCost() decimal.Decimal { return t.CostPrice }
func (t *Treatment) IsActive() bool            { return t.Active }
