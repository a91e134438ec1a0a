package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kimipos-backend/pkg/enums"
)

// Category groups products on the menu and may carry a default printer.
type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Printer   *string   `gorm:"column:printer"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Tax is a named tax rate; at most one is the default.
type Tax struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Rate      decimal.Decimal `gorm:"column:rate;type:numeric(6,4);not null"`
	IsDefault bool            `gorm:"column:is_default;not null;default:false"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (t *Tax) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Product is a sellable menu item.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CategoryID  uuid.UUID       `gorm:"column:category_id;type:uuid;not null"`
	Name        string          `gorm:"column:name;not null"`
	BasePrice   decimal.Decimal `gorm:"column:base_price;type:numeric(12,2);not null"`
	AskForPrice bool            `gorm:"column:ask_for_price;not null;default:false"`
	Printer     *string         `gorm:"column:printer"`
	TaxID       *uuid.UUID      `gorm:"column:tax_id;type:uuid"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Tariff is an alternative price for a product, e.g. a terrace or happy hour price.
type Tariff struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	IsDefault bool            `gorm:"column:is_default;not null;default:false"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (t *Tariff) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// CombinationRule adds a signed surcharge to ProductID when it is ordered
// together with the target product or any product of the target category.
type CombinationRule struct {
	ID              uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	ProductID       uuid.UUID                   `gorm:"column:product_id;type:uuid;not null"`
	TargetKind      enums.CombinationTargetKind `gorm:"column:target_kind;not null"`
	TargetID        uuid.UUID                   `gorm:"column:target_id;type:uuid;not null"`
	AdditionalPrice decimal.Decimal             `gorm:"column:additional_price;type:numeric(12,2);not null"`
	IsActive        bool                        `gorm:"column:is_active;not null"`
	CreatedAt       time.Time                   `gorm:"column:created_at;autoCreateTime"`
}

func (r *CombinationRule) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
