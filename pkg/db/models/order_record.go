package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/kimipos-backend/pkg/db/types"
	"github.com/angelmondragon/kimipos-backend/pkg/enums"
)

// OrderItem is the persisted form of a committed order line.
type OrderItem struct {
	ProductID     uuid.UUID       `json:"product_id"`
	CategoryID    uuid.UUID       `json:"category_id"`
	TariffID      *uuid.UUID      `json:"tariff_id,omitempty"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	TaxName       string          `json:"tax_name,omitempty"`
	Modifiers     []string        `json:"modifiers,omitempty"`
	Source        string          `json:"source"`
	Differential  bool            `json:"differential,omitempty"`
}

// OrderRecord is the committed state of a context's order. It is the
// persisted baseline and is replaced on every commit.
type OrderRecord struct {
	ID          uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	ContextID   uuid.UUID                 `gorm:"column:context_id;type:uuid;not null;uniqueIndex"`
	Items       dbtypes.JSON[[]OrderItem] `gorm:"column:items;not null"`
	Subtotal    decimal.Decimal           `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax         decimal.Decimal           `gorm:"column:tax;type:numeric(12,2);not null"`
	Total       decimal.Decimal           `gorm:"column:total;type:numeric(12,2);not null"`
	AmountPaid  decimal.Decimal           `gorm:"column:amount_paid;type:numeric(12,2);not null"`
	Outstanding decimal.Decimal           `gorm:"column:outstanding;type:numeric(12,2);not null"`
	Status      enums.SettlementStatus    `gorm:"column:status;not null"`
	CommittedAt time.Time                 `gorm:"column:committed_at;not null"`
	CreatedAt   time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderRecord) TableName() string {
	return "orders"
}

func (o *OrderRecord) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
