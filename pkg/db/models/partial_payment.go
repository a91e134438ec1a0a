package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kimipos-backend/pkg/enums"
)

// PartialPayment is an append-only payment recorded against a context's
// committed total.
type PartialPayment struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ContextID     uuid.UUID           `gorm:"column:context_id;type:uuid;not null;index" json:"context_id"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Method        enums.PaymentMethod `gorm:"column:method;not null" json:"method"`
	ReceiptNumber string              `gorm:"column:receipt_number;not null" json:"receipt_number"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (p *PartialPayment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
