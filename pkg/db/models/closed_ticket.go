package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/kimipos-backend/pkg/db/types"
	"github.com/angelmondragon/kimipos-backend/pkg/enums"
)

// TicketPayment is a payment as archived on a closed ticket.
type TicketPayment struct {
	Amount        decimal.Decimal     `json:"amount"`
	Method        enums.PaymentMethod `json:"method"`
	ReceiptNumber string              `json:"receipt_number"`
	PaidAt        time.Time           `json:"paid_at"`
}

// ClosedTicket archives a settled order.
type ClosedTicket struct {
	ID           uuid.UUID                     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TicketNumber string                        `gorm:"column:ticket_number;not null;uniqueIndex" json:"ticket_number"`
	ContextID    uuid.UUID                     `gorm:"column:context_id;type:uuid;not null" json:"context_id"`
	ContextLabel string                        `gorm:"column:context_label;not null" json:"context_label"`
	Items        dbtypes.JSON[[]OrderItem]     `gorm:"column:items;not null" json:"items"`
	Payments     dbtypes.JSON[[]TicketPayment] `gorm:"column:payments;not null" json:"payments"`
	Subtotal     decimal.Decimal               `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	Tax          decimal.Decimal               `gorm:"column:tax;type:numeric(12,2);not null" json:"tax"`
	Total        decimal.Decimal               `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	ClosedAt     time.Time                     `gorm:"column:closed_at;not null" json:"closed_at"`
}

func (t *ClosedTicket) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
