package orders

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kimipos-backend/internal/pricing"
	"github.com/angelmondragon/kimipos-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/kimipos-backend/pkg/db/types"
	"github.com/angelmondragon/kimipos-backend/pkg/enums"
)

// ToItems converts lines to their persisted form.
func ToItems(lines []Line) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		item := models.OrderItem{
			ProductID:     l.ProductID,
			CategoryID:    l.CategoryID,
			Name:          l.Name,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			OriginalPrice: l.OriginalPrice,
			TaxRate:       l.TaxRate,
			TaxName:       l.TaxName,
			Modifiers:     append([]string(nil), l.Modifiers...),
			Differential:  l.Differential,
		}
		if l.TariffID != nil {
			id := *l.TariffID
			item.TariffID = &id
		}
		if l.Source != nil {
			item.Source = l.Source.Kind()
		}
		items = append(items, item)
	}
	return items
}

// FromItems rebuilds lines from a persisted order.
func FromItems(items []models.OrderItem) ([]Line, error) {
	lines := make([]Line, 0, len(items))
	for i, item := range items {
		source, err := pricing.ParseSource(item.Source, item.TariffID)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("item %d: quantity %d", i, item.Quantity)
		}
		line := Line{
			ProductID:     item.ProductID,
			CategoryID:    item.CategoryID,
			Name:          item.Name,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			OriginalPrice: item.OriginalPrice,
			TaxRate:       item.TaxRate,
			TaxName:       item.TaxName,
			Modifiers:     normalizeModifiers(item.Modifiers),
			Source:        source,
			Differential:  item.Differential,
		}
		if item.TariffID != nil {
			id := *item.TariffID
			line.TariffID = &id
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// PaymentState is the payment progress stored alongside a committed order.
type PaymentState struct {
	Paid        decimal.Decimal
	Outstanding decimal.Decimal
	Status      enums.SettlementStatus
}

func newRecord(contextID uuid.UUID, lines []Line, totals Totals, payments PaymentState, at time.Time) *models.OrderRecord {
	rounded := totals.Rounded()
	return &models.OrderRecord{
		ContextID:   contextID,
		Items:       dbtypes.NewJSON(ToItems(lines)),
		Subtotal:    rounded.Subtotal,
		Tax:         rounded.Tax,
		Total:       rounded.Total,
		AmountPaid:  payments.Paid,
		Outstanding: payments.Outstanding,
		Status:      payments.Status,
		CommittedAt: at,
	}
}
