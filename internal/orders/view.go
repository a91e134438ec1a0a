package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kimipos-backend/internal/printing"
	"github.com/angelmondragon/kimipos-backend/pkg/enums"
)

// LineView is a working line as shown to the operator. Index addresses the
// line in UpdateLine and RemoveLine.
type LineView struct {
	Index         int             `json:"index"`
	ProductID     uuid.UUID       `json:"product_id"`
	CategoryID    uuid.UUID       `json:"category_id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Total         decimal.Decimal `json:"total"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Modifiers     []string        `json:"modifiers,omitempty"`
	Source        string          `json:"source"`
	Differential  bool            `json:"differential,omitempty"`
}

// OrderView is the working order of a context together with its committed
// state and payment progress.
type OrderView struct {
	ContextID    uuid.UUID              `json:"context_id"`
	ContextLabel string                 `json:"context_label"`
	Lines        []LineView             `json:"lines"`
	Totals       Totals                 `json:"totals"`
	Committed    *Totals                `json:"committed,omitempty"`
	CommittedAt  *time.Time             `json:"committed_at,omitempty"`
	AmountPaid   decimal.Decimal        `json:"amount_paid"`
	AmountDue    decimal.Decimal        `json:"amount_due"`
	Status       enums.SettlementStatus `json:"status"`
	Pending      bool                   `json:"pending"`
	Committing   bool                   `json:"committing"`
}

// CommitResult reports what a commit printed. A commit succeeds even when
// some destinations failed; Warnings names them.
type CommitResult struct {
	Order     *OrderView      `json:"order"`
	Printed   int             `json:"printed"`
	Cancelled int             `json:"cancelled"`
	Report    printing.Report `json:"report"`
	Warnings  []string        `json:"warnings,omitempty"`
}

func lineViews(lines []Line) []LineView {
	out := make([]LineView, 0, len(lines))
	for i, l := range lines {
		v := LineView{
			Index:         i,
			ProductID:     l.ProductID,
			CategoryID:    l.CategoryID,
			Name:          l.Name,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			OriginalPrice: l.OriginalPrice,
			Total:         l.Total().Round(2),
			TaxRate:       l.TaxRate,
			Modifiers:     l.Modifiers,
			Differential:  l.Differential,
		}
		if l.Source != nil {
			v.Source = l.Source.Kind()
		}
		out = append(out, v)
	}
	return out
}
