package orders

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kimipos-backend/internal/pricing"
	"github.com/angelmondragon/kimipos-backend/internal/reconcile"
)

// Line is one order line. Its total is always Quantity × UnitPrice and is
// never stored.
type Line struct {
	ProductID  uuid.UUID
	CategoryID uuid.UUID
	TariffID   *uuid.UUID
	Name       string
	Quantity   int
	UnitPrice  decimal.Decimal
	// OriginalPrice is the natural price restored by ResetToOriginalPrice.
	OriginalPrice decimal.Decimal
	TaxRate       decimal.Decimal
	TaxName       string
	Modifiers     []string
	Source        pricing.Source
	// Differential marks an explicit refund or adjustment line, the only kind
	// allowed a negative unit price.
	Differential bool
}

// LineKey is the merge identity of a line: product, unit price and display name.
type LineKey struct {
	ProductID uuid.UUID
	UnitPrice string
	Name      string
}

func keyOf(productID uuid.UUID, price decimal.Decimal, name string) LineKey {
	return LineKey{ProductID: productID, UnitPrice: price.String(), Name: name}
}

func (l Line) Key() LineKey {
	return keyOf(l.ProductID, l.UnitPrice, l.Name)
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Identity is the kitchen-facing identity used by the diff engine.
func (l Line) Identity() reconcile.Identity {
	return reconcile.Identity{Name: l.Name, UnitPrice: l.UnitPrice.String()}
}

func (l Line) Qty() int {
	return l.Quantity
}

func (l Line) WithQuantity(q int) Line {
	out := l.clone()
	out.Quantity = q
	return out
}

func (l Line) clone() Line {
	out := l
	if l.Modifiers != nil {
		out.Modifiers = append([]string(nil), l.Modifiers...)
	}
	if l.TariffID != nil {
		id := *l.TariffID
		out.TariffID = &id
	}
	return out
}

func normalizeModifiers(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, m := range in {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func cloneLines(in []Line) []Line {
	if len(in) == 0 {
		return nil
	}
	out := make([]Line, len(in))
	for i, l := range in {
		out[i] = l.clone()
	}
	return out
}
