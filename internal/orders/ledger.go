package orders

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kimipos-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
)

// Totals are recomputed from the lines on every call.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Rounded returns the totals rounded to cents for presentation.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: t.Subtotal.Round(2),
		Tax:      t.Tax.Round(2),
		Total:    t.Total.Round(2),
	}
}

// Ledger is the working set of lines for one order context. It is not safe
// for concurrent use; Service serializes access.
type Ledger struct {
	lines []Line
}

func NewLedger(lines []Line) *Ledger {
	return &Ledger{lines: cloneLines(lines)}
}

// FromResolution turns a priced product into a line of the given quantity.
func FromResolution(res pricing.Resolution, quantity int, modifiers []string) Line {
	return Line{
		ProductID:     res.ProductID,
		CategoryID:    res.CategoryID,
		TariffID:      res.TariffID,
		Name:          res.DisplayName,
		Quantity:      quantity,
		UnitPrice:     res.UnitPrice,
		OriginalPrice: res.NaturalPrice,
		TaxRate:       res.TaxRate,
		TaxName:       res.TaxName,
		Modifiers:     normalizeModifiers(modifiers),
		Source:        res.Source,
	}
}

// Add merges line into an existing line with the same identity or appends
// it. A zero quantity counts as one.
func (l *Ledger) Add(line Line) LineKey {
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	line.Modifiers = normalizeModifiers(line.Modifiers)
	key := line.Key()
	if i := l.find(key); i >= 0 {
		l.lines[i].Quantity += line.Quantity
		l.lines[i].Modifiers = normalizeModifiers(append(l.lines[i].Modifiers, line.Modifiers...))
		return key
	}
	l.lines = append(l.lines, line.clone())
	return key
}

// AddDifferential appends an explicit adjustment line. Its amount may be
// negative.
func (l *Ledger) AddDifferential(name string, amount decimal.Decimal) (LineKey, error) {
	if name == "" {
		return LineKey{}, pkgerrors.New(pkgerrors.CodeValidation, "differential name is required")
	}
	if amount.IsZero() {
		return LineKey{}, pkgerrors.New(pkgerrors.CodeValidation, "differential amount must not be zero")
	}
	return l.Add(Line{
		Name:          name,
		Quantity:      1,
		UnitPrice:     amount,
		OriginalPrice: amount,
		TaxRate:       decimal.Zero,
		Source:        pricing.ManualOverride{},
		Differential:  true,
	}), nil
}

// IncrementQuantity applies delta; reaching zero or less removes the line.
func (l *Ledger) IncrementQuantity(key LineKey, delta int) error {
	i := l.find(key)
	if i < 0 {
		return lineNotFound(key)
	}
	if delta == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity delta must not be zero")
	}
	q := l.lines[i].Quantity + delta
	if q <= 0 {
		l.removeAt(i)
		return nil
	}
	l.lines[i].Quantity = q
	return nil
}

// OverridePrice changes only the unit price. When the new identity matches
// another line the two are merged, keeping the other line's natural price.
func (l *Ledger) OverridePrice(key LineKey, price decimal.Decimal) (LineKey, error) {
	i := l.find(key)
	if i < 0 {
		return LineKey{}, lineNotFound(key)
	}
	if price.IsNegative() && !l.lines[i].Differential {
		return LineKey{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be zero or greater").
			WithDetails(map[string]any{"field": "unit_price"})
	}
	return l.reprice(i, price), nil
}

// ResetToOriginalPrice restores the natural price of the line.
func (l *Ledger) ResetToOriginalPrice(key LineKey) (LineKey, error) {
	i := l.find(key)
	if i < 0 {
		return LineKey{}, lineNotFound(key)
	}
	return l.reprice(i, l.lines[i].OriginalPrice), nil
}

func (l *Ledger) reprice(i int, price decimal.Decimal) LineKey {
	line := l.lines[i]
	line.UnitPrice = price
	newKey := line.Key()
	if j := l.find(newKey); j >= 0 && j != i {
		l.lines[j].Quantity += line.Quantity
		l.lines[j].Modifiers = normalizeModifiers(append(l.lines[j].Modifiers, line.Modifiers...))
		l.removeAt(i)
		return newKey
	}
	l.lines[i] = line
	return newKey
}

// SetModifiers replaces the modifier set of a line.
func (l *Ledger) SetModifiers(key LineKey, modifiers []string) error {
	i := l.find(key)
	if i < 0 {
		return lineNotFound(key)
	}
	l.lines[i].Modifiers = normalizeModifiers(modifiers)
	return nil
}

func (l *Ledger) Remove(key LineKey) error {
	i := l.find(key)
	if i < 0 {
		return lineNotFound(key)
	}
	l.removeAt(i)
	return nil
}

func (l *Ledger) Clear() {
	l.lines = nil
}

// KeyAt returns the identity of the line at position i.
func (l *Ledger) KeyAt(i int) (LineKey, error) {
	if i < 0 || i >= len(l.lines) {
		return LineKey{}, pkgerrors.New(pkgerrors.CodeNotFound, "order line not found").
			WithDetails(map[string]any{"line_index": i})
	}
	return l.lines[i].Key(), nil
}

func (l *Ledger) Lines() []Line {
	return cloneLines(l.lines)
}

func (l *Ledger) Len() int {
	return len(l.lines)
}

func (l *Ledger) Empty() bool {
	return len(l.lines) == 0
}

func (l *Ledger) Totals() Totals {
	return ComputeTotals(l.lines)
}

// ComputeTotals sums subtotal and tax with exact decimals.
func ComputeTotals(lines []Line) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, line := range lines {
		lineTotal := line.Total()
		subtotal = subtotal.Add(lineTotal)
		tax = tax.Add(lineTotal.Mul(line.TaxRate))
	}
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}

func (l *Ledger) find(key LineKey) int {
	for i := range l.lines {
		if l.lines[i].Key() == key {
			return i
		}
	}
	return -1
}

func (l *Ledger) removeAt(i int) {
	l.lines = append(l.lines[:i], l.lines[i+1:]...)
}

func lineNotFound(key LineKey) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order line not found").
		WithDetails(map[string]any{"name": key.Name, "unit_price": key.UnitPrice})
}
