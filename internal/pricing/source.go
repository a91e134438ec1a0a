package pricing

import (
	"fmt"

	"github.com/google/uuid"
)

// Source records how a line's unit price was determined. The set of
// implementations is closed: TariffPrice, BasePrice and ManualOverride.
type Source interface {
	Kind() string
	sealed()
}

const (
	SourceKindTariff = "tariff"
	SourceKindBase   = "base"
	SourceKindManual = "manual"
)

// TariffPrice means the selected or default tariff supplied the price.
type TariffPrice struct {
	TariffID uuid.UUID
	Name     string
}

// BasePrice means the product's own price was used.
type BasePrice struct{}

// ManualOverride means an operator typed the price.
type ManualOverride struct{}

func (TariffPrice) Kind() string    { return SourceKindTariff }
func (BasePrice) Kind() string      { return SourceKindBase }
func (ManualOverride) Kind() string { return SourceKindManual }

func (TariffPrice) sealed()    {}
func (BasePrice) sealed()      {}
func (ManualOverride) sealed() {}

// ParseSource rebuilds a Source from its persisted kind.
func ParseSource(kind string, tariffID *uuid.UUID) (Source, error) {
	switch kind {
	case SourceKindTariff:
		if tariffID == nil {
			return nil, fmt.Errorf("tariff source requires a tariff id")
		}
		return TariffPrice{TariffID: *tariffID}, nil
	case SourceKindBase, "":
		return BasePrice{}, nil
	case SourceKindManual:
		return ManualOverride{}, nil
	default:
		return nil, fmt.Errorf("invalid pricing source %q", kind)
	}
}

// Target is the scope a combination rule applies to. The set of
// implementations is closed: ByProduct and ByCategory.
type Target interface {
	ID() uuid.UUID
	sealedTarget()
}

// ByProduct targets one specific product.
type ByProduct struct {
	ProductID uuid.UUID
}

// ByCategory targets every product of a category.
type ByCategory struct {
	CategoryID uuid.UUID
}

func (t ByProduct) ID() uuid.UUID  { return t.ProductID }
func (t ByCategory) ID() uuid.UUID { return t.CategoryID }

func (ByProduct) sealedTarget()  {}
func (ByCategory) sealedTarget() {}
