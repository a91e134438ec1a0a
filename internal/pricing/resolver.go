package pricing

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kimipos-backend/pkg/db/models"
	"github.com/angelmondragon/kimipos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
	"github.com/angelmondragon/kimipos-backend/pkg/logger"
)

// Catalog is the read-only catalog surface the resolver needs. Lookups of
// rows that do not exist return a NOT_FOUND typed error.
type Catalog interface {
	Product(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Tariff(ctx context.Context, id uuid.UUID) (*models.Tariff, error)
	DefaultTariff(ctx context.Context, productID uuid.UUID) (*models.Tariff, error)
	CombinationRules(ctx context.Context, productID uuid.UUID) ([]models.CombinationRule, error)
	Tax(ctx context.Context, id uuid.UUID) (*models.Tax, error)
	DefaultTax(ctx context.Context) (*models.Tax, error)
}

// Selection is a combination add-on chosen together with the base product.
type Selection struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=1"`
}

// Request describes one product being added to an order.
type Request struct {
	ProductID uuid.UUID
	// TariffID selects a tariff; nil falls back to the product's default
	// tariff and then to its base price.
	TariffID    *uuid.UUID
	Selections  []Selection
	ManualPrice *decimal.Decimal
}

// Surcharge is the contribution of one selected combination target.
type Surcharge struct {
	TargetID   uuid.UUID       `json:"target_id"`
	TargetName string          `json:"target_name"`
	Quantity   int             `json:"quantity"`
	RuleID     *uuid.UUID      `json:"rule_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
}

// Resolution is the effective price and naming of a product about to become
// an order line.
type Resolution struct {
	ProductID   uuid.UUID
	CategoryID  uuid.UUID
	DisplayName string
	UnitPrice   decimal.Decimal
	// NaturalPrice is the computed price before any manual entry; it is the
	// reset target for later price overrides.
	NaturalPrice decimal.Decimal
	Source       Source
	TariffID     *uuid.UUID
	Surcharges   []Surcharge
	TaxRate      decimal.Decimal
	TaxName      string
}

// Resolver computes unit prices through base price, tariff, combination
// surcharges and manual entry.
type Resolver struct {
	catalog Catalog
	logg    *logger.Logger
}

func NewResolver(catalog Catalog, logg *logger.Logger) (*Resolver, error) {
	if catalog == nil {
		return nil, fmt.Errorf("pricing catalog required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Resolver{catalog: catalog, logg: logg}, nil
}

func (r *Resolver) Resolve(ctx context.Context, req Request) (Resolution, error) {
	if req.ProductID == uuid.Nil {
		return Resolution{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := r.catalog.Product(ctx, req.ProductID)
	if err != nil {
		return Resolution{}, err
	}
	if product.AskForPrice {
		if req.ManualPrice == nil {
			return Resolution{}, pkgerrors.New(pkgerrors.CodeValidation, "price is required for this product").
				WithDetails(map[string]any{"product_id": product.ID, "field": "manual_price"})
		}
		if req.ManualPrice.IsNegative() {
			return Resolution{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be zero or greater").
				WithDetails(map[string]any{"product_id": product.ID, "field": "manual_price"})
		}
	}

	ctx = r.logg.WithField(ctx, "product_id", product.ID.String())

	res := Resolution{
		ProductID:  product.ID,
		CategoryID: product.CategoryID,
		UnitPrice:  product.BasePrice,
		Source:     BasePrice{},
	}

	tariff := r.tariff(ctx, product.ID, req.TariffID)
	if tariff != nil {
		id := tariff.ID
		res.TariffID = &id
		res.UnitPrice = tariff.Price
		res.Source = TariffPrice{TariffID: tariff.ID, Name: tariff.Name}
	}

	if len(req.Selections) > 0 {
		surcharges, err := r.surcharges(ctx, product.ID, req.Selections)
		if err != nil {
			return Resolution{}, err
		}
		res.Surcharges = surcharges
		for _, s := range surcharges {
			res.UnitPrice = res.UnitPrice.Add(s.Amount)
		}
	}

	res.NaturalPrice = res.UnitPrice
	if product.AskForPrice {
		res.UnitPrice = *req.ManualPrice
		res.NaturalPrice = *req.ManualPrice
		res.Source = ManualOverride{}
	}

	res.DisplayName = DisplayName(product.Name, res.Surcharges, tariff)
	res.TaxRate, res.TaxName = r.tax(ctx, product.TaxID)
	return res, nil
}

// DisplayName joins the base name, the combined targets and the tariff name
// in that order, e.g. "Whisky + Coke×2 - Doble".
func DisplayName(base string, surcharges []Surcharge, tariff *models.Tariff) string {
	var b strings.Builder
	b.WriteString(base)
	for _, s := range surcharges {
		b.WriteString(" + ")
		b.WriteString(s.TargetName)
		if s.Quantity > 1 {
			fmt.Fprintf(&b, "×%d", s.Quantity)
		}
	}
	if tariff != nil && tariff.Name != "" {
		b.WriteString(" - ")
		b.WriteString(tariff.Name)
	}
	return b.String()
}

func (r *Resolver) tariff(ctx context.Context, productID uuid.UUID, tariffID *uuid.UUID) *models.Tariff {
	if tariffID == nil {
		tariff, err := r.catalog.DefaultTariff(ctx, productID)
		if err != nil {
			if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
				r.logg.Error(ctx, "default tariff lookup failed", err)
			}
			return nil
		}
		return tariff
	}

	tariff, err := r.catalog.Tariff(ctx, *tariffID)
	if err != nil || tariff.ProductID != productID {
		ctx = r.logg.WithField(ctx, "tariff_id", tariffID.String())
		r.logg.Warn(ctx, "selected tariff no longer exists; using base price")
		return nil
	}
	return tariff
}

func (r *Resolver) surcharges(ctx context.Context, productID uuid.UUID, selections []Selection) ([]Surcharge, error) {
	rules, err := r.catalog.CombinationRules(ctx, productID)
	if err != nil {
		return nil, err
	}

	out := make([]Surcharge, 0, len(selections))
	for _, sel := range selections {
		if sel.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "combination quantity must be at least 1").
				WithDetails(map[string]any{"target_id": sel.ProductID})
		}
		target, err := r.catalog.Product(ctx, sel.ProductID)
		if err != nil {
			if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
				return nil, err
			}
			r.logg.Warn(r.logg.WithField(ctx, "target_id", sel.ProductID.String()), "combination target no longer exists; skipping")
			continue
		}

		surcharge := Surcharge{
			TargetID:   target.ID,
			TargetName: target.Name,
			Quantity:   sel.Quantity,
			Amount:     decimal.Zero,
		}
		if rule := MatchRule(rules, target.ID, target.CategoryID); rule != nil {
			id := rule.ID
			surcharge.RuleID = &id
			surcharge.Amount = rule.AdditionalPrice.Mul(decimal.NewFromInt(int64(sel.Quantity)))
		}
		out = append(out, surcharge)
	}
	return out, nil
}

// MatchRule returns the most specific active rule for a selected target: a
// product-scoped rule beats a category-scoped one. Within one scope the most
// recently created rule wins, ties broken by the highest ID.
func MatchRule(rules []models.CombinationRule, targetProductID, targetCategoryID uuid.UUID) *models.CombinationRule {
	if rule := latest(rules, ByProduct{ProductID: targetProductID}); rule != nil {
		return rule
	}
	return latest(rules, ByCategory{CategoryID: targetCategoryID})
}

func latest(rules []models.CombinationRule, target Target) *models.CombinationRule {
	var matches []*models.CombinationRule
	for i := range rules {
		rule := &rules[i]
		if !rule.IsActive || rule.TargetID != target.ID() {
			continue
		}
		if kindOf(target) != rule.TargetKind {
			continue
		}
		matches = append(matches, rule)
	}
	if len(matches) == 0 {
		return nil
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID.String() > matches[j].ID.String()
	})
	return matches[0]
}

func kindOf(target Target) enums.CombinationTargetKind {
	switch target.(type) {
	case ByProduct:
		return enums.CombinationTargetKindProduct
	case ByCategory:
		return enums.CombinationTargetKindCategory
	}
	return ""
}

func (r *Resolver) tax(ctx context.Context, taxID *uuid.UUID) (decimal.Decimal, string) {
	if taxID != nil {
		tax, err := r.catalog.Tax(ctx, *taxID)
		if err == nil {
			return tax.Rate, tax.Name
		}
		r.logg.Warn(r.logg.WithField(ctx, "tax_id", taxID.String()), "product tax no longer exists; using default tax")
	}
	tax, err := r.catalog.DefaultTax(ctx)
	if err != nil {
		if !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			r.logg.Error(ctx, "default tax lookup failed", err)
		}
		return decimal.Zero, ""
	}
	return tax.Rate, tax.Name
}
