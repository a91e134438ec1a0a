package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kimipos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kimipos-backend/pkg/errors"
)

// Repository reads the product catalog. The order engine never writes to it.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Product(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, mapLookupErr(err, "product")
	}
	return &product, nil
}

func (r *Repository) Category(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, mapLookupErr(err, "category")
	}
	return &category, nil
}

func (r *Repository) Tariff(ctx context.Context, id uuid.UUID) (*models.Tariff, error) {
	var tariff models.Tariff
	if err := r.db.WithContext(ctx).First(&tariff, "id = ?", id).Error; err != nil {
		return nil, mapLookupErr(err, "tariff")
	}
	return &tariff, nil
}

// DefaultTariff returns the product's default tariff.
func (r *Repository) DefaultTariff(ctx context.Context, productID uuid.UUID) (*models.Tariff, error) {
	var tariff models.Tariff
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_default = ?", productID, true).
		Order("created_at DESC").
		First(&tariff).Error; err != nil {
		return nil, mapLookupErr(err, "default tariff")
	}
	return &tariff, nil
}

// CombinationRules lists every rule attached to the base product, inactive
// ones included; rule matching filters them.
func (r *Repository) CombinationRules(ctx context.Context, productID uuid.UUID) ([]models.CombinationRule, error) {
	var rules []models.CombinationRule
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&rules).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list combination rules")
	}
	return rules, nil
}

func (r *Repository) Tax(ctx context.Context, id uuid.UUID) (*models.Tax, error) {
	var tax models.Tax
	if err := r.db.WithContext(ctx).First(&tax, "id = ?", id).Error; err != nil {
		return nil, mapLookupErr(err, "tax")
	}
	return &tax, nil
}

func (r *Repository) DefaultTax(ctx context.Context) (*models.Tax, error) {
	var tax models.Tax
	if err := r.db.WithContext(ctx).
		Where("is_default = ?", true).
		Order("created_at DESC").
		First(&tax).Error; err != nil {
		return nil, mapLookupErr(err, "default tax")
	}
	return &tax, nil
}

func mapLookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}
