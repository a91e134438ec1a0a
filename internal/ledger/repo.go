package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kimipos-backend/pkg/db/models"
)

// Repository manages persistence for partial payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.PartialPayment) error
	ListByContext(ctx context.Context, contextID uuid.UUID) ([]models.PartialPayment, error)
	DeleteByContext(ctx context.Context, contextID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.PartialPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) ListByContext(ctx context.Context, contextID uuid.UUID) ([]models.PartialPayment, error) {
	var payments []models.PartialPayment
	if err := r.db.WithContext(ctx).
		Where("context_id = ?", contextID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repository) DeleteByContext(ctx context.Context, contextID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("context_id = ?", contextID).
		Delete(&models.PartialPayment{}).Error
}
