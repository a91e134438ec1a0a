package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/kimipos-backend/pkg/db/models"
)

// Repository persists the committed order of each context.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, record *models.OrderRecord) error
	FindByContext(ctx context.Context, contextID uuid.UUID) (*models.OrderRecord, error)
	ListOpen(ctx context.Context) ([]models.OrderRecord, error)
	UpdatePayments(ctx context.Context, contextID uuid.UUID, state PaymentState) error
	DeleteByContext(ctx context.Context, contextID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert replaces the committed order of record.ContextID.
func (r *repository) Upsert(ctx context.Context, record *models.OrderRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "context_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"items", "subtotal", "tax", "total",
				"amount_paid", "outstanding", "status",
				"committed_at", "updated_at",
			}),
		}).
		Create(record).Error
}

func (r *repository) FindByContext(ctx context.Context, contextID uuid.UUID) (*models.OrderRecord, error) {
	var record models.OrderRecord
	if err := r.db.WithContext(ctx).First(&record, "context_id = ?", contextID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) ListOpen(ctx context.Context) ([]models.OrderRecord, error) {
	var out []models.OrderRecord
	if err := r.db.WithContext(ctx).Order("committed_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) UpdatePayments(ctx context.Context, contextID uuid.UUID, state PaymentState) error {
	res := r.db.WithContext(ctx).
		Model(&models.OrderRecord{}).
		Where("context_id = ?", contextID).
		Updates(map[string]any{
			"amount_paid": state.Paid,
			"outstanding": state.Outstanding,
			"status":      state.Status,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) DeleteByContext(ctx context.Context, contextID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("context_id = ?", contextID).Delete(&models.OrderRecord{}).Error
}
