package tables

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kimipos-backend/pkg/db/models"
	"github.com/angelmondragon/kimipos-backend/pkg/enums"
)

// Repository persists tables and named accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, oc *models.OrderContext) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.OrderContext, error)
	FindTableByNumber(ctx context.Context, number int) (*models.OrderContext, error)
	FindAccountByName(ctx context.Context, name string) (*models.OrderContext, error)
	List(ctx context.Context) ([]models.OrderContext, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.TableStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
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

func (r *repository) Create(ctx context.Context, oc *models.OrderContext) error {
	return r.db.WithContext(ctx).Create(oc).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.OrderContext, error) {
	var oc models.OrderContext
	if err := r.db.WithContext(ctx).First(&oc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &oc, nil
}

func (r *repository) FindTableByNumber(ctx context.Context, number int) (*models.OrderContext, error) {
	var oc models.OrderContext
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND number = ?", enums.ContextKindTable, number).
		First(&oc).Error; err != nil {
		return nil, err
	}
	return &oc, nil
}

func (r *repository) FindAccountByName(ctx context.Context, name string) (*models.OrderContext, error) {
	var oc models.OrderContext
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND LOWER(name) = LOWER(?)", enums.ContextKindNamedAccount, name).
		First(&oc).Error; err != nil {
		return nil, err
	}
	return &oc, nil
}

// List returns tables by number, then named accounts by name.
func (r *repository) List(ctx context.Context) ([]models.OrderContext, error) {
	var out []models.OrderContext
	if err := r.db.WithContext(ctx).
		Order("kind DESC").
		Order("number ASC").
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.TableStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.OrderContext{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.OrderContext{}, "id = ?", id).Error
}
