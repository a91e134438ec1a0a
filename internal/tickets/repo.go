package tickets

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/kimipos-backend/pkg/db/models"
	"github.com/angelmondragon/kimipos-backend/pkg/pagination"
)

// Repository persists the closed ticket archive.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, ticket *models.ClosedTicket) error
	FindByNumber(ctx context.Context, number string) (*models.ClosedTicket, error)
	List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.ClosedTicket, error)
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

func (r *repository) Create(ctx context.Context, ticket *models.ClosedTicket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*models.ClosedTicket, error) {
	var ticket models.ClosedTicket
	if err := r.db.WithContext(ctx).First(&ticket, "ticket_number = ?", number).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

// List returns newest tickets first. limit rows are fetched as given.
func (r *repository) List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.ClosedTicket, error) {
	q := r.db.WithContext(ctx).Model(&models.ClosedTicket{})
	if cursor != nil {
		q = q.Where("closed_at < ? OR (closed_at = ? AND id < ?)", cursor.At, cursor.At, cursor.ID)
	}
	var out []models.ClosedTicket
	if err := q.Order("closed_at DESC").Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
