package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kimipos-backend/pkg/enums"
)

// OrderContext is a table or a named account that an order is attached to.
// Position and capacity belong to the room editor and are only carried here.
type OrderContext struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Kind      enums.ContextKind `gorm:"column:kind;not null" json:"kind"`
	Number    *int              `gorm:"column:number" json:"number,omitempty"`
	Name      string            `gorm:"column:name;not null" json:"name"`
	Capacity  int               `gorm:"column:capacity;not null;default:0" json:"capacity"`
	PosX      int               `gorm:"column:pos_x;not null;default:0" json:"x"`
	PosY      int               `gorm:"column:pos_y;not null;default:0" json:"y"`
	Status    enums.TableStatus `gorm:"column:status;not null" json:"status"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (c *OrderContext) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
