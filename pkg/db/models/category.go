package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex:categories_slug_key" json:"slug"`
	Description string    `gorm:"column:description;not null;default:''" json:"description"`
	Image       string    `gorm:"column:image;not null;default:''" json:"image,omitempty"`
	Featured    bool      `gorm:"column:featured;not null;default:false" json:"featured"`
	Active      bool      `gorm:"column:active;not null;default:true" json:"active"`
	SortOrder   int       `gorm:"column:sort_order;not null;default:0" json:"sortOrder"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
