package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resource is a chair, room or washing station. It is informational only:
// the scheduler does not enforce resource-level conflicts.
type Resource struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name     string    `gorm:"size:80;not null" json:"name"`
	IsActive bool      `gorm:"default:true" json:"isActive"`
}

func (r *Resource) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
