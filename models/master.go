package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Master is the staff member who performs services. Skills is the set of
// services the master is qualified for; an empty set means no declared skills.
type Master struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name     string    `gorm:"not null" json:"name"`
	Phone    string    `json:"phone"`
	IsActive bool      `gorm:"default:true" json:"isActive"`

	Skills []Service `gorm:"many2many:master_skills" json:"skills,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func (m *Master) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}
