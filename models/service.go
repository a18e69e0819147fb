package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultBookingDurationMin is the booking length used whenever neither the
// request nor the service catalog yields a positive duration. Both the
// scheduling engine and the end-time derivation in Booking consult this single
// constant.
const DefaultBookingDurationMin = 30

// Service is a catalog entry. The scheduling core only reads it.
type Service struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name        string    `gorm:"not null;index" json:"name"`
	Code        string    `gorm:"size:40;index" json:"code"`
	Group       string    `gorm:"size:40;default:'general'" json:"group"`
	BasePrice   float64   `gorm:"type:decimal(10,2);not null;default:0" json:"basePrice"`
	DurationMin int       `gorm:"not null;default:30" json:"durationMin"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`

	Lines []DealLine `gorm:"foreignKey:ServiceID" json:"-"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

func (s *Service) BeforeSave(tx *gorm.DB) (err error) {
	if s.DurationMin <= 0 {
		s.DurationMin = DefaultBookingDurationMin
	}
	return
}
