package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	BookingStatusTentative = "tentative"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

const DefaultBookingColor = "#88CCEE"

var ErrEndBeforeStart = errors.New("booking end time must be after start time")

// Booking is the scheduled interval [StartAt, EndAt) attached to exactly one
// deal, optionally a master and a resource. Conflicts are enforced per master
// only; resources are never conflict-checked.
type Booking struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	DealID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"dealId"`
	Deal   Deal      `gorm:"constraint:OnDelete:CASCADE" json:"deal,omitempty"`

	StartAt time.Time  `gorm:"index;not null" json:"startAt"`
	EndAt   *time.Time `gorm:"index" json:"endAt"`

	MasterID *uuid.UUID `gorm:"type:uuid;index" json:"masterId,omitempty"`
	Master   *Master    `json:"master,omitempty"`

	ResourceID *uuid.UUID `gorm:"type:uuid" json:"resourceId,omitempty"`
	Resource   *Resource  `gorm:"constraint:OnDelete:SET NULL" json:"resource,omitempty"`

	Status         string `gorm:"size:20;default:'tentative'" json:"status"`
	AllowUnskilled bool   `gorm:"default:false" json:"allowUnskilled"`
	Note           string `gorm:"size:200" json:"note"`
	Color          string `gorm:"size:7;default:'#88CCEE'" json:"color"`

	CreatedAt time.Time `json:"createdAt"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}

// BeforeSave derives EndAt from the deal's service lines when it was not
// supplied: sum of duration x quantity over every line, falling back to
// DefaultBookingDurationMin when the sum is zero or the deal has no lines.
func (b *Booking) BeforeSave(tx *gorm.DB) error {
	if b.Color == "" {
		b.Color = DefaultBookingColor
	}

	if b.EndAt == nil {
		minutes, err := DealDurationMinutes(tx, b.DealID)
		if err != nil {
			return err
		}
		end := b.StartAt.Add(time.Duration(minutes) * time.Minute)
		b.EndAt = &end
	}

	if !b.EndAt.After(b.StartAt) {
		return ErrEndBeforeStart
	}
	return nil
}

// DealDurationMinutes sums duration x quantity over the deal's lines.
func DealDurationMinutes(tx *gorm.DB, dealID uuid.UUID) (int, error) {
	var lines []DealLine
	if err := tx.Preload("Service").
		Where("deal_id = ?", dealID).
		Order("created_at").
		Find(&lines).Error; err != nil {
		return 0, err
	}

	total := 0
	for _, line := range lines {
		total += int(float64(line.Service.DurationMin) * line.Quantity)
	}
	if total <= 0 {
		total = DefaultBookingDurationMin
	}
	return total, nil
}
