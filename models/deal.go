package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DealStatusNew        = "new"
	DealStatusInProgress = "in_progress"
	DealStatusClosed     = "closed"
)

// Deal is the commercial transaction a booking hangs off. Amount is a cached
// sum over the deal's lines, refreshed by RecalcDealTotal.
type Deal struct {
	ID       uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ClientID uuid.UUID  `gorm:"type:uuid;index;not null" json:"clientId"`
	Client   Client     `gorm:"constraint:OnDelete:CASCADE" json:"client,omitempty"`
	OwnerID  *uuid.UUID `gorm:"type:uuid;index" json:"ownerId,omitempty"`

	Title  string  `gorm:"size:200;not null" json:"title"`
	Amount float64 `gorm:"type:decimal(12,2);default:0" json:"amount"`
	Status string  `gorm:"size:20;default:'new'" json:"status"`
	Notes  string  `json:"notes"`

	Lines   []DealLine `gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
	Booking *Booking   `gorm:"foreignKey:DealID" json:"booking,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (d *Deal) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}

// DealLine is one priced service quantity within a deal. Lines are read in
// creation order; the first line's service drives the skill check.
type DealLine struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	DealID    uuid.UUID `gorm:"type:uuid;index;not null" json:"dealId"`
	ServiceID uuid.UUID `gorm:"type:uuid;index;not null" json:"serviceId"`
	Service   Service   `json:"service,omitempty"`

	Quantity  float64 `gorm:"type:decimal(10,2);default:1" json:"quantity"`
	UnitPrice float64 `gorm:"type:decimal(10,2)" json:"unitPrice"`
	Subtotal  float64 `gorm:"type:decimal(12,2)" json:"subtotal"`

	CreatedAt time.Time `json:"createdAt"`
}

func (l *DealLine) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}

func (l *DealLine) BeforeSave(tx *gorm.DB) (err error) {
	if l.Quantity <= 0 {
		l.Quantity = 1
	}
	if l.UnitPrice == 0 {
		var svc Service
		if err := tx.Select("base_price").First(&svc, "id = ?", l.ServiceID).Error; err == nil {
			l.UnitPrice = svc.BasePrice
		}
	}
	l.Subtotal = math.Round(l.UnitPrice*l.Quantity*100) / 100
	return
}

// RecalcDealTotal refreshes the deal's cached amount from its lines. Called
// explicitly after every line write or delete.
func RecalcDealTotal(tx *gorm.DB, dealID uuid.UUID) error {
	var total float64
	if err := tx.Model(&DealLine{}).
		Where("deal_id = ?", dealID).
		Select("COALESCE(SUM(subtotal), 0)").
		Scan(&total).Error; err != nil {
		return err
	}

	return tx.Model(&Deal{}).Where("id = ?", dealID).
		Update("amount", total).Error
}
