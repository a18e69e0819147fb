package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Client struct {
	ID      uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID *uuid.UUID `gorm:"type:uuid;index" json:"ownerId,omitempty"`

	Name  string `gorm:"size:150;not null" json:"name"`
	Phone string `gorm:"size:30" json:"phone"`
	Email string `json:"email"`
	Notes string `json:"notes"`

	// DealStatus is a cached aggregate over the client's deals:
	// "none", "active" or "done". Recomputed by RecalcClientDealStatus
	// from every deal write path.
	DealStatus string `gorm:"size:10;default:'none'" json:"dealStatus"`

	Deals []Deal `gorm:"foreignKey:ClientID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// RecalcClientDealStatus refreshes the client's cached deal status. Called
// explicitly after a deal is created, updated or deleted.
func RecalcClientDealStatus(tx *gorm.DB, clientID uuid.UUID) error {
	var active, closed int64

	if err := tx.Model(&Deal{}).
		Where("client_id = ? AND status IN ?", clientID, []string{DealStatusNew, DealStatusInProgress}).
		Count(&active).Error; err != nil {
		return err
	}
	if err := tx.Model(&Deal{}).
		Where("client_id = ? AND status = ?", clientID, DealStatusClosed).
		Count(&closed).Error; err != nil {
		return err
	}

	status := "none"
	switch {
	case active > 0:
		status = "active"
	case closed > 0:
		status = "done"
	}

	return tx.Model(&Client{}).Where("id = ?", clientID).
		Update("deal_status", status).Error
}
