package services

import (
	"errors"

	"beautycrm-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetService looks up a catalog entry by id.
func GetService(db *gorm.DB, id uuid.UUID) (*models.Service, error) {
	var svc models.Service
	if err := db.First(&svc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "Service"}
		}
		return nil, err
	}
	return &svc, nil
}

// IsQualified reports whether the master's skill set contains the service.
func IsQualified(db *gorm.DB, masterID, serviceID uuid.UUID) (bool, error) {
	var count int64
	err := db.Table("master_skills").
		Where("master_id = ? AND service_id = ?", masterID, serviceID).
		Count(&count).Error
	return count > 0, err
}

// ResolveDuration is the single source of a booking's length: explicit
// positive minutes win, else the service's configured duration, else the
// default. The chain is exact — zero or negative explicit minutes fall
// through.
func ResolveDuration(svc *models.Service, explicitMin int) int {
	if explicitMin > 0 {
		return explicitMin
	}
	if svc != nil && svc.DurationMin > 0 {
		return svc.DurationMin
	}
	return models.DefaultBookingDurationMin
}
