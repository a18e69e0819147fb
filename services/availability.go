package services

import (
	"time"

	"beautycrm-backend/config"
	"beautycrm-backend/models"
	"beautycrm-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FreeSlots lists the free slot start times for one master on one day.
// Candidate slots stride across [startHour, endHour) in the salon timezone;
// a slot is free when it overlaps none of the master's bookings intersecting
// the day window. Pure read — safe to call repeatedly.
func FreeSlots(db *gorm.DB, day time.Time, masterID uuid.UUID, startHour, endHour, slotMin int) ([]time.Time, error) {
	if slotMin <= 0 {
		slotMin = models.DefaultBookingDurationMin
	}

	loc := config.Location
	day = day.In(loc)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), startHour, 0, 0, 0, loc)
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), endHour, 0, 0, 0, loc)

	var bookings []models.Booking
	if err := db.
		Where("master_id = ? AND start_at < ? AND end_at > ?", masterID, dayEnd, dayStart).
		Find(&bookings).Error; err != nil {
		return nil, err
	}

	slotDur := time.Duration(slotMin) * time.Minute
	var slots []time.Time
	for s := dayStart; s.Before(dayEnd); s = s.Add(slotDur) {
		e := s.Add(slotDur)
		busy := false
		for _, b := range bookings {
			if b.EndAt == nil {
				continue
			}
			if utils.Overlaps(s, e, b.StartAt.In(loc), b.EndAt.In(loc)) {
				busy = true
				break
			}
		}
		if !busy {
			slots = append(slots, s)
		}
	}
	return slots, nil
}
