package services

import (
	"errors"
	"time"

	"beautycrm-backend/models"
	"beautycrm-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scheduler is the booking engine. Every mutating operation runs as one
// transaction spanning the conflict query and the write, so two concurrent
// requests for the same master cannot both pass the overlap check.
type Scheduler struct {
	db *gorm.DB
}

func NewScheduler(db *gorm.DB) *Scheduler {
	return &Scheduler{db: db}
}

// NewDealSpec mints a minimal deal (plus one line priced at the service's
// base price) for a client resolved by id or created from a bare name.
type NewDealSpec struct {
	ClientID    *uuid.UUID
	ClientName  string
	ClientPhone string
	ServiceID   uuid.UUID
	OwnerID     *uuid.UUID
}

// DealResolution selects one of the two booking-creation modes: attach to an
// existing deal, or mint a new one. Exactly one field must be set.
type DealResolution struct {
	ExistingID *uuid.UUID
	New        *NewDealSpec
}

type CreateBookingRequest struct {
	Deal           DealResolution
	StartAt        time.Time
	DurationMin    int
	MasterID       *uuid.UUID
	ResourceID     *uuid.UUID
	AllowUnskilled bool
	Note           string
}

// BookingPatch carries a merge-patch: nil pointers leave the field untouched.
// MasterID and ResourceID are tri-state because present-as-null clears the
// assignment.
type BookingPatch struct {
	StartAt        *time.Time
	EndAt          *time.Time
	DurationMin    *int
	MasterID       utils.Optional[uuid.UUID]
	ResourceID     utils.Optional[uuid.UUID]
	Note           *string
	AllowUnskilled *bool
	Status         *string
}

// CreateBooking resolves the deal, computes the end time, runs the skill and
// conflict gates and persists the booking — all in one atomic unit. A minted
// deal rolls back with the booking if any gate fails.
func (s *Scheduler) CreateBooking(req CreateBookingRequest) (*models.Booking, error) {
	if (req.Deal.ExistingID == nil) == (req.Deal.New == nil) {
		return nil, &ValidationError{Message: "either deal_id or client+service required"}
	}
	if req.StartAt.IsZero() {
		return nil, &ValidationError{Message: "start_at required"}
	}

	var booking *models.Booking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var (
			deal    *models.Deal
			service *models.Service
			err     error
		)

		if req.Deal.ExistingID != nil {
			deal, service, err = loadDealWithService(tx, *req.Deal.ExistingID)
		} else {
			deal, service, err = mintDeal(tx, req.Deal.New, req.Note)
		}
		if err != nil {
			return err
		}

		durationMin := req.DurationMin
		if durationMin <= 0 {
			if req.Deal.New != nil {
				durationMin = ResolveDuration(service, 0)
			} else {
				durationMin, err = models.DealDurationMinutes(tx, deal.ID)
				if err != nil {
					return err
				}
			}
		}
		endAt := req.StartAt.Add(time.Duration(durationMin) * time.Minute)

		if req.MasterID != nil {
			if err := ensureMasterExists(tx, *req.MasterID); err != nil {
				return err
			}
		}
		if req.ResourceID != nil {
			if err := ensureResourceExists(tx, *req.ResourceID); err != nil {
				return err
			}
		}

		if req.MasterID != nil && service != nil && !req.AllowUnskilled {
			qualified, err := IsQualified(tx, *req.MasterID, service.ID)
			if err != nil {
				return err
			}
			if !qualified {
				return ErrSkillMismatch
			}
		}

		if req.MasterID != nil {
			overlapping, err := findOverlapping(tx, *req.MasterID, req.StartAt, endAt, uuid.Nil)
			if err != nil {
				return err
			}
			if len(overlapping) > 0 {
				return ErrSchedulingConflict
			}
		}

		status := models.BookingStatusConfirmed
		if req.AllowUnskilled || req.MasterID == nil {
			status = models.BookingStatusTentative
		}

		booking = &models.Booking{
			DealID:         deal.ID,
			StartAt:        req.StartAt,
			EndAt:          &endAt,
			MasterID:       req.MasterID,
			ResourceID:     req.ResourceID,
			Status:         status,
			AllowUnskilled: req.AllowUnskilled,
			Note:           req.Note,
			Color:          models.DefaultBookingColor,
		}
		return tx.Create(booking).Error
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// UpdateBooking applies a merge-patch and re-runs the skill and conflict
// gates against the post-update state, excluding the booking itself from the
// overlap query.
func (s *Scheduler) UpdateBooking(id uuid.UUID, patch BookingPatch) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Preload("Deal.Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
			Preload("Deal.Lines.Service").
			First(&booking, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "Booking"}
			}
			return err
		}

		if patch.StartAt != nil {
			booking.StartAt = *patch.StartAt
		}

		// End-time recompute rule: an explicit end wins; otherwise a supplied
		// duration recomputes from the (possibly new) start; otherwise the end
		// stays as it was.
		if patch.EndAt != nil {
			booking.EndAt = patch.EndAt
		} else if patch.DurationMin != nil && *patch.DurationMin > 0 {
			end := booking.StartAt.Add(time.Duration(*patch.DurationMin) * time.Minute)
			booking.EndAt = &end
		}

		if patch.MasterID.Present {
			if patch.MasterID.Value == nil {
				booking.MasterID = nil
				booking.Master = nil
			} else {
				if err := ensureMasterExists(tx, *patch.MasterID.Value); err != nil {
					return err
				}
				booking.MasterID = patch.MasterID.Value
				booking.Master = nil
			}
		}

		if patch.ResourceID.Present {
			if patch.ResourceID.Value == nil {
				booking.ResourceID = nil
				booking.Resource = nil
			} else {
				if err := ensureResourceExists(tx, *patch.ResourceID.Value); err != nil {
					return err
				}
				booking.ResourceID = patch.ResourceID.Value
				booking.Resource = nil
			}
		}

		if patch.Note != nil {
			booking.Note = *patch.Note
		}
		if patch.AllowUnskilled != nil {
			booking.AllowUnskilled = *patch.AllowUnskilled
		}
		if patch.Status != nil {
			switch *patch.Status {
			case models.BookingStatusTentative, models.BookingStatusConfirmed, models.BookingStatusCancelled:
				booking.Status = *patch.Status
			default:
				return &ValidationError{Message: "invalid status"}
			}
		}

		var service *models.Service
		if len(booking.Deal.Lines) > 0 {
			service = &booking.Deal.Lines[0].Service
		}

		if booking.MasterID != nil && service != nil && !booking.AllowUnskilled {
			qualified, err := IsQualified(tx, *booking.MasterID, service.ID)
			if err != nil {
				return err
			}
			if !qualified {
				return ErrSkillMismatch
			}
		}

		if booking.MasterID != nil && booking.EndAt != nil {
			overlapping, err := findOverlapping(tx, *booking.MasterID, booking.StartAt, *booking.EndAt, booking.ID)
			if err != nil {
				return err
			}
			if len(overlapping) > 0 {
				return ErrSchedulingConflict
			}
		}

		return tx.Omit(clause.Associations).Save(&booking).Error
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// DeleteBooking removes the booking unconditionally. The deal stays.
func (s *Scheduler) DeleteBooking(id uuid.UUID) error {
	result := s.db.Delete(&models.Booking{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Entity: "Booking"}
	}
	return nil
}

// findOverlapping returns the bookings of one master whose half-open interval
// intersects [start, end), locking the matched rows for the remainder of the
// transaction. SQLite has no FOR UPDATE, so the clause is applied only on
// dialects that support it.
func findOverlapping(tx *gorm.DB, masterID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]models.Booking, error) {
	q := tx.Model(&models.Booking{}).
		Where("master_id = ? AND start_at < ? AND end_at > ?", masterID, end, start)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var overlapping []models.Booking
	if err := q.Find(&overlapping).Error; err != nil {
		return nil, err
	}
	return overlapping, nil
}

// loadDealWithService fetches an existing deal plus the service of its first
// line, which drives the skill check.
func loadDealWithService(tx *gorm.DB, dealID uuid.UUID) (*models.Deal, *models.Service, error) {
	var deal models.Deal
	if err := tx.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Lines.Service").
		First(&deal, "id = ?", dealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, &NotFoundError{Entity: "Deal"}
		}
		return nil, nil, err
	}

	var service *models.Service
	if len(deal.Lines) > 0 {
		service = &deal.Lines[0].Service
	}
	return &deal, service, nil
}

// mintDeal creates the minimal deal + line for the quick-booking mode. It runs
// inside the caller's transaction so a failed gate rolls the deal back too.
func mintDeal(tx *gorm.DB, spec *NewDealSpec, note string) (*models.Deal, *models.Service, error) {
	service, err := GetService(tx, spec.ServiceID)
	if err != nil {
		return nil, nil, err
	}

	var client models.Client
	if spec.ClientID != nil {
		if err := tx.First(&client, "id = ?", *spec.ClientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, &NotFoundError{Entity: "Client"}
			}
			return nil, nil, err
		}
	} else {
		if spec.ClientName == "" {
			return nil, nil, &ValidationError{Message: "client_id or client_name required"}
		}
		client = models.Client{
			Name:    spec.ClientName,
			Phone:   spec.ClientPhone,
			OwnerID: spec.OwnerID,
		}
		if err := tx.Create(&client).Error; err != nil {
			return nil, nil, err
		}
	}

	deal := models.Deal{
		ClientID: client.ID,
		OwnerID:  spec.OwnerID,
		Title:    service.Name,
		Amount:   service.BasePrice,
		Status:   models.DealStatusInProgress,
		Notes:    note,
	}
	if err := tx.Create(&deal).Error; err != nil {
		return nil, nil, err
	}

	line := models.DealLine{
		DealID:    deal.ID,
		ServiceID: service.ID,
		Quantity:  1,
		UnitPrice: service.BasePrice,
	}
	if err := tx.Create(&line).Error; err != nil {
		return nil, nil, err
	}
	if err := models.RecalcDealTotal(tx, deal.ID); err != nil {
		return nil, nil, err
	}
	if err := models.RecalcClientDealStatus(tx, client.ID); err != nil {
		return nil, nil, err
	}

	return &deal, service, nil
}

func ensureMasterExists(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.Master{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &NotFoundError{Entity: "Master"}
	}
	return nil
}

func ensureResourceExists(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.Resource{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return &NotFoundError{Entity: "Resource"}
	}
	return nil
}
