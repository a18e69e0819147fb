package services

import (
	"testing"
	"time"

	"beautycrm-backend/models"
	"beautycrm-backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Deal{},
		&models.DealLine{},
		&models.Service{},
		&models.Master{},
		&models.Resource{},
		&models.Booking{},
		&models.ReminderLog{},
	))
	return db
}

type fixture struct {
	db        *gorm.DB
	scheduler *Scheduler
	service   models.Service
	skilled   models.Master
	unskilled models.Master
	client    models.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	service := models.Service{Name: "Women's haircut", BasePrice: 500, DurationMin: 45, IsActive: true}
	require.NoError(t, db.Create(&service).Error)

	skilled := models.Master{Name: "Olena", IsActive: true, Skills: []models.Service{service}}
	require.NoError(t, db.Create(&skilled).Error)

	unskilled := models.Master{Name: "Taras", IsActive: true}
	require.NoError(t, db.Create(&unskilled).Error)

	client := models.Client{Name: "Iryna", Phone: "+380501234567"}
	require.NoError(t, db.Create(&client).Error)

	return &fixture{
		db:        db,
		scheduler: NewScheduler(db),
		service:   service,
		skilled:   skilled,
		unskilled: unskilled,
		client:    client,
	}
}

func (f *fixture) newDealRequest(start time.Time, masterID *uuid.UUID) CreateBookingRequest {
	return CreateBookingRequest{
		Deal: DealResolution{New: &NewDealSpec{
			ClientID:  &f.client.ID,
			ServiceID: f.service.ID,
		}},
		StartAt:  start,
		MasterID: masterID,
	}
}

func at(h, m int) time.Time {
	return time.Date(2025, 9, 17, h, m, 0, 0, time.UTC)
}

func TestCreateBookingMintsDeal(t *testing.T) {
	f := newFixture(t)

	booking, err := f.scheduler.CreateBooking(f.newDealRequest(at(10, 0), &f.skilled.ID))
	require.NoError(t, err)

	assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
	require.NotNil(t, booking.EndAt)
	assert.True(t, booking.EndAt.Equal(at(10, 45)), "end must come from the service duration")

	var deal models.Deal
	require.NoError(t, f.db.Preload("Lines").First(&deal, "id = ?", booking.DealID).Error)
	assert.Equal(t, f.service.Name, deal.Title)
	assert.Equal(t, models.DealStatusInProgress, deal.Status)
	require.Len(t, deal.Lines, 1)
	assert.Equal(t, f.service.BasePrice, deal.Lines[0].UnitPrice)
	assert.Equal(t, f.service.BasePrice, deal.Amount)

	var client models.Client
	require.NoError(t, f.db.First(&client, "id = ?", f.client.ID).Error)
	assert.Equal(t, "active", client.DealStatus)
}

func TestCreateBookingMintsClient(t *testing.T) {
	f := newFixture(t)

	req := CreateBookingRequest{
		Deal: DealResolution{New: &NewDealSpec{
			ClientName:  "Walk-in Vasyl",
			ClientPhone: "+380991112233",
			ServiceID:   f.service.ID,
		}},
		StartAt: at(11, 0),
	}
	booking, err := f.scheduler.CreateBooking(req)
	require.NoError(t, err)

	var deal models.Deal
	require.NoError(t, f.db.Preload("Client").First(&deal, "id = ?", booking.DealID).Error)
	assert.Equal(t, "Walk-in Vasyl", deal.Client.Name)
}

func TestCreateBookingConflict(t *testing.T) {
	f := newFixture(t)

	first := f.newDealRequest(at(9, 0), &f.skilled.ID)
	first.DurationMin = 30
	_, err := f.scheduler.CreateBooking(first)
	require.NoError(t, err)

	second := f.newDealRequest(at(9, 15), &f.skilled.ID)
	second.DurationMin = 30
	_, err = f.scheduler.CreateBooking(second)
	assert.ErrorIs(t, err, ErrSchedulingConflict)

	// The minted deal must roll back with the rejected booking
	var dealCount int64
	f.db.Model(&models.Deal{}).Count(&dealCount)
	assert.EqualValues(t, 1, dealCount)

	// A different master at the same time is fine
	otherMaster := f.newDealRequest(at(9, 15), &f.unskilled.ID)
	otherMaster.DurationMin = 30
	otherMaster.AllowUnskilled = true
	_, err = f.scheduler.CreateBooking(otherMaster)
	assert.NoError(t, err)
}

func TestCreateBookingTouchingIntervals(t *testing.T) {
	f := newFixture(t)

	first := f.newDealRequest(at(10, 0), &f.skilled.ID)
	first.DurationMin = 30
	_, err := f.scheduler.CreateBooking(first)
	require.NoError(t, err)

	// [10:00,10:30) and [10:30,11:00) share a boundary but do not conflict
	second := f.newDealRequest(at(10, 30), &f.skilled.ID)
	second.DurationMin = 30
	_, err = f.scheduler.CreateBooking(second)
	assert.NoError(t, err)
}

func TestCreateBookingSkillGate(t *testing.T) {
	f := newFixture(t)

	req := f.newDealRequest(at(10, 0), &f.unskilled.ID)
	_, err := f.scheduler.CreateBooking(req)
	assert.ErrorIs(t, err, ErrSkillMismatch)

	req.AllowUnskilled = true
	booking, err := f.scheduler.CreateBooking(req)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusTentative, booking.Status)
}

func TestCreateBookingWithoutMaster(t *testing.T) {
	f := newFixture(t)

	booking, err := f.scheduler.CreateBooking(f.newDealRequest(at(10, 0), nil))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusTentative, booking.Status)
	assert.Nil(t, booking.MasterID)
}

func TestCreateBookingExistingDealDerivesEnd(t *testing.T) {
	f := newFixture(t)

	short := models.Service{Name: "Styling", BasePrice: 350, DurationMin: 30, IsActive: true}
	require.NoError(t, f.db.Create(&short).Error)

	deal := models.Deal{ClientID: f.client.ID, Title: "Full visit", Status: models.DealStatusInProgress}
	require.NoError(t, f.db.Create(&deal).Error)
	require.NoError(t, f.db.Create(&models.DealLine{
		DealID: deal.ID, ServiceID: f.service.ID, Quantity: 1, UnitPrice: 500,
	}).Error)
	require.NoError(t, f.db.Create(&models.DealLine{
		DealID: deal.ID, ServiceID: short.ID, Quantity: 2, UnitPrice: 350,
	}).Error)

	booking, err := f.scheduler.CreateBooking(CreateBookingRequest{
		Deal:    DealResolution{ExistingID: &deal.ID},
		StartAt: at(12, 0),
	})
	require.NoError(t, err)
	// 45 + 2x30 = 105 minutes
	require.NotNil(t, booking.EndAt)
	assert.True(t, booking.EndAt.Equal(at(13, 45)))
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture(t)

	var validation *ValidationError

	_, err := f.scheduler.CreateBooking(CreateBookingRequest{StartAt: at(10, 0)})
	assert.ErrorAs(t, err, &validation)

	_, err = f.scheduler.CreateBooking(CreateBookingRequest{
		Deal: DealResolution{New: &NewDealSpec{ServiceID: f.service.ID}},
		StartAt: at(10, 0),
	})
	assert.ErrorAs(t, err, &validation, "a new deal needs a client id or name")

	missing := uuid.New()
	var notFound *NotFoundError
	_, err = f.scheduler.CreateBooking(CreateBookingRequest{
		Deal:    DealResolution{ExistingID: &missing},
		StartAt: at(10, 0),
	})
	assert.ErrorAs(t, err, &notFound)
}

func TestUpdateBookingPartialPatchKeepsEnd(t *testing.T) {
	f := newFixture(t)

	booking, err := f.scheduler.CreateBooking(f.newDealRequest(at(10, 0), &f.skilled.ID))
	require.NoError(t, err)
	originalEnd := *booking.EndAt

	// Moving only the start leaves the end untouched
	newStart := at(9, 0)
	updated, err := f.scheduler.UpdateBooking(booking.ID, BookingPatch{StartAt: &newStart})
	require.NoError(t, err)
	assert.True(t, updated.StartAt.Equal(newStart))
	assert.True(t, updated.EndAt.Equal(originalEnd))

	// Re-issuing the same patch is idempotent
	again, err := f.scheduler.UpdateBooking(booking.ID, BookingPatch{StartAt: &newStart})
	require.NoError(t, err)
	assert.True(t, again.StartAt.Equal(updated.StartAt))
	assert.True(t, again.EndAt.Equal(*updated.EndAt))
}

func TestUpdateBookingDurationRecomputesFromNewStart(t *testing.T) {
	f := newFixture(t)

	booking, err := f.scheduler.CreateBooking(f.newDealRequest(at(10, 0), &f.skilled.ID))
	require.NoError(t, err)

	newStart := at(14, 0)
	duration := 60
	updated, err := f.scheduler.UpdateBooking(booking.ID, BookingPatch{
		StartAt:     &newStart,
		DurationMin: &duration,
	})
	require.NoError(t, err)
	assert.True(t, updated.EndAt.Equal(at(15, 0)))
}

func TestUpdateBookingExplicitEndWins(t *testing.T) {
	f := newFixture(t)

	booking, err := f.scheduler.CreateBooking(f.newDealRequest(at(10, 0), &f.skilled.ID))
	require.NoError(t, err)

	end := at(11, 30)
	duration := 15
	updated, err := f.scheduler.UpdateBooking(booking.ID, BookingPatch{
		EndAt:       &end,
		DurationMin: &duration,
	})
	require.NoError(t, err)
	assert.True(t, updated.EndAt.Equal(end))
}

func TestUpdateBookingMasterTriState(t *testing.T) {
	f := newFixture(t)

	booking, err := f.scheduler.CreateBooking(f.newDealRequest(at(10, 0), &f.skilled.ID))
	require.NoError(t, err)

	// Absent key leaves the assignment untouched
	note := "moved by phone"
	updated, err := f.scheduler.UpdateBooking(booking.ID, BookingPatch{Note: &note})
	require.NoError(t, err)
	require.NotNil(t, updated.MasterID)
	assert.Equal(t, f.skilled.ID, *updated.MasterID)

	// Present-as-null clears it
	updated, err = f.scheduler.UpdateBooking(booking.ID, BookingPatch{
		MasterID: utils.Optional[uuid.UUID]{Present: true},
	})
	require.NoError(t, err)
	assert.Nil(t, updated.MasterID)

	// Present with value reassigns
	updated, err = f.scheduler.UpdateBooking(booking.ID, BookingPatch{
		MasterID: utils.Optional[uuid.UUID]{Present: true, Value: &f.skilled.ID},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.MasterID)
	assert.Equal(t, f.skilled.ID, *updated.MasterID)
}

func TestUpdateBookingSkillGate(t *testing.T) {
	f := newFixture(t)

	booking, err := f.scheduler.CreateBooking(f.newDealRequest(at(10, 0), &f.skilled.ID))
	require.NoError(t, err)

	_, err = f.scheduler.UpdateBooking(booking.ID, BookingPatch{
		MasterID: utils.Optional[uuid.UUID]{Present: true, Value: &f.unskilled.ID},
	})
	assert.ErrorIs(t, err, ErrSkillMismatch)

	allow := true
	updated, err := f.scheduler.UpdateBooking(booking.ID, BookingPatch{
		MasterID:       utils.Optional[uuid.UUID]{Present: true, Value: &f.unskilled.ID},
		AllowUnskilled: &allow,
	})
	require.NoError(t, err)
	assert.Equal(t, f.unskilled.ID, *updated.MasterID)
}

func TestUpdateBookingExcludesItselfFromConflictCheck(t *testing.T) {
	f := newFixture(t)

	booking, err := f.scheduler.CreateBooking(f.newDealRequest(at(10, 0), &f.skilled.ID))
	require.NoError(t, err)

	// Shifting within its own interval must not conflict with itself
	newStart := at(10, 15)
	duration := 45
	_, err = f.scheduler.UpdateBooking(booking.ID, BookingPatch{
		StartAt:     &newStart,
		DurationMin: &duration,
	})
	assert.NoError(t, err)
}

func TestUpdateBookingConflictWithOtherBooking(t *testing.T) {
	f := newFixture(t)

	first := f.newDealRequest(at(9, 0), &f.skilled.ID)
	first.DurationMin = 60
	_, err := f.scheduler.CreateBooking(first)
	require.NoError(t, err)

	second := f.newDealRequest(at(11, 0), &f.skilled.ID)
	second.DurationMin = 60
	target, err := f.scheduler.CreateBooking(second)
	require.NoError(t, err)

	newStart := at(9, 30)
	duration := 60
	_, err = f.scheduler.UpdateBooking(target.ID, BookingPatch{
		StartAt:     &newStart,
		DurationMin: &duration,
	})
	assert.ErrorIs(t, err, ErrSchedulingConflict)
}

func TestDeleteBooking(t *testing.T) {
	f := newFixture(t)

	booking, err := f.scheduler.CreateBooking(f.newDealRequest(at(10, 0), &f.skilled.ID))
	require.NoError(t, err)
	dealID := booking.DealID

	require.NoError(t, f.scheduler.DeleteBooking(booking.ID))

	// Deleting the booking leaves the deal in place
	var dealCount int64
	f.db.Model(&models.Deal{}).Where("id = ?", dealID).Count(&dealCount)
	assert.EqualValues(t, 1, dealCount)

	var notFound *NotFoundError
	err = f.scheduler.DeleteBooking(booking.ID)
	assert.ErrorAs(t, err, &notFound)
}

func TestNoOverlapInvariantAfterMixedOperations(t *testing.T) {
	f := newFixture(t)

	starts := []time.Time{at(9, 0), at(9, 45), at(10, 30), at(11, 15)}
	var created []*models.Booking
	for _, s := range starts {
		req := f.newDealRequest(s, &f.skilled.ID)
		req.DurationMin = 45
		b, err := f.scheduler.CreateBooking(req)
		require.NoError(t, err)
		created = append(created, b)
	}

	require.NoError(t, f.scheduler.DeleteBooking(created[1].ID))

	moved := at(9, 45)
	duration := 45
	_, err := f.scheduler.UpdateBooking(created[2].ID, BookingPatch{
		StartAt:     &moved,
		DurationMin: &duration,
	})
	require.NoError(t, err)

	var bookings []models.Booking
	require.NoError(t, f.db.Where("master_id IS NOT NULL").Find(&bookings).Error)
	for i := range bookings {
		for j := i + 1; j < len(bookings); j++ {
			if *bookings[i].MasterID != *bookings[j].MasterID {
				continue
			}
			assert.False(t, utils.Overlaps(
				bookings[i].StartAt, *bookings[i].EndAt,
				bookings[j].StartAt, *bookings[j].EndAt,
			), "bookings %d and %d overlap", i, j)
		}
	}
}
