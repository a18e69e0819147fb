package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"beautycrm-backend/config"
	"beautycrm-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupCalendarTest points the global DB at an in-memory database and wires
// the calendar handlers without the auth middleware.
func setupCalendarTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Client{}, &models.Deal{}, &models.DealLine{},
		&models.Service{}, &models.Master{}, &models.Resource{}, &models.Booking{},
	))

	prevDB, prevLoc := config.DB, config.Location
	config.DB = db
	config.Location = time.UTC
	t.Cleanup(func() {
		config.DB = prevDB
		config.Location = prevLoc
	})

	r := gin.New()
	cal := r.Group("/api/calendar")
	{
		cal.GET("/events", GetCalendarEvents)
		cal.GET("/free-slots", GetFreeSlots)
		cal.POST("/bookings", CreateBooking)
		cal.PATCH("/bookings/:id", UpdateBooking)
		cal.DELETE("/bookings/:id", DeleteBooking)
	}
	return r
}

type calendarFixture struct {
	service models.Service
	master  models.Master
	client  models.Client
}

func seedCalendarFixture(t *testing.T) calendarFixture {
	t.Helper()

	service := models.Service{Name: "Women's haircut", BasePrice: 500, DurationMin: 45, IsActive: true}
	require.NoError(t, config.DB.Create(&service).Error)

	master := models.Master{Name: "Olena", IsActive: true, Skills: []models.Service{service}}
	require.NoError(t, config.DB.Create(&master).Error)

	client := models.Client{Name: "Iryna", Phone: "+380501234567"}
	require.NoError(t, config.DB.Create(&client).Error)

	return calendarFixture{service: service, master: master, client: client}
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetCalendarEventsRequiresRange(t *testing.T) {
	r := setupCalendarTest(t)

	w := doJSON(r, http.MethodGet, "/api/calendar/events", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/calendar/events?start=garbage&end=2025-09-18", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBookingEndpoint(t *testing.T) {
	r := setupCalendarTest(t)
	f := seedCalendarFixture(t)

	w := doJSON(r, http.MethodPost, "/api/calendar/bookings", gin.H{
		"start_at":   "2025-09-17T10:00:00Z",
		"client_id":  f.client.ID,
		"service_id": f.service.ID,
		"master_id":  f.master.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var event struct {
		ID            string  `json:"id"`
		Title         string  `json:"title"`
		Start         string  `json:"start"`
		End           *string `json:"end"`
		ExtendedProps struct {
			Client  string `json:"client"`
			Master  string `json:"master"`
			Status  string `json:"status"`
			Service string `json:"service"`
		} `json:"extendedProps"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, f.service.Name, event.Title)
	assert.Equal(t, "2025-09-17T10:00:00Z", event.Start)
	require.NotNil(t, event.End)
	assert.Equal(t, "2025-09-17T10:45:00Z", *event.End)
	assert.Equal(t, f.client.Name, event.ExtendedProps.Client)
	assert.Equal(t, f.master.Name, event.ExtendedProps.Master)
	assert.Equal(t, models.BookingStatusConfirmed, event.ExtendedProps.Status)
	assert.Equal(t, f.service.Name, event.ExtendedProps.Service)

	// The new event shows up in a range query
	w = doJSON(r, http.MethodGet,
		"/api/calendar/events?start=2025-09-17T00:00:00Z&end=2025-09-18T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	assert.Len(t, events, 1)
}

func TestCreateBookingEndpointValidation(t *testing.T) {
	r := setupCalendarTest(t)
	f := seedCalendarFixture(t)

	// Missing service_id in new-deal mode
	w := doJSON(r, http.MethodPost, "/api/calendar/bookings", gin.H{
		"start_at":  "2025-09-17T10:00:00Z",
		"client_id": f.client.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Missing client entirely
	w = doJSON(r, http.MethodPost, "/api/calendar/bookings", gin.H{
		"start_at":   "2025-09-17T10:00:00Z",
		"service_id": f.service.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unparseable start
	w = doJSON(r, http.MethodPost, "/api/calendar/bookings", gin.H{
		"start_at":   "next tuesday",
		"client_id":  f.client.ID,
		"service_id": f.service.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBookingEndpointConflict(t *testing.T) {
	r := setupCalendarTest(t)
	f := seedCalendarFixture(t)

	body := gin.H{
		"start_at":   "2025-09-17T10:00:00Z",
		"client_id":  f.client.ID,
		"service_id": f.service.ID,
		"master_id":  f.master.ID,
	}
	w := doJSON(r, http.MethodPost, "/api/calendar/bookings", body)
	require.Equal(t, http.StatusCreated, w.Code)

	body["start_at"] = "2025-09-17T10:30:00Z"
	w = doJSON(r, http.MethodPost, "/api/calendar/bookings", body)
	require.Equal(t, http.StatusConflict, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "conflict", resp["error"])
}

func TestCreateBookingEndpointSkillMismatch(t *testing.T) {
	r := setupCalendarTest(t)
	f := seedCalendarFixture(t)

	unskilled := models.Master{Name: "Taras", IsActive: true}
	require.NoError(t, config.DB.Create(&unskilled).Error)

	body := gin.H{
		"start_at":   "2025-09-17T10:00:00Z",
		"client_id":  f.client.ID,
		"service_id": f.service.ID,
		"master_id":  unskilled.ID,
	}
	w := doJSON(r, http.MethodPost, "/api/calendar/bookings", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "skill", resp["error"])

	body["allow_unskilled"] = true
	w = doJSON(r, http.MethodPost, "/api/calendar/bookings", body)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestUpdateBookingEndpoint(t *testing.T) {
	r := setupCalendarTest(t)
	f := seedCalendarFixture(t)

	w := doJSON(r, http.MethodPost, "/api/calendar/bookings", gin.H{
		"start_at":   "2025-09-17T10:00:00Z",
		"client_id":  f.client.ID,
		"service_id": f.service.ID,
		"master_id":  f.master.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(r, http.MethodPatch, "/api/calendar/bookings/"+created.ID, gin.H{
		"start_at": "2025-09-17T09:30:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var event struct {
		Start string  `json:"start"`
		End   *string `json:"end"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))
	assert.Equal(t, "2025-09-17T09:30:00Z", event.Start)
	// Moving only the start keeps the stored end untouched
	require.NotNil(t, event.End)
	assert.Equal(t, "2025-09-17T10:45:00Z", *event.End)

	// Moving the start past the unchanged end is rejected
	w = doJSON(r, http.MethodPatch, "/api/calendar/bookings/"+created.ID, gin.H{
		"start_at": "2025-09-17T14:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Explicit null clears the master assignment
	w = doJSON(r, http.MethodPatch, "/api/calendar/bookings/"+created.ID, gin.H{
		"master_id": nil,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cleared struct {
		ExtendedProps struct {
			Master string `json:"master"`
		} `json:"extendedProps"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cleared))
	assert.Empty(t, cleared.ExtendedProps.Master)

	w = doJSON(r, http.MethodPatch, "/api/calendar/bookings/"+created.ID, gin.H{
		"status": "rescheduled",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPatch, "/api/calendar/bookings/not-a-uuid", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteBookingEndpoint(t *testing.T) {
	r := setupCalendarTest(t)
	f := seedCalendarFixture(t)

	w := doJSON(r, http.MethodPost, "/api/calendar/bookings", gin.H{
		"start_at":   "2025-09-17T10:00:00Z",
		"client_id":  f.client.ID,
		"service_id": f.service.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(r, http.MethodDelete, "/api/calendar/bookings/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok": true}`, w.Body.String())

	// The deal outlives its booking
	var dealCount int64
	config.DB.Model(&models.Deal{}).Count(&dealCount)
	assert.EqualValues(t, 1, dealCount)

	w = doJSON(r, http.MethodDelete, "/api/calendar/bookings/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetFreeSlotsEndpoint(t *testing.T) {
	r := setupCalendarTest(t)
	f := seedCalendarFixture(t)

	w := doJSON(r, http.MethodPost, "/api/calendar/bookings", gin.H{
		"start_at":     "2025-09-17T12:00:00Z",
		"duration_min": 60,
		"client_id":    f.client.ID,
		"service_id":   f.service.ID,
		"master_id":    f.master.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodGet,
		"/api/calendar/free-slots?date=2025-09-17&master="+f.master.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Slots []string `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Slots, 8)
	assert.NotContains(t, resp.Slots, "2025-09-17T12:00:00Z")
	assert.Contains(t, resp.Slots, "2025-09-17T13:00:00Z")

	w = doJSON(r, http.MethodGet, "/api/calendar/free-slots?date=2025-09-17", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteDealCascadeRemovesBooking(t *testing.T) {
	setupCalendarTest(t)
	f := seedCalendarFixture(t)

	deal := models.Deal{ClientID: f.client.ID, Title: "Visit", Status: models.DealStatusNew}
	require.NoError(t, config.DB.Create(&deal).Error)
	require.NoError(t, config.DB.Create(&models.DealLine{
		DealID: deal.ID, ServiceID: f.service.ID, Quantity: 1, UnitPrice: 500,
	}).Error)
	start := time.Date(2025, 9, 17, 10, 0, 0, 0, time.UTC)
	require.NoError(t, config.DB.Create(&models.Booking{DealID: deal.ID, StartAt: start}).Error)

	require.NoError(t, config.DB.Transaction(func(tx *gorm.DB) error {
		return deleteDealCascade(tx, deal.ID)
	}))

	var bookings, lines, deals int64
	config.DB.Model(&models.Booking{}).Count(&bookings)
	config.DB.Model(&models.DealLine{}).Count(&lines)
	config.DB.Model(&models.Deal{}).Count(&deals)
	assert.Zero(t, bookings)
	assert.Zero(t, lines)
	assert.Zero(t, deals)
}
