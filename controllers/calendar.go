// controllers/calendar.go
package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"beautycrm-backend/config"
	"beautycrm-backend/models"
	"beautycrm-backend/services"
	"beautycrm-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateBookingInput accepts the two booking-creation modes: deal_id for an
// existing deal, or client_id/client_name + service_id to mint a new one.
type CreateBookingInput struct {
	StartAt        string     `json:"start_at" binding:"required"`
	DurationMin    int        `json:"duration_min"`
	DealID         *uuid.UUID `json:"deal_id"`
	ClientID       *uuid.UUID `json:"client_id"`
	ClientName     string     `json:"client_name"`
	ClientPhone    string     `json:"client_phone"`
	ServiceID      *uuid.UUID `json:"service_id"`
	MasterID       *uuid.UUID `json:"master_id"`
	ResourceID     *uuid.UUID `json:"resource_id"`
	AllowUnskilled bool       `json:"allow_unskilled"`
	Note           string     `json:"note"`
}

// UpdateBookingInput is a merge-patch: absent keys leave fields untouched.
// master_id and resource_id distinguish null (clear) from absent.
type UpdateBookingInput struct {
	StartAt        *string                   `json:"start_at"`
	EndAt          *string                   `json:"end_at"`
	DurationMin    *int                      `json:"duration_min"`
	MasterID       utils.Optional[uuid.UUID] `json:"master_id"`
	ResourceID     utils.Optional[uuid.UUID] `json:"resource_id"`
	Note           *string                   `json:"note"`
	AllowUnskilled *bool                     `json:"allow_unskilled"`
	Status         *string                   `json:"status"`
}

type calendarEvent struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Start           string             `json:"start"`
	End             *string            `json:"end"`
	BackgroundColor string             `json:"backgroundColor"`
	BorderColor     string             `json:"borderColor"`
	URL             string             `json:"url"`
	ExtendedProps   calendarEventProps `json:"extendedProps"`
}

type calendarEventProps struct {
	Client         string `json:"client"`
	Master         string `json:"master"`
	Resource       string `json:"resource"`
	Status         string `json:"status"`
	AllowUnskilled bool   `json:"allow_unskilled"`
	Service        string `json:"service"`
}

// GetCalendarEvents returns bookings intersecting [start, end) as
// FullCalendar events, optionally filtered by master.
func GetCalendarEvents(c *gin.Context) {
	startStr := c.Query("start")
	endStr := c.Query("end")
	if startStr == "" || endStr == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "start/end required")
		return
	}

	start, err := utils.ParseAware(startStr, config.Location)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid start")
		return
	}
	end, err := utils.ParseAware(endStr, config.Location)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid end")
		return
	}

	query := config.DB.
		Preload("Deal.Client").
		Preload("Deal.Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Deal.Lines.Service").
		Preload("Master").
		Preload("Resource").
		Where("start_at < ? AND end_at > ?", end, start)

	if masterStr := c.Query("master"); masterStr != "" {
		masterID, err := uuid.Parse(masterStr)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid master ID format")
			return
		}
		query = query.Where("master_id = ?", masterID)
	}

	var bookings []models.Booking
	if err := query.Find(&bookings).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve bookings")
		return
	}

	events := make([]calendarEvent, 0, len(bookings))
	for _, b := range bookings {
		events = append(events, bookingToEvent(b))
	}
	c.JSON(http.StatusOK, events)
}

// CreateBooking handles POST /api/calendar/bookings.
func CreateBooking(c *gin.Context) {
	var input CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	startAt, err := utils.ParseAware(input.StartAt, config.Location)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid start_at")
		return
	}

	req := services.CreateBookingRequest{
		StartAt:        startAt,
		DurationMin:    input.DurationMin,
		MasterID:       input.MasterID,
		ResourceID:     input.ResourceID,
		AllowUnskilled: input.AllowUnskilled,
		Note:           input.Note,
	}

	if input.DealID != nil {
		req.Deal.ExistingID = input.DealID
	} else {
		if input.ServiceID == nil {
			utils.RespondWithError(c, http.StatusBadRequest, "service_id required")
			return
		}
		if input.ClientID == nil && input.ClientName == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "client_id or client_name required")
			return
		}
		req.Deal.New = &services.NewDealSpec{
			ClientID:    input.ClientID,
			ClientName:  input.ClientName,
			ClientPhone: input.ClientPhone,
			ServiceID:   *input.ServiceID,
			OwnerID:     actorID(c),
		}
	}

	booking, err := services.NewScheduler(config.DB).CreateBooking(req)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, eventForBooking(booking.ID))
}

// UpdateBooking handles PATCH /api/calendar/bookings/:id.
func UpdateBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid booking ID format")
		return
	}

	var input UpdateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	patch := services.BookingPatch{
		DurationMin:    input.DurationMin,
		MasterID:       input.MasterID,
		ResourceID:     input.ResourceID,
		Note:           input.Note,
		AllowUnskilled: input.AllowUnskilled,
		Status:         input.Status,
	}

	if input.StartAt != nil {
		startAt, err := utils.ParseAware(*input.StartAt, config.Location)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid start_at")
			return
		}
		patch.StartAt = &startAt
	}
	if input.EndAt != nil {
		endAt, err := utils.ParseAware(*input.EndAt, config.Location)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid end_at")
			return
		}
		patch.EndAt = &endAt
	}

	booking, err := services.NewScheduler(config.DB).UpdateBooking(bookingID, patch)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	c.JSON(http.StatusOK, eventForBooking(booking.ID))
}

// DeleteBooking handles DELETE /api/calendar/bookings/:id.
func DeleteBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid booking ID format")
		return
	}

	if err := services.NewScheduler(config.DB).DeleteBooking(bookingID); err != nil {
		respondSchedulingError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetFreeSlots handles GET /api/calendar/free-slots.
func GetFreeSlots(c *gin.Context) {
	dateStr := c.Query("date")
	masterStr := c.Query("master")
	if dateStr == "" || masterStr == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "date/master required")
		return
	}

	day, err := utils.ParseAware(dateStr, config.Location)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid date")
		return
	}
	masterID, err := uuid.Parse(masterStr)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid master ID format")
		return
	}

	startHour := queryInt(c, "start_hour", 9)
	endHour := queryInt(c, "end_hour", 18)
	slotMin := queryInt(c, "slot_min", 60)

	slots, err := services.FreeSlots(config.DB, day, masterID, startHour, endHour, slotMin)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to compute free slots")
		return
	}

	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Format(time.RFC3339))
	}
	c.JSON(http.StatusOK, gin.H{"slots": out})
}

// respondSchedulingError maps engine errors onto the HTTP taxonomy. Skill and
// conflict rejections carry a machine tag so the UI can disambiguate.
func respondSchedulingError(c *gin.Context, err error) {
	var notFound *services.NotFoundError
	var validation *services.ValidationError

	switch {
	case errors.Is(err, services.ErrSkillMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "skill", "message": err.Error()})
	case errors.Is(err, services.ErrSchedulingConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "message": err.Error()})
	case errors.As(err, &notFound):
		utils.RespondWithError(c, http.StatusNotFound, notFound.Error())
	case errors.As(err, &validation):
		utils.RespondWithError(c, http.StatusBadRequest, validation.Error())
	case errors.Is(err, models.ErrEndBeforeStart):
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
	}
}

// eventForBooking reloads a booking with everything the event payload needs.
func eventForBooking(id uuid.UUID) calendarEvent {
	var booking models.Booking
	config.DB.
		Preload("Deal.Client").
		Preload("Deal.Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Deal.Lines.Service").
		Preload("Master").
		Preload("Resource").
		First(&booking, "id = ?", id)
	return bookingToEvent(booking)
}

func bookingToEvent(b models.Booking) calendarEvent {
	clientName := b.Deal.Client.Name
	title := b.Deal.Title
	if title == "" {
		title = clientName
	}
	if title == "" {
		title = "Booking"
	}

	color := b.Color
	if color == "" {
		color = models.DefaultBookingColor
	}

	var end *string
	if b.EndAt != nil {
		s := b.EndAt.In(config.Location).Format(time.RFC3339)
		end = &s
	}

	masterName := ""
	if b.Master != nil {
		masterName = b.Master.Name
	}
	resourceName := ""
	if b.Resource != nil {
		resourceName = b.Resource.Name
	}
	serviceName := ""
	if len(b.Deal.Lines) > 0 {
		serviceName = b.Deal.Lines[0].Service.Name
	}

	return calendarEvent{
		ID:              b.ID.String(),
		Title:           title,
		Start:           b.StartAt.In(config.Location).Format(time.RFC3339),
		End:             end,
		BackgroundColor: color,
		BorderColor:     color,
		URL:             "/deals/" + b.DealID.String() + "/",
		ExtendedProps: calendarEventProps{
			Client:         clientName,
			Master:         masterName,
			Resource:       resourceName,
			Status:         b.Status,
			AllowUnskilled: b.AllowUnskilled,
			Service:        serviceName,
		},
	}
}

func actorID(c *gin.Context) *uuid.UUID {
	raw, exists := c.Get("userId")
	if !exists {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
