// services/reminder_service.go
package services

import (
	"fmt"
	"log"
	"os"
	"time"

	"beautycrm-backend/config"
	"beautycrm-backend/models"
	"beautycrm-backend/utils"

	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"
)

type ReminderService struct {
	db     *gorm.DB
	client *twilio.RestClient
}

func NewReminderService(db *gorm.DB) *ReminderService {
	// Initialize Twilio client
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")

	return &ReminderService{
		db: db,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
	}
}

func (s *ReminderService) StartScheduler() {
	c := cron.New()

	// Run every day at 9 AM
	c.AddFunc("0 9 * * *", func() {
		s.SendBookingReminders()
	})

	c.Start()
	log.Println("Reminder scheduler started")
}

// SendBookingReminders sends an SMS for every non-cancelled booking starting
// tomorrow and logs the outcome.
func (s *ReminderService) SendBookingReminders() {
	log.Println("Starting daily reminder processing...")

	tomorrow := utils.BeginningOfDay(time.Now().In(config.Location)).AddDate(0, 0, 1)
	dayAfter := tomorrow.AddDate(0, 0, 1)

	var bookings []models.Booking
	if err := s.db.
		Preload("Deal.Client").
		Preload("Master").
		Where("start_at >= ? AND start_at < ? AND status <> ?",
			tomorrow, dayAfter, models.BookingStatusCancelled).
		Find(&bookings).Error; err != nil {
		log.Printf("Failed to fetch bookings for reminders: %v", err)
		return
	}

	for _, booking := range bookings {
		s.remind(booking)
	}

	log.Println("Daily reminder processing completed")
}

func (s *ReminderService) remind(booking models.Booking) {
	client := booking.Deal.Client
	if client.Phone == "" {
		return
	}

	masterName := ""
	if booking.Master != nil {
		masterName = " with " + booking.Master.Name
	}
	message := fmt.Sprintf("Reminder: your appointment%s is tomorrow at %s.",
		masterName, booking.StartAt.In(config.Location).Format("15:04"))

	logEntry := models.ReminderLog{
		BookingID: booking.ID,
		ClientID:  client.ID,
		Message:   message,
		Status:    "sent",
		SentAt:    time.Now(),
	}

	if err := s.sendSMS(client.Phone, message); err != nil {
		log.Printf("Booking %s: failed to send reminder: %v", booking.ID, err)
		logEntry.Status = "failed"
		logEntry.ErrorMessage = err.Error()
	}

	if err := s.db.Create(&logEntry).Error; err != nil {
		log.Printf("Booking %s: failed to write reminder log: %v", booking.ID, err)
	}
}

func (s *ReminderService) sendSMS(to, body string) error {
	from := os.Getenv("TWILIO_PHONE_NUMBER")
	if from == "" {
		return fmt.Errorf("TWILIO_PHONE_NUMBER not set")
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	_, err := s.client.Api.CreateMessage(params)
	return err
}
