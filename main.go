package main

import (
	"fmt"
	"log"
	"os"

	"beautycrm-backend/config"
	"beautycrm-backend/models"
	"beautycrm-backend/routes"
	"beautycrm-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.LoadTimezone()
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Deal{},
		&models.DealLine{},
		&models.Service{},
		&models.Master{},
		&models.Resource{},
		&models.Booking{},
		&models.ReminderLog{},
	)

	if os.Getenv("SEED_SERVICES") == "true" {
		if err := services.SeedServices(config.DB); err != nil {
			log.Printf("Failed to seed service catalog: %v", err)
		}
	}
}

func main() {
	if os.Getenv("TWILIO_ACCOUNT_SID") != "" {
		services.NewReminderService(config.DB).StartScheduler()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter()
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
