package routes

import (
	"os"
	"strings"

	"beautycrm-backend/config"
	"beautycrm-backend/controllers"
	"beautycrm-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Client routes
		clients := api.Group("/clients")
		{
			clients.POST("", controllers.CreateClient)
			clients.GET("", controllers.GetClients)
			clients.GET("/:id", controllers.GetClient)
			clients.PUT("/:id", controllers.UpdateClient)
			clients.DELETE("/:id", controllers.DeleteClient)
		}

		// Deal routes
		deals := api.Group("/deals")
		{
			deals.POST("", controllers.CreateDeal)
			deals.GET("", controllers.GetDeals)
			deals.GET("/:id", controllers.GetDeal)
			deals.PUT("/:id", controllers.UpdateDeal)
			deals.DELETE("/:id", controllers.DeleteDeal)
			deals.POST("/:id/lines", controllers.AddDealLine)
			deals.DELETE("/:id/lines/:lineId", controllers.DeleteDealLine)
		}

		// Service catalog routes
		services := api.Group("/services")
		{
			services.POST("", controllers.CreateService)
			services.GET("", controllers.GetServices)
			services.GET("/:id", controllers.GetService)
			services.PUT("/:id", controllers.UpdateService)
			services.DELETE("/:id", controllers.DeleteService)
		}

		// Master routes
		masters := api.Group("/masters")
		{
			masters.GET("", controllers.GetMasters)
			masters.POST("", controllers.CreateMaster)
			masters.GET("/:id", controllers.GetMaster)
			masters.PUT("/:id", controllers.UpdateMaster)
			masters.PUT("/:id/skills", controllers.UpdateMasterSkills)
			masters.DELETE("/:id", controllers.DeleteMaster)
		}

		// Resource routes
		resources := api.Group("/resources")
		{
			resources.GET("", controllers.GetResources)
			resources.POST("", controllers.CreateResource)
			resources.PUT("/:id", controllers.UpdateResource)
			resources.DELETE("/:id", controllers.DeleteResource)
		}

		// Calendar routes: reads need auth, writes need the staff flag
		calendar := api.Group("/calendar")
		{
			calendar.GET("/events", controllers.GetCalendarEvents)
			calendar.GET("/free-slots", controllers.GetFreeSlots)

			bookings := calendar.Group("/bookings", utils.StaffRequired())
			{
				bookings.POST("", controllers.CreateBooking)
				bookings.PATCH("/:id", controllers.UpdateBooking)
				bookings.DELETE("/:id", controllers.DeleteBooking)
			}
		}
	}

	return r
}
