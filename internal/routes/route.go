package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/busline/internal/container"
	"github.com/joshua-takyi/busline/internal/handlers"
	"github.com/joshua-takyi/busline/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     container.Config.FrontendOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	cookies := handlers.CookieOptions{
		Secure: container.Config.IsProduction(),
		TTL:    container.Tokens.TTL(),
	}
	auth := middleware.AuthMiddleware(container.UserService, container.Logger)
	admin := middleware.AdminOnly()

	api := r.Group("/api")
	{
		api.GET("/health", handlers.Health(container.Hub))
		api.GET("/ws", handlers.Realtime(container.Hub))
	}

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", handlers.Register(container.UserService, cookies))
		authRoutes.POST("/login", handlers.Login(container.UserService, cookies))
		authRoutes.POST("/logout", auth, handlers.Logout(container.UserService, cookies))
		authRoutes.GET("/me", auth, handlers.Me(container.UserService))
		authRoutes.POST("/create-admin", auth, admin, handlers.CreateAdmin(container.UserService))
	}

	tripRoutes := api.Group("/trips")
	{
		tripRoutes.GET("", handlers.ListTrips(container.TripService))
		tripRoutes.GET("/:id", handlers.GetTrip(container.TripService))
		tripRoutes.GET("/:id/seats", handlers.TripSeats(container.TripService))
		tripRoutes.POST("", auth, admin, handlers.CreateTrip(container.TripService))
		tripRoutes.PUT("/:id", auth, admin, handlers.UpdateTrip(container.TripService))
		tripRoutes.DELETE("/:id", auth, admin, handlers.DeleteTrip(container.TripService))
	}

	reservationRoutes := api.Group("/reservations", auth)
	{
		reservationRoutes.POST("", handlers.CreateReservation(container.ReservationService))
		reservationRoutes.GET("", handlers.MyReservations(container.ReservationService))
		reservationRoutes.GET("/trip/:id", handlers.TripReservedSeats(container.ReservationService))
		reservationRoutes.PUT("/:id/cancel", handlers.CancelReservation(container.ReservationService))
		reservationRoutes.DELETE("/:id", handlers.DeleteReservation(container.ReservationService))

		adminReservations := reservationRoutes.Group("/admin/reservations", admin)
		adminReservations.GET("", handlers.AdminReservations(container.ReservationService))
		adminReservations.PUT("/:id/cancel", handlers.CancelReservation(container.ReservationService))
		adminReservations.PUT("/:id/validate", handlers.ValidateReservation(container.ReservationService))
	}

	api.GET("/reports", auth, admin, handlers.Reports(container.ReportService))

	userRoutes := api.Group("/users", auth)
	{
		userRoutes.GET("", admin, handlers.ListUsers(container.UserService))
		userRoutes.GET("/:id", handlers.GetUser(container.UserService))
		userRoutes.PATCH("/:id", handlers.UpdateUser(container.UserService))
		userRoutes.DELETE("/:id", admin, handlers.DeleteUser(container.UserService))
	}

	settingsRoutes := api.Group("/settings")
	{
		settingsRoutes.GET("", handlers.GetSettings(container.SettingsService))
		settingsRoutes.PUT("", auth, admin, handlers.SaveSettings(container.SettingsService))
		settingsRoutes.POST("/logo", auth, admin, handlers.UploadLogo(container.SettingsService))
	}

	notificationRoutes := api.Group("/notifications", auth, admin)
	{
		notificationRoutes.GET("", handlers.ListNotifications(container.NotificationService))
		notificationRoutes.PATCH("/read-all", handlers.MarkAllNotificationsRead(container.NotificationService))
		notificationRoutes.PATCH("/:id/read", handlers.MarkNotificationRead(container.NotificationService))
	}

	return r
}
