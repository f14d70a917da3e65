package container

import (
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-redis/redis/v8"
	"github.com/joshua-takyi/busline/internal/config"
	"github.com/joshua-takyi/busline/internal/helpers"
	"github.com/joshua-takyi/busline/internal/models"
	"github.com/joshua-takyi/busline/internal/realtime"
	"github.com/joshua-takyi/busline/internal/services"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Hub    *realtime.Hub
	Tokens *helpers.TokenManager
	// Database clients
	MongoDBClient *mongo.Client
	RedisClient   *redis.Client
	Cloudinary    *cloudinary.Cloudinary

	UserService         *services.UserService
	TripService         *services.TripService
	ReservationService  *services.ReservationService
	ReportService       *services.ReportService
	SettingsService     *services.SettingsService
	NotificationService *services.NotificationService
}

// NewContainer wires repositories and services. redisClient and cld may be nil.
func NewContainer(
	cfg *config.Config,
	logger *slog.Logger,
	mongoDBClient *mongo.Client,
	redisClient *redis.Client,
	cld *cloudinary.Cloudinary,
	tokens *helpers.TokenManager,
	hub *realtime.Hub,
) *Container {
	// Initialize repositories
	mongo := models.MongodbNewRepo(mongoDBClient, cfg.MongoDBDatabase)

	var revoker models.TokenRevoker
	if redisClient != nil {
		revoker = models.RedisNewRepo(redisClient)
	}

	notificationService := services.NewNotificationService(mongo, logger)

	return &Container{
		Config:              cfg,
		Logger:              logger,
		Hub:                 hub,
		Tokens:              tokens,
		MongoDBClient:       mongoDBClient,
		RedisClient:         redisClient,
		Cloudinary:          cld,
		UserService:         services.NewUserService(mongo, tokens, revoker, notificationService, cfg.AllowAdminSignup, logger),
		TripService:         services.NewTripService(mongo, mongo, notificationService),
		ReservationService:  services.NewReservationService(mongo, mongo, mongo, notificationService, hub, logger),
		ReportService:       services.NewReportService(mongo),
		SettingsService:     services.NewSettingsService(mongo, cld),
		NotificationService: notificationService,
	}
}
