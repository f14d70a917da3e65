package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/joshua-takyi/busline/internal/config"
	"github.com/joshua-takyi/busline/internal/connect"
	"github.com/joshua-takyi/busline/internal/container"
	"github.com/joshua-takyi/busline/internal/helpers"
	"github.com/joshua-takyi/busline/internal/models"
	"github.com/joshua-takyi/busline/internal/realtime"
	"github.com/joshua-takyi/busline/internal/routes"
)

func main() {
	// Load environment variables; .env.local wins over .env
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Starting busline API server", "environment", cfg.Environment)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	mongoClient, err := connect.MongoDBConnect(cfg.MongoDBURI, cfg.MongoDBPassword)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to MongoDB successfully", "database", cfg.MongoDBDatabase)

	indexCtx, cancelIndex := context.WithTimeout(ctx, 30*time.Second)
	if err := models.MongodbNewRepo(mongoClient, cfg.MongoDBDatabase).EnsureIndexes(indexCtx); err != nil {
		cancelIndex()
		logger.Error("Failed to create MongoDB indexes", "error", err)
		os.Exit(1)
	}
	cancelIndex()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = connect.RedisConnect(cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		logger.Info("Connected to Redis, logout revocation enabled")
	} else {
		logger.Warn("REDIS_URL not set, logged out tokens stay valid until expiry")
	}

	var cld *cloudinary.Cloudinary
	if cfg.CloudinaryEnabled() {
		cld, err = connect.CloudinaryCredentials(cfg.CloudinaryName, cfg.CloudinaryKey, cfg.CloudinarySecret)
		if err != nil {
			logger.Error("Failed to connect to Cloudinary", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("Cloudinary not configured, logo uploads disabled")
	}

	tokens := helpers.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	if cfg.JWKSURL != "" {
		err := tokens.WithJWKS(ctx, cfg.JWKSURL, func(err error) {
			logger.Warn("JWKS refresh failed", "error", err)
		})
		if err != nil {
			logger.Error("Failed to load JWKS", "error", err)
			os.Exit(1)
		}
	}
	defer tokens.Close()

	hub := realtime.NewHub(logger, cfg.FrontendOrigins)
	go hub.Run(ctx)

	appContainer := container.NewContainer(cfg, logger, mongoClient, redisClient, cld, tokens, hub)
	router := routes.SetupRoutes(appContainer)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	stop()

	if err := connect.RedisDisconnect(); err != nil {
		logger.Error("Error disconnecting from Redis", "error", err)
	}
	if err := connect.MongoDBDisconnect(); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	if cfg.IsProduction() {
		// JSON logging for production
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLevel(cfg.LogLevel, slog.LevelInfo),
		})
	} else {
		// Human-readable logging for development
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	return slog.New(handler)
}

func parseLevel(raw string, fallback slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return fallback
	}
	return level
}
