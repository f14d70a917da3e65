package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Port             string
	MongoDBURI       string
	MongoDBPassword  string
	MongoDBDatabase  string
	JWTSecret        string
	JWTTTL           time.Duration
	JWKSURL          string
	FrontendOrigins  []string
	AllowAdminSignup bool
	RedisURL         string
	CloudinaryName   string
	CloudinaryKey    string
	CloudinarySecret string
	Environment      string
	LogLevel         string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnvWithDefault("PORT", "8080"),
		MongoDBURI:       os.Getenv("MONGODB_URI"),
		MongoDBPassword:  os.Getenv("MONGODB_PASSWORD"),
		MongoDBDatabase:  getEnvWithDefault("MONGODB_DATABASE", "busline"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWKSURL:          os.Getenv("JWKS_URL"),
		FrontendOrigins:  splitList(getEnvWithDefault("FRONTEND_URL", "http://localhost:3000")),
		AllowAdminSignup: os.Getenv("ALLOW_ADMIN_SIGNUP") == "true",
		RedisURL:         os.Getenv("REDIS_URL"),
		CloudinaryName:   os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinarySecret: os.Getenv("CLOUDINARY_API_SECRET"),
		Environment:      getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:         getEnvWithDefault("LOG_LEVEL", "info"),
	}

	ttl, err := time.ParseDuration(getEnvWithDefault("JWT_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL is not a valid duration: %w", err)
	}
	cfg.JWTTTL = ttl

	// Validate required fields
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 && cfg.IsProduction() {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.TrimRight(p, "/"))
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// CloudinaryEnabled reports whether all three Cloudinary credentials are set.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryKey != "" && c.CloudinarySecret != ""
}
