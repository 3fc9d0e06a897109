// ============================================================================
// backend/internal/shared/config.go
// Service configuration management and environment variable helpers
// ============================================================================

package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ============================================================================
// Configuration Structs
// ============================================================================

// ServiceConfig holds the configuration of the results service
type ServiceConfig struct {
	ServiceName string
	HTTPPort    string
	HealthPort  string // gRPC health endpoint
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error

	MongoDB  MongoConfig
	Security SecurityConfig
	CORS     CORSConfig
	Grading  GradingConfig
	Ingest   IngestConfig

	RequestTimeout time.Duration
}

// SecurityConfig holds token verification settings
type SecurityConfig struct {
	JWTSecret string
	JWTIssuer string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int // in seconds
}

// GradingConfig points at the grading policy. An empty PolicyFile selects
// the built-in 10-point table.
type GradingConfig struct {
	PolicyFile string
}

// IngestConfig bounds bulk ingestion fan-out
type IngestConfig struct {
	Concurrency int
}

// ============================================================================
// Configuration Loading Functions
// ============================================================================

// LoadEnv loads environment variables from .env file
func LoadEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	return nil
}

// LoadServiceConfig loads the service configuration from environment
func LoadServiceConfig(serviceName string) (*ServiceConfig, error) {
	config := &ServiceConfig{
		ServiceName:    GetEnv("SERVICE_NAME", serviceName),
		HTTPPort:       GetEnv("HTTP_PORT", DefaultHTTPPort),
		HealthPort:     GetEnv("HEALTH_PORT", DefaultHealthPort),
		Environment:    GetEnv("ENVIRONMENT", "development"),
		LogLevel:       GetEnv("LOG_LEVEL", "info"),
		RequestTimeout: GetDurationEnv("REQUEST_TIMEOUT", 10*time.Second),
	}

	mongoURI := GetEnv("MONGO_URI", "")
	if mongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable is required")
	}

	config.MongoDB = MongoConfig{
		URI:            mongoURI,
		Database:       GetEnv("MONGO_DB_NAME", "CollegePortal"),
		ConnectTimeout: GetDurationEnv("MONGO_CONNECT_TIMEOUT", 20*time.Second),
		MaxPoolSize:    uint64(GetIntEnv("MONGO_MAX_POOL_SIZE", 50)),
		MinPoolSize:    uint64(GetIntEnv("MONGO_MIN_POOL_SIZE", 5)),
		MaxIdleTime:    GetDurationEnv("MONGO_MAX_IDLE_TIME", 30*time.Second),
	}

	config.Security = SecurityConfig{
		JWTSecret: GetEnv("JWT_SECRET", ""),
		JWTIssuer: GetEnv("JWT_ISSUER", "college-portal"),
	}

	config.CORS = CORSConfig{
		AllowedOrigins:   GetStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		AllowedMethods:   GetStringSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		AllowedHeaders:   GetStringSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"}),
		AllowCredentials: GetBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           GetIntEnv("CORS_MAX_AGE", 300),
	}

	config.Grading = GradingConfig{
		PolicyFile: GetEnv("GRADING_POLICY_FILE", ""),
	}

	config.Ingest = IngestConfig{
		Concurrency: GetIntEnv("INGEST_CONCURRENCY", 8),
	}

	return config, nil
}

// ============================================================================
// Environment Variable Helper Functions
// ============================================================================

// GetEnv retrieves an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetIntEnv retrieves an integer environment variable or returns a default value
func GetIntEnv(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetBoolEnv retrieves a boolean environment variable or returns a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetDurationEnv retrieves a duration environment variable or returns a default value
// Supports format like "30s", "5m", "1h"
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetStringSliceEnv retrieves a comma-separated string list or returns a default value
func GetStringSliceEnv(key string, defaultValue []string) []string {
	var result []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// ============================================================================
// Configuration Validation
// ============================================================================

// ValidateServiceConfig validates service configuration
func ValidateServiceConfig(config *ServiceConfig) error {
	if config.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	if config.HTTPPort == "" {
		return fmt.Errorf("HTTP port is required")
	}
	if config.MongoDB.URI == "" {
		return fmt.Errorf("MongoDB URI is required")
	}
	if config.MongoDB.Database == "" {
		return fmt.Errorf("MongoDB database name is required")
	}
	if config.Ingest.Concurrency < 1 {
		return fmt.Errorf("INGEST_CONCURRENCY must be at least 1")
	}
	return nil
}

// ValidateServerConfig adds the requirements of the HTTP server on top of
// ValidateServiceConfig.
func ValidateServerConfig(config *ServiceConfig) error {
	if err := ValidateServiceConfig(config); err != nil {
		return err
	}
	if config.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if config.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	return nil
}

// IsDevelopment checks if running in development environment
func IsDevelopment(config *ServiceConfig) bool {
	return config.Environment == "development"
}

// ============================================================================
// Default Ports
// ============================================================================

const (
	DefaultHTTPPort   = "8080"
	DefaultHealthPort = "50056"
)
