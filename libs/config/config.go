// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Database    DatabaseConfig
	Redis       RedisConfig
	Server      ServerConfig
	Logging     LoggingConfig
	CORS        CORSConfig
	JWT         JWTConfig
	Media       MediaConfig
	Supabase    SupabaseConfig
	APIKey      string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// MediaConfig holds protected media settings
type MediaConfig struct {
	// BasePath is the root directory of the local media copies
	BasePath string
	// PublicBaseURL is prepended to locally signed URLs, e.g. "https://api.example.com"
	PublicBaseURL   string
	SigningSecret   string
	SignatureLength int
	PDFTTL          time.Duration
	VideoTTL        time.Duration
}

// SupabaseConfig holds remote object storage settings. Remote storage is disabled when URL is empty.
type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
	Bucket         string
	Timeout        time.Duration
}

// Enabled reports whether remote storage is configured
func (c SupabaseConfig) Enabled() bool {
	return c.URL != "" && c.ServiceRoleKey != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	cfg.Environment = os.Getenv("APP_ENV")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Database configuration
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return nil, fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	// Server configuration
	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8000" // default port
	}
	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	if cfg.JWT.AccessTokenExpiry, err = durationEnv("JWT_ACCESS_TOKEN_EXPIRY", time.Hour); err != nil {
		return nil, err
	}

	// API Key configuration (optional, protects the metrics endpoint)
	cfg.APIKey = os.Getenv("API_KEY")

	// Media configuration
	cfg.Media.BasePath = os.Getenv("MEDIA_BASE_PATH")
	if cfg.Media.BasePath == "" {
		return nil, fmt.Errorf("MEDIA_BASE_PATH is required")
	}

	cfg.Media.SigningSecret = os.Getenv("MEDIA_SIGNING_SECRET")
	if cfg.Media.SigningSecret == "" {
		return nil, fmt.Errorf("MEDIA_SIGNING_SECRET is required")
	}

	cfg.Media.PublicBaseURL = strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/")
	if cfg.Media.PublicBaseURL == "" {
		cfg.Media.PublicBaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}

	sigLenStr := os.Getenv("MEDIA_SIGNATURE_LENGTH")
	if sigLenStr == "" {
		sigLenStr = "20"
	}
	if cfg.Media.SignatureLength, err = strconv.Atoi(sigLenStr); err != nil {
		return nil, fmt.Errorf("invalid MEDIA_SIGNATURE_LENGTH: %w", err)
	}

	if cfg.Media.PDFTTL, err = durationEnv("MEDIA_PDF_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Media.VideoTTL, err = durationEnv("MEDIA_VIDEO_TTL", time.Hour); err != nil {
		return nil, err
	}

	// Supabase configuration (optional, enables remote storage)
	cfg.Supabase.URL = strings.TrimRight(os.Getenv("SUPABASE_URL"), "/")
	cfg.Supabase.ServiceRoleKey = os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
	cfg.Supabase.Bucket = os.Getenv("SUPABASE_BUCKET")
	if cfg.Supabase.Bucket == "" {
		cfg.Supabase.Bucket = "courses" // default
	}
	if cfg.Supabase.Timeout, err = durationEnv("SUPABASE_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	// Redis configuration
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		redisHost = "localhost" // default
	}
	cfg.Redis.Host = redisHost

	redisPortStr := os.Getenv("REDIS_PORT")
	if redisPortStr == "" {
		redisPortStr = "6379" // default
	}
	redisPort, err := strconv.Atoi(redisPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	cfg.Redis.Port = redisPort

	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD") // optional

	redisDBStr := os.Getenv("REDIS_DB")
	if redisDBStr == "" {
		redisDBStr = "0" // default
	}
	redisDB, err := strconv.Atoi(redisDBStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.Redis.DB = redisDB

	return cfg, nil
}

// IsProduction reports whether APP_ENV is "production"
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// HasWildcardOrigin reports whether CORS allows any origin
func (c *Config) HasWildcardOrigin() bool {
	for _, origin := range c.CORS.AllowedOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// RedisAddr returns the host:port address of Redis
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// parseOrigins parses comma-separated origins, defaulting to allow all (for development)
func parseOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}

	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	// If no valid origins found, default to allow all
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// durationEnv reads a time.Duration from the environment, falling back to def when unset
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
