package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Transcribe TranscribeConfig
	Inference  InferenceConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
	URLExpiry       time.Duration
}

// TranscribeConfig holds transcription service configuration
type TranscribeConfig struct {
	BaseURL               string
	APIKey                string
	UseMedical            bool
	Specialty             string
	Language              string
	ChannelIdentification bool
	MaxSpeakers           int
	PollInterval          time.Duration
	JobTimeout            time.Duration
}

// InferenceConfig holds chat-inference service configuration
type InferenceConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	RefinerEnabled  bool
	RefinerStrategy string // "cleanup" or "holistic"
	RefinerBatch    int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled     bool
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds the optional bearer-token guard configuration. The guard is
// disabled when Secret is empty.
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  []string{getEnv("ALLOWED_ORIGINS", "http://localhost:3000")},
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "clinical-scribe"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
			URLExpiry:       getEnvAsDuration("STORAGE_URL_EXPIRY", "24h"),
		},
		Transcribe: TranscribeConfig{
			BaseURL:               getEnv("TRANSCRIBE_BASE_URL", ""),
			APIKey:                getEnv("TRANSCRIBE_API_KEY", ""),
			UseMedical:            getEnvAsBool("TRANSCRIBE_IS_MEDICAL", false),
			Specialty:             getEnv("TRANSCRIBE_SPECIALTY", "primarycare"),
			Language:              getEnv("TRANSCRIBE_LANGUAGE_CODE", "en-US"),
			ChannelIdentification: getEnvAsBool("CHANNEL_IDENTIFICATION", false),
			MaxSpeakers:           getEnvAsInt("MAX_SPEAKERS", 4),
			PollInterval:          getEnvAsDuration("TRANSCRIBE_POLL_INTERVAL", "3s"),
			JobTimeout:            getEnvAsDuration("TRANSCRIBE_JOB_TIMEOUT", "120m"),
		},
		Inference: InferenceConfig{
			APIKey:          getEnv("INFERENCE_API_KEY", ""),
			BaseURL:         getEnv("INFERENCE_API_URL", "https://api.groq.com"),
			Model:           getEnv("INFERENCE_MODEL", "llama-3.1-70b-versatile"),
			RefinerEnabled:  getEnvAsBool("ROLE_REFINER_ENABLED", true),
			RefinerStrategy: getEnv("ROLE_REFINER_STRATEGY", "holistic"),
			RefinerBatch:    getEnvAsInt("ROLE_REFINER_BATCH", 10),
		},
		Database: DatabaseConfig{
			Enabled:     getEnvAsBool("DB_ENABLED", false),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			Name:        getEnv("DB_NAME", "clinical_scribe"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvAsInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Expiry: getEnvAsDuration("JWT_EXPIRY", "24h"),
		},
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Storage.BucketName == "" {
		return fmt.Errorf("STORAGE_BUCKET is required")
	}
	if c.Transcribe.BaseURL == "" {
		return fmt.Errorf("TRANSCRIBE_BASE_URL is required")
	}
	if c.Transcribe.MaxSpeakers < 2 {
		c.Transcribe.MaxSpeakers = 2
	}
	switch c.Inference.RefinerStrategy {
	case "cleanup", "holistic":
	default:
		return fmt.Errorf("ROLE_REFINER_STRATEGY must be \"cleanup\" or \"holistic\", got %q", c.Inference.RefinerStrategy)
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
