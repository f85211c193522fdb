package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
	}

	// Database configuration
	Database struct {
		Driver   string // "postgres" or "sqlite"
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		Path     string // sqlite file path
		MaxConns int
	}

	// Telegram gateway configuration
	Telegram struct {
		GatewayURL string
		Timeout    time.Duration
	}

	// Analyzer configuration
	Analyzer struct {
		OpenAIKey      string
		EmbeddingModel string
		SyncPageSize   int
		DialogPageSize int
	}

	// Cache settings
	Cache struct {
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
		RedisURL    string
		ResultsTTL  time.Duration
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables.
// Uses singleton pattern to ensure only one instance exists.
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = &Config{}

		// Server config
		instance.Server.Port = getEnvString("PORT", "8080")
		instance.Server.Env = getEnvString("APP_ENV", "development")
		instance.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)

		// Database config
		instance.Database.Driver = getEnvString("DB_DRIVER", "sqlite")
		instance.Database.Host = getEnvString("DB_HOST", "localhost")
		instance.Database.Port = getEnvString("DB_PORT", "5432")
		instance.Database.User = getEnvString("DB_USER", "postgres")
		instance.Database.Password = getEnvString("DB_PASSWORD", "postgres")
		instance.Database.Name = getEnvString("DB_NAME", "telegram-analyzer")
		instance.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
		instance.Database.Path = getEnvString("DB_PATH", "telegram_analyzer.db")
		instance.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)

		// Telegram gateway config
		instance.Telegram.GatewayURL = getEnvString("TELEGRAM_GATEWAY_URL", "http://localhost:8090")
		instance.Telegram.Timeout = getEnvDuration("TELEGRAM_TIMEOUT", 30*time.Second)

		// Analyzer config
		instance.Analyzer.OpenAIKey = getEnvString("OPENAI_API_KEY", "")
		// The embedding model is pinned: intent classification is only
		// stable across runs while every run embeds with the same model.
		instance.Analyzer.EmbeddingModel = getEnvString("EMBEDDING_MODEL", "text-embedding-3-small")
		instance.Analyzer.SyncPageSize = getEnvInt("SYNC_PAGE_SIZE", 50)
		instance.Analyzer.DialogPageSize = getEnvInt("DIALOG_PAGE_SIZE", 20)

		// Cache config
		instance.Cache.TTL = getEnvDuration("CACHE_TTL", 10*time.Minute)
		instance.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 10000)
		instance.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", time.Minute)
		instance.Cache.RedisURL = getEnvString("REDIS_URL", "")
		instance.Cache.ResultsTTL = getEnvDuration("RESULTS_CACHE_TTL", 30*time.Second)

		// Logging config
		instance.Logging.Level = getEnvString("LOG_LEVEL", "info")
		instance.Logging.Format = getEnvString("LOG_FORMAT", "json")

		// Security config
		instance.Security.RateLimit = getEnvFloat("RATE_LIMIT", 5)
		instance.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
		instance.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
	})

	return instance
}

// Get returns the config instance, creating it if necessary
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// IsDevelopment returns true when running in the development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
