package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Vision    VisionConfig    `mapstructure:"vision"`
	FoodDB    FoodDBConfig    `mapstructure:"food_db"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Feedback  FeedbackConfig  `mapstructure:"feedback"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Timezone       string   `mapstructure:"timezone"`
}

// VisionConfig holds the photo estimate provider configuration
type VisionConfig struct {
	Provider string        `mapstructure:"provider"` // "openai" or "static"
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// FoodDBConfig holds Open Food Facts configuration
type FoodDBConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	PageSize  int           `mapstructure:"page_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	SQLitePath string `mapstructure:"sqlite_path"`
}

// MatchingConfig holds product matching configuration
type MatchingConfig struct {
	OverrideConfidence float64 `mapstructure:"override_confidence"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// FeedbackConfig holds the feedback channel configuration
type FeedbackConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// RateLimitConfig holds rate limiting configuration, in requests per minute
type RateLimitConfig struct {
	PerIP  int `mapstructure:"per_ip"`
	FoodDB int `mapstructure:"food_db"`
	Vision int `mapstructure:"vision"`
}

// Location loads the configured timezone; validate guarantees it resolves
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/mealsignal/")

	// MEALSIGNAL_FOOD_DB_BASE_URL -> food_db.base_url
	v.SetEnvPrefix("MEALSIGNAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env when present without overriding variables already set
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can bind it on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.timezone", "UTC")

	v.SetDefault("vision.provider", "static")
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.base_url", "https://api.openai.com/v1")
	v.SetDefault("vision.model", "gpt-4o-mini")
	v.SetDefault("vision.timeout", "30s")

	v.SetDefault("food_db.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("food_db.user_agent", "MealSignal/1.0 (support@mealsignal.app)")
	v.SetDefault("food_db.page_size", 10)
	v.SetDefault("food_db.timeout", "10s")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "168h") // 7 days

	v.SetDefault("storage.sqlite_path", "mealsignal.db")

	v.SetDefault("matching.override_confidence", 0.85)
	v.SetDefault("matching.enable_debug_logging", false)

	v.SetDefault("feedback.webhook_url", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("ratelimit.per_ip", 120)
	v.SetDefault("ratelimit.food_db", 60)
	v.SetDefault("ratelimit.vision", 30)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	switch config.Vision.Provider {
	case "static":
	case "openai":
		if config.Vision.APIKey == "" {
			return fmt.Errorf("vision API key is required for the openai provider (set MEALSIGNAL_VISION_API_KEY)")
		}
	default:
		return fmt.Errorf("vision provider must be 'openai' or 'static', got: %s", config.Vision.Provider)
	}

	if config.Matching.OverrideConfidence <= 0 || config.Matching.OverrideConfidence > 1 {
		return fmt.Errorf("override confidence must be in (0, 1], got: %v", config.Matching.OverrideConfidence)
	}

	if _, err := time.LoadLocation(config.Server.Timezone); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", config.Server.Timezone, err)
	}

	if config.FoodDB.BaseURL == "" {
		return fmt.Errorf("food database base URL is required")
	}

	if config.Storage.SQLitePath == "" {
		return fmt.Errorf("sqlite path is required")
	}

	return nil
}
