package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	S3       S3Config
	Vision   VisionConfig
	Acquire  AcquireConfig
	LogLevel string
}

type ServerConfig struct {
	Port string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	PublicBaseURL   string
}

// VisionConfig configures the ordered provider fallback list. Models share
// one OpenAI-compatible endpoint and key; their order in Models is the order
// providers are tried in.
type VisionConfig struct {
	BaseURL        string
	APIKey         string
	Models         []string
	AttemptTimeout time.Duration
	CacheTTL       time.Duration
}

type AcquireConfig struct {
	MaxImageBytes int64
	FetchTimeout  time.Duration
}

// Load reads configuration from a local .env file (if present) and the
// environment.
func Load() *Config {
	// Missing .env is fine; the environment alone may be complete.
	_ = godotenv.Load()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", "5432")
	viper.SetDefault("POSTGRES_USER", "user")
	viper.SetDefault("POSTGRES_PASSWORD", "password")
	viper.SetDefault("POSTGRES_DB", "architectai")

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("S3_ENDPOINT", "http://localhost:9000")
	viper.SetDefault("S3_ACCESS_KEY_ID", "minioadmin")
	viper.SetDefault("S3_SECRET_ACCESS_KEY", "minioadmin")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_BUCKET_NAME", "product-images")
	viper.SetDefault("S3_PUBLIC_BASE_URL", "")

	viper.SetDefault("VISION_BASE_URL", "https://openrouter.ai/api/v1")
	viper.SetDefault("VISION_API_KEY", "")
	viper.SetDefault("VISION_MODELS", "x-ai/grok-4-fast:free")
	viper.SetDefault("VISION_ATTEMPT_TIMEOUT_SECONDS", 30)
	viper.SetDefault("VISION_CACHE_TTL_HOURS", 24)

	viper.SetDefault("ACQUIRE_MAX_IMAGE_BYTES", 10*1024*1024)
	viper.SetDefault("ACQUIRE_FETCH_TIMEOUT_SECONDS", 30)

	viper.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		LogLevel: viper.GetString("LOG_LEVEL"),
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetString("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DB:       viper.GetString("POSTGRES_DB"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		S3: S3Config{
			Endpoint:        viper.GetString("S3_ENDPOINT"),
			AccessKeyID:     viper.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: viper.GetString("S3_SECRET_ACCESS_KEY"),
			Region:          viper.GetString("S3_REGION"),
			BucketName:      viper.GetString("S3_BUCKET_NAME"),
			PublicBaseURL:   viper.GetString("S3_PUBLIC_BASE_URL"),
		},
		Vision: VisionConfig{
			BaseURL:        viper.GetString("VISION_BASE_URL"),
			APIKey:         viper.GetString("VISION_API_KEY"),
			Models:         splitModels(viper.GetString("VISION_MODELS")),
			AttemptTimeout: time.Duration(viper.GetInt("VISION_ATTEMPT_TIMEOUT_SECONDS")) * time.Second,
			CacheTTL:       time.Duration(viper.GetInt("VISION_CACHE_TTL_HOURS")) * time.Hour,
		},
		Acquire: AcquireConfig{
			MaxImageBytes: viper.GetInt64("ACQUIRE_MAX_IMAGE_BYTES"),
			FetchTimeout:  time.Duration(viper.GetInt("ACQUIRE_FETCH_TIMEOUT_SECONDS")) * time.Second,
		},
	}
}

func splitModels(raw string) []string {
	var models []string
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	return models
}
