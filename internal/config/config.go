package config

import (
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"surveyinsights/internal/logging"
)

type Config struct {
	StorageConfig
	ServerConfig
	AuthConfig
	InsightsConfig
	LogConfig
}

type StorageConfig struct {
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
}

type ServerConfig struct {
	Port            string
	CORS            CORSConfig
	ShutdownTimeout time.Duration
}

// CORSConfig values are sent as-is in the Access-Control-Allow-* headers
type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

type AuthConfig struct {
	JWTSecret     string
	OwnerUsername string
	OwnerPassword string
	TokenTTL      time.Duration
}

type InsightsConfig struct {
	AnalyticsCacheTTL time.Duration
	Workers           int
}

type LogConfig struct {
	Level  string
	Format string
}

var settingsOnce sync.Once

// Load reads a .env file when present, then the environment.
// Environment variables win over .env values.
func Load() *Config {
	settingsOnce.Do(func() {
		if err := godotenv.Load(); err == nil {
			logging.Log.Info("loaded .env")
		}
		viper.AutomaticEnv()
		setDefaults(viper.GetViper())
	})
	return fromViper(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "surveydb")
	v.SetDefault("REDIS_URI", "localhost:6379")
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("CORS_ALLOWED_METHODS", "GET, POST, OPTIONS")
	v.SetDefault("CORS_ALLOWED_HEADERS", "Content-Type, Authorization")
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("OWNER_USERNAME", "admin")
	v.SetDefault("OWNER_PASSWORD", "admin")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("ANALYTICS_CACHE_TTL", "10m")
	v.SetDefault("INSIGHTS_WORKERS", 4)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
}

func fromViper(v *viper.Viper) *Config {
	workers := v.GetInt("INSIGHTS_WORKERS")
	if workers < 1 {
		workers = 1
	}
	return &Config{
		StorageConfig: StorageConfig{
			MongoURI:      v.GetString("MONGO_URI"),
			MongoDatabase: v.GetString("MONGO_DATABASE"),
			RedisAddr:     strings.TrimPrefix(v.GetString("REDIS_URI"), "redis://"),
		},
		ServerConfig: ServerConfig{
			Port: v.GetString("PORT"),
			CORS: CORSConfig{
				AllowedOrigins: v.GetString("CORS_ALLOWED_ORIGINS"),
				AllowedMethods: v.GetString("CORS_ALLOWED_METHODS"),
				AllowedHeaders: v.GetString("CORS_ALLOWED_HEADERS"),
			},
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		AuthConfig: AuthConfig{
			JWTSecret:     v.GetString("JWT_SECRET"),
			OwnerUsername: v.GetString("OWNER_USERNAME"),
			OwnerPassword: v.GetString("OWNER_PASSWORD"),
			TokenTTL:      v.GetDuration("TOKEN_TTL"),
		},
		InsightsConfig: InsightsConfig{
			AnalyticsCacheTTL: v.GetDuration("ANALYTICS_CACHE_TTL"),
			Workers:           workers,
		},
		LogConfig: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}
