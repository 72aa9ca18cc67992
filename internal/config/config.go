package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host string
		Port string
	}

	Engine struct {
		// Discovery queue
		QueueLowWater int
		QueuePageSize int

		// Suspension thresholds (distinct reporters)
		Reporters24hThreshold      int
		ReportersLifetimeThreshold int

		// Cache freshness
		BlockSetTTL  time.Duration
		LikeCountTTL time.Duration

		// Admin user ids allowed to lift suspensions
		AdminUserIDs []uint64

		// Face-liveness collaborator
		LivenessBaseURL string
		LivenessTimeout time.Duration
	}
}

func New() *Config {
	// .env is optional; deployments normally use the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}

	// App
	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "match_engine")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "ember")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// Engine
	cfg.Engine.QueueLowWater = getEnvInt("QUEUE_LOW_WATER", 5)
	cfg.Engine.QueuePageSize = getEnvInt("QUEUE_PAGE_SIZE", 20)
	cfg.Engine.Reporters24hThreshold = getEnvInt("REPORTERS_24H_THRESHOLD", 30)
	cfg.Engine.ReportersLifetimeThreshold = getEnvInt("REPORTERS_LIFETIME_THRESHOLD", 300)
	cfg.Engine.BlockSetTTL = getEnvDuration("BLOCK_SET_TTL", 5*time.Minute)
	cfg.Engine.LikeCountTTL = getEnvDuration("LIKE_COUNT_TTL", time.Hour)
	cfg.Engine.AdminUserIDs = parseIDList(os.Getenv("ADMIN_USER_IDS"))
	cfg.Engine.LivenessBaseURL = getEnvDefault("LIVENESS_BASE_URL", "http://localhost:5000")
	cfg.Engine.LivenessTimeout = getEnvDuration("LIVENESS_TIMEOUT", 10*time.Second)

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// parseIDList parses a comma-separated list of user ids, e.g. "1,42,1001".
func parseIDList(v string) []uint64 {
	var ids []uint64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseUint(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
