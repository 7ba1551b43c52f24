package config

import (
	"os"
	"strconv"
	"time"
)

const defaultTokenTTL = 3600 // seconds

// Config holds the service configuration, read from the environment.
// APIKey is the realtime signing credential; it has no default on purpose —
// minting an unsigned capability token is never acceptable, so its absence
// is surfaced at issuance time instead.
type Config struct {
	Port      string
	MongoURI  string
	RedisAddr string

	APIKey   string
	TokenTTL time.Duration

	JWTSecret       string
	TeacherUsername string
	TeacherPassword string
	TeacherPlan     string

	LogLevel string
}

// Load reads configuration from the environment with defaults.
func Load() *Config {
	ttl := defaultTokenTTL
	if raw := os.Getenv("TOKEN_TTL_SECONDS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			ttl = n
		}
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		APIKey:   os.Getenv("API_KEY"),
		TokenTTL: time.Duration(ttl) * time.Second,

		JWTSecret:       getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		TeacherUsername: getEnv("TEACHER_USERNAME", "teacher"),
		TeacherPassword: getEnv("TEACHER_PASSWORD", "password123"),
		TeacherPlan:     getEnv("TEACHER_PLAN", "free"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
