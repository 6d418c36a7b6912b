package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything main needs to wire the application.
type Config struct {
	Port string
	Env  string

	DBDriver    string
	DatabaseURL string
	AutoMigrate bool

	RedisAddr     string
	RedisUser     string
	RedisPassword string
	RedisDB       int

	LogLevel string
	LogDir   string

	JWTSecret string

	AvailabilityTTL         time.Duration
	AvailabilityRefreshSpec string
	AvailabilityMonthsAhead int
	RateSyncSpec            string

	CORSOrigins []string
}

// LoadEnv reads .env into the process environment when present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not loaded, using process environment: %v", err)
	}
}

// Load reads the configuration from the environment.
func Load() Config {
	LoadEnv()
	return Config{
		Port:                    getenv("PORT", "8083"),
		Env:                     getenv("ENV", "dev"),
		DBDriver:                strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DatabaseURL:             getenv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=loyaltystay port=5432 sslmode=disable"),
		AutoMigrate:             envBool("AUTO_MIGRATE", true),
		RedisAddr:               getenv("REDIS_ADDR", "localhost:6379"),
		RedisUser:               os.Getenv("REDIS_USER"),
		RedisPassword:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:                 envInt("REDIS_DB", 0),
		LogLevel:                getenv("LOG_LEVEL", "info"),
		LogDir:                  os.Getenv("LOG_DIR"),
		JWTSecret:               getenv("JWT_SECRET", "change-me"),
		AvailabilityTTL:         envDur("AVAILABILITY_TTL", 26*time.Hour),
		AvailabilityRefreshSpec: getenv("AVAILABILITY_REFRESH_SPEC", "*/30 * * * *"),
		AvailabilityMonthsAhead: envInt("AVAILABILITY_MONTHS_AHEAD", 2),
		RateSyncSpec:            getenv("RATE_SYNC_SPEC", "0 3 * * *"),
		CORSOrigins:             splitList(os.Getenv("CORS_ORIGINS")),
	}
}

// GetEnv returns the raw value of key.
func GetEnv(key string) string {
	return os.Getenv(key)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
