package config

import (
	"fmt"
	"log"
	"os"
	"time"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env             string
	HTTPPort        string
	RosterPath      string
	RosterURL       string
	SlotBackend     string // memory | redis | sqlite
	SlotName        string
	SQLitePath      string
	RedisAddr       string
	QueueBackend    string // memory | redis
	Timezone        string
	QuietPeriod     time.Duration
	RateLimitPerMin int
}

// Load returns application config populated from environment variables with sensible defaults.
func Load() App {
	return App{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RosterPath:      getEnv("ROSTER_PATH", "estudiantes.json"),
		RosterURL:       getEnv("ROSTER_URL", ""),
		SlotBackend:     getEnv("SLOT_BACKEND", "sqlite"),
		SlotName:        getEnv("SLOT_NAME", "attendance"),
		SQLitePath:      getEnv("SQLITE_PATH", "registro.db"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		QueueBackend:    getEnv("QUEUE_BACKEND", "memory"),
		Timezone:        getEnv("REGISTRO_TZ", ""),
		QuietPeriod:     durationEnv("SCAN_QUIET_PERIOD", 2*time.Second),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 120),
	}
}

// Location resolves the configured timezone, falling back to local time.
func (a App) Location() *time.Location {
	if a.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		log.Printf("invalid timezone %q, using local time: %v", a.Timezone, err)
		return time.Local
	}
	return loc
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
