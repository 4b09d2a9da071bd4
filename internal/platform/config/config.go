package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server reads from the environment so main
// stays lean. Zero values mean "feature not configured" for optional backends
// (redis, postgres, kafka).
type Config struct {
	Addr string

	// External collaborators.
	ZoneAPIBaseURL     string
	IncidentAPIBaseURL string

	// Geofence pipeline knobs.
	ZoneRadiusKm        float64
	ZoneRefreshInterval time.Duration
	EscalationDelay     time.Duration
	CountdownTick       time.Duration

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
}

// RedisConfig holds connection settings for the optional shared membership store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig holds the DSN for the optional incident journal.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig holds seeds and topic for the optional safety event stream.
type KafkaConfig struct {
	Seeds []string
	Topic string
}

// FromEnv builds a Config from environment variables with defaults matching
// the reference deployment (10km zone radius, 120s escalation window).
func FromEnv() Config {
	cfg := Config{
		Addr:                envOr("TRAILGUARD_ADDR", ":8080"),
		ZoneAPIBaseURL:      envOr("TRAILGUARD_ZONE_API_URL", "http://localhost:8081/api/v1"),
		IncidentAPIBaseURL:  envOr("TRAILGUARD_INCIDENT_API_URL", "http://localhost:8082/api/v1"),
		ZoneRadiusKm:        envFloat("TRAILGUARD_ZONE_RADIUS_KM", 10),
		ZoneRefreshInterval: envDuration("TRAILGUARD_ZONE_REFRESH_INTERVAL", 30*time.Second),
		EscalationDelay:     envDuration("TRAILGUARD_ESCALATION_DELAY", 120*time.Second),
		CountdownTick:       envDuration("TRAILGUARD_COUNTDOWN_TICK", time.Second),
		Redis: RedisConfig{
			URL:          os.Getenv("TRAILGUARD_REDIS_URL"),
			PoolSize:     envInt("TRAILGUARD_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("TRAILGUARD_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("TRAILGUARD_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("TRAILGUARD_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("TRAILGUARD_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("TRAILGUARD_POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			Topic: envOr("TRAILGUARD_KAFKA_TOPIC", "trailguard.safety-events"),
		},
	}
	if seeds := os.Getenv("TRAILGUARD_KAFKA_SEEDS"); seeds != "" {
		cfg.Kafka.Seeds = strings.Split(seeds, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
