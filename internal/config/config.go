// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Delivery modes for the realtime layer.
const (
	DeliveryMemory = "memory" // single-process / local development
	DeliveryRedis  = "redis"  // multi-process, Redis pub/sub broker
)

// Config holds all runtime configuration for the match service.
type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	DeliveryMode  string // "memory" or "redis"
	RecommendSpec string // cron spec for the recommendation run
	RecommendPace int    // milliseconds to wait between subscribers
	Workers       int    // concurrent dispatch jobs
	JobsPerMinute int    // dispatch queue rate limit
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	mode := os.Getenv("DELIVERY_MODE")
	if mode == "" {
		mode = DeliveryMemory
	}
	if mode != DeliveryMemory && mode != DeliveryRedis {
		return nil, fmt.Errorf("DELIVERY_MODE must be %q or %q, got %q", DeliveryMemory, DeliveryRedis, mode)
	}

	spec := os.Getenv("RECOMMEND_CRON")
	if spec == "" {
		spec = "0 * * * *" // hourly
	}

	pace, err := intEnv("RECOMMEND_PACE_MS", 1000)
	if err != nil {
		return nil, err
	}

	workers, err := intEnv("DISPATCH_WORKERS", 2)
	if err != nil {
		return nil, err
	}

	jobsPerMinute, err := intEnv("DISPATCH_JOBS_PER_MINUTE", 100)
	if err != nil {
		return nil, err
	}

	port := os.Getenv("MATCH_PORT")
	if port == "" {
		port = "8083"
	}

	return &Config{
		Port:          port,
		DatabaseURL:   dbURL,
		RedisURL:      redisURL,
		DeliveryMode:  mode,
		RecommendSpec: spec,
		RecommendPace: pace,
		Workers:       workers,
		JobsPerMinute: jobsPerMinute,
	}, nil
}

func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, s)
	}
	return v, nil
}
