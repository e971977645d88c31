// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the pipeline service.
type Config struct {
	Port                  string
	DatabaseURL           string
	RedisURL              string
	AnalyzerEnabled       bool
	ReminderIntervalHours int // how often the follow-up sweep fires
	ReminderStaleDays     int // idle days before an application is flagged
}

// Load reads environment variables and returns a validated Config.
// A .env file in the working directory is applied first when present;
// variables already set in the environment win.
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

	port := os.Getenv("PIPELINE_PORT")
	if port == "" {
		port = "8083"
	}

	analyzerEnabled := true
	if s := os.Getenv("ANALYZER_ENABLED"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("ANALYZER_ENABLED must be a boolean, got %q", s)
		}
		analyzerEnabled = v
	}

	interval := 24
	if s := os.Getenv("REMINDER_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("REMINDER_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	staleDays := 7
	if s := os.Getenv("REMINDER_STALE_DAYS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("REMINDER_STALE_DAYS must be a positive integer, got %q", s)
		}
		staleDays = v
	}

	return &Config{
		Port:                  port,
		DatabaseURL:           dbURL,
		RedisURL:              redisURL,
		AnalyzerEnabled:       analyzerEnabled,
		ReminderIntervalHours: interval,
		ReminderStaleDays:     staleDays,
	}, nil
}
