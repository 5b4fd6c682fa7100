package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Transport selection for the snapshot channel.
const (
	TransportPoll = "poll"
	TransportSSE  = "sse"
	TransportWS   = "ws"
)

const (
	// DefaultPollInterval targets the 1.5-2s snapshot cadence.
	DefaultPollInterval = 1750 * time.Millisecond
	// DefaultStaleThreshold is the number of consecutive transport failures
	// before the user is warned that live updates may be stale.
	DefaultStaleThreshold = 5
	// DefaultReleaseFeedURL is where the update check looks for new releases.
	DefaultReleaseFeedURL = "https://api.github.com/repos/KaliDrag0n/ContentReaper/releases/latest"
)

// Config holds all configuration for the reaper console.
// The console keeps no durable state of its own: everything it shows is
// mirrored from the backend, so configuration is connection details only.
type Config struct {
	BaseURL             string // Backend base URL, e.g. http://localhost:8080
	Transport           string // poll, sse, or ws
	PollInterval        time.Duration
	FetchTimeoutSeconds int
	StaleThreshold      int
	ReleaseFeedURL      string
	Username            string // Optional: pre-filled login username
	LogFile             string // Optional: redirect engine logs here
}

// Load reads configuration with the following precedence order:
//  1. OS environment variables (highest priority)
//  2. .env file in current working directory (if present)
//  3. ~/.config/reaper-console.env (if present)
//  4. Default values (lowest priority)
func Load() (*Config, error) {
	if home, err := os.UserHomeDir(); err == nil {
		homeEnvPath := home + "/.config/reaper-console.env"
		if _, err := os.Stat(homeEnvPath); err == nil {
			if err := loadEnvFile(homeEnvPath); err != nil {
				return nil, fmt.Errorf("failed to load env file: %w", err)
			}
		}
	}

	cwdEnvFilePath := ".env"
	if _, err := os.Stat(cwdEnvFilePath); err == nil {
		if err := loadEnvFile(cwdEnvFilePath); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg := &Config{
		BaseURL:             os.Getenv("REAPER_BASE_URL"),
		Transport:           getEnvString("REAPER_TRANSPORT", TransportPoll),
		PollInterval:        time.Duration(getEnvInt("REAPER_POLL_INTERVAL_MS", int(DefaultPollInterval/time.Millisecond))) * time.Millisecond,
		FetchTimeoutSeconds: getEnvInt("FETCH_TIMEOUT_SECONDS", 10),
		StaleThreshold:      getEnvInt("REAPER_STALE_THRESHOLD", DefaultStaleThreshold),
		ReleaseFeedURL:      getEnvString("REAPER_RELEASE_FEED_URL", DefaultReleaseFeedURL),
		Username:            os.Getenv("REAPER_USERNAME"),
		LogFile:             os.Getenv("REAPER_LOG_FILE"),
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("REAPER_BASE_URL is required")
	}

	switch cfg.Transport {
	case TransportPoll, TransportSSE, TransportWS:
	default:
		return nil, fmt.Errorf("REAPER_TRANSPORT must be 'poll', 'sse' or 'ws', got '%s'", cfg.Transport)
	}

	if cfg.PollInterval < 250*time.Millisecond {
		return nil, fmt.Errorf("REAPER_POLL_INTERVAL_MS must be at least 250, got %d", cfg.PollInterval/time.Millisecond)
	}

	if cfg.StaleThreshold < 1 {
		return nil, fmt.Errorf("REAPER_STALE_THRESHOLD must be at least 1, got %d", cfg.StaleThreshold)
	}

	return cfg, nil
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as an integer or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
