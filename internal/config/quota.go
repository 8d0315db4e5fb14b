package config

import (
	"os"
	"strconv"
	"time"
)

type QuotaConfig struct {
	// FreeTierLimit is the request allowance for organizations without a
	// subscription, counted over FreeTierWindow.
	FreeTierLimit    int64
	FreeTierWindow   time.Duration
	ThrottleLimit    int64
	ThrottleWindow   time.Duration
	ThrottleRetry    time.Duration
	AttemptRetention time.Duration
	RequestRetention time.Duration
}

func NewQuotaConfig() *QuotaConfig {
	return &QuotaConfig{
		FreeTierLimit:    getEnvInt64("FREE_TIER_LIMIT", 1000),
		FreeTierWindow:   31 * 24 * time.Hour,
		ThrottleLimit:    5,
		ThrottleWindow:   24 * time.Hour,
		ThrottleRetry:    24 * time.Hour,
		AttemptRetention: 48 * time.Hour,
		RequestRetention: 62 * 24 * time.Hour,
	}
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
