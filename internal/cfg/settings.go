package cfg

import (
	"os"
	"strconv"
	"time"
)

// Helper functions for reading typed values from the environment. Unparsable
// values fall back to the default.

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if configValue != 0 {
		defaultValue = configValue
	}
	return getIntOrDefault(key, defaultValue)
}

func getFloatFromEnvOrConfig(key string, configValue float64) float64 {
	return getFloatOrDefault(key, configValue)
}

func orDefault(v, defaultValue string) string {
	if v != "" {
		return v
	}
	return defaultValue
}

// parseDurationOrDefault parses a YAML duration string; empty means default.
func parseDurationOrDefault(v string, defaultValue time.Duration) (time.Duration, error) {
	if v == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(v)
}
