// Package env reads typed settings from the process environment. Invalid
// values fall back to the default with a warning on stdout.
package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func GetString(key, fallback string) string {
	if val, exists := os.LookupEnv(key); exists && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	val, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(val) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		fmt.Println("Invalid", key+", defaulting to", fallback)
		return fallback
	}
	return parsed
}

func GetBool(key string, fallback bool) bool {
	val, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(val) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		fmt.Println("Invalid", key+", defaulting to", fallback)
		return fallback
	}
	return parsed
}

// GetDuration accepts Go duration strings ("90s", "15m"). A bare integer
// is read as seconds.
func GetDuration(key string, fallback time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	val = strings.TrimSpace(val)
	if !exists || val == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		fmt.Println("Invalid", key+", defaulting to", fallback)
		return fallback
	}
	return parsed
}
