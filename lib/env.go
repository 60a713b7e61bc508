package lib

import (
	"os"
	"time"
)

func GetEnvDefault(key, defaultValue string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return val
}

// GetEnvDuration returns parsed duration from env key,
// or defaultValue if key is not set or is not a duration
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}
	return d
}
