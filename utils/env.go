package utils

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Env helpers: read a variable or fall back to a default, logging when a
// set value cannot be parsed.

func EnvOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvDurationOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️ Invalid duration in %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func EnvIntOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️ Invalid integer in %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func EnvBoolOr(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("⚠️ Invalid boolean in %s=%q, using %v", key, v, def)
		return def
	}
	return b
}
