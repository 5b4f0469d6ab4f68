// Package config loads environment-based defaults for the CLI. Flags take
// precedence; the environment (optionally seeded from a .env file) fills in
// whatever the user did not pass.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads .env from the working directory into the environment. A
// missing file is not an error worth stopping for; callers typically ignore
// the result and fall back to system env or defaults.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the environment variable named by key, or fallback if it
// is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by
// key, or fallback if it is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}
