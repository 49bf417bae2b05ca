package configutil

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotenv loads a `.env` file from the working directory into the
// process environment if one exists. Variables already set in the
// environment win over the file.
func LoadDotenv() {
	err := godotenv.Load()
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		slog.Warn("failed to load .env file", "err", err)
		return
	}
	slog.Debug("loaded .env file")
}

// EnvString returns the value of the environment variable `key`, or
// `fallback` when it is unset or empty.
func EnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
