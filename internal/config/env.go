package config

import (
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFiles loads environment variables from .env/.env.local when present.
// Existing process environment variables are not overwritten.
func loadEnvFiles() error {
	var loaded int
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return err
		}
		slog.Debug("Loaded environment variables", "file", envPath)
		loaded++
	}
	if loaded == 0 {
		return os.ErrNotExist
	}
	return nil
}
