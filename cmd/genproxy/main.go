// Command genproxy serves the generation proxy and offers one-shot
// generation from the command line.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"zliu.org/goutil/rest"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadEnvFile loads environment variables from a .env file
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			rest.Log().Debug().Msgf(".env file not found at %s, using system environment variables", path)
			return nil
		}
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	rest.Log().Info().Msgf("Loaded environment variables from %s", path)
	return nil
}
