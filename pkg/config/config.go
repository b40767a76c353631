// Package config resolves SDK configuration from the environment, loading a
// .env file first when one is present.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	// DefaultAPIURL is the HTTP resource boundary of a local server.
	DefaultAPIURL = "http://localhost:8000"
	// DefaultGatewayURL is the gateway endpoint of a local server.
	DefaultGatewayURL = "ws://localhost:8000/gateway"
)

// Config carries the endpoints and file locations the SDK needs at startup.
type Config struct {
	// APIURL is the base URL of the HTTP resource boundary.
	APIURL string
	// GatewayURL is the WebSocket endpoint of the realtime gateway.
	GatewayURL string
	// StateFile is the path of the persisted client state store.
	StateFile string
}

// FromEnv reads configuration from NOTEFOLD_API_URL, NOTEFOLD_GATEWAY_URL
// and NOTEFOLD_STATE_FILE, after loading a .env file if one exists in the
// working directory. Unset variables fall back to defaults.
func FromEnv() Config {
	_ = godotenv.Load()

	return Config{
		APIURL:     envOr("NOTEFOLD_API_URL", DefaultAPIURL),
		GatewayURL: envOr("NOTEFOLD_GATEWAY_URL", DefaultGatewayURL),
		StateFile:  envOr("NOTEFOLD_STATE_FILE", defaultStateFile()),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".notefold-state.json"
	}
	return filepath.Join(dir, "notefold", "state.json")
}
