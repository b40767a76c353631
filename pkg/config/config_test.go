package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("NOTEFOLD_API_URL", "")
	t.Setenv("NOTEFOLD_GATEWAY_URL", "")
	t.Setenv("NOTEFOLD_STATE_FILE", "")

	cfg := FromEnv()

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultGatewayURL, cfg.GatewayURL)
	assert.NotEmpty(t, cfg.StateFile)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("NOTEFOLD_API_URL", "https://notes.example.com")
	t.Setenv("NOTEFOLD_GATEWAY_URL", "wss://notes.example.com/gateway")
	t.Setenv("NOTEFOLD_STATE_FILE", "/tmp/state.json")

	cfg := FromEnv()

	assert.Equal(t, "https://notes.example.com", cfg.APIURL)
	assert.Equal(t, "wss://notes.example.com/gateway", cfg.GatewayURL)
	assert.Equal(t, "/tmp/state.json", cfg.StateFile)
}
