package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("aichess")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Turn.Timeout)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Turn.DefaultModel)
	assert.Equal(t, "https://chess-api.com/v1", cfg.Providers.ChessAPIURL)
}

func TestLoadReadsBareVariables(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("TURN_TIMEOUT", "5s")
	t.Setenv("TURN_WORKERS", "0")
	t.Setenv("STOCKFISH_ARGS", "-a,-b")

	cfg, err := Load("aichess")
	require.NoError(t, err)

	assert.Equal(t, "gsk-test", cfg.Providers.GroqAPIKey)
	assert.Equal(t, 5*time.Second, cfg.Turn.Timeout)
	assert.Equal(t, 1, cfg.Turn.Workers)
	assert.Equal(t, []string{"-a", "-b"}, cfg.Stockfish.Args)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("TURN_TIMEOUT", "soon")

	_, err := Load("aichess")
	assert.Error(t, err)
}
