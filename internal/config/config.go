package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Configuration is read from the environment. Nested fields are looked up
// by their bare tag name (GROQ_API_KEY, not AICHESS_PROVIDERS_GROQ_API_KEY).
type Configuration struct {
	Server struct {
		Host    string `envconfig:"SERVER_HOST" default:"localhost"`
		Port    int    `envconfig:"SERVER_PORT" default:"8080"`
		DevMode bool   `envconfig:"DEV_MODE" default:"false"`
		PIDFile string `envconfig:"PID_FILE"`
	}
	Providers struct {
		GroqAPIKey    string `envconfig:"GROQ_API_KEY"`
		GroqBaseURL   string `envconfig:"GROQ_BASE_URL" default:"https://api.groq.com/openai/v1"`
		GoogleAPIKey  string `envconfig:"GOOGLE_GENERATIVE_AI_API_KEY"`
		GoogleBaseURL string `envconfig:"GOOGLE_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta/openai"`
		ChessAPIURL   string `envconfig:"CHESS_API_URL" default:"https://chess-api.com/v1"`
		// RelayURL sends AI turns to a remote /api/v1/move instead of the
		// in-process router
		RelayURL string `envconfig:"RELAY_URL"`
	}
	Stockfish struct {
		Path string   `envconfig:"STOCKFISH_PATH"`
		Args []string `envconfig:"STOCKFISH_ARGS"`
	}
	Turn struct {
		Timeout      time.Duration `envconfig:"TURN_TIMEOUT" default:"30s"`
		Workers      int           `envconfig:"TURN_WORKERS" default:"4"`
		DefaultModel string        `envconfig:"DEFAULT_MODEL" default:"llama-3.3-70b-versatile"`
	}
	Storage struct {
		Path string `envconfig:"STORAGE_PATH"`
	}
	Archive struct {
		URI        string `envconfig:"MONGO_URI"`
		Database   string `envconfig:"MONGO_DATABASE" default:"aichess"`
		Collection string `envconfig:"MONGO_COLLECTION" default:"games"`
	}
}

// Load reads the configuration with the given variable prefix
func Load(prefix string) (*Configuration, error) {
	var cfg Configuration
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Turn.Workers < 1 {
		cfg.Turn.Workers = 1
	}
	return &cfg, nil
}
