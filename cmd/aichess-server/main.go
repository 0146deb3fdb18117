// Package main runs the chess server: the game API, the AI move relay and
// optional persistence.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aichess/cmd/aichess-server/cli"
	"aichess/internal/config"
	"aichess/internal/dispatch"
	"aichess/internal/http"
	"aichess/internal/processor"
	"aichess/internal/provider"
	"aichess/internal/service"
	"aichess/internal/storage"

	"github.com/rs/zerolog"
)

const (
	gracefulShutdownTimeout = time.Second * 5
	envPrefix               = "AICHESS"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	// Check for CLI database commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatal().Err(err).Msg("CLI error")
		}
		os.Exit(0)
	}

	cfg, err := config.Load(envPrefix)
	if err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}

	// Command-line flags override the environment
	var (
		apiHost     = flag.String("api-host", cfg.Server.Host, "API server host")
		apiPort     = flag.Int("api-port", cfg.Server.Port, "API server port")
		dev         = flag.Bool("dev", cfg.Server.DevMode, "Development mode (relaxed rate limits, debug logging)")
		storagePath = flag.String("storage-path", cfg.Storage.Path, "Path to SQLite database file (disables persistence if empty)")
		pidPath     = flag.String("pid", cfg.Server.PIDFile, "Optional path to write PID file")
		pidLock     = flag.Bool("pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")
		relayURL    = flag.String("relay-url", cfg.Providers.RelayURL, "Send AI turns to a remote /api/v1/move instead of calling providers in-process")
	)
	flag.Parse()

	if *dev {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	if *pidLock && *pidPath == "" {
		log.Fatal().Msg("-pid-lock flag requires the -pid flag to be set")
	}

	if *pidPath != "" {
		cleanup, err := managePIDFile(*pidPath, *pidLock)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to manage PID file")
		}
		defer cleanup()
		log.Info().Str("path", *pidPath).Bool("lock", *pidLock).Msg("PID file created")
	}

	// 1. Storage (optional): SQLite and/or MongoDB archive
	var recorders storage.Tee
	if *storagePath != "" {
		store, err := storage.NewStore(*storagePath, *dev, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize storage")
		}
		if err := store.InitDB(); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize schema")
		}
		recorders = append(recorders, store)
		log.Info().Str("path", *storagePath).Msg("SQLite storage enabled")
	}
	if cfg.Archive.URI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		archive, err := storage.NewArchive(ctx, cfg.Archive.URI, cfg.Archive.Database, cfg.Archive.Collection, log)
		cancel()
		if err != nil {
			log.Error().Err(err).Msg("MongoDB archive unavailable, continuing without it")
		} else {
			recorders = append(recorders, archive)
			log.Info().Str("database", cfg.Archive.Database).Msg("MongoDB archive enabled")
		}
	}

	var recorder storage.Recorder
	switch len(recorders) {
	case 0:
		log.Info().Msg("persistent storage disabled (use -storage-path or MONGO_URI to enable)")
	case 1:
		recorder = recorders[0]
	default:
		recorder = recorders
	}

	// 2. Providers
	router, closeProviders := buildRouter(cfg, log)
	defer closeProviders()

	var relay dispatch.Relay = dispatch.NewLocalRelay(router)
	if *relayURL != "" {
		relay = dispatch.NewHTTPRelay(*relayURL)
		log.Info().Str("url", *relayURL).Msg("AI turns relayed to remote server")
	}

	turn := dispatch.NewTurn(dispatch.NewDispatcher(relay, log), log,
		dispatch.WithTimeout(cfg.Turn.Timeout))

	// 3. Service and processor
	svc := service.New(recorder, log)
	proc := processor.New(svc, turn, router, processor.Options{
		Workers:      cfg.Turn.Workers,
		TurnTimeout:  cfg.Turn.Timeout,
		DefaultModel: cfg.Turn.DefaultModel,
	}, log)

	// 4. HTTP
	app := http.NewFiberApp(proc, svc, *dev, log)
	apiAddr := fmt.Sprintf("%s:%d", *apiHost, *apiPort)

	go func() {
		rate := 10
		if *dev {
			rate = 20
		}
		log.Info().
			Str("addr", "http://"+apiAddr).
			Int("rateLimit", rate).
			Dur("turnTimeout", cfg.Turn.Timeout).
			Int("workers", cfg.Turn.Workers).
			Str("defaultModel", cfg.Turn.DefaultModel).
			Msg("chess API server starting")

		if err := app.Listen(apiAddr); err != nil {
			log.Error().Err(err).Msg("API server listen error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("server forced to shutdown")
	}

	// Processor first so in-flight AI turns land before storage closes
	if err := proc.Close(); err != nil {
		log.Warn().Err(err).Msg("processor close error")
	}
	if err := svc.Close(); err != nil {
		log.Warn().Err(err).Msg("service close error")
	}

	log.Info().Msg("server exited")
}

// buildRouter registers every provider with credentials or a path configured
func buildRouter(cfg *config.Configuration, log zerolog.Logger) (*provider.Router, func()) {
	router := provider.NewRouter(log.With().Str("component", "provider").Logger())

	if llm := provider.NewLLM(cfg.Providers.GroqAPIKey, cfg.Providers.GroqBaseURL, cfg.Turn.Timeout); llm != nil {
		router.Register(provider.KindGroq, llm)
	} else {
		log.Warn().Msg("GROQ_API_KEY not set, Groq models unavailable")
	}
	if llm := provider.NewLLM(cfg.Providers.GoogleAPIKey, cfg.Providers.GoogleBaseURL, cfg.Turn.Timeout); llm != nil {
		router.Register(provider.KindGoogle, llm)
	} else {
		log.Warn().Msg("GOOGLE_GENERATIVE_AI_API_KEY not set, Gemini models unavailable")
	}

	router.Register(provider.KindChessAPI, provider.NewChessAPI(cfg.Providers.ChessAPIURL))

	engine := provider.NewLocalEngine(cfg.Stockfish.Path, cfg.Stockfish.Args, log)
	if engine == nil {
		return router, func() {}
	}
	router.Register(provider.KindLocalEngine, engine)
	log.Info().Str("path", cfg.Stockfish.Path).Msg("local UCI engine enabled")
	return router, engine.Close
}
