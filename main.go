package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/oracle"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/repo"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/api"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/core"
	logx "github.com/Chative-core-poc-v1/agentic-rag/pkg/logger"
	pkgredis "github.com/Chative-core-poc-v1/agentic-rag/pkg/redis"
)

// AppConfig defines all configurable parameters of the service, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	HTTPAddr    string           `envconfig:"HTTP_ADDR" default:":8080"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Workflow configs
	Oracle   model.OracleConfig
	Workflow model.WorkflowConfig
	Session  model.SessionConfig
}

func main() {
	ctx := context.Background()

	// Load .env file
	envErr := godotenv.Load(".env")

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Init()
		logx.Fatal().Err(err).Msg("Failed to process environment config")
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Environment})
	if envErr != nil {
		logx.Warn().Err(envErr).Msg("Could not load .env file")
	}

	gemini, err := oracle.NewGeminiFromConfig(ctx, oracle.ClientConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Oracle:  cfg.Oracle,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to initialise Gemini oracle")
	}

	var store model.SessionStore
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			logx.Fatal().Err(err).Msg("Failed to initialise Redis client")
		}
		defer rdb.Close()
		store = repo.NewRedisSessionStore(rdb, cfg.Session.TTL)
		logx.Info().Msg("Connected to Redis successfully")
	} else {
		store = repo.NewMemorySessionStore(cfg.Session.TTL, cfg.Session.CleanupInterval)
		logx.Info().Msg("REDIS_URL not set, keeping session snapshots in memory")
	}

	sessions := api.NewSessions(oracle.Instrument(gemini), cfg.Workflow, cfg.Session, store)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(sessions),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logx.Info().Str("addr", cfg.HTTPAddr).Str("environment", cfg.Environment.String()).Msg("Agentic RAG service starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logx.Info().Msg("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("Server forced to shutdown")
	}
	logx.Info().Msg("Server exited")
}
