package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/agent-stream-adapter/internal/agent/runtime"
	"github.com/tjfontaine/agent-stream-adapter/internal/codec/trace"
	"github.com/tjfontaine/agent-stream-adapter/internal/config"
	"github.com/tjfontaine/agent-stream-adapter/internal/delivery"
	"github.com/tjfontaine/agent-stream-adapter/internal/metrics"
	"github.com/tjfontaine/agent-stream-adapter/internal/resolver"
	"github.com/tjfontaine/agent-stream-adapter/internal/server"
	"github.com/tjfontaine/agent-stream-adapter/internal/session"
	"github.com/tjfontaine/agent-stream-adapter/internal/storage/sqlite"
	"github.com/tjfontaine/agent-stream-adapter/internal/stream"
	"github.com/tjfontaine/agent-stream-adapter/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdown, err := telemetry.Init("agent-stream-adapter", logger)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown telemetry", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load(os.Getenv("ASA_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Agent.Endpoint == "" || cfg.GraphQL.Endpoint == "" {
		log.Fatal("agent.endpoint and graphql.endpoint must be configured")
	}

	invoker := runtime.NewClient(cfg.Agent.Endpoint)
	deliverer := delivery.NewClient(cfg.GraphQL.Endpoint)
	consumer := stream.NewConsumer(trace.New(trace.WithLogger(logger)), logger)

	opts := []session.Option{session.WithLogger(logger)}
	if cfg.Audit.Path != "" {
		store, err := sqlite.New(cfg.Audit.Path)
		if err != nil {
			log.Fatalf("Failed to open audit store: %v", err)
		}
		defer store.Close()
		opts = append(opts, session.WithAudit(store))
		logger.Info("trace auditing enabled", slog.String("path", cfg.Audit.Path))
	}

	orchestrator := session.NewOrchestrator(session.Config{
		AgentID:      cfg.Agent.ID,
		AgentAliasID: cfg.Agent.Alias,
	}, invoker, deliverer, consumer, opts...)

	srv := server.New(cfg.Server.Port, cfg.Server.RequestTimeout(), logger)
	srv.Router.Post("/resolve", resolver.NewHandler(orchestrator, logger).Resolve)
	srv.Router.Handle("/metrics", metrics.Handler())
	srv.Router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", slog.String("error", err.Error()))
		}
	}
}
