package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sellersight/sellersight/internal/api/exa"
	"github.com/sellersight/sellersight/internal/api/openai"
	"github.com/sellersight/sellersight/internal/api/pinecone"
	"github.com/sellersight/sellersight/internal/config"
	"github.com/sellersight/sellersight/internal/moderation"
	"github.com/sellersight/sellersight/internal/orchestrator"
	"github.com/sellersight/sellersight/internal/retrieval"
	"github.com/sellersight/sellersight/internal/server"
	"github.com/sellersight/sellersight/internal/storage"
	memorystore "github.com/sellersight/sellersight/internal/storage/memory"
	sqlitestore "github.com/sellersight/sellersight/internal/storage/sqlite"
	"github.com/sellersight/sellersight/internal/telemetry"
	"github.com/sellersight/sellersight/internal/tokens"
	"github.com/sellersight/sellersight/internal/tools"
	"github.com/sellersight/sellersight/internal/websearch"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("SELLERSIGHT_CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	requestTimeout, err := cfg.RequestTimeout()
	if err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize OpenTelemetry
	shutdownTracer, err := telemetry.InitTracer("sellersight", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	// External clients
	var openaiOpts []openai.ClientOption
	if cfg.OpenAI.BaseURL != "" {
		openaiOpts = append(openaiOpts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	openaiClient := openai.NewClient(cfg.OpenAI.APIKey, openaiOpts...)
	pineconeClient := pinecone.NewClient(cfg.Pinecone.APIKey, cfg.Pinecone.IndexHost)

	var exaOpts []exa.ClientOption
	if cfg.Exa.BaseURL != "" {
		exaOpts = append(exaOpts, exa.WithBaseURL(cfg.Exa.BaseURL))
	}
	exaClient := exa.NewClient(cfg.Exa.APIKey, exaOpts...)

	// Tooling
	adapter := retrieval.NewAdapter(pineconeClient, cfg.Pinecone.Namespace, cfg.Pinecone.TopK, logger)
	webSearch := websearch.NewService(exaClient, cfg.Exa.NumResults, logger)
	registry, err := tools.NewRegistry(
		tools.NewSearchReviewsTool(adapter),
		tools.NewWebSearchTool(webSearch),
	)
	if err != nil {
		log.Fatalf("Failed to build tool registry: %v", err)
	}

	gate := moderation.NewGate(openaiClient, cfg.Moderation.Model, logger)
	capability := openai.NewCapability(openaiClient, cfg.OpenAI.Model)

	orch, err := orchestrator.New(orchestrator.Config{
		Capability:      capability,
		Gate:            gate,
		Registry:        registry,
		MaxSteps:        cfg.Agent.MaxSteps,
		SendReasoning:   cfg.Agent.SendReasoning,
		ReasoningEffort: cfg.OpenAI.ReasoningEffort,
		Logger:          logger,
	})
	if err != nil {
		log.Fatalf("Failed to build orchestrator: %v", err)
	}

	// Turn audit store
	var store storage.Store
	switch cfg.Storage.Type {
	case "sqlite":
		store, err = sqlitestore.New(cfg.Storage.SQLite.Path)
		if err != nil {
			log.Fatalf("Failed to open sqlite store: %v", err)
		}
	case "memory":
		store = memorystore.New()
	}
	if store != nil {
		defer store.Close()
	}

	counter := tokens.NewCounter(cfg.OpenAI.Model)
	chat := server.NewChatHandler(orch, store, counter, logger)
	srv := server.New(cfg.Server.Port, requestTimeout, chat, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-sigChan:
		logger.Info("Shutdown signal received, stopping server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("Shutdown complete")
}
