// Conclave server: answers queries by coordinating retrieval, multiple
// differently-tuned LLM voters, grounding verification, and explanation
// generation into one confidence-scored answer.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/conclave-ai/conclave/pkg/agent"
	"github.com/conclave-ai/conclave/pkg/api"
	"github.com/conclave-ai/conclave/pkg/confidence"
	"github.com/conclave-ai/conclave/pkg/config"
	"github.com/conclave-ai/conclave/pkg/events"
	"github.com/conclave-ai/conclave/pkg/llm"
	"github.com/conclave-ai/conclave/pkg/orchestrator"
	"github.com/conclave-ai/conclave/pkg/prompt"
	"github.com/conclave-ai/conclave/pkg/retrieval"
)

const shutdownTimeout = 15 * time.Second

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"path", envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", envPath)
	}

	slog.Info("Starting Conclave", "config_dir", *configDir)

	// 1. Configuration
	cfg, err := config.Initialize(*configDir)
	if err != nil {
		slog.Error("Failed to initialize configuration", "error", err)
		os.Exit(1)
	}

	// 2. LLM client
	llmClient, err := llm.NewOpenAIClient(llm.Config{
		APIKey:       cfg.LLM.APIKey(),
		BaseURL:      cfg.LLM.BaseURL,
		Model:        cfg.LLM.Model,
		MaxRetries:   cfg.LLM.MaxRetries,
		RetryBackoff: cfg.LLM.RetryBackoff,
	})
	if err != nil {
		slog.Error("Failed to initialize LLM client", "error", err)
		os.Exit(1)
	}

	// 3. Retriever
	retriever, err := retrieval.NewWeaviateRetriever(retrieval.Config{
		Scheme:       cfg.Retrieval.Scheme,
		Host:         cfg.Retrieval.Host,
		ClassName:    cfg.Retrieval.ClassName,
		TopK:         cfg.Retrieval.TopK,
		MinCertainty: cfg.Retrieval.MinCertainty,
	})
	if err != nil {
		slog.Error("Failed to initialize retriever", "error", err)
		os.Exit(1)
	}

	// 4. Agent registry
	prompts := prompt.NewBuilder()
	registry, err := buildRegistry(cfg, llmClient, retriever, prompts)
	if err != nil {
		slog.Error("Failed to build agent registry", "error", err)
		os.Exit(1)
	}
	slog.Info("Agent registry built", "agents", registry.Names())

	// 5. Orchestrator and event bus
	bus := events.NewBus()
	calculator := confidence.NewCalculator(confidence.Weights{
		Similarity:   cfg.Confidence.Similarity,
		Citation:     cfg.Confidence.Citation,
		Grounding:    cfg.Confidence.Grounding,
		QueryQuality: cfg.Confidence.QueryQuality,
	})
	orch := orchestrator.New(registry, llmClient, prompts, calculator, bus, orchestrator.Options{
		Provider:         cfg.LLM.Provider,
		GroundingEnabled: cfg.Orchestrator.Grounding(),
		MaxDebateRounds:  cfg.Orchestrator.MaxDebateRounds,
		HistoryCapacity:  cfg.Orchestrator.HistoryCapacity,
	})

	// 6. HTTP server
	server := api.NewServer(orch, bus, cfg.Server, cfg.Orchestrator.DefaultStrategy)
	httpServer := &http.Server{
		Addr:    server.Addr(),
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.Info("Conclave started successfully")

	// 7. Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("Server error triggered shutdown", "error", err)
	}

	// 8. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	slog.Info("Conclave stopped")
}

// buildRegistry registers the RAG pipeline agents and the configured
// council voters.
func buildRegistry(cfg *config.Config, llmClient agent.LLMClient, retriever agent.Retriever, prompts *prompt.Builder) (*agent.Registry, error) {
	registry := agent.NewRegistry()

	if err := registry.Register(agent.NewResearchAgent(orchestrator.AgentResearch, cfg.LLM.Provider, retriever)); err != nil {
		return nil, err
	}
	if err := registry.Register(agent.NewGroundingAgent(orchestrator.AgentGrounding, cfg.LLM.Provider, llmClient, prompts)); err != nil {
		return nil, err
	}
	if err := registry.Register(agent.NewExplainabilityAgent(orchestrator.AgentExplainability, cfg.LLM.Provider, llmClient, prompts)); err != nil {
		return nil, err
	}

	// Sorted registration keeps the council order, and with it the
	// first-occurrence tie-break, stable across process runs.
	names := make([]string, 0, len(cfg.Voters))
	for name := range cfg.Voters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		vc := cfg.Voters[name]
		voter := agent.NewCouncilVoter(name, vc.Role, vc.Temperature, vc.VoteWeight, cfg.LLM.Provider, llmClient, prompts)
		if err := registry.Register(voter); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
