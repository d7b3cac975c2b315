// Package config loads and validates Conclave's YAML configuration.
// Built-in defaults are merged with the user file (user values win),
// environment variables are expanded before parsing, and the result is
// validated fail-fast at startup.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Config is the complete, validated runtime configuration.
type Config struct {
	Server       ServerConfig           `yaml:"server"`
	LLM          LLMConfig              `yaml:"llm"`
	Retrieval    RetrievalConfig        `yaml:"retrieval"`
	Orchestrator OrchestratorConfig     `yaml:"orchestrator"`
	Confidence   ConfidenceConfig       `yaml:"confidence"`
	Voters       map[string]VoterConfig `yaml:"voters"`
}

// ServerConfig groups HTTP server settings.
type ServerConfig struct {
	Host             string   `yaml:"host"`
	Port             int      `yaml:"port"`
	AllowedWSOrigins []string `yaml:"allowed_ws_origins"`
}

// LLMConfig configures the LLM backend.
type LLMConfig struct {
	Provider     string        `yaml:"provider"`
	Model        string        `yaml:"model"`
	BaseURL      string        `yaml:"base_url"`
	APIKeyEnv    string        `yaml:"api_key_env"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// APIKey resolves the configured API key environment variable.
func (c LLMConfig) APIKey() string {
	return os.Getenv(c.APIKeyEnv)
}

// RetrievalConfig configures the vector store.
type RetrievalConfig struct {
	Scheme       string  `yaml:"scheme"`
	Host         string  `yaml:"host"`
	ClassName    string  `yaml:"class_name"`
	TopK         int     `yaml:"top_k"`
	MinCertainty float64 `yaml:"min_certainty"`
}

// OrchestratorConfig configures pipeline behavior.
type OrchestratorConfig struct {
	GroundingEnabled *bool  `yaml:"grounding_enabled,omitempty"`
	MaxDebateRounds  int    `yaml:"max_debate_rounds"`
	HistoryCapacity  int    `yaml:"history_capacity"`
	DefaultStrategy  string `yaml:"default_strategy"`
}

// Grounding reports whether the grounding stage is enabled,
// defaulting to true when unset.
func (c OrchestratorConfig) Grounding() bool {
	return c.GroundingEnabled == nil || *c.GroundingEnabled
}

// ConfidenceConfig holds the confidence component weights.
type ConfidenceConfig struct {
	Similarity   float64 `yaml:"similarity"`
	Citation     float64 `yaml:"citation"`
	Grounding    float64 `yaml:"grounding"`
	QueryQuality float64 `yaml:"query_quality"`
}

// VoterConfig configures one council voter.
type VoterConfig struct {
	Role        string  `yaml:"role"`
	Temperature float32 `yaml:"temperature"`
	VoteWeight  float64 `yaml:"vote_weight"`
}

// Initialize loads, merges, and validates the configuration. The file
// is optional: a missing conclave.yaml yields the built-in defaults.
func Initialize(configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := NewValidator(cfg).ValidateAll(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	log.Info("Configuration initialized successfully",
		"voters", len(cfg.Voters),
		"grounding_enabled", cfg.Orchestrator.Grounding(),
		"default_strategy", cfg.Orchestrator.DefaultStrategy)
	return cfg, nil
}

func load(configDir string) (*Config, error) {
	cfg := Defaults()

	path := filepath.Join(configDir, "conclave.yaml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Info("No configuration file found, using built-in defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigNotFound, path, err)
	}

	var user Config
	if err := yaml.Unmarshal(ExpandEnv(data), &user); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidYAML, path, err)
	}

	// User values override defaults; voter maps merge per name.
	if err := mergo.Merge(cfg, &user, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merging configuration: %w", err)
	}
	return cfg, nil
}
