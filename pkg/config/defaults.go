package config

import (
	"time"

	"github.com/conclave-ai/conclave/pkg/prompt"
)

// Defaults returns the built-in configuration. Every field a user file
// can override has a working default so a bare install starts up.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		LLM: LLMConfig{
			Provider:     "openai",
			Model:        "gpt-4o-mini",
			APIKeyEnv:    "OPENAI_API_KEY",
			MaxRetries:   2,
			RetryBackoff: 500 * time.Millisecond,
		},
		Retrieval: RetrievalConfig{
			Scheme:    "http",
			Host:      "localhost:8081",
			ClassName: "Document",
			TopK:      5,
		},
		Orchestrator: OrchestratorConfig{
			MaxDebateRounds: 5,
			HistoryCapacity: 1000,
			DefaultStrategy: "weighted_confidence",
		},
		Confidence: ConfidenceConfig{
			Similarity:   0.6,
			Citation:     0.2,
			Grounding:    0.1,
			QueryQuality: 0.1,
		},
		Voters: map[string]VoterConfig{
			"analytical": {Role: prompt.RoleAnalytical, Temperature: 0.3, VoteWeight: 1.0},
			"creative":   {Role: prompt.RoleCreative, Temperature: 0.9, VoteWeight: 1.0},
			"critical":   {Role: prompt.RoleCritical, Temperature: 0.5, VoteWeight: 1.0},
		},
	}
}
