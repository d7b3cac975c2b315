package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAll(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, NewValidator(Defaults()).ValidateAll())
	})

	tests := []struct {
		name      string
		mutate    func(*Config)
		component string
		field     string
	}{
		{
			name:      "port out of range",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			component: "server",
			field:     "port",
		},
		{
			name:      "empty model",
			mutate:    func(c *Config) { c.LLM.Model = "" },
			component: "llm",
			field:     "model",
		},
		{
			name:      "empty api key env",
			mutate:    func(c *Config) { c.LLM.APIKeyEnv = "" },
			component: "llm",
			field:     "api_key_env",
		},
		{
			name:      "empty retrieval host",
			mutate:    func(c *Config) { c.Retrieval.Host = "" },
			component: "retrieval",
			field:     "host",
		},
		{
			name:      "empty class name",
			mutate:    func(c *Config) { c.Retrieval.ClassName = "" },
			component: "retrieval",
			field:     "class_name",
		},
		{
			name:      "zero top k",
			mutate:    func(c *Config) { c.Retrieval.TopK = 0 },
			component: "retrieval",
			field:     "top_k",
		},
		{
			name:      "certainty above one",
			mutate:    func(c *Config) { c.Retrieval.MinCertainty = 1.5 },
			component: "retrieval",
			field:     "min_certainty",
		},
		{
			name:      "zero debate rounds",
			mutate:    func(c *Config) { c.Orchestrator.MaxDebateRounds = 0 },
			component: "orchestrator",
			field:     "max_debate_rounds",
		},
		{
			name:      "zero history capacity",
			mutate:    func(c *Config) { c.Orchestrator.HistoryCapacity = 0 },
			component: "orchestrator",
			field:     "history_capacity",
		},
		{
			name:      "unknown strategy",
			mutate:    func(c *Config) { c.Orchestrator.DefaultStrategy = "plurality" },
			component: "orchestrator",
			field:     "default_strategy",
		},
		{
			name:      "negative confidence weight",
			mutate:    func(c *Config) { c.Confidence.Citation = -0.1 },
			component: "confidence",
			field:     "citation",
		},
		{
			name: "all weights zero",
			mutate: func(c *Config) {
				c.Confidence = ConfidenceConfig{}
			},
			component: "confidence",
			field:     "",
		},
		{
			name:      "no voters",
			mutate:    func(c *Config) { c.Voters = nil },
			component: "voters",
			field:     "",
		},
		{
			name: "unknown voter role",
			mutate: func(c *Config) {
				v := c.Voters["analytical"]
				v.Role = "philosophical"
				c.Voters["analytical"] = v
			},
			component: "voter analytical",
			field:     "role",
		},
		{
			name: "temperature out of range",
			mutate: func(c *Config) {
				v := c.Voters["creative"]
				v.Temperature = 2.5
				c.Voters["creative"] = v
			},
			component: "voter creative",
			field:     "temperature",
		},
		{
			name: "non-positive vote weight",
			mutate: func(c *Config) {
				v := c.Voters["critical"]
				v.VoteWeight = 0
				c.Voters["critical"] = v
			},
			component: "voter critical",
			field:     "vote_weight",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)

			err := NewValidator(cfg).ValidateAll()
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.component, verr.Component)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
