package config

import (
	"fmt"

	"github.com/conclave-ai/conclave/pkg/consensus"
	"github.com/conclave-ai/conclave/pkg/prompt"
)

// Validator validates a merged configuration fail-fast with clear
// error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll checks every section, stopping at the first error.
func (v *Validator) ValidateAll() error {
	if err := v.validateServer(); err != nil {
		return err
	}
	if err := v.validateLLM(); err != nil {
		return err
	}
	if err := v.validateRetrieval(); err != nil {
		return err
	}
	if err := v.validateOrchestrator(); err != nil {
		return err
	}
	if err := v.validateConfidence(); err != nil {
		return err
	}
	return v.validateVoters()
}

func (v *Validator) validateServer() error {
	if v.cfg.Server.Port < 1 || v.cfg.Server.Port > 65535 {
		return NewValidationError("server", "port", fmt.Errorf("must be 1-65535, got %d", v.cfg.Server.Port))
	}
	return nil
}

func (v *Validator) validateLLM() error {
	if v.cfg.LLM.Model == "" {
		return NewValidationError("llm", "model", fmt.Errorf("must not be empty"))
	}
	if v.cfg.LLM.APIKeyEnv == "" {
		return NewValidationError("llm", "api_key_env", fmt.Errorf("must not be empty"))
	}
	return nil
}

func (v *Validator) validateRetrieval() error {
	if v.cfg.Retrieval.Host == "" {
		return NewValidationError("retrieval", "host", fmt.Errorf("must not be empty"))
	}
	if v.cfg.Retrieval.ClassName == "" {
		return NewValidationError("retrieval", "class_name", fmt.Errorf("must not be empty"))
	}
	if v.cfg.Retrieval.TopK < 1 {
		return NewValidationError("retrieval", "top_k", fmt.Errorf("must be at least 1, got %d", v.cfg.Retrieval.TopK))
	}
	if v.cfg.Retrieval.MinCertainty < 0 || v.cfg.Retrieval.MinCertainty > 1 {
		return NewValidationError("retrieval", "min_certainty", fmt.Errorf("must be in [0,1], got %g", v.cfg.Retrieval.MinCertainty))
	}
	return nil
}

func (v *Validator) validateOrchestrator() error {
	if v.cfg.Orchestrator.MaxDebateRounds < 1 {
		return NewValidationError("orchestrator", "max_debate_rounds", fmt.Errorf("must be at least 1, got %d", v.cfg.Orchestrator.MaxDebateRounds))
	}
	if v.cfg.Orchestrator.HistoryCapacity < 1 {
		return NewValidationError("orchestrator", "history_capacity", fmt.Errorf("must be at least 1, got %d", v.cfg.Orchestrator.HistoryCapacity))
	}
	if !consensus.ValidStrategy(v.cfg.Orchestrator.DefaultStrategy) {
		return NewValidationError("orchestrator", "default_strategy", fmt.Errorf("unknown strategy %q", v.cfg.Orchestrator.DefaultStrategy))
	}
	return nil
}

func (v *Validator) validateConfidence() error {
	c := v.cfg.Confidence
	for field, w := range map[string]float64{
		"similarity":    c.Similarity,
		"citation":      c.Citation,
		"grounding":     c.Grounding,
		"query_quality": c.QueryQuality,
	} {
		if w < 0 {
			return NewValidationError("confidence", field, fmt.Errorf("must not be negative, got %g", w))
		}
	}
	if c.Similarity+c.Citation+c.Grounding+c.QueryQuality <= 0 {
		return NewValidationError("confidence", "", fmt.Errorf("at least one weight must be positive"))
	}
	return nil
}

func (v *Validator) validateVoters() error {
	if len(v.cfg.Voters) == 0 {
		return NewValidationError("voters", "", fmt.Errorf("at least one voter required"))
	}
	validRoles := map[string]bool{
		prompt.RoleAnalytical: true,
		prompt.RoleCreative:   true,
		prompt.RoleCritical:   true,
	}
	for name, voter := range v.cfg.Voters {
		if !validRoles[voter.Role] {
			return NewValidationError("voter "+name, "role", fmt.Errorf("unknown role %q", voter.Role))
		}
		if voter.Temperature < 0 || voter.Temperature > 2 {
			return NewValidationError("voter "+name, "temperature", fmt.Errorf("must be in [0,2], got %g", voter.Temperature))
		}
		if voter.VoteWeight <= 0 {
			return NewValidationError("voter "+name, "vote_weight", fmt.Errorf("must be positive, got %g", voter.VoteWeight))
		}
	}
	return nil
}
