package orchestrator

import (
	"context"
	"fmt"

	"github.com/conclave-ai/conclave/pkg/agent"
	"github.com/conclave-ai/conclave/pkg/models"
	"github.com/conclave-ai/conclave/pkg/prompt"
)

// llmSynthesizer implements consensus.Synthesizer with one LLM call
// that integrates every vote into a single answer.
type llmSynthesizer struct {
	llm      agent.LLMClient
	prompts  *prompt.Builder
	provider string
}

func (s *llmSynthesizer) Synthesize(ctx context.Context, votes []models.Vote) (string, models.TokenUsage, error) {
	p, err := s.prompts.BuildSynthesisPrompt(votes)
	if err != nil {
		return "", models.TokenUsage{}, fmt.Errorf("building synthesis prompt: %w", err)
	}
	system, err := s.prompts.RenderSystem(prompt.RoleSynthesis)
	if err != nil {
		return "", models.TokenUsage{}, fmt.Errorf("rendering synthesis system prompt: %w", err)
	}

	resp, err := s.llm.Invoke(ctx, agent.InvokeRequest{
		Prompt:        p,
		SystemMessage: system,
		Provider:      s.provider,
	})
	if err != nil {
		return "", models.TokenUsage{}, fmt.Errorf("synthesis call: %w", err)
	}
	return resp.Content, resp.TokenUsage, nil
}
