package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/conclave-ai/conclave/pkg/prompt"
)

// ExplainabilityAgent generates a plain-language explanation of how an
// answer was produced, plus a reasoning chain for the final result.
type ExplainabilityAgent struct {
	name     string
	provider string
	llm      LLMClient
	prompts  *prompt.Builder
	memory   *Memory
}

// NewExplainabilityAgent creates an explanation-generation agent.
func NewExplainabilityAgent(name, provider string, llm LLMClient, prompts *prompt.Builder) *ExplainabilityAgent {
	return &ExplainabilityAgent{
		name:     name,
		provider: provider,
		llm:      llm,
		prompts:  prompts,
		memory:   NewMemory(),
	}
}

func (a *ExplainabilityAgent) Name() string { return a.name }

func (a *ExplainabilityAgent) Kind() Kind { return KindExplainability }

// Memory exposes the agent's bounded memory ring.
func (a *ExplainabilityAgent) Memory() *Memory { return a.memory }

// Execute explains how input.Response was derived from input.Sources,
// given the pipeline's process description.
func (a *ExplainabilityAgent) Execute(ctx context.Context, input Input) Result {
	start := time.Now()

	system, err := a.prompts.RenderSystem(prompt.RoleExplainability)
	if err != nil {
		return failedResult(a.name, KindExplainability, start, fmt.Sprintf("render system prompt: %v", err))
	}
	explainPrompt, err := a.prompts.BuildExplanationPrompt(input.Response, input.Sources, input.Process)
	if err != nil {
		return failedResult(a.name, KindExplainability, start, fmt.Sprintf("build explanation prompt: %v", err))
	}

	resp, err := a.llm.Invoke(ctx, InvokeRequest{
		Prompt:        explainPrompt,
		SystemMessage: system,
		Provider:      a.provider,
	})
	if err != nil {
		return failedResult(a.name, KindExplainability, start, fmt.Sprintf("llm invocation: %v", err))
	}

	a.memory.Append("generated answer explanation")

	return Result{
		Agent:         a.name,
		Kind:          KindExplainability,
		Status:        StatusCompleted,
		Output:        resp.Content,
		Confidence:    1.0,
		Reasoning:     resp.Content,
		TokenUsage:    resp.TokenUsage,
		ExecutionTime: time.Since(start),
	}
}
