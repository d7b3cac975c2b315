package agent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/conclave-ai/conclave/pkg/prompt"
)

// groundingScorePattern matches the leading numeric score in the
// grounding model's reply, e.g. "0.85" or "Score: 0.85".
var groundingScorePattern = regexp.MustCompile(`([01](?:\.\d+)?)`)

// GroundingAgent verifies that a generated answer's claims are
// supported by its cited sources, producing a grounding score in [0,1].
type GroundingAgent struct {
	name     string
	provider string
	llm      LLMClient
	prompts  *prompt.Builder
	memory   *Memory
}

// NewGroundingAgent creates a grounding verification agent.
func NewGroundingAgent(name, provider string, llm LLMClient, prompts *prompt.Builder) *GroundingAgent {
	return &GroundingAgent{
		name:     name,
		provider: provider,
		llm:      llm,
		prompts:  prompts,
		memory:   NewMemory(),
	}
}

func (a *GroundingAgent) Name() string { return a.name }

func (a *GroundingAgent) Kind() Kind { return KindGrounding }

// Memory exposes the agent's bounded memory ring.
func (a *GroundingAgent) Memory() *Memory { return a.memory }

// Execute checks input.Response against input.Sources. The model is
// asked for a score on the first line; an unparsable score falls back
// to a neutral 0.5 rather than failing the verification.
func (a *GroundingAgent) Execute(ctx context.Context, input Input) Result {
	start := time.Now()

	system, err := a.prompts.RenderSystem(prompt.RoleGrounding)
	if err != nil {
		return failedResult(a.name, KindGrounding, start, fmt.Sprintf("render system prompt: %v", err))
	}
	checkPrompt, err := a.prompts.BuildGroundingPrompt(input.Response, input.Sources)
	if err != nil {
		return failedResult(a.name, KindGrounding, start, fmt.Sprintf("build grounding prompt: %v", err))
	}

	resp, err := a.llm.Invoke(ctx, InvokeRequest{
		Prompt:        checkPrompt,
		SystemMessage: system,
		Provider:      a.provider,
	})
	if err != nil {
		return failedResult(a.name, KindGrounding, start, fmt.Sprintf("llm invocation: %v", err))
	}

	score, justification := parseGroundingReply(resp.Content)

	a.memory.Append(fmt.Sprintf("grounding check scored %.3f", score))

	return Result{
		Agent:         a.name,
		Kind:          KindGrounding,
		Status:        StatusCompleted,
		Output:        justification,
		Confidence:    score,
		Reasoning:     justification,
		TokenUsage:    resp.TokenUsage,
		ExecutionTime: time.Since(start),
	}
}

// parseGroundingReply extracts the score from the first line and the
// justification from the remainder.
func parseGroundingReply(text string) (float64, string) {
	text = strings.TrimSpace(text)
	firstLine, rest, _ := strings.Cut(text, "\n")

	score := 0.5
	if m := groundingScorePattern.FindStringSubmatch(firstLine); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 0 && v <= 1 {
			score = v
		}
	}

	justification := strings.TrimSpace(rest)
	if justification == "" {
		justification = text
	}
	return score, justification
}
