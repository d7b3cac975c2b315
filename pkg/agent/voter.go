package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/conclave-ai/conclave/pkg/prompt"
)

// Default council voter tuning. The three voters share one algorithm
// and differ only in temperature and system-prompt role.
const (
	TemperatureAnalytical float32 = 0.3
	TemperatureCreative   float32 = 0.9
	TemperatureCritical   float32 = 0.5

	// DefaultVoteWeight applies to all voters unless configured.
	DefaultVoteWeight = 1.0
)

// CouncilVoter evaluates a query with an LLM at a fixed temperature and
// returns a structured vote. Three differently-tuned instances form the
// council.
type CouncilVoter struct {
	name        string
	role        string
	temperature float32
	voteWeight  float64
	provider    string

	llm     LLMClient
	prompts *prompt.Builder
	memory  *Memory
}

// NewCouncilVoter creates a voter. role selects the system prompt
// (prompt.RoleAnalytical, RoleCreative, RoleCritical).
func NewCouncilVoter(name, role string, temperature float32, voteWeight float64, provider string, llm LLMClient, prompts *prompt.Builder) *CouncilVoter {
	return &CouncilVoter{
		name:        name,
		role:        role,
		temperature: temperature,
		voteWeight:  voteWeight,
		provider:    provider,
		llm:         llm,
		prompts:     prompts,
		memory:      NewMemory(),
	}
}

func (v *CouncilVoter) Name() string { return v.name }

func (v *CouncilVoter) Kind() Kind { return KindCouncilVoter }

// VoteWeight returns the voter's aggregation weight.
func (v *CouncilVoter) VoteWeight() float64 { return v.voteWeight }

// Temperature returns the voter's sampling temperature.
func (v *CouncilVoter) Temperature() float32 { return v.temperature }

// Memory exposes the voter's bounded memory ring.
func (v *CouncilVoter) Memory() *Memory { return v.memory }

// Execute evaluates the query and parses the model's sectioned output
// into a vote. All failures are captured in the result.
func (v *CouncilVoter) Execute(ctx context.Context, input Input) Result {
	start := time.Now()

	system, err := v.prompts.RenderSystem(v.role)
	if err != nil {
		return failedResult(v.name, KindCouncilVoter, start, fmt.Sprintf("render system prompt: %v", err))
	}
	evalPrompt, err := v.prompts.BuildVoterEvaluationPrompt(input.Query, input.Context, input.Documents)
	if err != nil {
		return failedResult(v.name, KindCouncilVoter, start, fmt.Sprintf("build evaluation prompt: %v", err))
	}

	resp, err := v.llm.Invoke(ctx, InvokeRequest{
		Prompt:        evalPrompt,
		SystemMessage: system,
		Provider:      v.provider,
		Temperature:   v.temperature,
	})
	if err != nil {
		return failedResult(v.name, KindCouncilVoter, start, fmt.Sprintf("llm invocation: %v", err))
	}

	parsed := ParseVoterResponse(resp.Content)
	confidence := DeriveConfidence(parsed, input.Documents)

	v.memory.Append(fmt.Sprintf("voted on %q with confidence %.3f", firstN(input.Query, 80), confidence))

	return Result{
		Agent:         v.name,
		Kind:          KindCouncilVoter,
		Status:        StatusCompleted,
		Output:        parsed.Response,
		Confidence:    confidence,
		Reasoning:     parsed.Reasoning,
		Evidence:      parsed.Evidence,
		TokenUsage:    resp.TokenUsage,
		ExecutionTime: time.Since(start),
	}
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
