// Package agent provides the core agent framework for Conclave.
// Agents answer queries using LLM calls and, for the research agent,
// vector retrieval. Agent-level failures are converted into a failed
// Result value; no error crosses the agent boundary as a Go error.
package agent

import (
	"context"
	"time"

	"github.com/conclave-ai/conclave/pkg/models"
)

// Kind identifies the behavioral variant of an agent.
type Kind string

const (
	KindResearch       Kind = "research"
	KindGrounding      Kind = "grounding"
	KindExplainability Kind = "explainability"
	KindCouncilVoter   Kind = "council_voter"
)

// Status is the terminal status of an agent execution.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Agent is the contract every Conclave agent implements.
//
// Execute never returns a Go error and never panics past its own
// boundary: internal failures are converted to a Result with
// StatusFailed. Every Result carries the elapsed wall time.
type Agent interface {
	// Name returns the agent's registry name.
	Name() string
	// Kind returns the agent's behavioral variant.
	Kind() Kind
	// Execute runs the agent against the given input.
	Execute(ctx context.Context, input Input) Result
}

// Input carries the agent-specific inputs for one execution.
// Voters read Query/Context/Documents. Research reads Query/Filters.
// Grounding and explainability read Response/Sources.
type Input struct {
	Query     string
	Context   string
	Documents []models.RetrievedDocument

	// Retrieval filters (research agent only).
	Filters map[string]any
	UserID  string

	// Generated answer under verification (grounding/explainability).
	Response string
	Sources  []models.RetrievedDocument
	// Process description for explanation generation.
	Process string
}

// Result is the tagged outcome of one agent execution. Status
// discriminates the two variants: StatusCompleted populates the payload
// fields, StatusFailed populates Err. ExecutionTime is set on both.
type Result struct {
	Agent  string
	Kind   Kind
	Status Status

	// Completed variant.
	Output     string
	Confidence float64
	Reasoning  string
	Evidence   []string
	Documents  []models.RetrievedDocument // research agent payload
	Report     *models.QueryQualityReport // research agent payload
	TokenUsage models.TokenUsage

	// Failed variant.
	Err string

	ExecutionTime time.Duration
}

// Completed reports whether the result is the completed variant.
func (r Result) Completed() bool { return r.Status == StatusCompleted }

// ExecutionTimeSeconds returns the wall time in seconds, rounded to
// milliseconds for stable JSON output.
func (r Result) ExecutionTimeSeconds() float64 {
	return float64(r.ExecutionTime.Milliseconds()) / 1000
}

// Vote converts a completed voter result into a Vote for aggregation.
// Must only be called on completed council voter results.
func (r Result) Vote(weight float64, temperature float32) models.Vote {
	return models.Vote{
		Agent:              r.Agent,
		Response:           r.Output,
		Confidence:         r.Confidence,
		Reasoning:          r.Reasoning,
		SupportingEvidence: r.Evidence,
		VoteWeight:         weight,
		Temperature:        temperature,
	}
}

// failedResult builds the failed variant with elapsed wall time.
func failedResult(name string, kind Kind, start time.Time, errMsg string) Result {
	return Result{
		Agent:         name,
		Kind:          kind,
		Status:        StatusFailed,
		Err:           errMsg,
		ExecutionTime: time.Since(start),
	}
}
