// Package orchestrator coordinates agents into the two Conclave
// pipelines: the sequential RAG pipeline and the parallel council
// voting pipeline with optional debate rounds. The orchestrator owns
// no agent state beyond the registry reference; per-request state
// lives on the stack of each call.
package orchestrator

import (
	"errors"
	"time"

	"github.com/conclave-ai/conclave/pkg/agent"
	"github.com/conclave-ai/conclave/pkg/confidence"
	"github.com/conclave-ai/conclave/pkg/consensus"
	"github.com/conclave-ai/conclave/pkg/events"
	"github.com/conclave-ai/conclave/pkg/models"
	"github.com/conclave-ai/conclave/pkg/prompt"
)

// Well-known registry names for the RAG pipeline agents.
const (
	AgentResearch       = "research"
	AgentGrounding      = "grounding"
	AgentExplainability = "explainability"
)

// lowConfidenceThreshold marks answers that should carry an explicit
// warning prefix.
const lowConfidenceThreshold = 0.30

// noInformationResponse is returned from the NoDocuments terminal
// state of the RAG pipeline.
const noInformationResponse = "I could not find relevant information in the knowledge base to answer your question. Please try rephrasing your query or broadening its scope."

// lowConfidenceNotice is prepended to answers whose final confidence
// falls below the threshold.
const lowConfidenceNotice = "Note: I have low confidence in this answer because the retrieved documents may not fully match your question.\n\n"

// ErrAllVotersFailed is returned when no council voter produced a
// usable vote. Fatal: the caller receives no partial answer.
var ErrAllVotersFailed = errors.New("all council agents failed")

// ErrInvalidDebateRounds rejects an out-of-range debate round count
// before any agent runs.
var ErrInvalidDebateRounds = errors.New("invalid debate round count")

// Options configures orchestrator behavior.
type Options struct {
	// Provider names the LLM backend passed through to agents.
	Provider string
	// GroundingEnabled controls the optional grounding stage of the
	// RAG pipeline.
	GroundingEnabled bool
	// MaxDebateRounds bounds the council debate round count accepted
	// from callers.
	MaxDebateRounds int
	// HistoryCapacity bounds the execution history log.
	HistoryCapacity int
}

// Orchestrator runs the RAG and council pipelines over a fixed agent
// registry. Safe for concurrent use: all mutable state is confined to
// the history log, which locks internally.
type Orchestrator struct {
	registry   *agent.Registry
	llm        agent.LLMClient
	prompts    *prompt.Builder
	aggregator *consensus.Aggregator
	calculator *confidence.Calculator
	bus        *events.Bus
	history    *History
	opts       Options
}

// New creates an Orchestrator. The registry must already contain the
// research, grounding, and explainability agents plus the council
// voters.
func New(registry *agent.Registry, llm agent.LLMClient, prompts *prompt.Builder, calculator *confidence.Calculator, bus *events.Bus, opts Options) *Orchestrator {
	if opts.MaxDebateRounds <= 0 {
		opts.MaxDebateRounds = 5
	}
	if opts.HistoryCapacity <= 0 {
		opts.HistoryCapacity = defaultHistoryCapacity
	}
	o := &Orchestrator{
		registry:   registry,
		llm:        llm,
		prompts:    prompts,
		calculator: calculator,
		bus:        bus,
		history:    NewHistory(opts.HistoryCapacity),
		opts:       opts,
	}
	o.aggregator = consensus.NewAggregator(&llmSynthesizer{llm: llm, prompts: prompts, provider: opts.Provider})
	return o
}

// History returns the execution history log.
func (o *Orchestrator) History() *History {
	return o.history
}

// QueryRequest is the input to the RAG pipeline.
type QueryRequest struct {
	Query     string
	Filters   map[string]any
	UserID    string
	SessionID string
}

// QueryResult is the output of the RAG pipeline.
type QueryResult struct {
	Response             string                        `json:"response"`
	Confidence           float64                       `json:"confidence"`
	Sources              []models.RetrievedDocument    `json:"sources"`
	Explanation          string                        `json:"explanation,omitempty"`
	ReasoningChain       []string                      `json:"reasoning_chain"`
	LowConfidenceWarning bool                          `json:"low_confidence_warning"`
	NoDocumentsFound     bool                          `json:"no_documents_found"`
	QueryQuality         *models.QueryQualityReport    `json:"query_quality,omitempty"`
	TokenUsage           *models.TokenUsageAccumulator `json:"token_usage"`
	ExecutionTime        time.Duration                 `json:"-"`
}

// CouncilRequest is the input to the council voting pipeline.
type CouncilRequest struct {
	Query            string
	Strategy         string
	IncludeSynthesis bool
	DebateRounds     int
	SessionID        string
}

// CouncilResult is the output of the council voting pipeline.
type CouncilResult struct {
	Aggregation   *models.AggregationResult `json:"aggregation"`
	Votes         []models.Vote             `json:"votes"`
	FailedVotes   []models.FailedVote       `json:"failed_votes,omitempty"`
	Metrics       models.ConsensusMetrics   `json:"consensus_metrics"`
	DebateRounds  int                       `json:"debate_rounds"`
	DebateHistory []models.DebateRound      `json:"debate_history,omitempty"`
	TokenUsage    models.TokenUsage         `json:"token_usage"`
	ExecutionTime time.Duration             `json:"-"`
}
