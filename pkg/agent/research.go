package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/conclave-ai/conclave/pkg/confidence"
)

// ResearchAgent retrieves supporting documents for a query. It screens
// the query for gibberish first and attaches the quality report to the
// retrieval result so downstream confidence scoring can read it.
type ResearchAgent struct {
	name      string
	provider  string
	retriever Retriever
	memory    *Memory
}

// NewResearchAgent creates a research agent backed by the given
// retriever.
func NewResearchAgent(name, provider string, retriever Retriever) *ResearchAgent {
	return &ResearchAgent{
		name:      name,
		provider:  provider,
		retriever: retriever,
		memory:    NewMemory(),
	}
}

func (a *ResearchAgent) Name() string { return a.name }

func (a *ResearchAgent) Kind() Kind { return KindResearch }

// Memory exposes the agent's bounded memory ring.
func (a *ResearchAgent) Memory() *Memory { return a.memory }

// Execute retrieves documents for input.Query with optional metadata
// filters. Retrieval failures become a failed result, never an error.
func (a *ResearchAgent) Execute(ctx context.Context, input Input) Result {
	start := time.Now()

	report := confidence.ValidateQuery(input.Query)

	docs, err := a.retriever.Retrieve(ctx, input.Query, a.provider, input.Filters, input.UserID)
	if err != nil {
		return failedResult(a.name, KindResearch, start, fmt.Sprintf("retrieval: %v", err))
	}

	a.memory.Append(fmt.Sprintf("retrieved %d documents for %q", len(docs), firstN(input.Query, 80)))

	return Result{
		Agent:         a.name,
		Kind:          KindResearch,
		Status:        StatusCompleted,
		Output:        fmt.Sprintf("retrieved %d documents", len(docs)),
		Confidence:    report.QualityScore,
		Reasoning:     fmt.Sprintf("metadata-boosted retrieval returned %d documents", len(docs)),
		Documents:     docs,
		Report:        &report,
		ExecutionTime: time.Since(start),
	}
}
