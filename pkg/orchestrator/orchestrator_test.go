package orchestrator

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/pkg/agent"
	"github.com/conclave-ai/conclave/pkg/confidence"
	"github.com/conclave-ai/conclave/pkg/events"
	"github.com/conclave-ai/conclave/pkg/models"
	"github.com/conclave-ai/conclave/pkg/prompt"
)

// scriptedLLM routes each invocation through a test-provided function
// and counts calls.
type scriptedLLM struct {
	route func(req agent.InvokeRequest) (string, error)
	calls atomic.Int64
}

func (s *scriptedLLM) Invoke(_ context.Context, req agent.InvokeRequest) (*agent.InvokeResponse, error) {
	s.calls.Add(1)
	content, err := s.route(req)
	if err != nil {
		return nil, err
	}
	return &agent.InvokeResponse{
		Content:    content,
		TokenUsage: models.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

// Request classification helpers keyed off the built-in system prompts.
func isVoterCall(req agent.InvokeRequest) bool {
	return strings.Contains(req.SystemMessage, "evaluator")
}

func isGenerationCall(req agent.InvokeRequest) bool {
	return strings.Contains(req.SystemMessage, "strictly from the provided sources")
}

func isGroundingCall(req agent.InvokeRequest) bool {
	return strings.Contains(req.SystemMessage, "supported by their")
}

func isExplanationCall(req agent.InvokeRequest) bool {
	return strings.Contains(req.SystemMessage, "explain how an AI system")
}

func isDebateCall(req agent.InvokeRequest) bool {
	return strings.Contains(req.Prompt, "Previous round consensus")
}

func voterRole(req agent.InvokeRequest) string {
	switch {
	case strings.Contains(req.SystemMessage, "analytical"):
		return "analytical"
	case strings.Contains(req.SystemMessage, "creative"):
		return "creative"
	default:
		return "critical"
	}
}

// longReasoning exceeds the reasoning-bonus threshold.
var longReasoning = strings.Repeat("the evidence strongly supports this conclusion ", 6)

func voterReply(answer, confidenceText string) string {
	return "RESPONSE:\n" + answer + "\nREASONING:\n" + longReasoning + "\nCONFIDENCE:\n" + confidenceText
}

// voterReplyBrief keeps the reasoning under the bonus threshold so the
// derived confidence equals the keyword base.
func voterReplyBrief(answer, confidenceText string) string {
	return "RESPONSE:\n" + answer + "\nREASONING:\nbrief\nCONFIDENCE:\n" + confidenceText
}

// stubRetriever returns fixed documents or an error.
type stubRetriever struct {
	docs []models.RetrievedDocument
	err  error
}

func (s *stubRetriever) Retrieve(_ context.Context, _, _ string, _ map[string]any, _ string) ([]models.RetrievedDocument, error) {
	return s.docs, s.err
}

// newTestOrchestrator wires a full orchestrator over mock collaborators
// with the standard agent set.
func newTestOrchestrator(t *testing.T, llm agent.LLMClient, retriever agent.Retriever, opts Options) (*Orchestrator, *events.Bus) {
	t.Helper()

	prompts := prompt.NewBuilder()
	registry := agent.NewRegistry()
	require.NoError(t, registry.Register(agent.NewResearchAgent(AgentResearch, "openai", retriever)))
	require.NoError(t, registry.Register(agent.NewGroundingAgent(AgentGrounding, "openai", llm, prompts)))
	require.NoError(t, registry.Register(agent.NewExplainabilityAgent(AgentExplainability, "openai", llm, prompts)))
	require.NoError(t, registry.Register(agent.NewCouncilVoter("analytical", prompt.RoleAnalytical, agent.TemperatureAnalytical, agent.DefaultVoteWeight, "openai", llm, prompts)))
	require.NoError(t, registry.Register(agent.NewCouncilVoter("creative", prompt.RoleCreative, agent.TemperatureCreative, agent.DefaultVoteWeight, "openai", llm, prompts)))
	require.NoError(t, registry.Register(agent.NewCouncilVoter("critical", prompt.RoleCritical, agent.TemperatureCritical, agent.DefaultVoteWeight, "openai", llm, prompts)))

	bus := events.NewBus()
	calculator := confidence.NewCalculator(confidence.DefaultWeights())
	return New(registry, llm, prompts, calculator, bus, opts), bus
}

func goodDocs() []models.RetrievedDocument {
	return []models.RetrievedDocument{
		{ID: "d1", Content: "Paris is the capital of France.", Similarity: 0.9},
		{ID: "d2", Content: "France is a country in Europe.", Similarity: 0.8},
	}
}
