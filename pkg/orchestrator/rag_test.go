package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/pkg/agent"
)

func TestExecuteQuery(t *testing.T) {
	t.Run("full pipeline with grounding", func(t *testing.T) {
		llm := &scriptedLLM{route: func(req agent.InvokeRequest) (string, error) {
			switch {
			case isGenerationCall(req):
				return "Paris is the capital [Source 1], confirmed by [Source 2].", nil
			case isGroundingCall(req):
				return "0.9\nEvery claim is backed by a source.", nil
			case isExplanationCall(req):
				return "The answer came from two highly similar documents.", nil
			default:
				return "", errors.New("unexpected call")
			}
		}}
		orch, _ := newTestOrchestrator(t, llm, &stubRetriever{docs: goodDocs()}, Options{
			Provider:         "openai",
			GroundingEnabled: true,
		})

		result, err := orch.ExecuteQuery(context.Background(), QueryRequest{
			Query: "What is the capital of France?",
		})
		require.NoError(t, err)

		assert.False(t, result.NoDocumentsFound)
		assert.False(t, result.LowConfidenceWarning)
		assert.Equal(t, "Paris is the capital [Source 1], confirmed by [Source 2].", result.Response)
		assert.Len(t, result.Sources, 2)
		assert.Equal(t, "The answer came from two highly similar documents.", result.Explanation)
		assert.NotEmpty(t, result.ReasoningChain)

		// Generation score: sim 0.85*0.6 + citation 1.0*0.2 + grounding
		// 1.0*0.1 + quality 1.0*0.1 = 0.91, blended 70/30 with the 0.9
		// grounding check.
		assert.InDelta(t, 0.907, result.Confidence, 0.001)

		require.NotNil(t, result.TokenUsage)
		ops := make([]string, 0, len(result.TokenUsage.Operations))
		for _, op := range result.TokenUsage.Operations {
			ops = append(ops, op.Operation)
		}
		assert.Equal(t, []string{"retrieval", "generation", "grounding", "explanation"}, ops)

		entries := orch.History().Entries()
		require.Len(t, entries, 1)
		assert.True(t, entries[0].Success)
		assert.Equal(t, "rag", entries[0].Pipeline)
	})

	t.Run("empty retrieval terminates with a no-information answer", func(t *testing.T) {
		llm := &scriptedLLM{route: func(agent.InvokeRequest) (string, error) {
			return "", errors.New("no llm call expected")
		}}
		orch, _ := newTestOrchestrator(t, llm, &stubRetriever{}, Options{Provider: "openai", GroundingEnabled: true})

		result, err := orch.ExecuteQuery(context.Background(), QueryRequest{Query: "an unanswerable question"})
		require.NoError(t, err, "missing documents are not an error")

		assert.True(t, result.NoDocumentsFound)
		assert.Zero(t, result.Confidence)
		assert.Equal(t, noInformationResponse, result.Response)
		assert.Len(t, result.ReasoningChain, 1)
		assert.Zero(t, llm.calls.Load(), "no further agents run")

		entries := orch.History().Entries()
		require.Len(t, entries, 1)
		assert.False(t, entries[0].Success)
	})

	t.Run("retriever failure degrades to the same terminal state", func(t *testing.T) {
		llm := &scriptedLLM{route: func(agent.InvokeRequest) (string, error) {
			return "", errors.New("no llm call expected")
		}}
		orch, _ := newTestOrchestrator(t, llm, &stubRetriever{err: errors.New("vector store down")}, Options{Provider: "openai"})

		result, err := orch.ExecuteQuery(context.Background(), QueryRequest{Query: "a question"})
		require.NoError(t, err)
		assert.True(t, result.NoDocumentsFound)
	})

	t.Run("generation failure aborts the pipeline", func(t *testing.T) {
		llm := &scriptedLLM{route: func(req agent.InvokeRequest) (string, error) {
			return "", errors.New("provider outage")
		}}
		orch, _ := newTestOrchestrator(t, llm, &stubRetriever{docs: goodDocs()}, Options{Provider: "openai"})

		result, err := orch.ExecuteQuery(context.Background(), QueryRequest{Query: "a question"})
		require.Error(t, err)
		assert.Nil(t, result, "no partial result on pipeline failure")

		entries := orch.History().Entries()
		require.Len(t, entries, 1)
		assert.False(t, entries[0].Success)
	})

	t.Run("failed grounding keeps the unblended confidence", func(t *testing.T) {
		llm := &scriptedLLM{route: func(req agent.InvokeRequest) (string, error) {
			switch {
			case isGenerationCall(req):
				return "Paris [Source 1] and [Source 2].", nil
			case isGroundingCall(req):
				return "", errors.New("grounding backend down")
			case isExplanationCall(req):
				return "explanation", nil
			default:
				return "", errors.New("unexpected call")
			}
		}}
		orch, _ := newTestOrchestrator(t, llm, &stubRetriever{docs: goodDocs()}, Options{
			Provider:         "openai",
			GroundingEnabled: true,
		})

		result, err := orch.ExecuteQuery(context.Background(), QueryRequest{Query: "What is the capital of France?"})
		require.NoError(t, err)
		assert.InDelta(t, 0.91, result.Confidence, 0.001)
	})

	t.Run("low confidence prepends a warning", func(t *testing.T) {
		weakDocs := goodDocs()
		weakDocs[0].Similarity = 0.1
		weakDocs[1].Similarity = 0.1

		llm := &scriptedLLM{route: func(req agent.InvokeRequest) (string, error) {
			switch {
			case isGenerationCall(req):
				return "I cannot find a definitive statement in the sources.", nil
			case isExplanationCall(req):
				return "explanation", nil
			default:
				return "", errors.New("unexpected call")
			}
		}}
		orch, _ := newTestOrchestrator(t, llm, &stubRetriever{docs: weakDocs}, Options{
			Provider:         "openai",
			GroundingEnabled: false,
		})

		result, err := orch.ExecuteQuery(context.Background(), QueryRequest{Query: "What is the capital of France?"})
		require.NoError(t, err)

		// sim 0.1*0.6 + citation 0.2*0.2 + grounding 0.7*0.1 +
		// quality 1.0*0.1 = 0.27, under the warning threshold.
		assert.InDelta(t, 0.27, result.Confidence, 0.001)
		assert.True(t, result.LowConfidenceWarning)
		assert.True(t, strings.HasPrefix(result.Response, "Note:"))
	})
}

func TestHistoryBounded(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Record(HistoryEntry{Query: string(rune('a' + i)), Pipeline: "rag", Success: true})
	}

	entries := h.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries[0].Query)
	assert.Equal(t, "e", entries[2].Query)
	assert.Equal(t, 3, h.Len())
	assert.False(t, entries[0].Timestamp.IsZero())
}
