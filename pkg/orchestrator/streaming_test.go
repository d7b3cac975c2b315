package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/pkg/agent"
	"github.com/conclave-ai/conclave/pkg/events"
)

// drainEvents collects everything published to the channel until a
// terminal event or a timeout.
func drainEvents(t *testing.T, ch <-chan events.Event) []events.Event {
	t.Helper()
	var collected []events.Event
	for {
		select {
		case ev := <-ch:
			collected = append(collected, ev)
			if ev.Type == events.TypeComplete || ev.Type == events.TypeError {
				return collected
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for a terminal event")
		}
	}
}

func TestExecuteQueryStream(t *testing.T) {
	t.Run("publishes the full event sequence", func(t *testing.T) {
		llm := &scriptedLLM{route: func(req agent.InvokeRequest) (string, error) {
			switch {
			case isGenerationCall(req):
				return "Paris [Source 1].", nil
			case isGroundingCall(req):
				return "0.9", nil
			case isExplanationCall(req):
				return "explanation", nil
			default:
				return "", errors.New("unexpected call")
			}
		}}
		orch, bus := newTestOrchestrator(t, llm, &stubRetriever{docs: goodDocs()}, Options{
			Provider:         "openai",
			GroundingEnabled: true,
		})

		ch, cancel := bus.Subscribe(events.SessionChannel("s1"))
		defer cancel()

		result, err := orch.ExecuteQueryStream(context.Background(), QueryRequest{
			Query:     "What is the capital of France?",
			SessionID: "s1",
		})
		require.NoError(t, err)

		collected := drainEvents(t, ch)
		require.NotEmpty(t, collected)
		assert.Equal(t, events.TypeStatus, collected[0].Type)
		assert.Equal(t, events.TypeComplete, collected[len(collected)-1].Type)

		var starts, completes, logs int
		for _, ev := range collected {
			switch ev.Type {
			case events.TypeAgentStart:
				starts++
			case events.TypeAgentComplete:
				completes++
			case events.TypeAgentLog:
				logs++
			}
			assert.False(t, ev.Timestamp.IsZero())
		}
		// Research, generation, grounding, explainability.
		assert.Equal(t, 4, starts)
		assert.Equal(t, starts, completes, "every agent_start has a matching agent_complete")
		assert.NotZero(t, logs)

		final := collected[len(collected)-1].Data
		assert.Equal(t, result.Response, final["response"])
		assert.Equal(t, result.Confidence, final["confidence"])
		assert.Equal(t, result.Sources, final["sources"])
		assert.Equal(t, result.QueryQuality, final["query_quality"])
		assert.Equal(t, false, final["no_documents_found"])

		// A consumer reading only the complete event must see the same
		// JSON shape the non-streaming endpoint returns.
		var fromResult, fromEvent map[string]any
		raw, err := json.Marshal(result)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &fromResult))
		raw, err = json.Marshal(final)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &fromEvent))
		assert.Equal(t, fromResult, fromEvent)
	})

	t.Run("pipeline failure publishes an error event", func(t *testing.T) {
		llm := &scriptedLLM{route: func(agent.InvokeRequest) (string, error) {
			return "", errors.New("provider outage")
		}}
		orch, bus := newTestOrchestrator(t, llm, &stubRetriever{docs: goodDocs()}, Options{Provider: "openai"})

		ch, cancel := bus.Subscribe(events.SessionChannel("s2"))
		defer cancel()

		result, err := orch.ExecuteQueryStream(context.Background(), QueryRequest{
			Query:     "a question",
			SessionID: "s2",
		})
		require.Error(t, err)
		assert.Nil(t, result)

		collected := drainEvents(t, ch)
		last := collected[len(collected)-1]
		assert.Equal(t, events.TypeError, last.Type)
		assert.Contains(t, last.Data["error"], "provider outage")
	})

	t.Run("no-documents run still completes", func(t *testing.T) {
		llm := &scriptedLLM{route: func(agent.InvokeRequest) (string, error) {
			return "", errors.New("no llm call expected")
		}}
		orch, bus := newTestOrchestrator(t, llm, &stubRetriever{}, Options{Provider: "openai"})

		ch, cancel := bus.Subscribe(events.SessionChannel("s3"))
		defer cancel()

		_, err := orch.ExecuteQueryStream(context.Background(), QueryRequest{
			Query:     "an unanswerable question",
			SessionID: "s3",
		})
		require.NoError(t, err)

		collected := drainEvents(t, ch)
		last := collected[len(collected)-1]
		assert.Equal(t, events.TypeComplete, last.Type)
		assert.Equal(t, true, last.Data["no_documents_found"])
	})
}
