package orchestrator

import (
	"context"

	"github.com/conclave-ai/conclave/pkg/events"
)

// ExecuteQueryStream runs the RAG pipeline while publishing progress
// events to the session channel. Event order matches execution order;
// a consumer that only reads the complete and error events sees the
// same contract as ExecuteQuery.
func (o *Orchestrator) ExecuteQueryStream(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	channel := events.SessionChannel(req.SessionID)
	emit := func(eventType string, data map[string]any) {
		o.bus.Publish(channel, events.New(eventType, data))
	}

	result, err := o.runRAG(ctx, req, emit)
	if err != nil {
		emit(events.TypeError, map[string]any{"error": err.Error()})
		return nil, err
	}

	emit(events.TypeComplete, resultEventData(result))
	return result, nil
}

// resultEventData mirrors the QueryResult JSON shape field for field, so
// a consumer reading only the complete event sees the same contract as
// the non-streaming endpoint.
func resultEventData(result *QueryResult) map[string]any {
	return map[string]any{
		"response":               result.Response,
		"confidence":             result.Confidence,
		"sources":                result.Sources,
		"explanation":            result.Explanation,
		"reasoning_chain":        result.ReasoningChain,
		"low_confidence_warning": result.LowConfidenceWarning,
		"no_documents_found":     result.NoDocumentsFound,
		"query_quality":          result.QueryQuality,
		"token_usage":            result.TokenUsage,
	}
}
