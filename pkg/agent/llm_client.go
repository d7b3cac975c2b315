package agent

import (
	"context"
	"errors"

	"github.com/conclave-ai/conclave/pkg/models"
)

// ErrProvider is wrapped by LLM client implementations when the backend
// is unreachable or rejects a request. The core logs and converts the
// failure into a failed agent result; retries live inside the client.
var ErrProvider = errors.New("llm provider error")

// LLMClient is the boundary to the LLM invocation collaborator.
// Implementations own their retry/backoff policy. Implemented by
// llm.OpenAIClient; defined as an interface here so agents can be
// tested with in-package mocks.
type LLMClient interface {
	// Invoke sends a single prompt and returns the model's text plus
	// token usage. A non-empty SystemMessage is sent as the system role.
	Invoke(ctx context.Context, req InvokeRequest) (*InvokeResponse, error)
}

// InvokeRequest is one LLM invocation.
type InvokeRequest struct {
	Prompt        string
	SystemMessage string
	Provider      string
	// Temperature overrides the provider default when > 0.
	Temperature float32
}

// InvokeResponse is the LLM's reply.
type InvokeResponse struct {
	Content    string
	TokenUsage models.TokenUsage
}

// Retriever is the boundary to the vector retrieval collaborator.
// Documents carry similarity pre-calibrated to [0,1]. Implemented by
// retrieval.WeaviateRetriever.
type Retriever interface {
	Retrieve(ctx context.Context, query, provider string, filters map[string]any, userID string) ([]models.RetrievedDocument, error)
}
