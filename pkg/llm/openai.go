// Package llm implements the LLM invocation boundary over the OpenAI
// chat completion API. Retries and backoff live here, behind the
// agent.LLMClient interface; the orchestration core never retries.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/conclave-ai/conclave/pkg/agent"
	"github.com/conclave-ai/conclave/pkg/models"
)

// Config configures the OpenAI client.
type Config struct {
	APIKey  string
	BaseURL string // optional, for OpenAI-compatible backends
	Model   string
	// MaxRetries bounds transient-error retries per invocation.
	MaxRetries int
	// RetryBackoff is the initial backoff, doubled per attempt.
	RetryBackoff time.Duration
}

// OpenAIClient implements agent.LLMClient.
type OpenAIClient struct {
	client *openai.Client
	cfg    Config
}

// NewOpenAIClient creates a client. The API key is required; model
// defaults to gpt-4o-mini.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
		slog.Warn("LLM model not set, defaulting", "model", cfg.Model)
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	slog.Info("Initializing OpenAI client", "model", cfg.Model, "base_url", cfg.BaseURL)
	return &OpenAIClient{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}, nil
}

// Invoke sends one prompt and returns the model's reply plus token
// usage. Transient failures are retried with exponential backoff;
// exhausted retries surface as agent.ErrProvider.
func (c *OpenAIClient) Invoke(ctx context.Context, req agent.InvokeRequest) (*agent.InvokeResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemMessage != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemMessage,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:    c.cfg.Model,
		Messages: messages,
	}
	if req.Temperature > 0 {
		chatReq.Temperature = req.Temperature
	}

	var lastErr error
	backoff := c.cfg.RetryBackoff
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("Retrying LLM call", "attempt", attempt, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", agent.ErrProvider, ctx.Err())
			}
			backoff *= 2
		}

		resp, err := c.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			lastErr = err
			if !retryable(err) {
				break
			}
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("no choices in completion response")
			continue
		}

		return &agent.InvokeResponse{
			Content: resp.Choices[0].Message.Content,
			TokenUsage: models.TokenUsage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
		}, nil
	}

	return nil, fmt.Errorf("%w: %v", agent.ErrProvider, lastErr)
}

// retryable classifies provider errors. Rate limits and server-side
// errors are retried; everything else (bad request, auth, cancelled
// context) is not.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	// Transport-level failures (connection reset, timeout) come back as
	// plain errors; retry unless the context ended.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
