package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/pkg/models"
	"github.com/conclave-ai/conclave/pkg/prompt"
)

// mockLLM returns canned content or an error, recording the last request.
type mockLLM struct {
	content string
	usage   models.TokenUsage
	err     error
	lastReq InvokeRequest
}

func (m *mockLLM) Invoke(_ context.Context, req InvokeRequest) (*InvokeResponse, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &InvokeResponse{Content: m.content, TokenUsage: m.usage}, nil
}

func TestCouncilVoterExecute(t *testing.T) {
	prompts := prompt.NewBuilder()

	t.Run("successful vote", func(t *testing.T) {
		llm := &mockLLM{
			content: "RESPONSE:\nParis\nREASONING:\nIt is the capital.\nCONFIDENCE:\nhigh",
			usage:   models.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		}
		voter := NewCouncilVoter("analytical", prompt.RoleAnalytical, TemperatureAnalytical, DefaultVoteWeight, "openai", llm, prompts)

		result := voter.Execute(context.Background(), Input{Query: "What is the capital of France?"})

		require.True(t, result.Completed())
		assert.Equal(t, "analytical", result.Agent)
		assert.Equal(t, KindCouncilVoter, result.Kind)
		assert.Equal(t, "Paris", result.Output)
		assert.Equal(t, "It is the capital.", result.Reasoning)
		assert.InDelta(t, 0.85, result.Confidence, 0.0001)
		assert.Equal(t, 15, result.TokenUsage.TotalTokens)
		assert.Equal(t, TemperatureAnalytical, llm.lastReq.Temperature, "voter invokes at its own temperature")
		assert.NotEmpty(t, llm.lastReq.SystemMessage)
	})

	t.Run("llm failure becomes a failed result", func(t *testing.T) {
		llm := &mockLLM{err: errors.New("backend unreachable")}
		voter := NewCouncilVoter("creative", prompt.RoleCreative, TemperatureCreative, DefaultVoteWeight, "openai", llm, prompts)

		result := voter.Execute(context.Background(), Input{Query: "anything"})

		assert.False(t, result.Completed())
		assert.Equal(t, StatusFailed, result.Status)
		assert.Contains(t, result.Err, "backend unreachable")
	})

	t.Run("success appends to memory, failure does not", func(t *testing.T) {
		llm := &mockLLM{content: "RESPONSE:\nok\nCONFIDENCE:\nmedium"}
		voter := NewCouncilVoter("critical", prompt.RoleCritical, TemperatureCritical, DefaultVoteWeight, "openai", llm, prompts)

		voter.Execute(context.Background(), Input{Query: "first"})
		assert.Equal(t, 1, voter.Memory().Len())

		llm.err = errors.New("down")
		voter.Execute(context.Background(), Input{Query: "second"})
		assert.Equal(t, 1, voter.Memory().Len())
	})

	t.Run("vote conversion carries weight and temperature", func(t *testing.T) {
		llm := &mockLLM{content: "RESPONSE:\nanswer\nCONFIDENCE:\nlow"}
		voter := NewCouncilVoter("analytical", prompt.RoleAnalytical, 0.3, 2.5, "openai", llm, prompts)

		result := voter.Execute(context.Background(), Input{Query: "q"})
		vote := result.Vote(voter.VoteWeight(), voter.Temperature())

		assert.Equal(t, "analytical", vote.Agent)
		assert.Equal(t, "answer", vote.Response)
		assert.InDelta(t, 0.40, vote.Confidence, 0.0001)
		assert.InDelta(t, 2.5, vote.VoteWeight, 0.0001)
		assert.InDelta(t, 0.3, float64(vote.Temperature), 0.0001)
	})
}
