package consensus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/pkg/models"
)

// stubSynthesizer returns a fixed response or error.
type stubSynthesizer struct {
	response string
	usage    models.TokenUsage
	err      error
	calls    int
}

func (s *stubSynthesizer) Synthesize(_ context.Context, _ []models.Vote) (string, models.TokenUsage, error) {
	s.calls++
	return s.response, s.usage, s.err
}

func threeVotes() []models.Vote {
	return []models.Vote{
		{Agent: "analytical", Response: "answer A", Confidence: 0.9, VoteWeight: 1.0},
		{Agent: "creative", Response: "answer B", Confidence: 0.5, VoteWeight: 1.0},
		{Agent: "critical", Response: "answer C", Confidence: 0.7, VoteWeight: 1.0},
	}
}

func TestAggregateWeightedConfidence(t *testing.T) {
	t.Run("equal weights without synthesis", func(t *testing.T) {
		agg := NewAggregator(nil)

		result, usage, err := agg.Aggregate(context.Background(), threeVotes(), StrategyWeightedConfidence, false)
		require.NoError(t, err)

		assert.InDelta(t, 0.7, result.AggregatedConfidence, 0.001)
		assert.Equal(t, "answer A", result.FinalResponse, "response comes from the highest-confidence vote")
		assert.Equal(t, "analytical", result.SelectedAgent)
		assert.False(t, result.SynthesisUsed)
		assert.Zero(t, usage.TotalTokens)
	})

	t.Run("unequal weights shift the aggregate", func(t *testing.T) {
		agg := NewAggregator(nil)
		votes := threeVotes()
		votes[0].VoteWeight = 3.0

		result, _, err := agg.Aggregate(context.Background(), votes, StrategyWeightedConfidence, false)
		require.NoError(t, err)

		// (0.9*3 + 0.5 + 0.7) / 5 = 0.78
		assert.InDelta(t, 0.78, result.AggregatedConfidence, 0.001)
	})

	t.Run("zero total weight falls back to unweighted mean", func(t *testing.T) {
		agg := NewAggregator(nil)
		votes := threeVotes()
		for i := range votes {
			votes[i].VoteWeight = 0
		}

		result, _, err := agg.Aggregate(context.Background(), votes, StrategyWeightedConfidence, false)
		require.NoError(t, err)
		assert.InDelta(t, 0.7, result.AggregatedConfidence, 0.001)
	})

	t.Run("synthesis produces the response when requested", func(t *testing.T) {
		synth := &stubSynthesizer{response: "integrated answer", usage: models.TokenUsage{TotalTokens: 42}}
		agg := NewAggregator(synth)

		result, usage, err := agg.Aggregate(context.Background(), threeVotes(), StrategyWeightedConfidence, true)
		require.NoError(t, err)

		assert.Equal(t, "integrated answer", result.FinalResponse)
		assert.True(t, result.SynthesisUsed)
		assert.Empty(t, result.SelectedAgent)
		assert.Equal(t, 42, usage.TotalTokens)
		assert.Equal(t, 1, synth.calls)
	})

	t.Run("synthesis failure falls back to best vote", func(t *testing.T) {
		synth := &stubSynthesizer{err: errors.New("backend down")}
		agg := NewAggregator(synth)

		result, _, err := agg.Aggregate(context.Background(), threeVotes(), StrategyWeightedConfidence, true)
		require.NoError(t, err)

		assert.Equal(t, "answer A", result.FinalResponse)
		assert.False(t, result.SynthesisUsed)
		assert.Equal(t, "analytical", result.SelectedAgent)
	})

	t.Run("aggregate stays within vote confidence bounds", func(t *testing.T) {
		agg := NewAggregator(nil)
		inputs := [][]models.Vote{
			threeVotes(),
			{{Confidence: 0.2, VoteWeight: 5}, {Confidence: 0.95, VoteWeight: 0.1}},
			{{Confidence: 0.4, VoteWeight: 1}},
		}
		for _, votes := range inputs {
			result, _, err := agg.Aggregate(context.Background(), votes, StrategyWeightedConfidence, false)
			require.NoError(t, err)

			minC, maxC := votes[0].Confidence, votes[0].Confidence
			for _, v := range votes {
				minC = min(minC, v.Confidence)
				maxC = max(maxC, v.Confidence)
			}
			assert.GreaterOrEqual(t, result.AggregatedConfidence, minC-0.0005)
			assert.LessOrEqual(t, result.AggregatedConfidence, maxC+0.0005)
		}
	})
}

func TestAggregateHighestConfidence(t *testing.T) {
	agg := NewAggregator(nil)

	t.Run("picks the maximum", func(t *testing.T) {
		result, _, err := agg.Aggregate(context.Background(), threeVotes(), StrategyHighestConfidence, false)
		require.NoError(t, err)

		assert.Equal(t, "answer A", result.FinalResponse)
		assert.Equal(t, "analytical", result.SelectedAgent)
		assert.InDelta(t, 0.9, result.AggregatedConfidence, 0.001)
	})

	t.Run("ties broken by list order", func(t *testing.T) {
		votes := []models.Vote{
			{Agent: "first", Response: "first answer", Confidence: 0.8, VoteWeight: 1},
			{Agent: "second", Response: "second answer", Confidence: 0.8, VoteWeight: 1},
		}
		result, _, err := agg.Aggregate(context.Background(), votes, StrategyHighestConfidence, false)
		require.NoError(t, err)
		assert.Equal(t, "first", result.SelectedAgent)
	})
}

func TestAggregateMajority(t *testing.T) {
	agg := NewAggregator(nil)

	t.Run("selects the vote closest to the mean", func(t *testing.T) {
		result, _, err := agg.Aggregate(context.Background(), threeVotes(), StrategyMajority, false)
		require.NoError(t, err)

		// mean is 0.7; the 0.7 vote is at distance 0
		assert.Equal(t, "answer C", result.FinalResponse)
		assert.Equal(t, "critical", result.SelectedAgent)
		assert.InDelta(t, 0.7, result.AggregatedConfidence, 0.001)
		assert.False(t, result.SynthesisUsed)
	})

	t.Run("selected response is always an input vote", func(t *testing.T) {
		votes := threeVotes()
		result, _, err := agg.Aggregate(context.Background(), votes, StrategyMajority, false)
		require.NoError(t, err)

		responses := make(map[string]bool)
		for _, v := range votes {
			responses[v.Response] = true
		}
		assert.True(t, responses[result.FinalResponse])
	})
}

func TestAggregateSynthesisStrategy(t *testing.T) {
	t.Run("always synthesizes with mean confidence", func(t *testing.T) {
		synth := &stubSynthesizer{response: "merged"}
		agg := NewAggregator(synth)

		result, _, err := agg.Aggregate(context.Background(), threeVotes(), StrategySynthesis, false)
		require.NoError(t, err)

		assert.Equal(t, "merged", result.FinalResponse)
		assert.True(t, result.SynthesisUsed)
		assert.InDelta(t, 0.7, result.AggregatedConfidence, 0.001)
		assert.Equal(t, 1, synth.calls)
	})
}

func TestAggregateErrors(t *testing.T) {
	agg := NewAggregator(nil)

	t.Run("unknown strategy is fatal", func(t *testing.T) {
		_, _, err := agg.Aggregate(context.Background(), threeVotes(), "plurality", false)
		assert.ErrorIs(t, err, ErrUnknownStrategy)
	})

	t.Run("empty vote list is rejected", func(t *testing.T) {
		_, _, err := agg.Aggregate(context.Background(), nil, StrategyMajority, false)
		assert.ErrorIs(t, err, ErrNoVotes)
	})
}

func TestValidStrategy(t *testing.T) {
	assert.True(t, ValidStrategy(StrategyHighestConfidence))
	assert.True(t, ValidStrategy(StrategyWeightedConfidence))
	assert.True(t, ValidStrategy(StrategySynthesis))
	assert.True(t, ValidStrategy(StrategyMajority))
	assert.False(t, ValidStrategy("plurality"))
	assert.False(t, ValidStrategy(""))
}
