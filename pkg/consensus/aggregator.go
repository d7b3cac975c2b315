package consensus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/conclave-ai/conclave/pkg/models"
)

// Aggregation strategy names. Requested by API callers, validated
// before any agent runs.
const (
	StrategyHighestConfidence  = "highest_confidence"
	StrategyWeightedConfidence = "weighted_confidence"
	StrategySynthesis          = "synthesis"
	StrategyMajority           = "majority"
)

// ErrUnknownStrategy is returned for an unrecognized strategy name.
// Fatal and not retried.
var ErrUnknownStrategy = errors.New("unknown aggregation strategy")

// ErrNoVotes is returned when aggregation is attempted on an empty
// vote list. Callers filter out failed executions first, so this
// indicates a programming error upstream.
var ErrNoVotes = errors.New("vote list is empty")

// Synthesizer produces one new answer integrating every vote.
// Implemented by the orchestrator with an LLM call; nil disables
// synthesis (strategies fall back to selecting a vote).
type Synthesizer interface {
	Synthesize(ctx context.Context, votes []models.Vote) (string, models.TokenUsage, error)
}

// ValidStrategy reports whether name is a recognized strategy.
func ValidStrategy(name string) bool {
	switch name {
	case StrategyHighestConfidence, StrategyWeightedConfidence, StrategySynthesis, StrategyMajority:
		return true
	}
	return false
}

// Aggregator combines a vote list into one AggregationResult.
type Aggregator struct {
	synthesizer Synthesizer
}

// NewAggregator creates an Aggregator. synthesizer may be nil, in
// which case synthesis-dependent strategies select the
// highest-confidence vote instead.
func NewAggregator(synthesizer Synthesizer) *Aggregator {
	return &Aggregator{synthesizer: synthesizer}
}

// Aggregate applies the named strategy to a non-empty vote list.
// Returns the result plus token usage spent on synthesis (zero when no
// synthesis call was made).
func (a *Aggregator) Aggregate(ctx context.Context, votes []models.Vote, strategy string, includeSynthesis bool) (*models.AggregationResult, models.TokenUsage, error) {
	if len(votes) == 0 {
		return nil, models.TokenUsage{}, ErrNoVotes
	}

	switch strategy {
	case StrategyHighestConfidence:
		return a.highestConfidence(votes), models.TokenUsage{}, nil
	case StrategyWeightedConfidence:
		return a.weightedConfidence(ctx, votes, includeSynthesis)
	case StrategySynthesis:
		return a.synthesis(ctx, votes)
	case StrategyMajority:
		return a.majority(votes), models.TokenUsage{}, nil
	default:
		return nil, models.TokenUsage{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// highestConfidence picks the first vote with the maximum confidence.
func (a *Aggregator) highestConfidence(votes []models.Vote) *models.AggregationResult {
	best := bestVote(votes)
	return &models.AggregationResult{
		FinalResponse:        best.Response,
		AggregatedConfidence: round3(best.Confidence),
		StrategyUsed:         StrategyHighestConfidence,
		SelectedAgent:        best.Agent,
	}
}

// weightedConfidence computes the weight-averaged confidence. The
// response comes from a synthesis call when requested, otherwise from
// the highest-confidence vote (whose confidence is not re-derived).
func (a *Aggregator) weightedConfidence(ctx context.Context, votes []models.Vote, includeSynthesis bool) (*models.AggregationResult, models.TokenUsage, error) {
	var weightedSum, totalWeight float64
	for _, v := range votes {
		weightedSum += v.Confidence * v.VoteWeight
		totalWeight += v.VoteWeight
	}
	confidence := meanConfidence(votes)
	if totalWeight > 0 {
		confidence = weightedSum / totalWeight
	}

	result := &models.AggregationResult{
		AggregatedConfidence: round3(confidence),
		StrategyUsed:         StrategyWeightedConfidence,
	}

	if includeSynthesis && a.synthesizer != nil {
		response, usage, err := a.synthesizer.Synthesize(ctx, votes)
		if err == nil {
			result.FinalResponse = response
			result.SynthesisUsed = true
			return result, usage, nil
		}
		slog.Warn("Synthesis failed, falling back to highest-confidence response", "error", err)
	}

	best := bestVote(votes)
	result.FinalResponse = best.Response
	result.SelectedAgent = best.Agent
	return result, models.TokenUsage{}, nil
}

// synthesis always produces an integrated response; confidence is the
// unweighted mean.
func (a *Aggregator) synthesis(ctx context.Context, votes []models.Vote) (*models.AggregationResult, models.TokenUsage, error) {
	result := &models.AggregationResult{
		AggregatedConfidence: round3(meanConfidence(votes)),
		StrategyUsed:         StrategySynthesis,
	}

	if a.synthesizer != nil {
		response, usage, err := a.synthesizer.Synthesize(ctx, votes)
		if err == nil {
			result.FinalResponse = response
			result.SynthesisUsed = true
			return result, usage, nil
		}
		slog.Warn("Synthesis failed, falling back to highest-confidence response", "error", err)
	}

	best := bestVote(votes)
	result.FinalResponse = best.Response
	result.SelectedAgent = best.Agent
	return result, models.TokenUsage{}, nil
}

// majority selects the vote whose confidence is closest to the
// unweighted mean, ties broken by list order.
func (a *Aggregator) majority(votes []models.Vote) *models.AggregationResult {
	mean := meanConfidence(votes)
	selected := votes[0]
	bestDist := math.Abs(votes[0].Confidence - mean)
	for _, v := range votes[1:] {
		if d := math.Abs(v.Confidence - mean); d < bestDist {
			selected = v
			bestDist = d
		}
	}
	return &models.AggregationResult{
		FinalResponse:        selected.Response,
		AggregatedConfidence: round3(mean),
		StrategyUsed:         StrategyMajority,
		SelectedAgent:        selected.Agent,
	}
}

// bestVote returns the first vote with the maximum confidence.
func bestVote(votes []models.Vote) models.Vote {
	best := votes[0]
	for _, v := range votes[1:] {
		if v.Confidence > best.Confidence {
			best = v
		}
	}
	return best
}

func meanConfidence(votes []models.Vote) float64 {
	var sum float64
	for _, v := range votes {
		sum += v.Confidence
	}
	return sum / float64(len(votes))
}
