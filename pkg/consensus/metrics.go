// Package consensus turns council vote lists into a single answer and
// agreement statistics.
package consensus

import (
	"math"

	"github.com/conclave-ai/conclave/pkg/models"
)

// ComputeMetrics derives agreement statistics from a vote list's
// confidence values. Pure function; an empty list yields all zeros.
func ComputeMetrics(votes []models.Vote) models.ConsensusMetrics {
	if len(votes) == 0 {
		return models.ConsensusMetrics{}
	}

	minC, maxC := votes[0].Confidence, votes[0].Confidence
	var sum float64
	for _, v := range votes {
		sum += v.Confidence
		if v.Confidence < minC {
			minC = v.Confidence
		}
		if v.Confidence > maxC {
			maxC = v.Confidence
		}
	}
	avg := sum / float64(len(votes))

	var variance float64
	for _, v := range votes {
		d := v.Confidence - avg
		variance += d * d
	}
	variance /= float64(len(votes))

	return models.ConsensusMetrics{
		ConsensusLevel:     round3(avg * (1 - math.Min(variance, 1.0))),
		ConfidenceVariance: round3(variance),
		AgreementScore:     round3(math.Max(0, 1-variance)),
		AvgConfidence:      round3(avg),
		MinConfidence:      round3(minC),
		MaxConfidence:      round3(maxC),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
