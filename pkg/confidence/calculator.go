package confidence

import (
	"fmt"
	"math"
	"strings"

	"github.com/conclave-ai/conclave/pkg/models"
)

// Weights configures the blend of the four confidence components.
// Weights are normalized at computation time so they need not sum to 1.
type Weights struct {
	Similarity   float64 `yaml:"similarity"`
	Citation     float64 `yaml:"citation"`
	Grounding    float64 `yaml:"grounding"`
	QueryQuality float64 `yaml:"query_quality"`
}

// DefaultWeights returns the standard component blend.
func DefaultWeights() Weights {
	return Weights{Similarity: 0.6, Citation: 0.2, Grounding: 0.1, QueryQuality: 0.1}
}

// uncertaintyPhrases are markers of output uncertainty in generated
// text. Each occurrence lowers the grounding component. Matching is
// case-insensitive substring search.
var uncertaintyPhrases = []string{
	"i don't have enough information",
	"i do not have enough information",
	"cannot find",
	"could not find",
	"not enough context",
	"no information available",
	"unable to determine",
	"insufficient information",
	"not mentioned in the",
}

// Calculator combines retrieval similarity, citation coverage,
// output-uncertainty detection, and query-quality screening into one
// confidence score. Stateless.
type Calculator struct {
	weights Weights
}

// NewCalculator creates a Calculator. Zero-total weights fall back to
// the defaults.
func NewCalculator(w Weights) *Calculator {
	if w.Similarity+w.Citation+w.Grounding+w.QueryQuality <= 0 {
		w = DefaultWeights()
	}
	return &Calculator{weights: w}
}

// Components holds the four independently computed component scores.
type Components struct {
	Similarity   float64 `json:"similarity"`
	Citation     float64 `json:"citation"`
	Grounding    float64 `json:"grounding"`
	QueryQuality float64 `json:"query_quality"`
}

// Compute scores a generated answer against its retrieved documents and
// the query's quality report. The result is clamped to [0,1].
func (c *Calculator) Compute(answer string, docs []models.RetrievedDocument, report *models.QueryQualityReport) (float64, Components) {
	comps := Components{
		Similarity:   models.AvgSimilarity(docs),
		Citation:     citationComponent(answer, len(docs)),
		Grounding:    groundingComponent(answer),
		QueryQuality: queryQualityComponent(report, len(docs)),
	}

	return c.Score(comps), comps
}

// Score blends already-computed components into one clamped score.
func (c *Calculator) Score(comps Components) float64 {
	total := c.weights.Similarity + c.weights.Citation + c.weights.Grounding + c.weights.QueryQuality
	score := (comps.Similarity*c.weights.Similarity +
		comps.Citation*c.weights.Citation +
		comps.Grounding*c.weights.Grounding +
		comps.QueryQuality*c.weights.QueryQuality) / total
	return round3(clamp01(score))
}

// citationComponent measures how well the answer cites its documents.
// "Cited" means the literal marker [Source N] appears in the text,
// N being the 1-based document rank.
func citationComponent(answer string, totalDocs int) float64 {
	if totalDocs == 0 {
		return 0.3
	}
	cited := 0
	for i := 1; i <= totalDocs; i++ {
		if strings.Contains(answer, fmt.Sprintf("[Source %d]", i)) {
			cited++
		}
	}

	score := 0.2
	if cited > 0 {
		score = 0.6
	}
	score += math.Min(0.2, float64(cited)*0.05)
	score += float64(cited) / float64(totalDocs) * 0.3
	return math.Min(score, 1.0)
}

// groundingComponent starts at 1.0 and subtracts 0.3 per uncertainty
// phrase occurrence, flooring at 0.3.
func groundingComponent(answer string) float64 {
	lower := strings.ToLower(answer)
	score := 1.0
	for _, phrase := range uncertaintyPhrases {
		score -= 0.3 * float64(strings.Count(lower, phrase))
	}
	return math.Max(score, 0.3)
}

// queryQualityComponent reads the quality score from the report
// attached to the query's retrieval result. With no retrieved documents
// there is no report to read, so the component defaults to 1.0.
func queryQualityComponent(report *models.QueryQualityReport, totalDocs int) float64 {
	if totalDocs == 0 || report == nil {
		return 1.0
	}
	return report.QualityScore
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
