// Package models defines the shared domain types exchanged between the
// agent framework, the consensus engine, and the API layer.
package models

import "time"

// Vote is a single council voter's completed answer, used as input to
// vote aggregation. Callers filter out failed executions before building
// a vote list; aggregation requires at least one vote.
type Vote struct {
	Agent              string   `json:"agent"`
	Response           string   `json:"response"`
	Confidence         float64  `json:"confidence"`
	Reasoning          string   `json:"reasoning"`
	SupportingEvidence []string `json:"supporting_evidence,omitempty"`
	VoteWeight         float64  `json:"vote_weight"`
	Temperature        float32  `json:"temperature"`
}

// FailedVote records a council voter that did not produce a usable vote.
type FailedVote struct {
	Agent string `json:"agent"`
	Error string `json:"error"`
}

// AggregationResult is the outcome of combining a vote list with one of
// the aggregation strategies.
type AggregationResult struct {
	FinalResponse        string  `json:"final_response"`
	AggregatedConfidence float64 `json:"aggregated_confidence"`
	StrategyUsed         string  `json:"strategy_used"`
	SynthesisUsed        bool    `json:"synthesis_used"`
	SelectedAgent        string  `json:"selected_agent,omitempty"`
}

// ConsensusMetrics holds agreement statistics over a vote list.
// All fields are recomputed from scratch on each aggregation call.
type ConsensusMetrics struct {
	ConsensusLevel     float64 `json:"consensus_level"`
	ConfidenceVariance float64 `json:"confidence_variance"`
	AgreementScore     float64 `json:"agreement_score"`
	AvgConfidence      float64 `json:"avg_confidence"`
	MinConfidence      float64 `json:"min_confidence"`
	MaxConfidence      float64 `json:"max_confidence"`
}

// DebateRound captures one refinement iteration of the council pipeline.
// Immutable once created. RoundNumber starts at 2; round 1 is the
// initial fan-out, not a debate round.
type DebateRound struct {
	RoundNumber int       `json:"round_number"`
	Votes       []Vote    `json:"votes"`
	Timestamp   time.Time `json:"timestamp"`
}
