package models

// RetrievedDocument is a document chunk returned by the retrieval
// collaborator. Similarity is pre-calibrated to [0,1] upstream.
type RetrievedDocument struct {
	ID         string         `json:"id"`
	Content    string         `json:"content"`
	Similarity float64        `json:"similarity"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// QueryQualityReport is the result of gibberish screening on a raw
// query. Computed once per query and read-only after creation.
type QueryQualityReport struct {
	IsValid      bool    `json:"is_valid"`
	QualityScore float64 `json:"quality_score"`
	// Issues lists the heuristics that flagged the query, for diagnostics.
	Issues []string `json:"issues,omitempty"`
	// ConfidencePenalty is a staircase penalty consumers may apply to
	// down-weight answers to low-quality queries. Independent of the
	// QualityScore already folded into the confidence calculation.
	ConfidencePenalty float64 `json:"confidence_penalty"`
}

// RetrievalResult pairs the documents retrieved for a query with the
// quality report computed for that query.
type RetrievalResult struct {
	Documents     []RetrievedDocument `json:"documents"`
	QualityReport *QueryQualityReport `json:"quality_report,omitempty"`
}

// AvgSimilarity returns the mean similarity of a document list,
// or 0 for an empty list.
func AvgSimilarity(docs []RetrievedDocument) float64 {
	if len(docs) == 0 {
		return 0
	}
	var sum float64
	for _, d := range docs {
		sum += d.Similarity
	}
	return sum / float64(len(docs))
}
