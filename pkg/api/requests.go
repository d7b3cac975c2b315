package api

// QueryRequest is the body for POST /api/v1/query and
// POST /api/v1/query/stream.
type QueryRequest struct {
	Query   string         `json:"query" binding:"required"`
	Filters map[string]any `json:"filters,omitempty"`
	UserID  string         `json:"user_id,omitempty"`
}

// CouncilRequest is the body for POST /api/v1/council. Strategy
// defaults to the configured default; DebateRounds defaults to 1
// (no debate).
type CouncilRequest struct {
	Query            string `json:"query" binding:"required"`
	Strategy         string `json:"strategy,omitempty"`
	IncludeSynthesis bool   `json:"include_synthesis,omitempty"`
	DebateRounds     int    `json:"debate_rounds,omitempty"`
}
