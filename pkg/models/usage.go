package models

// TokenUsage aggregates token consumption for a single LLM call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage into this one.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// TokenOperation records the token cost of one named pipeline step.
type TokenOperation struct {
	Operation string `json:"operation"`
	Tokens    int    `json:"tokens"`
}

// TokenUsageAccumulator sums per-agent token usage across a single
// pipeline run. Owned exclusively by the call that assembles the final
// result, never shared across requests.
type TokenUsageAccumulator struct {
	PromptTokens     int              `json:"prompt_tokens"`
	CompletionTokens int              `json:"completion_tokens"`
	TotalTokens      int              `json:"total_tokens"`
	Operations       []TokenOperation `json:"operations,omitempty"`
}

// Record adds one step's usage under the given operation name.
// Zero-usage steps are still recorded so the operations list mirrors
// the executed pipeline stages.
func (a *TokenUsageAccumulator) Record(operation string, usage TokenUsage) {
	a.PromptTokens += usage.PromptTokens
	a.CompletionTokens += usage.CompletionTokens
	a.TotalTokens += usage.TotalTokens
	a.Operations = append(a.Operations, TokenOperation{
		Operation: operation,
		Tokens:    usage.TotalTokens,
	})
}
