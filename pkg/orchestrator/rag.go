package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/conclave-ai/conclave/pkg/agent"
	"github.com/conclave-ai/conclave/pkg/events"
	"github.com/conclave-ai/conclave/pkg/models"
	"github.com/conclave-ai/conclave/pkg/prompt"
)

// emitter receives pipeline progress events. The non-streaming path
// passes nil; the streaming path forwards to the event bus.
type emitter func(eventType string, data map[string]any)

// ExecuteQuery runs the RAG pipeline: retrieve, generate, optionally
// ground, explain. Missing documents terminate the pipeline with a
// fixed no-information answer rather than an error.
func (o *Orchestrator) ExecuteQuery(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	return o.runRAG(ctx, req, nil)
}

func (o *Orchestrator) runRAG(ctx context.Context, req QueryRequest, emit emitter) (*QueryResult, error) {
	start := time.Now()
	usage := &models.TokenUsageAccumulator{}
	agentsInvolved := []string{}

	publish := func(eventType string, data map[string]any) {
		if emit != nil {
			emit(eventType, data)
		}
	}

	slog.Info("Starting RAG pipeline", "query_length", len(req.Query), "user_id", req.UserID)
	publish(events.TypeStatus, map[string]any{"message": "Pipeline started", "query": req.Query})

	// Stage 1: retrieval.
	research, err := o.registry.Get(AgentResearch)
	if err != nil {
		return nil, fmt.Errorf("resolving research agent: %w", err)
	}
	publish(events.TypeAgentStart, map[string]any{"agent": research.Name(), "message": "Retrieving relevant documents"})

	researchRes := research.Execute(ctx, agent.Input{
		Query:   req.Query,
		Filters: req.Filters,
		UserID:  req.UserID,
	})
	agentsInvolved = append(agentsInvolved, research.Name())
	publish(events.TypeAgentComplete, map[string]any{
		"agent":          research.Name(),
		"document_count": len(researchRes.Documents),
	})
	publish(events.TypeAgentLog, agentLogData(researchRes))

	if !researchRes.Completed() || len(researchRes.Documents) == 0 {
		if !researchRes.Completed() {
			slog.Warn("Research agent failed, returning no-information answer", "error", researchRes.Err)
		}
		result := &QueryResult{
			Response:         noInformationResponse,
			Confidence:       0.0,
			Sources:          []models.RetrievedDocument{},
			ReasoningChain:   []string{"No relevant documents were found for this query."},
			NoDocumentsFound: true,
			QueryQuality:     researchRes.Report,
			TokenUsage:       usage,
			ExecutionTime:    time.Since(start),
		}
		o.history.Record(HistoryEntry{
			Query:          req.Query,
			Pipeline:       "rag",
			AgentsInvolved: agentsInvolved,
			Success:        false,
			Error:          "no documents found",
		})
		return result, nil
	}
	docs := researchRes.Documents
	usage.Record("retrieval", researchRes.TokenUsage)

	// Stage 2: answer generation.
	publish(events.TypeAgentStart, map[string]any{"agent": "generation", "message": "Generating answer from sources"})
	answer, genUsage, err := o.generate(ctx, req.Query, docs)
	if err != nil {
		o.history.Record(HistoryEntry{
			Query:          req.Query,
			Pipeline:       "rag",
			AgentsInvolved: agentsInvolved,
			Success:        false,
			Error:          err.Error(),
		})
		return nil, err
	}
	usage.Record("generation", genUsage)

	finalConfidence, comps := o.calculator.Compute(answer, docs, researchRes.Report)
	publish(events.TypeAgentComplete, map[string]any{
		"agent":      "generation",
		"confidence": finalConfidence,
	})

	reasoning := []string{
		fmt.Sprintf("Retrieved %d documents (average similarity %.3f).", len(docs), models.AvgSimilarity(docs)),
		fmt.Sprintf("Generated answer with confidence %.3f (similarity %.2f, citation %.2f, grounding %.2f, query quality %.2f).",
			finalConfidence, comps.Similarity, comps.Citation, comps.Grounding, comps.QueryQuality),
	}

	// Stage 3: grounding verification (optional). A failed grounding
	// agent degrades to the unblended confidence.
	if o.opts.GroundingEnabled {
		grounding, err := o.registry.Get(AgentGrounding)
		if err != nil {
			return nil, fmt.Errorf("resolving grounding agent: %w", err)
		}
		publish(events.TypeAgentStart, map[string]any{"agent": grounding.Name(), "message": "Verifying answer against sources"})

		groundRes := grounding.Execute(ctx, agent.Input{Response: answer, Sources: docs})
		agentsInvolved = append(agentsInvolved, grounding.Name())
		publish(events.TypeAgentComplete, map[string]any{
			"agent":      grounding.Name(),
			"completed":  groundRes.Completed(),
			"confidence": groundRes.Confidence,
		})
		publish(events.TypeAgentLog, agentLogData(groundRes))

		if groundRes.Completed() {
			finalConfidence = round3(0.7*finalConfidence + 0.3*groundRes.Confidence)
			usage.Record("grounding", groundRes.TokenUsage)
			reasoning = append(reasoning,
				fmt.Sprintf("Grounding check scored %.3f; blended confidence is %.3f.", groundRes.Confidence, finalConfidence))
		} else {
			slog.Warn("Grounding agent failed, keeping unblended confidence", "error", groundRes.Err)
		}
	}

	// Stage 4: explanation.
	explanation := ""
	explain, err := o.registry.Get(AgentExplainability)
	if err != nil {
		return nil, fmt.Errorf("resolving explainability agent: %w", err)
	}
	publish(events.TypeAgentStart, map[string]any{"agent": explain.Name(), "message": "Explaining the answer"})

	process := fmt.Sprintf("Answer generated from %d retrieved documents, confidence %.3f.", len(docs), finalConfidence)
	explainRes := explain.Execute(ctx, agent.Input{Response: answer, Sources: docs, Process: process})
	agentsInvolved = append(agentsInvolved, explain.Name())
	publish(events.TypeAgentComplete, map[string]any{
		"agent":     explain.Name(),
		"completed": explainRes.Completed(),
	})
	publish(events.TypeAgentLog, agentLogData(explainRes))

	if explainRes.Completed() {
		explanation = explainRes.Output
		usage.Record("explanation", explainRes.TokenUsage)
		reasoning = append(reasoning, "Explanation generated.")
	} else {
		slog.Warn("Explainability agent failed, omitting explanation", "error", explainRes.Err)
	}

	// Stage 5: low-confidence warning.
	lowConfidence := finalConfidence < lowConfidenceThreshold
	if lowConfidence {
		answer = lowConfidenceNotice + answer
		reasoning = append(reasoning, "Confidence is low; the answer carries an explicit warning.")
	}

	o.history.Record(HistoryEntry{
		Query:          req.Query,
		Pipeline:       "rag",
		AgentsInvolved: agentsInvolved,
		Success:        true,
	})

	slog.Info("RAG pipeline complete",
		"confidence", finalConfidence,
		"documents", len(docs),
		"low_confidence", lowConfidence,
		"duration", time.Since(start))

	return &QueryResult{
		Response:             answer,
		Confidence:           finalConfidence,
		Sources:              docs,
		Explanation:          explanation,
		ReasoningChain:       reasoning,
		LowConfidenceWarning: lowConfidence,
		QueryQuality:         researchRes.Report,
		TokenUsage:           usage,
		ExecutionTime:        time.Since(start),
	}, nil
}

// generate produces an answer from the retrieved documents with one
// LLM call. Generation failures are fatal to the pipeline: there is no
// redundancy at this stage.
func (o *Orchestrator) generate(ctx context.Context, query string, docs []models.RetrievedDocument) (string, models.TokenUsage, error) {
	p, err := o.prompts.BuildGenerationPrompt(query, docs)
	if err != nil {
		return "", models.TokenUsage{}, fmt.Errorf("building generation prompt: %w", err)
	}
	system, err := o.prompts.RenderSystem(prompt.RoleGeneration)
	if err != nil {
		return "", models.TokenUsage{}, fmt.Errorf("rendering generation system prompt: %w", err)
	}

	resp, err := o.llm.Invoke(ctx, agent.InvokeRequest{
		Prompt:        p,
		SystemMessage: system,
		Provider:      o.opts.Provider,
	})
	if err != nil {
		return "", models.TokenUsage{}, fmt.Errorf("generating answer: %w", err)
	}
	return resp.Content, resp.TokenUsage, nil
}

// agentLogData flattens a full agent result for audit events.
func agentLogData(res agent.Result) map[string]any {
	data := map[string]any{
		"agent":                  res.Agent,
		"kind":                   string(res.Kind),
		"status":                 string(res.Status),
		"confidence":             res.Confidence,
		"execution_time_seconds": res.ExecutionTimeSeconds(),
	}
	if res.Err != "" {
		data["error"] = res.Err
	}
	return data
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
