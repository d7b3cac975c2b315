// Package prompt builds all prompt text for Conclave agents.
// Templates are named and rendered with explicit variable maps; a
// missing required placeholder is a hard error, not silently empty.
// The builder is stateless and safe for concurrent use.
package prompt

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/conclave-ai/conclave/pkg/models"
)

// ErrMissingVariable is wrapped when a template references a variable
// absent from the render call.
var ErrMissingVariable = errors.New("missing template variable")

// ErrUnknownTemplate is wrapped when a template name is not registered.
var ErrUnknownTemplate = errors.New("unknown template")

// placeholderPattern matches {name} placeholders. Double braces escape
// a literal brace and are left untouched.
var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Builder renders named prompt templates and role system prompts.
type Builder struct {
	templates     map[string]string
	systemPrompts map[string]string
}

// NewBuilder creates a Builder with the built-in template set.
func NewBuilder() *Builder {
	return &Builder{
		templates:     builtinTemplates(),
		systemPrompts: builtinSystemPrompts(),
	}
}

// Render renders a named template with the given variables.
// Fails with ErrUnknownTemplate or ErrMissingVariable.
func (b *Builder) Render(name string, vars map[string]string) (string, error) {
	tmpl, ok := b.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := match[1 : len(match)-1]
		val, ok := vars[key]
		if !ok {
			missing = append(missing, key)
			return match
		}
		return val
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: template %s requires %s",
			ErrMissingVariable, name, strings.Join(missing, ", "))
	}
	return out, nil
}

// RenderSystem returns the system prompt for a named agent role.
func (b *Builder) RenderSystem(role string) (string, error) {
	sp, ok := b.systemPrompts[role]
	if !ok {
		return "", fmt.Errorf("%w: no system prompt for role %s", ErrUnknownTemplate, role)
	}
	return sp, nil
}

// maxDocsInPrompt is the number of retrieved documents shown to voters.
const maxDocsInPrompt = 3

// docExcerptLimit truncates each document shown to voters.
const docExcerptLimit = 500

// debateExcerptLimit truncates each peer response in a debate context.
const debateExcerptLimit = 300

// BuildVoterEvaluationPrompt builds the evaluation prompt for a council
// voter: the query, optional context, and the top retrieved documents
// truncated to a fixed excerpt length.
func (b *Builder) BuildVoterEvaluationPrompt(query, context string, docs []models.RetrievedDocument) (string, error) {
	var sb strings.Builder
	if len(docs) > 0 {
		sb.WriteString("Relevant documents:\n\n")
		for i, doc := range docs {
			if i >= maxDocsInPrompt {
				break
			}
			sb.WriteString(fmt.Sprintf("[Source %d] %s\n\n", i+1, truncate(doc.Content, docExcerptLimit)))
		}
	}
	contextBlock := ""
	if context != "" {
		contextBlock = "Additional context:\n" + context + "\n\n"
	}
	return b.Render("voter_evaluation", map[string]string{
		"query":     query,
		"context":   contextBlock,
		"documents": sb.String(),
	})
}

// BuildGenerationPrompt builds the answer-generation prompt for the RAG
// pipeline. Instructs the model to cite documents with [Source N]
// markers so citation coverage can be measured.
func (b *Builder) BuildGenerationPrompt(query string, docs []models.RetrievedDocument) (string, error) {
	var sb strings.Builder
	for i, doc := range docs {
		sb.WriteString(fmt.Sprintf("[Source %d]\n%s\n\n", i+1, doc.Content))
	}
	return b.Render("rag_generation", map[string]string{
		"query":     query,
		"documents": sb.String(),
	})
}

// BuildGroundingPrompt builds the verification prompt checking a
// generated answer against its cited sources.
func (b *Builder) BuildGroundingPrompt(response string, sources []models.RetrievedDocument) (string, error) {
	var sb strings.Builder
	for i, doc := range sources {
		sb.WriteString(fmt.Sprintf("[Source %d]\n%s\n\n", i+1, doc.Content))
	}
	return b.Render("grounding_check", map[string]string{
		"response": response,
		"sources":  sb.String(),
	})
}

// BuildExplanationPrompt builds the explanation-generation prompt.
func (b *Builder) BuildExplanationPrompt(response string, sources []models.RetrievedDocument, process string) (string, error) {
	var sb strings.Builder
	for i, doc := range sources {
		sb.WriteString(fmt.Sprintf("[Source %d] %s\n", i+1, truncate(doc.Content, docExcerptLimit)))
	}
	return b.Render("explanation", map[string]string{
		"response": response,
		"sources":  sb.String(),
		"process":  process,
	})
}

// BuildSynthesisPrompt builds the prompt that asks the model to
// integrate every voter's answer into one response, resolving
// contradictions and flagging disagreement.
func (b *Builder) BuildSynthesisPrompt(votes []models.Vote) (string, error) {
	var sb strings.Builder
	for _, v := range votes {
		sb.WriteString(fmt.Sprintf("Agent %s (confidence %.3f):\nResponse: %s\nReasoning: %s\n\n",
			v.Agent, v.Confidence, v.Response, v.Reasoning))
	}
	return b.Render("synthesis", map[string]string{
		"votes": sb.String(),
	})
}

// BuildDebateContext builds the context string given to voters in a
// debate round: the prior aggregated response plus a truncated view of
// every other voter's prior answer.
func (b *Builder) BuildDebateContext(agentName, priorResponse string, priorVotes []models.Vote) string {
	var sb strings.Builder
	sb.WriteString("Previous round consensus:\n")
	sb.WriteString(priorResponse)
	sb.WriteString("\n\nOther council members said:\n")
	for _, v := range priorVotes {
		if v.Agent == agentName {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s (confidence %.3f): %s\n",
			v.Agent, v.Confidence, truncate(v.Response, debateExcerptLimit)))
	}
	sb.WriteString("\nReconsider your answer in light of the other responses. " +
		"You may revise your position or defend it with stronger evidence.")
	return sb.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
