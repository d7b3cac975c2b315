package agent

import (
	"math"
	"strings"

	"github.com/conclave-ai/conclave/pkg/models"
)

// ParsedVoterResponse is the result of parsing a voter's raw LLM text
// into its expected sections.
type ParsedVoterResponse struct {
	Response       string
	Reasoning      string
	Evidence       []string
	ConfidenceText string

	// FoundSections tracks which headers were detected, for diagnostics
	// and for the no-RESPONSE fallback.
	FoundSections map[string]bool
}

// voter section names, in the order the prompt requests them.
const (
	sectionResponse   = "response"
	sectionReasoning  = "reasoning"
	sectionEvidence   = "evidence"
	sectionConfidence = "confidence"
)

var voterSectionHeaders = map[string]string{
	"RESPONSE:":   sectionResponse,
	"REASONING:":  sectionReasoning,
	"EVIDENCE:":   sectionEvidence,
	"CONFIDENCE:": sectionConfidence,
}

// ParseVoterResponse parses raw LLM output into sections by scanning
// line by line for case-insensitive section headers. Text before the
// first recognized header is discarded; content after a header on the
// same line and on following lines belongs to that section. Evidence
// lines become list entries; other sections concatenate with newlines.
//
// The parser is intentionally forgiving: if no RESPONSE header is
// found, the entire raw text becomes the response. Malformed output is
// accepted, never retried.
func ParseVoterResponse(text string) *ParsedVoterResponse {
	parsed := &ParsedVoterResponse{
		FoundSections: map[string]bool{},
	}

	var current string
	buffers := map[string][]string{}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)

		if section, rest, ok := matchSectionHeader(line); ok {
			current = section
			parsed.FoundSections[section] = true
			if rest != "" {
				buffers[current] = append(buffers[current], rest)
			}
			continue
		}

		// Text before the first header is discarded. Blank lines inside
		// a section survive as paragraph breaks; evidence is a list, so
		// blanks there would only produce empty entries.
		if current == "" {
			continue
		}
		if line == "" && current == sectionEvidence {
			continue
		}
		buffers[current] = append(buffers[current], line)
	}

	parsed.Response = joinSection(buffers[sectionResponse])
	parsed.Reasoning = joinSection(buffers[sectionReasoning])
	parsed.Evidence = buffers[sectionEvidence]
	parsed.ConfidenceText = joinSection(buffers[sectionConfidence])

	if !parsed.FoundSections[sectionResponse] {
		parsed.Response = strings.TrimSpace(text)
	}
	return parsed
}

// joinSection concatenates section lines with newlines, dropping only
// leading and trailing blanks.
func joinSection(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// matchSectionHeader checks whether a line starts with a voter section
// header (case-insensitive) and returns the section name plus any
// content following the header on the same line.
func matchSectionHeader(line string) (section, rest string, ok bool) {
	upper := strings.ToUpper(line)
	for header, name := range voterSectionHeaders {
		if strings.HasPrefix(upper, header) {
			return name, strings.TrimSpace(line[len(header):]), true
		}
	}
	return "", "", false
}

// Confidence keyword bases. The voter's stated confidence is derived,
// never copied verbatim from the model.
const (
	confidenceBaseHigh    = 0.85
	confidenceBaseMedium  = 0.65
	confidenceBaseLow     = 0.40
	confidenceBaseDefault = 0.50

	// reasoningBonusThreshold is the reasoning length above which a
	// small bonus applies.
	reasoningBonusThreshold = 200
	reasoningBonus          = 0.05
)

// BaseConfidence maps the model's confidence text to a numeric base.
func BaseConfidence(confidenceText string) float64 {
	lower := strings.ToLower(confidenceText)
	switch {
	case strings.Contains(lower, "high"):
		return confidenceBaseHigh
	case strings.Contains(lower, "medium"):
		return confidenceBaseMedium
	case strings.Contains(lower, "low"):
		return confidenceBaseLow
	default:
		return confidenceBaseDefault
	}
}

// DeriveConfidence computes a voter's final confidence: the keyword
// base, blended 70/30 with the average similarity of the supplied
// documents when any were retrieved, plus a small bonus for substantial
// reasoning. Capped at 1.0 and rounded to 3 decimals.
func DeriveConfidence(parsed *ParsedVoterResponse, docs []models.RetrievedDocument) float64 {
	confidence := BaseConfidence(parsed.ConfidenceText)
	if len(docs) > 0 {
		confidence = 0.7*confidence + 0.3*models.AvgSimilarity(docs)
	}
	if len(parsed.Reasoning) > reasoningBonusThreshold {
		confidence = math.Min(confidence+reasoningBonus, 1.0)
	}
	return math.Round(confidence*1000) / 1000
}
