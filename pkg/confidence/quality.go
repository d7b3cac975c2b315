// Package confidence scores queries and generated answers.
// It hosts the query quality validator (gibberish screening) and the
// multi-factor confidence calculator for the RAG pipeline.
package confidence

import (
	"strings"

	"github.com/conclave-ai/conclave/pkg/models"
)

// Heuristic penalties. The final quality score is 1 minus the worst
// single penalty, not a sum: one strong gibberish signal dominates.
const (
	penaltyTooShort       = 0.8
	penaltyTooLong        = 0.2
	penaltyHeavyRepeat    = 0.9
	penaltyModerateRepeat = 0.5
	penaltyConsonantRatio = 0.6
	penaltyNoWhitespace   = 0.7
	penaltyFewRealWords   = 0.9
	penaltySomeRealWords  = 0.6
	penaltyLowAlphabetic  = 0.5
	penaltyKeyboardMash   = 0.9
)

const (
	minQueryLen = 3
	maxQueryLen = 500
	// validThreshold is the quality score below which a query is
	// considered invalid.
	validThreshold = 0.3
)

// qwertyRows are the physical keyboard rows used for mash detection.
var qwertyRows = []string{"1234567890", "qwertyuiop", "asdfghjkl", "zxcvbnm"}

// commonWords is a small recognizable-word list; anything not on it is
// judged by word shape instead.
var commonWords = map[string]bool{}

func init() {
	for _, w := range strings.Fields(
		"the a an and or but if then else when what which who whom whose why how " +
			"is are was were be been being am do does did can could will would shall " +
			"should may might must have has had i you he she it we they me him her us " +
			"them my your his its our their this that these those of in on at by for " +
			"with about from to into over under between through during before after " +
			"not no yes all any both each few more most other some such only own same " +
			"so than too very just there here where now also new old good best first " +
			"last long great little own right big high different small large next " +
			"early young important public bad able capital france country city world " +
			"year day time way work life part place case week company system program " +
			"question number point government many tell ask show find give use make " +
			"know think take see come want look need feel try leave call") {
		commonWords[w] = true
	}
}

// ValidateQuery screens a raw query for gibberish and keyboard mashing.
// Pure function; computed once per query and attached to the retrieval
// result read-only.
func ValidateQuery(query string) models.QueryQualityReport {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return models.QueryQualityReport{
			IsValid:           false,
			QualityScore:      0.0,
			Issues:            []string{"empty query"},
			ConfidencePenalty: confidencePenalty(0.0),
		}
	}

	var worst float64
	var issues []string
	flag := func(penalty float64, issue string) {
		issues = append(issues, issue)
		if penalty > worst {
			worst = penalty
		}
	}

	lower := strings.ToLower(trimmed)

	// 1. Length bounds.
	if len(trimmed) < minQueryLen {
		flag(penaltyTooShort, "query too short")
	} else if len(trimmed) > maxQueryLen {
		flag(penaltyTooLong, "query unusually long")
	}

	// 2. Immediate character repetition (substring lengths 2 to 4).
	if cov := repetitionCoverage(lower); cov > 0.5 {
		flag(penaltyHeavyRepeat, "heavy character repetition")
	} else if cov > 0.3 {
		flag(penaltyModerateRepeat, "character repetition")
	}

	// 3. Consonant to vowel ratio.
	if ratio, ok := consonantVowelRatio(lower); ok && (ratio < 0.2 || ratio > 5.0) {
		flag(penaltyConsonantRatio, "unusual consonant/vowel ratio")
	}

	// 4. Long run without whitespace.
	if len(trimmed) > 20 && !strings.ContainsAny(trimmed, " \t\n") {
		flag(penaltyNoWhitespace, "no whitespace in long query")
	}

	// 5. Recognizable-word ratio.
	if ratio, ok := recognizableWordRatio(lower); ok {
		if ratio < 0.1 {
			flag(penaltyFewRealWords, "almost no recognizable words")
		} else if ratio < 0.3 {
			flag(penaltySomeRealWords, "few recognizable words")
		}
	}

	// 6. Alphabetic-character ratio.
	if alphabeticRatio(trimmed) < 0.3 {
		flag(penaltyLowAlphabetic, "mostly non-alphabetic characters")
	}

	// 7. QWERTY same-row adjacency (keyboard mashing).
	if keyboardAdjacencyRatio(lower) > 0.5 {
		flag(penaltyKeyboardMash, "keyboard-adjacent character sequence")
	}

	score := round3(1.0 - worst)
	return models.QueryQualityReport{
		IsValid:           score >= validThreshold,
		QualityScore:      score,
		Issues:            issues,
		ConfidencePenalty: confidencePenalty(score),
	}
}

// confidencePenalty is the staircase penalty consumers apply to answers
// for low-quality queries.
func confidencePenalty(score float64) float64 {
	switch {
	case score < 0.2:
		return 0.9
	case score < 0.4:
		return 0.7
	case score < 0.6:
		return 0.4
	default:
		return 0.0
	}
}

// repetitionCoverage scans substring lengths 2 to 4 for immediately
// repeating runs and returns the largest fraction of the string covered
// by any repeated span.
func repetitionCoverage(s string) float64 {
	n := len(s)
	if n < 4 {
		return 0
	}
	var best float64
	for size := 2; size <= 4; size++ {
		covered := make([]bool, n)
		for i := 0; i+2*size <= n; i++ {
			if s[i:i+size] == s[i+size:i+2*size] {
				for j := i; j < i+2*size; j++ {
					covered[j] = true
				}
			}
		}
		count := 0
		for _, c := range covered {
			if c {
				count++
			}
		}
		if frac := float64(count) / float64(n); frac > best {
			best = frac
		}
	}
	return best
}

// consonantVowelRatio returns consonants divided by vowels over the
// letters of s. ok is false when s contains no letters. A string with
// consonants but zero vowels reports a ratio above any sane bound.
func consonantVowelRatio(s string) (float64, bool) {
	var vowels, consonants int
	for _, r := range s {
		if r < 'a' || r > 'z' {
			continue
		}
		if strings.ContainsRune("aeiou", r) {
			vowels++
		} else {
			consonants++
		}
	}
	if vowels+consonants == 0 {
		return 0, false
	}
	if vowels == 0 {
		return float64(consonants) * 100, true
	}
	return float64(consonants) / float64(vowels), true
}

// recognizableWordRatio returns the fraction of whitespace-separated
// tokens that are either common words or plausibly word-shaped.
func recognizableWordRatio(s string) (float64, bool) {
	words := strings.Fields(s)
	if len(words) == 0 {
		return 0, false
	}
	recognized := 0
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?\"'()[]{}")
		if w == "" {
			continue
		}
		if commonWords[w] || isWordShaped(w) {
			recognized++
		}
	}
	return float64(recognized) / float64(len(words)), true
}

// isWordShaped applies the word-shape heuristic: at least 2 characters,
// contains a vowel unless very short, and no consonant run longer
// than 4.
func isWordShaped(w string) bool {
	if len(w) < 2 {
		return false
	}
	hasVowel := strings.ContainsAny(w, "aeiouy")
	if !hasVowel && len(w) > 3 {
		return false
	}
	run := 0
	for _, r := range w {
		if r >= 'a' && r <= 'z' && !strings.ContainsRune("aeiouy", r) {
			run++
			if run > 4 {
				return false
			}
		} else {
			run = 0
		}
	}
	return true
}

// alphabeticRatio returns the fraction of characters that are ASCII
// letters.
func alphabeticRatio(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	letters := 0
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			letters++
		}
	}
	return float64(letters) / float64(len(s))
}

// keyboardAdjacencyRatio returns the fraction of consecutive character
// pairs that sit next to each other on the same QWERTY row.
func keyboardAdjacencyRatio(s string) float64 {
	filtered := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) < 2 {
		return 0
	}
	adjacent := 0
	for i := 0; i+1 < len(filtered); i++ {
		if sameRowAdjacent(filtered[i], filtered[i+1]) {
			adjacent++
		}
	}
	return float64(adjacent) / float64(len(filtered)-1)
}

func sameRowAdjacent(a, b rune) bool {
	for _, row := range qwertyRows {
		ia := strings.IndexRune(row, a)
		if ia == -1 {
			continue
		}
		ib := strings.IndexRune(row, b)
		if ib == -1 {
			return false
		}
		diff := ia - ib
		return diff == 1 || diff == -1
	}
	return false
}
