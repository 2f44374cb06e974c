// Package textfeatures provides pure text analysis over raw feedback:
// keyword extraction, intent detection, competitor mentions and urgency
// scoring. It holds no external state and calls no models.
package textfeatures

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultKeywordCount is the keyword cap used by enrichment.
const DefaultKeywordCount = 10

// wordPattern matches lowercase word tokens of length >= 3.
var wordPattern = regexp.MustCompile(`\b[a-z]{3,}\b`)

// stopWords are dropped before keyword counting.
var stopWords = map[string]struct{}{
	"i": {}, "me": {}, "my": {}, "myself": {}, "we": {}, "our": {}, "ours": {},
	"you": {}, "your": {}, "yours": {}, "he": {}, "him": {}, "his": {},
	"she": {}, "her": {}, "hers": {}, "it": {}, "its": {}, "they": {}, "them": {},
	"what": {}, "which": {}, "who": {}, "when": {}, "where": {}, "why": {},
	"how": {}, "a": {}, "an": {}, "the": {}, "and": {}, "but": {}, "if": {},
	"or": {}, "because": {}, "as": {}, "until": {}, "while": {}, "of": {},
	"at": {}, "by": {}, "for": {}, "with": {}, "about": {}, "against": {},
	"between": {}, "into": {}, "through": {}, "during": {}, "before": {},
	"after": {}, "above": {}, "below": {}, "to": {}, "from": {}, "up": {},
	"down": {}, "in": {}, "out": {}, "on": {}, "off": {}, "over": {},
	"under": {}, "again": {}, "further": {}, "then": {}, "once": {}, "is": {},
	"am": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"being": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {},
	"did": {}, "will": {}, "would": {}, "should": {}, "could": {}, "may": {},
	"might": {}, "must": {}, "can": {}, "this": {}, "that": {}, "these": {},
	"those": {},
}

// Urgency keyword buckets, checked in priority order; at most one bucket
// contributes to the score.
var (
	criticalKeywords = []string{"urgent", "critical", "emergency", "immediately", "asap", "broken", "down", "not working"}
	highKeywords     = []string{"important", "soon", "problem", "issue", "bug", "error", "frustrated"}
	mediumKeywords   = []string{"please", "need", "help", "confused", "unclear"}
)

var featureIndicators = []string{
	"would be great", "please add", "wish you had", "feature request",
	"could you add", "suggestion", "enhance", "improve", "add support",
	"would love to see", "missing", "lack of", "needs", "want",
}

var bugIndicators = []string{
	"bug", "error", "broken", "not working", "doesn't work", "crash",
	"issue", "problem", "glitch", "malfunction", "incorrect", "wrong",
}

// competitorNames is the fixed detection list; customize per deployment.
var competitorNames = []string{
	"salesforce", "hubspot", "zendesk", "intercom", "freshdesk",
	"pipedrive", "zoho", "microsoft dynamics", "oracle", "sap",
}

// ExtractKeywords returns up to topN keywords ordered by descending frequency,
// ties broken by first occurrence in the text.
func ExtractKeywords(text string, topN int) []string {
	if topN <= 0 {
		return nil
	}

	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := make([]string, 0, len(words))

	for i, w := range words {
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, seen := counts[w]; !seen {
			firstSeen[w] = i
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(a, b int) bool {
		if counts[order[a]] != counts[order[b]] {
			return counts[order[a]] > counts[order[b]]
		}
		return firstSeen[order[a]] < firstSeen[order[b]]
	})

	if len(order) > topN {
		order = order[:topN]
	}

	return order
}

// IsFeatureRequest reports whether the text reads like a feature request.
func IsFeatureRequest(text string) bool {
	return containsAny(strings.ToLower(text), featureIndicators)
}

// IsBugReport reports whether the text reads like a bug report. A text may be
// both a bug report and a feature request.
func IsBugReport(text string) bool {
	return containsAny(strings.ToLower(text), bugIndicators)
}

// DetectCompetitors returns the competitor names mentioned in the text, in
// detection-list order.
func DetectCompetitors(text string) []string {
	lower := strings.ToLower(text)

	var mentioned []string
	for _, name := range competitorNames {
		if strings.Contains(lower, name) {
			mentioned = append(mentioned, name)
		}
	}

	return mentioned
}

// UrgencyThresholds map the urgency score to a level. Both are configuration
// inputs; Medium must be below High.
type UrgencyThresholds struct {
	High   int
	Medium int
}

// CalculateUrgency derives an urgency score in [1, 10] and its level from the
// text and the sentiment outcome. Starting from a base of 5: the highest
// matching keyword bucket adds 3/2/1, negative sentiment adds 1, and
// exclamation marks add up to 2.
func CalculateUrgency(text string, negativeSentiment bool, thresholds UrgencyThresholds) (int, string) {
	lower := strings.ToLower(text)

	score := 5

	switch {
	case containsAny(lower, criticalKeywords):
		score += 3
	case containsAny(lower, highKeywords):
		score += 2
	case containsAny(lower, mediumKeywords):
		score += 1
	}

	if negativeSentiment {
		score++
	}

	exclamations := strings.Count(text, "!")
	score += min(exclamations, 2)

	score = max(1, min(10, score))

	var level string
	switch {
	case score >= thresholds.High && score >= 9:
		level = "critical"
	case score >= thresholds.High:
		level = "high"
	case score >= thresholds.Medium:
		level = "medium"
	default:
		level = "low"
	}

	return score, level
}

func containsAny(lower string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}

	return false
}
