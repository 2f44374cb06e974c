package clustering

import (
	"sort"

	"github.com/feedbacklens/analyzer/pkg/vectormath"
)

// Match is one ranked candidate from a similarity query.
type Match struct {
	Index int     `json:"index"`
	Score float64 `json:"score"` // cosine similarity in [-1, 1]
}

// FindSimilar ranks candidates by cosine similarity to the query and returns
// the top-K as (index, score) pairs, descending by score with ties kept in
// original candidate order. topK is clamped to len(candidates); an empty
// candidate set yields an empty result.
func FindSimilar(query []float32, candidates [][]float32, topK int) []Match {
	if topK <= 0 || len(candidates) == 0 {
		return []Match{}
	}

	matches := make([]Match, len(candidates))
	for i, candidate := range candidates {
		matches[i] = Match{Index: i, Score: vectormath.CosineSimilarity(query, candidate)}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})

	if topK > len(matches) {
		topK = len(matches)
	}

	return matches[:topK]
}
