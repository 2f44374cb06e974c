// Package clustering partitions feedback embeddings into topic clusters and
// ranks embeddings by similarity. All numeric inputs and outputs are plain Go
// slices; no library-native vector types cross this boundary.
package clustering

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/feedbacklens/analyzer/internal/apperrors"
	"github.com/feedbacklens/analyzer/internal/textfeatures"
	"github.com/feedbacklens/analyzer/pkg/vectormath"
)

const (
	defaultMinClusterSize = 5
	defaultMaxClusters    = 20
	defaultMaxIterations  = 100
	defaultSeed           = 42

	clusterKeywordCount = 5
	representativeCount = 3
)

// Config bounds clustering runs. Zero values fall back to defaults.
type Config struct {
	MinClusterSize int
	MaxClusters    int
	MaxIterations  int
	Seed           int64
}

// Engine runs seeded K-means clustering. It is stateless between calls and
// deterministic: identical input produces identical assignments.
type Engine struct {
	minClusterSize int
	maxClusters    int
	maxIterations  int
	seed           int64
}

// NewEngine creates a clustering engine.
func NewEngine(cfg Config) *Engine {
	if cfg.MinClusterSize < 2 {
		cfg.MinClusterSize = defaultMinClusterSize
	}
	if cfg.MaxClusters < 2 {
		cfg.MaxClusters = defaultMaxClusters
	}
	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.Seed == 0 {
		cfg.Seed = defaultSeed
	}

	return &Engine{
		minClusterSize: cfg.MinClusterSize,
		maxClusters:    cfg.MaxClusters,
		maxIterations:  cfg.MaxIterations,
		seed:           cfg.Seed,
	}
}

// Cluster represents a single topic cluster within a run.
type Cluster struct {
	ID                  int       `json:"id"`
	Size                int       `json:"size"`
	Keywords            []string  `json:"keywords"`
	RepresentativeTexts []string  `json:"representative_texts"`
	Centroid            []float32 `json:"-"`
}

// RunResult is the outcome of one clustering run. When InsufficientData is
// set, Labels and Clusters are empty and nothing should be persisted.
type RunResult struct {
	InsufficientData bool      `json:"insufficient_data"`
	Message          string    `json:"message,omitempty"`
	NumClusters      int       `json:"num_clusters"`
	TotalRecords     int       `json:"total_records"`
	Labels           []int     `json:"labels"`
	Clusters         []Cluster `json:"clusters"`
}

// Cluster partitions the given embeddings into topic clusters. texts must be
// parallel to embeddings. k <= 0 auto-selects the cluster count via the elbow
// heuristic. Fewer than MinClusterSize items yields an insufficient-data
// result, not an error.
func (e *Engine) Cluster(embeddings [][]float32, texts []string, k int) (*RunResult, error) {
	if len(embeddings) != len(texts) {
		return nil, apperrors.NewValidationError("texts",
			fmt.Sprintf("embeddings and texts must be parallel: %d vs %d", len(embeddings), len(texts)))
	}

	// A snapshot can mix dimensions when the embedding provider or its
	// configured dimensionality changed after rows were written. K-means has
	// no meaningful distance across dimensions, so reject the batch instead
	// of silently clustering garbage.
	for i, emb := range embeddings {
		if len(emb) != len(embeddings[0]) {
			return nil, apperrors.NewValidationError("embeddings",
				fmt.Sprintf("embeddings must share one dimension: index %d has %d, want %d",
					i, len(emb), len(embeddings[0])))
		}
	}

	if len(embeddings) < e.minClusterSize {
		slog.Warn("not enough feedback for clustering",
			"records", len(embeddings),
			"min_cluster_size", e.minClusterSize,
		)

		return &RunResult{
			InsufficientData: true,
			Message:          "not enough feedback items for clustering",
			TotalRecords:     len(embeddings),
		}, nil
	}

	if k <= 0 {
		k = e.selectK(embeddings)
	}

	// Clamp k to [2, min(n, maxClusters)]
	if k > len(embeddings) {
		k = len(embeddings)
	}
	if k > e.maxClusters {
		k = e.maxClusters
	}
	if k < 2 {
		k = 2
	}

	slog.Info("starting k-means clustering", "k", k, "records", len(embeddings))

	labels, centroids := e.kMeans(embeddings, k, rand.New(rand.NewSource(e.seed)))

	clusters := make([]Cluster, k)
	memberIdx := make([][]int, k)

	for i, label := range labels {
		memberIdx[label] = append(memberIdx[label], i)
	}

	for c := 0; c < k; c++ {
		members := memberIdx[c]

		// Nearest-to-centroid first for representative sampling
		sort.SliceStable(members, func(a, b int) bool {
			return vectormath.EuclideanDistance(embeddings[members[a]], centroids[c]) <
				vectormath.EuclideanDistance(embeddings[members[b]], centroids[c])
		})

		representatives := make([]string, 0, representativeCount)
		memberTexts := make([]string, 0, len(members))

		for _, i := range members {
			memberTexts = append(memberTexts, texts[i])
			if len(representatives) < representativeCount {
				representatives = append(representatives, texts[i])
			}
		}

		clusters[c] = Cluster{
			ID:                  c,
			Size:                len(members),
			Keywords:            textfeatures.ExtractKeywords(strings.Join(memberTexts, " "), clusterKeywordCount),
			RepresentativeTexts: representatives,
			Centroid:            centroids[c],
		}
	}

	return &RunResult{
		NumClusters:  k,
		TotalRecords: len(embeddings),
		Labels:       labels,
		Clusters:     clusters,
	}, nil
}

// selectK picks the cluster count via the elbow heuristic: run K-means for
// each candidate k, then choose the k immediately after the largest drop in
// successive inertia values.
func (e *Engine) selectK(embeddings [][]float32) int {
	maxK := len(embeddings) / e.minClusterSize
	if maxK > e.maxClusters {
		maxK = e.maxClusters
	}
	if maxK < 2 {
		maxK = 2
	}

	candidates := make([]int, 0, maxK-1)
	for k := 2; k <= maxK; k++ {
		candidates = append(candidates, k)
	}

	if len(candidates) < 2 {
		return 2
	}

	inertias := make([]float64, len(candidates))
	for i, k := range candidates {
		labels, centroids := e.kMeans(embeddings, k, rand.New(rand.NewSource(e.seed)))
		inertias[i] = inertia(embeddings, labels, centroids)
	}

	bestIdx := 0
	bestDrop := math.Inf(-1)

	for i := 0; i < len(inertias)-1; i++ {
		drop := inertias[i] - inertias[i+1]
		if drop > bestDrop {
			bestDrop = drop
			bestIdx = i
		}
	}

	elbow := candidates[bestIdx+1]
	slog.Debug("elbow analysis selected k", "k", elbow, "candidates", len(candidates))

	return elbow
}

// kMeans assigns each embedding to one of k centroids. Initialization is
// K-means++ style drawn from the given source, so runs are reproducible.
func (e *Engine) kMeans(embeddings [][]float32, k int, rng *rand.Rand) ([]int, [][]float32) {
	dim := len(embeddings[0])
	centroids := initCentroids(embeddings, k, rng)
	assignments := make([]int, len(embeddings))

	for iter := 0; iter < e.maxIterations; iter++ {
		changed := false
		for i, emb := range embeddings {
			nearest := nearestCentroid(emb, centroids)
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed = true
			}
		}

		if !changed && iter > 0 {
			break
		}

		newCentroids := make([][]float32, k)
		counts := make([]int, k)
		for c := 0; c < k; c++ {
			newCentroids[c] = make([]float32, dim)
		}

		for i, emb := range embeddings {
			c := assignments[i]
			counts[c]++
			for d := 0; d < dim; d++ {
				newCentroids[c][d] += emb[d]
			}
		}

		for c := 0; c < k; c++ {
			// Empty clusters keep their previous centroid
			if counts[c] == 0 {
				continue
			}
			for d := 0; d < dim; d++ {
				newCentroids[c][d] /= float32(counts[c])
			}
			centroids[c] = newCentroids[c]
		}
	}

	return assignments, centroids
}

// initCentroids picks k starting centroids, the first uniformly and the rest
// weighted by squared distance to the nearest chosen centroid.
func initCentroids(embeddings [][]float32, k int, rng *rand.Rand) [][]float32 {
	n := len(embeddings)
	centroids := make([][]float32, 0, k)
	centroids = append(centroids, embeddings[rng.Intn(n)])

	for len(centroids) < k {
		distances := make([]float64, n)
		var total float64

		for i, emb := range embeddings {
			minDist := math.MaxFloat64
			for _, c := range centroids {
				if d := vectormath.EuclideanDistance(emb, c); d < minDist {
					minDist = d
				}
			}
			distances[i] = minDist * minDist
			total += distances[i]
		}

		if total == 0 {
			// All remaining points coincide with a centroid; pick uniformly
			centroids = append(centroids, embeddings[rng.Intn(n)])
			continue
		}

		target := rng.Float64() * total
		var cum float64
		selected := n - 1
		for i, d := range distances {
			cum += d
			if cum >= target {
				selected = i
				break
			}
		}

		centroids = append(centroids, embeddings[selected])
	}

	return centroids
}

func nearestCentroid(embedding []float32, centroids [][]float32) int {
	nearest := 0
	minDist := math.MaxFloat64

	for i, c := range centroids {
		if d := vectormath.EuclideanDistance(embedding, c); d < minDist {
			minDist = d
			nearest = i
		}
	}

	return nearest
}

// inertia is the within-cluster sum of squared Euclidean distances.
func inertia(embeddings [][]float32, labels []int, centroids [][]float32) float64 {
	var sum float64
	for i, emb := range embeddings {
		d := vectormath.EuclideanDistance(emb, centroids[labels[i]])
		sum += d * d
	}

	return sum
}
