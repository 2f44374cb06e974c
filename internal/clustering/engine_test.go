package clustering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbacklens/analyzer/internal/apperrors"
)

// twoGroups returns 5 embeddings forming two visually separable groups of
// sizes 3 and 2, with matching texts.
func twoGroups() ([][]float32, []string) {
	embeddings := [][]float32{
		{1.0, 1.0}, {1.1, 0.9}, {0.9, 1.1}, // group A
		{-1.0, -1.0}, {-1.1, -0.9}, // group B
	}
	texts := []string{
		"dashboard loads slowly",
		"dashboard performance is bad",
		"slow dashboard rendering",
		"please add dark mode",
		"dark mode would be great",
	}

	return embeddings, texts
}

func TestCluster_autoSelectsTwoSeparableGroups(t *testing.T) {
	engine := NewEngine(Config{MinClusterSize: 2})
	embeddings, texts := twoGroups()

	result, err := engine.Cluster(embeddings, texts, 0)
	require.NoError(t, err)
	require.False(t, result.InsufficientData)

	assert.Equal(t, 2, result.NumClusters)
	require.Len(t, result.Labels, 5)

	// Each group lands in a single, distinct cluster.
	assert.Equal(t, result.Labels[0], result.Labels[1])
	assert.Equal(t, result.Labels[0], result.Labels[2])
	assert.Equal(t, result.Labels[3], result.Labels[4])
	assert.NotEqual(t, result.Labels[0], result.Labels[3])

	for _, label := range result.Labels {
		assert.GreaterOrEqual(t, label, 0)
		assert.Less(t, label, result.NumClusters)
	}
}

func TestCluster_deterministicAcrossRuns(t *testing.T) {
	engine := NewEngine(Config{MinClusterSize: 2, Seed: 42})
	embeddings, texts := twoGroups()

	first, err := engine.Cluster(embeddings, texts, 0)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := engine.Cluster(embeddings, texts, 0)
		require.NoError(t, err)
		assert.Equal(t, first.Labels, again.Labels, "identical input must produce identical labels")
		assert.Equal(t, first.NumClusters, again.NumClusters)
	}
}

func TestCluster_insufficientData(t *testing.T) {
	engine := NewEngine(Config{MinClusterSize: 5})

	result, err := engine.Cluster([][]float32{{1, 0}, {0, 1}}, []string{"a", "b"}, 0)
	require.NoError(t, err)

	assert.True(t, result.InsufficientData)
	assert.NotEmpty(t, result.Message)
	assert.Empty(t, result.Labels)
	assert.Empty(t, result.Clusters)
	assert.Equal(t, 2, result.TotalRecords)
}

func TestCluster_mismatchedInput(t *testing.T) {
	engine := NewEngine(Config{})

	_, err := engine.Cluster([][]float32{{1, 0}}, []string{"a", "b"}, 0)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCluster_mixedDimensionEmbeddings(t *testing.T) {
	engine := NewEngine(Config{MinClusterSize: 2})

	// A snapshot written under two provider configurations: mostly 2-dim
	// vectors with a 1-dim and a 3-dim straggler.
	embeddings := [][]float32{
		{1.0, 1.0}, {1.1, 0.9}, {0.9, 1.1},
		{-1.0},
		{-1.1, -0.9, 0.0},
	}
	texts := []string{"a", "b", "c", "d", "e"}

	_, err := engine.Cluster(embeddings, texts, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Explicit k takes the same path.
	_, err = engine.Cluster(embeddings, texts, 2)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCluster_explicitKClamped(t *testing.T) {
	engine := NewEngine(Config{MinClusterSize: 2, MaxClusters: 3})
	embeddings, texts := twoGroups()

	result, err := engine.Cluster(embeddings, texts, 50)
	require.NoError(t, err)

	assert.Equal(t, 3, result.NumClusters, "k clamps to maxClusters")

	result, err = engine.Cluster(embeddings, texts, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, result.NumClusters, "k below 2 is raised to 2")
}

func TestCluster_metadata(t *testing.T) {
	engine := NewEngine(Config{MinClusterSize: 2})
	embeddings, texts := twoGroups()

	result, err := engine.Cluster(embeddings, texts, 2)
	require.NoError(t, err)

	totalMembers := 0
	for _, cluster := range result.Clusters {
		totalMembers += cluster.Size
		assert.NotEmpty(t, cluster.Keywords)
		assert.NotEmpty(t, cluster.RepresentativeTexts)
		assert.LessOrEqual(t, len(cluster.RepresentativeTexts), 3)
		assert.Equal(t, cluster.ID, result.Clusters[cluster.ID].ID)
	}

	assert.Equal(t, len(embeddings), totalMembers, "every item belongs to exactly one cluster")

	// The dashboard group's keywords should surface its dominant term.
	dashboardCluster := result.Clusters[result.Labels[0]]
	assert.Contains(t, dashboardCluster.Keywords, "dashboard")
}
