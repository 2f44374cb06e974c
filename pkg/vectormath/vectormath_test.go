package vectormath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeL2(t *testing.T) {
	v := []float32{3, 4}
	NormalizeL2(v)

	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
}

func TestNormalizeL2_zeroVector_unchanged(t *testing.T) {
	v := []float32{0, 0, 0}
	NormalizeL2(v)

	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "mismatched lengths", a: []float32{1, 0}, b: []float32{1}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestEuclideanDistance(t *testing.T) {
	assert.InDelta(t, 5, EuclideanDistance([]float32{0, 0}, []float32{3, 4}), 1e-9)
	assert.InDelta(t, 0, EuclideanDistance([]float32{1, 1}, []float32{1, 1}), 1e-9)
	assert.True(t, math.IsInf(EuclideanDistance([]float32{1}, []float32{1, 2}), 1))
}
