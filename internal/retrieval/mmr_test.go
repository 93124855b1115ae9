package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarityZeroNorm(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, []float32{1}))
}

func TestCosineSimilarityIdentical(t *testing.T) {
	v := []float32{1, 2, 3}
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
}

func TestMMRRerankPicksHighestSimilarityFirst(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{1, 0},  // identical to query
		{0, 1},  // orthogonal
		{-1, 0}, // opposite
	}
	selected := MMRRerank(query, candidates, 1, 0.5)
	assert.Equal(t, []int{0}, selected)
}

func TestMMRRerankPrefersDiversityOnSecondPick(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{1, 0},    // picked first
		{0.99, 0}, // near-duplicate of first, low diversity
		{0, 1},    // orthogonal, more diverse
	}
	selected := MMRRerank(query, candidates, 2, 0.3)
	assert.Equal(t, 0, selected[0])
	assert.Equal(t, 2, selected[1])
}

func TestMMRRerankStopsWhenPoolEmpty(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{{1, 0}}
	selected := MMRRerank(query, candidates, 5, 0.5)
	assert.Len(t, selected, 1)
}
