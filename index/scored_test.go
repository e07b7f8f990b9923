package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopK(t *testing.T) {
	candidates := []Scored{
		{ID: 3, Score: 0.5},
		{ID: 1, Score: 0.9},
		{ID: 2, Score: 0.5},
		{ID: 4, Score: -0.1},
	}

	ids, scores := TopK(candidates, 3)
	assert.Equal(t, []int64{1, 2, 3}, ids)
	assert.Equal(t, []float64{0.9, 0.5, 0.5}, scores)

	ids, _ = TopK(candidates, 0)
	assert.Len(t, ids, 4)

	ids, _ = TopK(nil, 5)
	assert.Empty(t, ids)
}
