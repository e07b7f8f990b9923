package bruteforce

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_Query(t *testing.T) {
	idx := &Index{}
	require.NoError(t, idx.Build(
		[]int64{1, 2, 3, 4},
		[][]float32{{1, 0}, {0, 1}, {0.9, 0.1}, {0, 0}},
	))
	assert.Equal(t, 4, idx.Len())

	ids, scores, err := idx.Query([]float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)
	assert.InDelta(t, 1.0, scores[0], 1e-9)
	assert.Greater(t, scores[0], scores[1])

	// k <= 0 returns everything except the zero-magnitude vector.
	ids, _, err = idx.Query([]float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 2}, ids)
}

func TestIndex_TiesByID(t *testing.T) {
	idx := &Index{}
	require.NoError(t, idx.Build([]int64{7, 3, 5, 9}, [][]float32{{2, 1}, {2, 1}, {2, 1}, {1, 0}}))

	ids, scores, err := idx.Query([]float32{2, 1}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5, 7, 9}, ids)
	assert.Equal(t, scores[0], scores[1])
	assert.Equal(t, scores[1], scores[2])

	ids, _, err = idx.Query([]float32{2, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, ids)
}

func TestIndex_AddAndDims(t *testing.T) {
	idx := &Index{}
	require.NoError(t, idx.Add(1, []float32{1, 0, 0}))
	assert.Error(t, idx.Add(2, []float32{1, 0}))

	_, _, err := idx.Query([]float32{1, 0}, 1)
	assert.Error(t, err)

	ids, _, err := idx.Query([]float32{0, 0, 0}, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestIndex_MarshalRoundTrip(t *testing.T) {
	idx := &Index{}
	require.NoError(t, idx.Build([]int64{10, 20}, [][]float32{{1, 2, 3}, {-1, 0.5, math.MaxFloat32}}))

	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	restored := &Index{}
	require.NoError(t, restored.UnmarshalBinary(data))
	ids, vecs := restored.Entries()
	assert.Equal(t, []int64{10, 20}, ids)
	assert.Equal(t, [][]float32{{1, 2, 3}, {-1, 0.5, math.MaxFloat32}}, vecs)

	empty, err := (&Index{}).MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, restored.UnmarshalBinary(empty))
	assert.Equal(t, 0, restored.Len())

	assert.Error(t, restored.UnmarshalBinary(data[:len(data)-3]))
	assert.Error(t, restored.UnmarshalBinary([]byte{1}))
}
