package cover

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/vecstore/index/bruteforce"
)

func randomVectors(rng *rand.Rand, n, dim int) ([]int64, [][]float32) {
	ids := make([]int64, n)
	vecs := make([][]float32, n)
	for i := range vecs {
		ids[i] = int64(i + 1)
		v := make([]float32, dim)
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		vecs[i] = v
	}
	return ids, vecs
}

func TestIndex_AgreesWithBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids, vecs := randomVectors(rng, 400, 16)

	cv := New(0)
	require.NoError(t, cv.Build(ids, vecs))
	bf := &bruteforce.Index{}
	require.NoError(t, bf.Build(ids, vecs))

	for q := 0; q < 25; q++ {
		_, qs := randomVectors(rng, 1, 16)
		gotIDs, gotScores, err := cv.Query(qs[0], 3)
		require.NoError(t, err)
		wantIDs, wantScores, err := bf.Query(qs[0], 3)
		require.NoError(t, err)
		require.Len(t, gotIDs, 3)
		assert.Equal(t, wantIDs[0], gotIDs[0])
		for i := range gotScores {
			assert.InDelta(t, wantScores[i], gotScores[i], 1e-4)
		}
	}
}

func TestIndex_ZeroVectorsAndRoundTrip(t *testing.T) {
	cv := New(1.5)
	require.NoError(t, cv.Build([]int64{1, 2, 3}, [][]float32{{1, 0}, {0, 0}, {0, 2}}))
	assert.Equal(t, 3, cv.Len())

	ids, scores, err := cv.Query([]float32{2, 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)
	assert.InDelta(t, 1.0, scores[0], 1e-6)
	assert.InDelta(t, 0.0, scores[1], 1e-6)

	ids, _, err = cv.Query([]float32{0, 0}, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, _, err = cv.Query([]float32{1, 0, 0}, 1)
	assert.Error(t, err)

	data, err := cv.MarshalBinary()
	require.NoError(t, err)
	restored := New(0)
	require.NoError(t, restored.UnmarshalBinary(data))
	assert.Equal(t, 3, restored.Len())
	ids, _, err = restored.Query([]float32{0, 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids)
}
