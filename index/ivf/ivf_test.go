package ivf

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

func TestIndex_AllProbesIsExact(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ids, vecs := randomVectors(rng, 500, 12)

	iv := New(16, 16)
	require.NoError(t, iv.Build(ids, vecs))
	assert.Equal(t, 500, iv.Len())
	bf := &bruteforce.Index{}
	require.NoError(t, bf.Build(ids, vecs))

	for q := 0; q < 10; q++ {
		_, qs := randomVectors(rng, 1, 12)
		got, gotScores, err := iv.Query(qs[0], 5)
		require.NoError(t, err)
		want, wantScores, err := bf.Query(qs[0], 5)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		for i := range got {
			assert.InDelta(t, wantScores[i], gotScores[i], 1e-5)
		}
	}
}

func TestIndex_FewProbesFindsSelf(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	ids, vecs := randomVectors(rng, 300, 8)

	iv := New(20, 2)
	require.NoError(t, iv.Build(ids, vecs))
	for j := 0; j < 30; j++ {
		got, scores, err := iv.Query(vecs[j], 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, ids[j], got[0])
		assert.InDelta(t, 1.0, scores[0], 1e-5)
	}
}

func TestIndex_AddAndZeroVectors(t *testing.T) {
	iv := New(4, 0)
	require.NoError(t, iv.Add(1, []float32{0, 0}))
	ids, _, err := iv.Query([]float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, iv.Add(2, []float32{1, 0}))
	require.NoError(t, iv.Add(3, []float32{0, 1}))
	assert.Error(t, iv.Add(4, []float32{1}))

	ids, _, err = iv.Query([]float32{1, 0.1}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids)

	_, _, err = iv.Query([]float32{1, 0, 0}, 1)
	assert.Error(t, err)
}

func TestIndex_MarshalRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ids, vecs := randomVectors(rng, 120, 6)
	vecs[5] = make([]float32, 6)

	iv := New(8, 3)
	require.NoError(t, iv.Build(ids, vecs))
	data, err := iv.MarshalBinary()
	require.NoError(t, err)

	restored := New(0, 0)
	require.NoError(t, restored.UnmarshalBinary(data))
	assert.Equal(t, 120, restored.Len())
	assert.Equal(t, 8, restored.Lists)
	assert.Equal(t, 3, restored.Probes)

	for j := 0; j < 10; j++ {
		want, _, err := iv.Query(vecs[j+10], 4)
		require.NoError(t, err)
		got, _, err := restored.Query(vecs[j+10], 4)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	assert.Error(t, restored.UnmarshalBinary(data[:len(data)-1]))
	assert.Error(t, restored.UnmarshalBinary([]byte("nope")))
}
