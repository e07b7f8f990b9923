package tree

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_KNearestNeighborsMatchesScan(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tr := NewTree[int](1.3, DistanceFunctionEuclidean)
	var points []*Point
	for i := 0; i < 300; i++ {
		v := make([]float32, 8)
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		p := NewPoint(v...)
		tr.Insert(i, p)
		points = append(points, p)
	}
	require.Equal(t, 300, tr.Len())

	for q := 0; q < 20; q++ {
		v := make([]float32, 8)
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		query := NewPoint(v...)
		dists := make([]float32, len(points))
		for i, p := range points {
			dists[i] = EuclideanDistance(query, p)
		}
		sort.Slice(dists, func(i, j int) bool { return dists[i] < dists[j] })

		got := tr.KNearestNeighbors(query, 5)
		require.Len(t, got, 5)
		for i := range got {
			assert.InDelta(t, dists[i], got[i].Distance, 1e-5)
			if i > 0 {
				assert.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
			}
		}
	}
}

func TestTree_ValueAndEmpty(t *testing.T) {
	tr := NewTree[string](0, "unknown")
	assert.Nil(t, tr.KNearestNeighbors(NewPoint(1, 0), 3))

	tr.Insert("a", NewPoint(1, 0))
	tr.Insert("b", NewPoint(0, 1))
	tr.Insert("dup", NewPoint(1, 0))

	got := tr.KNearestNeighbors(NewPoint(0.9, 0.1), 1)
	require.Len(t, got, 1)
	assert.Contains(t, []string{"a", "dup"}, tr.Value(got[0].Point))
	assert.Empty(t, tr.Value(NewPoint(1, 1)))
	assert.Nil(t, tr.KNearestNeighbors(NewPoint(1, 0), 0))
}
