package cover

import (
	"fmt"
	"math"

	"github.com/viant/vecstore/index"
	"github.com/viant/vecstore/index/bruteforce"
	"github.com/viant/vecstore/internal/cover/tree"
)

// DefaultBase is the level expansion factor of the tree.
const DefaultBase = 1.3

// Index implements index.Index on top of a cover tree.
type Index struct {
	Base float32

	ids  []int64
	vecs [][]float32
	dim  int
	tree *tree.Tree[int64]
}

var _ index.Index = (*Index)(nil)

// New creates an empty index using base (DefaultBase when <= 1).
func New(base float32) *Index {
	return &Index{Base: base}
}

// Build replaces the index contents.
func (i *Index) Build(ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("cover: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	i.ids, i.vecs, i.dim, i.tree = nil, nil, 0, nil
	for j := range vectors {
		if err := i.Add(ids[j], vectors[j]); err != nil {
			return err
		}
	}
	return nil
}

// Add inserts one vector. Zero vectors are retained for persistence but never
// enter the tree.
func (i *Index) Add(id int64, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("cover: empty vector for id %d", id)
	}
	if i.dim == 0 {
		i.dim = len(vector)
	}
	if len(vector) != i.dim {
		return fmt.Errorf("cover: inconsistent vector dims %d vs %d", len(vector), i.dim)
	}
	i.ids = append(i.ids, id)
	i.vecs = append(i.vecs, vector)
	unit, ok := normalize(vector)
	if !ok {
		return nil
	}
	if i.tree == nil {
		base := i.Base
		if base <= 1 {
			base = DefaultBase
		}
		i.tree = tree.NewTree[int64](base, tree.DistanceFunctionEuclidean)
	}
	p := tree.NewPoint(unit...)
	p.Magnitude = 1
	i.tree.Insert(id, p)
	return nil
}

// Len returns the number of stored vectors, zero vectors included.
func (i *Index) Len() int { return len(i.ids) }

// Query returns the top-k ids by cosine similarity; k <= 0 returns all.
func (i *Index) Query(query []float32, k int) ([]int64, []float64, error) {
	if i.tree == nil {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("cover: query dim %d != index dim %d", len(query), i.dim)
	}
	unit, ok := normalize(query)
	if !ok {
		return nil, nil, nil
	}
	if k <= 0 || k > i.tree.Len() {
		k = i.tree.Len()
	}
	neighbors := i.tree.KNearestNeighbors(tree.NewPoint(unit...), k)
	scoreds := make([]index.Scored, 0, len(neighbors))
	for _, n := range neighbors {
		d := float64(n.Distance)
		// |a-b|^2 = 2 - 2cos for unit vectors.
		score := math.Max(-1, math.Min(1, 1-d*d/2))
		scoreds = append(scoreds, index.Scored{ID: i.tree.Value(n.Point), Score: score})
	}
	ids, scores := index.TopK(scoreds, k)
	return ids, scores, nil
}

// MarshalBinary encodes the raw vectors in the bruteforce format.
func (i *Index) MarshalBinary() ([]byte, error) {
	return bruteforce.Encode(i.dim, i.ids, i.vecs), nil
}

// UnmarshalBinary decodes the bruteforce format and rebuilds the tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	ids, vecs, err := bruteforce.Decode(data)
	if err != nil {
		return err
	}
	return i.Build(ids, vecs)
}

func normalize(v []float32) ([]float32, bool) {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	if s == 0 || math.IsInf(s, 0) || math.IsNaN(s) {
		return nil, false
	}
	m := math.Sqrt(s)
	out := make([]float32, len(v))
	for j, x := range v {
		out[j] = float32(float64(x) / m)
	}
	return out, true
}
