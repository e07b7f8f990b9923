package bruteforce

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/viant/vecstore/index"
)

// Index is a simple brute-force vector index implementing cosine similarity.
type Index struct {
	ids  []int64
	vecs [][]float32
	dim  int
	mags []float64
}

var _ index.Index = (*Index)(nil)

// Build loads ids and vectors and precomputes magnitudes.
func (i *Index) Build(ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("bruteforce: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	i.ids, i.vecs, i.mags, i.dim = nil, nil, nil, 0
	for j := range vectors {
		if err := i.Add(ids[j], vectors[j]); err != nil {
			return err
		}
	}
	return nil
}

// Add appends one vector; the first vector fixes the index dimension.
func (i *Index) Add(id int64, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("bruteforce: empty vector for id %d", id)
	}
	if i.dim == 0 {
		i.dim = len(vector)
	}
	if len(vector) != i.dim {
		return fmt.Errorf("bruteforce: inconsistent vector dims %d vs %d", len(vector), i.dim)
	}
	i.ids = append(i.ids, id)
	i.vecs = append(i.vecs, vector)
	i.mags = append(i.mags, magnitude(vector))
	return nil
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int { return len(i.ids) }

// Query returns top-k by cosine similarity.
func (i *Index) Query(query []float32, k int) ([]int64, []float64, error) {
	if i.dim == 0 || len(i.vecs) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("bruteforce: query dim %d != index dim %d", len(query), i.dim)
	}
	qm := magnitude(query)
	if qm == 0 {
		return nil, nil, nil
	}
	scoreds := make([]index.Scored, 0, len(i.vecs))
	for j := range i.vecs {
		if i.mags[j] == 0 {
			continue
		}
		s := dot(query, i.vecs[j]) / (qm * i.mags[j])
		if math.IsNaN(s) {
			continue
		}
		scoreds = append(scoreds, index.Scored{ID: i.ids[j], Score: s})
	}
	ids, scores := index.TopK(scoreds, k)
	return ids, scores, nil
}

// Entries exposes the indexed ids and vectors (shared, not copied).
func (i *Index) Entries() ([]int64, [][]float32) { return i.ids, i.vecs }

// MarshalBinary stores: dim(uint32), n(uint32), then for each item:
// id(int64), vec(float32[dim]).
func (i *Index) MarshalBinary() ([]byte, error) {
	return Encode(i.dim, i.ids, i.vecs), nil
}

// UnmarshalBinary restores the index from bytes.
func (i *Index) UnmarshalBinary(data []byte) error {
	ids, vecs, err := Decode(data)
	if err != nil {
		return err
	}
	return i.Build(ids, vecs)
}

// Encode writes ids and vectors in the brute-force binary format.
func Encode(dim int, ids []int64, vecs [][]float32) []byte {
	if len(ids) == 0 {
		dim = 0
	}
	out := make([]byte, 8, 8+len(ids)*(8+4*dim))
	binary.LittleEndian.PutUint32(out[0:4], uint32(dim))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(ids)))
	for idx, id := range ids {
		out = binary.LittleEndian.AppendUint64(out, uint64(id))
		vec := vecs[idx]
		for j := 0; j < dim; j++ {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(vec[j]))
		}
	}
	return out
}

// Decode parses the brute-force binary format.
func Decode(data []byte) ([]int64, [][]float32, error) {
	if len(data) < 8 {
		return nil, nil, errors.New("bruteforce: invalid data")
	}
	off := 0
	getU32 := func() uint32 { v := binary.LittleEndian.Uint32(data[off : off+4]); off += 4; return v }
	dim := int(getU32())
	n := int(getU32())
	if len(data)-off != n*(8+4*dim) {
		return nil, nil, errors.New("bruteforce: truncated")
	}
	ids := make([]int64, n)
	vecs := make([][]float32, n)
	for idx := 0; idx < n; idx++ {
		ids[idx] = int64(binary.LittleEndian.Uint64(data[off : off+8]))
		off += 8
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(getU32())
		}
		vecs[idx] = vec
	}
	return ids, vecs, nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
func magnitude(v []float32) float64 { return math.Sqrt(dot(v, v)) }
