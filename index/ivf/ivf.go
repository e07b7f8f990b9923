package ivf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/viant/vecstore/index"
)

const (
	// DefaultLists is the number of inverted lists.
	DefaultLists = 100
	// DefaultProbes is the number of lists scanned per query.
	DefaultProbes = 10

	iterations = 10
	magic      = uint32(0x49564631) // "IVF1"
)

// Index is an inverted-file index scored by cosine similarity.
type Index struct {
	Lists  int
	Probes int

	dim       int
	centroids [][]float32
	members   [][]int // per list, offsets into ids/vecs
	ids       []int64
	vecs      [][]float32
	units     [][]float32 // nil for zero vectors
	assigned  []int       // list per vector, -1 for zero vectors
}

var _ index.Index = (*Index)(nil)

// New creates an index; non-positive arguments take the defaults.
func New(lists, probes int) *Index {
	return &Index{Lists: lists, Probes: probes}
}

// SetProbes changes the number of lists scanned per query.
func (i *Index) SetProbes(probes int) { i.Probes = probes }

// Len returns the number of stored vectors.
func (i *Index) Len() int { return len(i.ids) }

// Build trains centroids over vectors and assigns every vector to a list.
func (i *Index) Build(ids []int64, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ivf: ids and vectors length mismatch: %d != %d", len(ids), len(vectors))
	}
	i.reset()
	for j, v := range vectors {
		if err := i.append(ids[j], v); err != nil {
			return err
		}
	}
	i.train()
	return nil
}

// Add assigns a vector to its nearest existing list. An untrained index
// seeds its first centroid from the vector.
func (i *Index) Add(id int64, vector []float32) error {
	if err := i.append(id, vector); err != nil {
		return err
	}
	pos := len(i.ids) - 1
	unit := i.units[pos]
	if unit == nil {
		return nil
	}
	if len(i.centroids) == 0 {
		i.centroids = [][]float32{append([]float32(nil), unit...)}
		i.members = make([][]int, 1)
	}
	list := nearest(i.centroids, unit)
	i.assigned[pos] = list
	i.members[list] = append(i.members[list], pos)
	return nil
}

// Query scores members of the closest Probes lists; k <= 0 returns all of them.
func (i *Index) Query(query []float32, k int) ([]int64, []float64, error) {
	if len(i.ids) == 0 {
		return nil, nil, nil
	}
	if len(query) != i.dim {
		return nil, nil, fmt.Errorf("ivf: query dim %d != index dim %d", len(query), i.dim)
	}
	q, ok := normalize(query)
	if !ok || len(i.centroids) == 0 {
		return nil, nil, nil
	}
	var scoreds []index.Scored
	for _, list := range i.probeLists(q) {
		for _, pos := range i.members[list] {
			scoreds = append(scoreds, index.Scored{ID: i.ids[pos], Score: dot(q, i.units[pos])})
		}
	}
	ids, scores := index.TopK(scoreds, k)
	return ids, scores, nil
}

func (i *Index) probeLists(q []float32) []int {
	probes := i.Probes
	if probes <= 0 {
		probes = DefaultProbes
	}
	order := make([]int, len(i.centroids))
	sims := make([]float64, len(i.centroids))
	for c := range i.centroids {
		order[c] = c
		sims[c] = dot(q, i.centroids[c])
	}
	sort.SliceStable(order, func(a, b int) bool { return sims[order[a]] > sims[order[b]] })
	if probes < len(order) {
		order = order[:probes]
	}
	return order
}

func (i *Index) reset() {
	i.dim = 0
	i.centroids, i.members = nil, nil
	i.ids, i.vecs, i.units, i.assigned = nil, nil, nil, nil
}

func (i *Index) append(id int64, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("ivf: empty vector for id %d", id)
	}
	if i.dim == 0 {
		i.dim = len(vector)
	}
	if len(vector) != i.dim {
		return fmt.Errorf("ivf: inconsistent vector dims %d vs %d", len(vector), i.dim)
	}
	unit, _ := normalize(vector)
	i.ids = append(i.ids, id)
	i.vecs = append(i.vecs, vector)
	i.units = append(i.units, unit)
	i.assigned = append(i.assigned, -1)
	return nil
}

// train runs spherical k-means seeded with evenly spaced vectors, so builds
// are deterministic for the same input order.
func (i *Index) train() {
	var live []int
	for pos, u := range i.units {
		if u != nil {
			live = append(live, pos)
		}
	}
	lists := i.Lists
	if lists <= 0 {
		lists = DefaultLists
	}
	if lists > len(live) {
		lists = len(live)
	}
	if lists == 0 {
		return
	}
	i.centroids = make([][]float32, lists)
	for c := 0; c < lists; c++ {
		i.centroids[c] = append([]float32(nil), i.units[live[c*len(live)/lists]]...)
	}
	for iter := 0; iter < iterations; iter++ {
		changed := false
		for _, pos := range live {
			c := nearest(i.centroids, i.units[pos])
			if c != i.assigned[pos] {
				i.assigned[pos] = c
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		sums := make([][]float64, lists)
		for _, pos := range live {
			c := i.assigned[pos]
			if sums[c] == nil {
				sums[c] = make([]float64, i.dim)
			}
			for j, x := range i.units[pos] {
				sums[c][j] += float64(x)
			}
		}
		for c, sum := range sums {
			if sum == nil {
				continue // empty list keeps its centroid
			}
			if next, ok := normalize64(sum); ok {
				i.centroids[c] = next
			}
		}
	}
	i.members = make([][]int, lists)
	for _, pos := range live {
		c := nearest(i.centroids, i.units[pos])
		i.assigned[pos] = c
		i.members[c] = append(i.members[c], pos)
	}
}

// MarshalBinary stores: magic, dim, lists, probes, the centroids, n, then per
// vector: id(int64), list(int32), vec(float32[dim]).
func (i *Index) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, 20+len(i.centroids)*4*i.dim+len(i.ids)*(12+4*i.dim))
	out = binary.LittleEndian.AppendUint32(out, magic)
	out = binary.LittleEndian.AppendUint32(out, uint32(i.dim))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(i.centroids)))
	out = binary.LittleEndian.AppendUint32(out, uint32(max(i.Probes, 0)))
	for _, c := range i.centroids {
		out = appendFloats(out, c)
	}
	out = binary.LittleEndian.AppendUint32(out, uint32(len(i.ids)))
	for pos, id := range i.ids {
		out = binary.LittleEndian.AppendUint64(out, uint64(id))
		out = binary.LittleEndian.AppendUint32(out, uint32(int32(i.assigned[pos])))
		out = appendFloats(out, i.vecs[pos])
	}
	return out, nil
}

// UnmarshalBinary restores centroids and list assignments without retraining.
func (i *Index) UnmarshalBinary(data []byte) error {
	r := reader{data: data}
	if r.u32() != magic {
		return errors.New("ivf: invalid data")
	}
	dim := int(r.u32())
	lists := int(r.u32())
	probes := int(r.u32())
	if r.err != nil || lists*dim*4 > len(data) {
		return errors.New("ivf: truncated")
	}
	centroids := make([][]float32, lists)
	for c := range centroids {
		centroids[c] = r.floats(dim)
	}
	n := int(r.u32())
	if r.err != nil || n*(12+4*dim) != len(data)-r.off {
		return errors.New("ivf: truncated")
	}
	i.reset()
	i.Lists = lists
	if i.Probes <= 0 {
		i.Probes = probes
	}
	i.dim = dim
	i.centroids = centroids
	i.members = make([][]int, lists)
	for pos := 0; pos < n; pos++ {
		id := int64(r.u64())
		list := int(int32(r.u32()))
		vec := r.floats(dim)
		unit, _ := normalize(vec)
		i.ids = append(i.ids, id)
		i.vecs = append(i.vecs, vec)
		i.units = append(i.units, unit)
		if unit == nil || list < 0 || list >= lists {
			list = -1
			if unit != nil && lists > 0 {
				list = nearest(i.centroids, unit)
			}
		}
		i.assigned = append(i.assigned, list)
		if list >= 0 {
			i.members[list] = append(i.members[list], pos)
		}
	}
	return r.err
}

type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) need(n int) bool {
	if r.err != nil || r.off+n > len(r.data) {
		r.err = errors.New("ivf: truncated")
		return false
	}
	return true
}

func (r *reader) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *reader) u64() uint64 {
	if !r.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v
}

func (r *reader) floats(n int) []float32 {
	out := make([]float32, n)
	for j := range out {
		out[j] = math.Float32frombits(r.u32())
	}
	return out
}

func appendFloats(out []byte, v []float32) []byte {
	for _, x := range v {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(x))
	}
	return out
}

func nearest(centroids [][]float32, unit []float32) int {
	best, bestSim := 0, math.Inf(-1)
	for c, centroid := range centroids {
		if s := dot(unit, centroid); s > bestSim {
			best, bestSim = c, s
		}
	}
	return best
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func normalize(v []float32) ([]float32, bool) {
	s := dot(v, v)
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

func normalize64(v []float64) ([]float32, bool) {
	var s float64
	for _, x := range v {
		s += x * x
	}
	if s == 0 {
		return nil, false
	}
	m := math.Sqrt(s)
	out := make([]float32, len(v))
	for j, x := range v {
		out[j] = float32(x / m)
	}
	return out, true
}
