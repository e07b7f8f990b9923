package index

// Index defines a generic vector index with basic lifecycle methods.
// It enables building from (id, embedding) pairs, kNN queries, and
// binary serialization for persistence.
type Index interface {
	// Build constructs the index from the given ids and vectors, replacing any
	// previous content. ids and vectors must have the same length and all
	// vectors the same dimension.
	Build(ids []int64, vectors [][]float32) error

	// Add appends a single (id, vector) pair to an index that has already been
	// built (or is empty).
	Add(id int64, vector []float32) error

	// Query runs a kNN search against the index with the provided query vector
	// and returns up to k matches as parallel slices of ids and scores, where
	// the score is cosine similarity. Results are ordered by descending score,
	// ties by ascending id. When k <= 0 every reachable match is returned.
	// Vectors with zero magnitude are never returned.
	Query(query []float32, k int) (ids []int64, scores []float64, err error)

	// Len returns the number of vectors held by the index.
	Len() int

	// MarshalBinary serializes the index into a byte slice.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary reconstructs the index from a serialized byte slice.
	UnmarshalBinary(data []byte) error
}

// Kind names an index implementation.
type Kind string

const (
	// KindBrute scans every vector; results are exact.
	KindBrute Kind = "brute"
	// KindIVF probes the nearest inverted lists; approximate unless every list is probed.
	KindIVF Kind = "ivf"
	// KindCover searches a cover tree over normalized vectors.
	KindCover Kind = "cover"
)
