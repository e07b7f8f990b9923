package vector

import (
	"context"
	"time"
)

const (
	// DefaultDimensions is the embedding size of the reference embedding model.
	DefaultDimensions = 1536
	// DefaultMatchCount is the result cap when a search does not set one.
	DefaultMatchCount = 5
	// DefaultMatchThreshold is the exclusive similarity floor when a search
	// does not set one.
	DefaultMatchThreshold = 0.3
)

// Content type conventions used by ingestion.
const (
	ContentTypeDocumentChunk = "document_chunk"
	ContentTypeFAQ           = "faq"
)

// Record is one stored embedding with its source content.
type Record struct {
	ID          int64          `json:"id"`
	Content     string         `json:"content"`
	Embedding   []float32      `json:"embedding,omitempty"`
	ContentType string         `json:"contentType"`
	ReferenceID *int64         `json:"referenceId,omitempty"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Match is a search hit.
type Match struct {
	ID          int64          `json:"id"`
	Content     string         `json:"content"`
	ContentType string         `json:"contentType"`
	ReferenceID *int64         `json:"referenceId,omitempty"`
	Metadata    map[string]any `json:"metadata"`
	Similarity  float64        `json:"similarity"`
}

// SearchParams controls a similarity search. An empty ContentType disables
// the content-type filter.
type SearchParams struct {
	QueryEmbedding []float32
	MatchCount     int
	MatchThreshold float64
	ContentType    string
}

// NewSearchParams returns params for query with the default count and
// threshold.
func NewSearchParams(query []float32) SearchParams {
	return SearchParams{
		QueryEmbedding: query,
		MatchCount:     DefaultMatchCount,
		MatchThreshold: DefaultMatchThreshold,
	}
}

// Store is the record store API shared by the SQLite, Postgres and in-memory
// backends.
type Store interface {
	// Insert validates and persists rec, returning the assigned id.
	Insert(ctx context.Context, rec Record) (int64, error)

	// InsertBatch persists all records or none, returning ids in input order.
	InsertBatch(ctx context.Context, recs []Record) ([]int64, error)

	// SimilaritySearch returns the records most similar to the query.
	SimilaritySearch(ctx context.Context, params SearchParams) ([]Match, error)

	// Get returns the record with id, or an error matching ErrNotFound.
	Get(ctx context.Context, id int64) (*Record, error)

	// FindByReference returns records linked to referenceID ordered by id.
	FindByReference(ctx context.Context, referenceID int64) ([]Record, error)

	// CountByContentType returns the number of records per content type.
	CountByContentType(ctx context.Context) (map[string]int64, error)

	Close() error
}
