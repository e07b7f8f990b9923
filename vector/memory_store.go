package vector

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/viant/vecstore/internal/errs"
)

// MemoryStore keeps records in process memory and searches them exactly.
type MemoryStore struct {
	dimensions int
	mu         sync.RWMutex
	nextID     int64
	records    []Record // ordered by id
	byID       map[int64]int
	now        func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store for embeddings of the given size;
// non-positive dimensions use DefaultDimensions.
func NewMemoryStore(dimensions int) *MemoryStore {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &MemoryStore{dimensions: dimensions, byID: map[int64]int{}, now: time.Now}
}

// Dimensions returns the configured embedding size.
func (s *MemoryStore) Dimensions() int { return s.dimensions }

func (s *MemoryStore) Insert(ctx context.Context, rec Record) (int64, error) {
	ids, err := s.InsertBatch(ctx, []Record{rec})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

func (s *MemoryStore) InsertBatch(ctx context.Context, recs []Record) ([]int64, error) {
	for _, rec := range recs {
		if err := ValidateRecord(rec, s.dimensions); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	ids := make([]int64, len(recs))
	for i, rec := range recs {
		s.nextID++
		stored := cloneRecord(rec)
		stored.ID = s.nextID
		stored.CreatedAt, stored.UpdatedAt = now, now
		s.byID[stored.ID] = len(s.records)
		s.records = append(s.records, stored)
		ids[i] = stored.ID
	}
	return ids, nil
}

func (s *MemoryStore) SimilaritySearch(ctx context.Context, params SearchParams) ([]Match, error) {
	if err := ValidateSearchParams(params, s.dimensions); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := Rank(Score(s.records, params.QueryEmbedding), params)
	for i := range matches {
		matches[i].Metadata = cloneMetadata(matches[i].Metadata)
		if ref := matches[i].ReferenceID; ref != nil {
			v := *ref
			matches[i].ReferenceID = &v
		}
	}
	return matches, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.byID[id]
	if !ok {
		return nil, errs.Wrap(ErrNotFound, errs.CodeStoreRecordNotFound, "get record", errs.Field("id", id))
	}
	rec := cloneRecord(s.records[pos])
	return &rec, nil
}

func (s *MemoryStore) FindByReference(_ context.Context, referenceID int64) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, rec := range s.records {
		if rec.ReferenceID != nil && *rec.ReferenceID == referenceID {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) CountByContentType(context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]int64{}
	for _, rec := range s.records {
		out[rec.ContentType]++
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func cloneRecord(rec Record) Record {
	out := rec
	out.Embedding = append([]float32(nil), rec.Embedding...)
	if rec.ReferenceID != nil {
		ref := *rec.ReferenceID
		out.ReferenceID = &ref
	}
	out.Metadata = cloneMetadata(rec.Metadata)
	return out
}

// cloneMetadata deep-copies the JSON-shaped parts of m: nested objects and
// arrays. Other values are copied by assignment.
func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMetadata(t)
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = cloneValue(x)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, x := range t {
			out[k] = x
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}
