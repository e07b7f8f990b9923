package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/viant/vecstore/engine"
	"github.com/viant/vecstore/index"
	"github.com/viant/vecstore/internal/errs"
	"github.com/viant/vecstore/internal/logging"
)

// scoreSlack keeps index candidates whose approximate score falls just under
// the threshold; they are re-scored exactly before ranking.
const scoreSlack = 1e-4

// SQLiteOptions configures a SQLiteStore.
type SQLiteOptions struct {
	Dimensions int
	Index      IndexOptions
	Logger     *logrus.Entry
}

// SQLiteStore persists records in SQLite. With IndexExact every search is one
// SQL statement over vec_cosine_distance; other kinds keep an in-memory index
// that catches up with rows inserted since it was built or loaded.
type SQLiteStore struct {
	db     *sql.DB
	ownsDB bool
	dims   int
	opts   IndexOptions
	log    *logrus.Entry
	now    func() time.Time

	mu        sync.Mutex
	idx       index.Index
	indexedTo int64
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens dsn with the vector functions registered and prepares the
// schema. The returned store owns the database handle.
func OpenSQLite(ctx context.Context, dsn string, opts SQLiteOptions) (*SQLiteStore, error) {
	db, err := engine.Open(dsn)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreOpenFailure, "open sqlite", errs.Field("dsn", dsn))
	}
	s, err := NewSQLiteStore(ctx, db, opts)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// NewSQLiteStore wraps an open database, creating the schema if missing. db
// must come from engine.Open so the vector functions are available.
func NewSQLiteStore(ctx context.Context, db *sql.DB, opts SQLiteOptions) (*SQLiteStore, error) {
	if db == nil {
		return nil, errs.New(errs.CodeStoreOpenFailure, "vector: db is nil")
	}
	if opts.Dimensions <= 0 {
		opts.Dimensions = DefaultDimensions
	}
	def := DefaultIndexOptions()
	if opts.Index.Kind == "" {
		opts.Index.Kind = def.Kind
	}
	if opts.Index.Oversample <= 0 {
		opts.Index.Oversample = def.Oversample
	}
	if opts.Index.Kind != IndexExact {
		if _, err := NewIndex(opts.Index); err != nil {
			return nil, err
		}
	}
	if err := EnsureSchema(ctx, db, opts.Dimensions); err != nil {
		return nil, err
	}
	return &SQLiteStore{
		db:   db,
		dims: opts.Dimensions,
		opts: opts.Index,
		log:  logging.OrDiscard(opts.Logger).WithField("store", "sqlite"),
		now:  time.Now,
	}, nil
}

// DB returns the underlying handle.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Dimensions returns the configured embedding size.
func (s *SQLiteStore) Dimensions() int { return s.dims }

// IndexKind returns the configured search index kind.
func (s *SQLiteStore) IndexKind() index.Kind { return s.opts.Kind }

func (s *SQLiteStore) Insert(ctx context.Context, rec Record) (int64, error) {
	ids, err := s.InsertBatch(ctx, []Record{rec})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

func (s *SQLiteStore) InsertBatch(ctx context.Context, recs []Record) ([]int64, error) {
	if len(recs) == 0 {
		return []int64{}, nil
	}
	type row struct {
		embedding []byte
		metadata  string
	}
	rows := make([]row, len(recs))
	for i, rec := range recs {
		if err := ValidateRecord(rec, s.dims); err != nil {
			return nil, err
		}
		emb, err := EncodeEmbedding(rec.Embedding)
		if err != nil {
			return nil, errs.Wrap(err, errs.CodeStoreInvalidInput, "encode embedding")
		}
		meta, err := encodeMetadata(rec.Metadata)
		if err != nil {
			return nil, invalid("metadata", "%v", err)
		}
		rows[i] = row{embedding: emb, metadata: meta}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "begin insert")
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+Table+`(content, embedding, content_type, reference_id, metadata, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "prepare insert")
	}
	defer stmt.Close()

	now := formatTime(s.now())
	ids := make([]int64, len(recs))
	for i, rec := range recs {
		res, err := stmt.ExecContext(ctx, rec.Content, rows[i].embedding, rec.ContentType, nullableID(rec.ReferenceID), rows[i].metadata, now, now)
		if err != nil {
			return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "insert record", errs.Field("position", i))
		}
		if ids[i], err = res.LastInsertId(); err != nil {
			return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "read record id")
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "commit insert")
	}
	s.log.WithField("count", len(ids)).Debug("records inserted")
	return ids, nil
}

func (s *SQLiteStore) SimilaritySearch(ctx context.Context, params SearchParams) ([]Match, error) {
	if err := ValidateSearchParams(params, s.dims); err != nil {
		return nil, err
	}
	if params.MatchCount == 0 {
		return []Match{}, nil
	}
	if s.opts.Kind == IndexExact {
		return s.searchExact(ctx, params)
	}
	return s.searchIndexed(ctx, params)
}

const exactSearchSQL = `SELECT id, content, content_type, reference_id, metadata, similarity FROM (
    SELECT id, content, content_type, reference_id, metadata,
           1 - vec_cosine_distance(embedding, ?) AS similarity
    FROM ` + Table + `
    WHERE (? = '' OR content_type = ?)
)
WHERE similarity > ?
ORDER BY similarity DESC, id ASC
LIMIT ?`

func (s *SQLiteStore) searchExact(ctx context.Context, params SearchParams) ([]Match, error) {
	q, err := EncodeEmbedding(params.QueryEmbedding)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreInvalidInput, "encode query")
	}
	rows, err := s.db.QueryContext(ctx, exactSearchSQL, q, params.ContentType, params.ContentType, params.MatchThreshold, params.MatchCount)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "similarity search")
	}
	defer rows.Close()
	out := []Match{}
	for rows.Next() {
		var m Match
		var ref sql.NullInt64
		var meta string
		if err := rows.Scan(&m.ID, &m.Content, &m.ContentType, &ref, &meta, &m.Similarity); err != nil {
			return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "scan match")
		}
		m.ReferenceID = idFromNull(ref)
		if m.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "decode metadata", errs.Field("id", m.ID))
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "similarity search")
	}
	return out, nil
}

func (s *SQLiteStore) searchIndexed(ctx context.Context, params SearchParams) ([]Match, error) {
	k := candidateCount(s.opts.Kind, params, s.opts.Oversample)
	s.mu.Lock()
	if err := s.syncIndex(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	ids, scores, err := s.idx.Query(params.QueryEmbedding, k)
	s.mu.Unlock()
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreIndexFailure, "query index", errs.Field("kind", s.opts.Kind))
	}
	var candidates []int64
	for i, id := range ids {
		if scores[i] > params.MatchThreshold-scoreSlack {
			candidates = append(candidates, id)
		}
	}
	recs, err := s.loadRecords(ctx, candidates)
	if err != nil {
		return nil, err
	}
	return Rank(Score(recs, params.QueryEmbedding), params), nil
}

// candidateCount returns how many neighbours to pull from the index; 0 means
// every indexed vector. A content-type filter runs after the index, so
// filtered searches take all candidates rather than a top-k that other types
// could fill.
func candidateCount(kind index.Kind, params SearchParams, oversample int) int {
	if kind == index.KindBrute || params.ContentType != "" {
		return 0
	}
	if oversample < 1 {
		oversample = 1
	}
	k := params.MatchCount * oversample
	if k <= 0 || k/oversample != params.MatchCount {
		return 0
	}
	return k
}

// syncIndex loads or builds the index on first use and then feeds it rows
// inserted since. Callers hold s.mu.
func (s *SQLiteStore) syncIndex(ctx context.Context) error {
	if s.idx == nil {
		started := time.Now()
		idx, err := NewIndex(s.opts)
		if err != nil {
			return err
		}
		snap, err := LoadIndexSnapshot(ctx, s.db, s.opts.Kind)
		if err != nil {
			return err
		}
		if snap != nil {
			if err := idx.UnmarshalBinary(snap.Data); err != nil {
				s.log.WithError(err).Warn("discarding unreadable index snapshot")
				snap = nil
			}
		}
		if snap != nil {
			s.idx, s.indexedTo = idx, snap.MaxID
			s.log.WithFields(logrus.Fields{"kind": s.opts.Kind, "count": idx.Len(), "max_id": snap.MaxID}).Info("index snapshot loaded")
		} else {
			built, maxID, err := BuildIndex(ctx, s.db, s.opts)
			if err != nil {
				return err
			}
			s.idx, s.indexedTo = built, maxID
			s.log.WithFields(logrus.Fields{"kind": s.opts.Kind, "count": built.Len(), "elapsed": time.Since(started).String()}).Info("index built")
		}
		if p, ok := s.idx.(interface{ SetProbes(int) }); ok && s.opts.Probes > 0 {
			p.SetProbes(s.opts.Probes)
		}
	}
	maxID, err := AddRowsAfter(ctx, s.db, s.idx, s.indexedTo)
	if err != nil {
		return err
	}
	if maxID > s.indexedTo {
		s.log.WithFields(logrus.Fields{"from": s.indexedTo, "to": maxID}).Debug("index caught up")
	}
	s.indexedTo = maxID
	return nil
}

// ResetIndex drops the in-memory index so the next search reloads it.
func (s *SQLiteStore) ResetIndex() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx, s.indexedTo = nil, 0
}

const recordColumns = `id, content, embedding, content_type, reference_id, metadata, created_at, updated_at`

func (s *SQLiteStore) loadRecords(ctx context.Context, ids []int64) ([]Record, error) {
	var out []Record
	const chunk = 500
	for start := 0; start < len(ids); start += chunk {
		end := min(start+chunk, len(ids))
		args := make([]any, 0, end-start)
		for _, id := range ids[start:end] {
			args = append(args, id)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
		recs, err := s.queryRecords(ctx, `SELECT `+recordColumns+` FROM `+Table+` WHERE id IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*Record, error) {
	recs, err := s.queryRecords(ctx, `SELECT `+recordColumns+` FROM `+Table+` WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errs.Wrap(ErrNotFound, errs.CodeStoreRecordNotFound, "get record", errs.Field("id", id))
	}
	return &recs[0], nil
}

func (s *SQLiteStore) FindByReference(ctx context.Context, referenceID int64) ([]Record, error) {
	return s.queryRecords(ctx, `SELECT `+recordColumns+` FROM `+Table+` WHERE reference_id = ? ORDER BY id`, referenceID)
}

func (s *SQLiteStore) CountByContentType(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT content_type, COUNT(*) FROM `+Table+` GROUP BY content_type`)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "count by content type")
	}
	defer rows.Close()
	out := map[string]int64{}
	for rows.Next() {
		var ct string
		var n int64
		if err := rows.Scan(&ct, &n); err != nil {
			return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "scan count")
		}
		out[ct] = n
	}
	return out, errs.Wrap(rows.Err(), errs.CodeStoreDatabaseFailure, "count by content type")
}

// Close closes the database when the store opened it.
func (s *SQLiteStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "query records")
	}
	defer rows.Close()
	out := []Record{}
	for rows.Next() {
		var rec Record
		var blob []byte
		var ref sql.NullInt64
		var meta, created, updated string
		if err := rows.Scan(&rec.ID, &rec.Content, &blob, &rec.ContentType, &ref, &meta, &created, &updated); err != nil {
			return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "scan record")
		}
		if rec.Embedding, err = DecodeEmbeddingDim(blob, s.dims); err != nil {
			return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "decode embedding", errs.Field("id", rec.ID))
		}
		rec.ReferenceID = idFromNull(ref)
		if rec.Metadata, err = decodeMetadata(meta); err != nil {
			return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "decode metadata", errs.Field("id", rec.ID))
		}
		rec.CreatedAt, _ = parseTime(created)
		rec.UpdatedAt, _ = parseTime(updated)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "query records")
	}
	return out, nil
}

func encodeMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMetadata(s string) (map[string]any, error) {
	out := map[string]any{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func idFromNull(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }
