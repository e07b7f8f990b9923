// Package pgstore implements vector.Store on PostgreSQL with the pgvector
// extension. Similarity search is delegated to the match_documents function
// created by the embedded migrations.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"github.com/viant/vecstore/internal/errs"
	"github.com/viant/vecstore/internal/logging"
	"github.com/viant/vecstore/vector"
)

// Options configures a Store.
type Options struct {
	// Dimensions must match the vector column; the bundled migration
	// creates vector(1536).
	Dimensions int
	Logger     *logrus.Entry
}

// Store is a pgvector-backed vector.Store.
type Store struct {
	db     *sqlx.DB
	ownsDB bool
	dims   int
	log    *logrus.Entry
}

var _ vector.Store = (*Store)(nil)

// Open connects to dsn with lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreOpenFailure, "connect postgres")
	}
	return db, nil
}

// New wraps an open database. The schema must already be migrated.
func New(db *sqlx.DB, opts Options) *Store {
	if opts.Dimensions <= 0 {
		opts.Dimensions = vector.DefaultDimensions
	}
	return &Store{
		db:   db,
		dims: opts.Dimensions,
		log:  logging.OrDiscard(opts.Logger).WithField("store", "postgres"),
	}
}

// OpenStore connects to dsn and returns a store owning the connection.
func OpenStore(ctx context.Context, dsn string, opts Options) (*Store, error) {
	db, err := Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	s := New(db, opts)
	s.ownsDB = true
	return s, nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sqlx.DB { return s.db }

const insertSQL = `INSERT INTO vector_store (content, embedding, content_type, reference_id, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING id`

func (s *Store) Insert(ctx context.Context, rec vector.Record) (int64, error) {
	ids, err := s.InsertBatch(ctx, []vector.Record{rec})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

func (s *Store) InsertBatch(ctx context.Context, recs []vector.Record) ([]int64, error) {
	if len(recs) == 0 {
		return []int64{}, nil
	}
	metas := make([]string, len(recs))
	for i, rec := range recs {
		if err := vector.ValidateRecord(rec, s.dims); err != nil {
			return nil, err
		}
		meta, err := encodeMetadata(rec.Metadata)
		if err != nil {
			return nil, &vector.ValidationError{Field: "metadata", Reason: err.Error()}
		}
		metas[i] = meta
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "begin insert")
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	ids := make([]int64, len(recs))
	for i, rec := range recs {
		var ref any
		if rec.ReferenceID != nil {
			ref = *rec.ReferenceID
		}
		if err := tx.QueryRowxContext(ctx, insertSQL,
			rec.Content, pgvector.NewVector(rec.Embedding), rec.ContentType, ref, metas[i], now,
		).Scan(&ids[i]); err != nil {
			return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "insert record", errs.Field("position", i))
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "commit insert")
	}
	s.log.WithField("count", len(ids)).Debug("records inserted")
	return ids, nil
}

type matchRow struct {
	ID          int64         `db:"id"`
	Content     string        `db:"content"`
	ContentType string        `db:"content_type"`
	ReferenceID sql.NullInt64 `db:"reference_id"`
	Metadata    []byte        `db:"metadata"`
	Similarity  float64       `db:"similarity"`
}

const searchSQL = `SELECT id, content, content_type, reference_id, metadata, similarity
FROM match_documents($1, $2, $3, $4)`

func (s *Store) SimilaritySearch(ctx context.Context, params vector.SearchParams) ([]vector.Match, error) {
	if err := vector.ValidateSearchParams(params, s.dims); err != nil {
		return nil, err
	}
	if params.MatchCount == 0 {
		return []vector.Match{}, nil
	}
	if _, ok := vector.Similarity(params.QueryEmbedding, params.QueryEmbedding); !ok {
		return []vector.Match{}, nil // zero query: similarity is undefined for every row
	}
	var filter any
	if params.ContentType != "" {
		filter = params.ContentType
	}
	var rows []matchRow
	if err := s.db.SelectContext(ctx, &rows, searchSQL,
		pgvector.NewVector(params.QueryEmbedding), params.MatchThreshold, params.MatchCount, filter,
	); err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "similarity search")
	}
	out := make([]vector.Match, 0, len(rows))
	for _, r := range rows {
		if math.IsNaN(r.Similarity) {
			continue
		}
		meta, err := decodeMetadata(r.Metadata)
		if err != nil {
			return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "decode metadata", errs.Field("id", r.ID))
		}
		out = append(out, vector.Match{
			ID:          r.ID,
			Content:     r.Content,
			ContentType: r.ContentType,
			ReferenceID: idFromNull(r.ReferenceID),
			Metadata:    meta,
			Similarity:  r.Similarity,
		})
	}
	return out, nil
}

type recordRow struct {
	ID          int64           `db:"id"`
	Content     string          `db:"content"`
	Embedding   pgvector.Vector `db:"embedding"`
	ContentType string          `db:"content_type"`
	ReferenceID sql.NullInt64   `db:"reference_id"`
	Metadata    []byte          `db:"metadata"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (r recordRow) record() (vector.Record, error) {
	meta, err := decodeMetadata(r.Metadata)
	if err != nil {
		return vector.Record{}, err
	}
	return vector.Record{
		ID:          r.ID,
		Content:     r.Content,
		Embedding:   r.Embedding.Slice(),
		ContentType: r.ContentType,
		ReferenceID: idFromNull(r.ReferenceID),
		Metadata:    meta,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}, nil
}

const recordColumns = `id, content, embedding, content_type, reference_id, metadata, created_at, updated_at`

func (s *Store) Get(ctx context.Context, id int64) (*vector.Record, error) {
	var row recordRow
	err := s.db.GetContext(ctx, &row, `SELECT `+recordColumns+` FROM vector_store WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, errs.Wrap(vector.ErrNotFound, errs.CodeStoreRecordNotFound, "get record", errs.Field("id", id))
	}
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "get record", errs.Field("id", id))
	}
	rec, err := row.record()
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "decode record", errs.Field("id", id))
	}
	return &rec, nil
}

func (s *Store) FindByReference(ctx context.Context, referenceID int64) ([]vector.Record, error) {
	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+recordColumns+` FROM vector_store WHERE reference_id = $1 ORDER BY id`, referenceID); err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "find by reference", errs.Field("reference_id", referenceID))
	}
	out := make([]vector.Record, 0, len(rows))
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "decode record", errs.Field("id", r.ID))
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) CountByContentType(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		ContentType string `db:"content_type"`
		Count       int64  `db:"count"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT content_type, COUNT(*) AS count FROM vector_store GROUP BY content_type`); err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "count by content type")
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ContentType] = r.Count
	}
	return out, nil
}

// Close closes the connection when the store opened it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
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

func decodeMetadata(b []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func idFromNull(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
