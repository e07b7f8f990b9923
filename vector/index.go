package vector

import (
	"context"
	"database/sql"
	"time"

	"github.com/viant/vecstore/index"
	"github.com/viant/vecstore/index/bruteforce"
	"github.com/viant/vecstore/index/cover"
	"github.com/viant/vecstore/index/ivf"
	"github.com/viant/vecstore/internal/errs"
)

// IndexExact runs searches as a single SQL statement without an in-memory
// index.
const IndexExact index.Kind = "exact"

// IndexOptions selects and tunes the search index of a SQLiteStore.
type IndexOptions struct {
	Kind index.Kind
	// Lists and Probes tune the IVF index.
	Lists  int
	Probes int
	// Oversample multiplies MatchCount to size the approximate candidate set
	// that is re-scored exactly.
	Oversample int
	// CoverBase is the cover-tree expansion factor.
	CoverBase float64
}

// DefaultIndexOptions returns exact search with the approximate index
// parameters at their defaults.
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		Kind:       IndexExact,
		Lists:      ivf.DefaultLists,
		Probes:     ivf.DefaultProbes,
		Oversample: 4,
		CoverBase:  cover.DefaultBase,
	}
}

// NewIndex creates an empty in-memory index for opts.Kind.
func NewIndex(opts IndexOptions) (index.Index, error) {
	switch opts.Kind {
	case index.KindBrute:
		return &bruteforce.Index{}, nil
	case index.KindIVF:
		return ivf.New(opts.Lists, opts.Probes), nil
	case index.KindCover:
		return cover.New(float32(opts.CoverBase)), nil
	default:
		return nil, errs.Newf(errs.CodeStoreIndexFailure, "vector: unsupported index kind %q", opts.Kind)
	}
}

// Snapshot is a persisted index.
type Snapshot struct {
	Kind     index.Kind
	DocCount int64
	MaxID    int64
	Data     []byte
	BuiltAt  time.Time
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SaveIndexSnapshot upserts idx as the snapshot for kind covering ids up to
// maxID.
func SaveIndexSnapshot(ctx context.Context, db execQuerier, kind index.Kind, idx index.Index, maxID int64) error {
	data, err := idx.MarshalBinary()
	if err != nil {
		return errs.Wrap(err, errs.CodeStoreIndexFailure, "encode index", errs.Field("kind", kind))
	}
	_, err = db.ExecContext(ctx, `INSERT INTO `+IndexTable+`(kind, doc_count, max_id, data, built_at) VALUES(?, ?, ?, ?, ?)
ON CONFLICT(kind) DO UPDATE SET doc_count = excluded.doc_count, max_id = excluded.max_id, data = excluded.data, built_at = excluded.built_at`,
		string(kind), idx.Len(), maxID, data, formatTime(time.Now()))
	return errs.Wrap(err, errs.CodeStoreIndexFailure, "save index snapshot", errs.Field("kind", kind))
}

// LoadIndexSnapshot returns the snapshot for kind, or nil when none exists.
func LoadIndexSnapshot(ctx context.Context, db execQuerier, kind index.Kind) (*Snapshot, error) {
	snap := &Snapshot{Kind: kind}
	var builtAt string
	err := db.QueryRowContext(ctx, `SELECT doc_count, max_id, data, built_at FROM `+IndexTable+` WHERE kind = ?`, string(kind)).
		Scan(&snap.DocCount, &snap.MaxID, &snap.Data, &builtAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreIndexFailure, "load index snapshot", errs.Field("kind", kind))
	}
	snap.BuiltAt, _ = parseTime(builtAt)
	return snap, nil
}

// AddRowsAfter feeds idx every embedding with id > afterID in id order and
// returns the highest id seen (afterID when none).
func AddRowsAfter(ctx context.Context, db execQuerier, idx index.Index, afterID int64) (int64, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, embedding FROM `+Table+` WHERE id > ? ORDER BY id`, afterID)
	if err != nil {
		return afterID, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "scan embeddings")
	}
	defer rows.Close()
	maxID := afterID
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return maxID, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "scan embedding")
		}
		vec, err := DecodeEmbedding(blob)
		if err != nil {
			return maxID, errs.Wrap(err, errs.CodeStoreIndexFailure, "decode embedding", errs.Field("id", id))
		}
		if err := idx.Add(id, vec); err != nil {
			return maxID, errs.Wrap(err, errs.CodeStoreIndexFailure, "index embedding", errs.Field("id", id))
		}
		maxID = id
	}
	if err := rows.Err(); err != nil {
		return maxID, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "scan embeddings")
	}
	return maxID, nil
}

// BuildIndex trains a fresh index over the whole table.
func BuildIndex(ctx context.Context, db execQuerier, opts IndexOptions) (index.Index, int64, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, embedding FROM `+Table+` ORDER BY id`)
	if err != nil {
		return nil, 0, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "scan embeddings")
	}
	defer rows.Close()
	var ids []int64
	var vecs [][]float32
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, 0, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "scan embedding")
		}
		vec, err := DecodeEmbedding(blob)
		if err != nil {
			return nil, 0, errs.Wrap(err, errs.CodeStoreIndexFailure, "decode embedding", errs.Field("id", id))
		}
		ids = append(ids, id)
		vecs = append(vecs, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "scan embeddings")
	}
	idx, err := NewIndex(opts)
	if err != nil {
		return nil, 0, err
	}
	if err := idx.Build(ids, vecs); err != nil {
		return nil, 0, errs.Wrap(err, errs.CodeStoreIndexFailure, "build index", errs.Field("kind", opts.Kind))
	}
	var maxID int64
	if len(ids) > 0 {
		maxID = ids[len(ids)-1]
	}
	return idx, maxID, nil
}
