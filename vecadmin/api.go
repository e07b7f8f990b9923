// Package vecadmin provides maintenance operations over a SQLite vector store:
// rebuilding and persisting the search index, and verifying stored
// embeddings.
package vecadmin

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/viant/vecstore/index"
	"github.com/viant/vecstore/internal/errs"
	"github.com/viant/vecstore/internal/logging"
	"github.com/viant/vecstore/vector"
)

// ReindexResult describes a completed rebuild.
type ReindexResult struct {
	Kind    index.Kind    `json:"kind"`
	Count   int           `json:"count"`
	MaxID   int64         `json:"maxId"`
	Elapsed time.Duration `json:"elapsed"`
}

// Reindex rebuilds the index of opts.Kind from the records table and persists
// it into the snapshot table in one transaction. Stores opened afterwards load
// the snapshot instead of rebuilding; running stores keep their current index
// until reset.
func Reindex(ctx context.Context, db *sql.DB, opts vector.IndexOptions, log *logrus.Entry) (*ReindexResult, error) {
	if opts.Kind == "" || opts.Kind == vector.IndexExact {
		return nil, errs.Newf(errs.CodeStoreIndexFailure, "vecadmin: index kind %q has no snapshot", opts.Kind)
	}
	log = logging.OrDiscard(log)
	started := time.Now()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "begin reindex")
	}
	defer func() { _ = tx.Rollback() }()

	idx, maxID, err := vector.BuildIndex(ctx, tx, opts)
	if err != nil {
		return nil, err
	}
	if err := vector.SaveIndexSnapshot(ctx, tx, opts.Kind, idx, maxID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "commit reindex")
	}
	result := &ReindexResult{Kind: opts.Kind, Count: idx.Len(), MaxID: maxID, Elapsed: time.Since(started)}
	log.WithFields(logrus.Fields{"kind": result.Kind, "count": result.Count, "elapsed": result.Elapsed.String()}).Info("reindexed")
	return result, nil
}

// Report summarises a Verify scan.
type Report struct {
	Records       int64   `json:"records"`
	WrongSize     []int64 `json:"wrongSize,omitempty"`
	ZeroMagnitude []int64 `json:"zeroMagnitude,omitempty"`
	NonFinite     []int64 `json:"nonFinite,omitempty"`
}

// OK reports whether every embedding is searchable.
func (r *Report) OK() bool {
	return len(r.WrongSize) == 0 && len(r.ZeroMagnitude) == 0 && len(r.NonFinite) == 0
}

// Verify scans stored embeddings for rows that can never match a search:
// blobs of the wrong size, zero vectors and non-finite components.
func Verify(ctx context.Context, db *sql.DB, dimensions int) (*Report, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, embedding FROM `+vector.Table+` ORDER BY id`)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "scan embeddings")
	}
	defer rows.Close()
	report := &Report{}
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "scan embedding")
		}
		report.Records++
		vec, err := vector.DecodeEmbeddingDim(blob, dimensions)
		if err != nil {
			report.WrongSize = append(report.WrongSize, id)
			continue
		}
		rec := vector.Record{Content: "-", ContentType: "-", Embedding: vec}
		if vector.ValidateRecord(rec, dimensions) != nil {
			report.NonFinite = append(report.NonFinite, id)
			continue
		}
		if _, ok := vector.Similarity(vec, vec); !ok {
			report.ZeroMagnitude = append(report.ZeroMagnitude, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, errs.CodeStoreDatabaseFailure, "scan embeddings")
	}
	return report, nil
}
