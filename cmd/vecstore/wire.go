package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/viant/vecstore/internal/config"
	"github.com/viant/vecstore/internal/errs"
	"github.com/viant/vecstore/pgstore"
	"github.com/viant/vecstore/vector"
)

// openStore opens the configured backend.
func (a *app) openStore(ctx context.Context) (vector.Store, error) {
	cfg := a.cfg
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return vector.NewMemoryStore(cfg.Vector.Dimensions), nil
	case config.BackendSQLite:
		return vector.OpenSQLite(ctx, cfg.Storage.DSN, vector.SQLiteOptions{
			Dimensions: cfg.Vector.Dimensions,
			Index:      cfg.IndexOptions(),
			Logger:     a.log,
		})
	case config.BackendPostgres:
		return pgstore.OpenStore(ctx, cfg.Storage.DSN, pgstore.Options{
			Dimensions: cfg.Vector.Dimensions,
			Logger:     a.log,
		})
	default:
		return nil, errs.Newf(errs.CodeStoreBackendUnsupported, "unsupported backend %q", cfg.Storage.Backend)
	}
}

// openSQLite opens the SQLite store for maintenance commands.
func (a *app) openSQLite(ctx context.Context) (*vector.SQLiteStore, error) {
	if a.cfg.Storage.Backend != config.BackendSQLite {
		return nil, errs.Newf(errs.CodeStoreBackendUnsupported, "command requires the sqlite backend, got %q", a.cfg.Storage.Backend)
	}
	return vector.OpenSQLite(ctx, a.cfg.Storage.DSN, vector.SQLiteOptions{
		Dimensions: a.cfg.Vector.Dimensions,
		Index:      a.cfg.IndexOptions(),
		Logger:     a.log,
	})
}

// parseEmbedding decodes a JSON array, reading it from a file when value
// starts with '@' or from stdin when value is "-".
func parseEmbedding(value string, stdin io.Reader) ([]float32, error) {
	var data []byte
	var err error
	switch {
	case value == "-":
		data, err = io.ReadAll(stdin)
	case strings.HasPrefix(value, "@"):
		data, err = os.ReadFile(strings.TrimPrefix(value, "@"))
	default:
		data = []byte(value)
	}
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeCLIInputInvalid, "read embedding")
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, errs.Wrap(err, errs.CodeCLIInputInvalid, "embedding must be a JSON array of numbers")
	}
	return vec, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
