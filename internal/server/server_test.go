package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/vecstore/internal/server"
	"github.com/viant/vecstore/vector"
)

func newTestServer(t *testing.T, store vector.Store) http.Handler {
	t.Helper()
	srv, err := server.New(server.DefaultConfig("127.0.0.1:0"), store, nil)
	require.NoError(t, err)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNew_RequiresListenAndStore(t *testing.T) {
	_, err := server.New(server.Config{}, vector.NewMemoryStore(3), nil)
	assert.Error(t, err)
	_, err = server.New(server.Config{ListenAddr: ":0"}, nil, nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	w := do(t, newTestServer(t, vector.NewMemoryStore(3)), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestInsertGetAndSearch(t *testing.T) {
	h := newTestServer(t, vector.NewMemoryStore(3))

	w := do(t, h, http.MethodPost, "/api/v1/records",
		`{"content":"alpha","embedding":[1,0,0],"contentType":"faq","referenceId":4,"metadata":{"lang":"en"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)

	w = do(t, h, http.MethodPost, "/api/v1/records/batch",
		`{"records":[{"content":"beta","embedding":[0,1,0],"contentType":"document_chunk","referenceId":4},{"content":"gamma","embedding":[0.9,0.1,0],"contentType":"document_chunk"}]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ids":[2,3]}`, stripSchema(t, w.Body.Bytes()))

	w = do(t, h, http.MethodGet, "/api/v1/records/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rec vector.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "alpha", rec.Content)
	assert.Equal(t, "en", rec.Metadata["lang"])

	w = do(t, h, http.MethodGet, "/api/v1/records/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/references/4/records", "")
	require.Equal(t, http.StatusOK, w.Code)
	var refs struct {
		Records []vector.Record `json:"records"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &refs))
	assert.Len(t, refs.Records, 2)

	w = do(t, h, http.MethodPost, "/api/v1/search", `{"queryEmbedding":[1,0,0]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result struct {
		Matches []vector.Match `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Matches, 2)
	assert.Equal(t, int64(1), result.Matches[0].ID)
	assert.InDelta(t, 1.0, result.Matches[0].Similarity, 1e-9)
	assert.Equal(t, int64(3), result.Matches[1].ID)

	w = do(t, h, http.MethodPost, "/api/v1/search", `{"queryEmbedding":[1,0,0],"contentType":"document_chunk","matchCount":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Matches, 1)
	assert.Equal(t, int64(3), result.Matches[0].ID)

	w = do(t, h, http.MethodPost, "/api/v1/search", `{"queryEmbedding":[0,0,1],"matchThreshold":0.99}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"matches":[]`)

	w = do(t, h, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		Total         int64            `json:"total"`
		ByContentType map[string]int64 `json:"byContentType"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByContentType[vector.ContentTypeDocumentChunk])
}

func TestValidationErrorsAreBadRequest(t *testing.T) {
	h := newTestServer(t, vector.NewMemoryStore(3))

	w := do(t, h, http.MethodPost, "/api/v1/records", `{"content":"x","embedding":[1,0,0,0,0,0,0,0,0,0],"contentType":"faq"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "embedding")

	w = do(t, h, http.MethodPost, "/api/v1/records", `{"content":"   ","embedding":[1,0,0],"contentType":"faq"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/api/v1/search", `{"queryEmbedding":[1,0,0],"matchCount":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type failingStore struct{ vector.Store }

func (failingStore) CountByContentType(context.Context) (map[string]int64, error) {
	return nil, errors.New("disk on fire")
}

func TestStorageFailureIsInternalError(t *testing.T) {
	h := newTestServer(t, failingStore{vector.NewMemoryStore(3)})
	w := do(t, h, http.MethodGet, "/api/v1/stats", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

// stripSchema drops the $schema link huma adds to response bodies.
func stripSchema(t *testing.T, body []byte) string {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(body, &m))
	delete(m, "$schema")
	out, err := json.Marshal(m)
	require.NoError(t, err)
	return string(out)
}

func TestSearch_ConfiguredDefaultsKept(t *testing.T) {
	store := vector.NewMemoryStore(3)
	_, err := store.Insert(context.Background(), vector.Record{Content: "far", ContentType: "faq", Embedding: []float32{1, 4, 0}})
	require.NoError(t, err)

	cfg := server.Config{ListenAddr: "127.0.0.1:0", MatchCount: 5, MatchThreshold: 0}
	srv, err := server.New(cfg, store, nil)
	require.NoError(t, err)

	w := do(t, srv.Handler(), http.MethodPost, "/api/v1/search", `{"queryEmbedding":[1,0,0]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Matches []vector.Match `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Matches, 1)
	assert.InDelta(t, 0.2425, out.Matches[0].Similarity, 1e-4)

	cfg.MatchCount = -1
	_, err = server.New(cfg, store, nil)
	assert.Error(t, err)
}
