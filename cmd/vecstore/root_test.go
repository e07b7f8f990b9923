package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/vecstore/internal/errs"
	"github.com/viant/vecstore/vecadmin"
	"github.com/viant/vecstore/vector"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, stderr bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func sqliteArgs(t *testing.T) []string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "cli.db")
	return []string{"--backend", "sqlite", "--dsn", dsn, "--dimensions", "3", "--log-level", "error"}
}

func insert(t *testing.T, base []string, content, embedding string, extra ...string) int64 {
	t.Helper()
	args := append(append([]string{"insert"}, base...), "--content", content, "--embedding", embedding)
	out, err := execute(t, append(args, extra...)...)
	require.NoError(t, err)
	id, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	require.NoError(t, err)
	return id
}

func TestRootCmd_Help(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"serve", "migrate", "insert", "search", "get", "stats", "reindex", "verify", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vecstore dev")
}

func TestInsertSearchGetStats(t *testing.T) {
	base := sqliteArgs(t)
	a := insert(t, base, "alpha", "[1,0,0]", "--reference-id", "7", "--metadata", `{"page":1}`)
	b := insert(t, base, "beta", "[0,1,0]")
	c := insert(t, base, "gamma", "[1,0.1,0]", "--content-type", vector.ContentTypeFAQ)
	assert.Less(t, a, b)
	assert.Less(t, b, c)

	out, err := execute(t, append([]string{"search"}, append(base, "--embedding", "[1,0,0]")...)...)
	require.NoError(t, err)
	var matches []vector.Match
	require.NoError(t, json.Unmarshal([]byte(out), &matches))
	require.Len(t, matches, 2)
	assert.Equal(t, a, matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
	assert.Equal(t, c, matches[1].ID)

	out, err = execute(t, append([]string{"search"}, append(base, "--embedding", "[1,0,0]", "--content-type", "faq")...)...)
	require.NoError(t, err)
	matches = nil
	require.NoError(t, json.Unmarshal([]byte(out), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, c, matches[0].ID)

	out, err = execute(t, append([]string{"search"}, append(base, "--embedding", "[1,0,0]", "--threshold", "0.999")...)...)
	require.NoError(t, err)
	matches = nil
	require.NoError(t, json.Unmarshal([]byte(out), &matches))
	require.Len(t, matches, 1)

	out, err = execute(t, append([]string{"get", strconv.FormatInt(a, 10)}, base...)...)
	require.NoError(t, err)
	var rec vector.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "alpha", rec.Content)
	require.NotNil(t, rec.ReferenceID)
	assert.Equal(t, int64(7), *rec.ReferenceID)
	assert.EqualValues(t, 1, rec.Metadata["page"])

	out, err = execute(t, append([]string{"get", "7", "--reference"}, base...)...)
	require.NoError(t, err)
	var recs []vector.Record
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, a, recs[0].ID)

	out, err = execute(t, append([]string{"stats"}, base...)...)
	require.NoError(t, err)
	var stats statsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByContentType[vector.ContentTypeDocumentChunk])
	assert.Equal(t, int64(1), stats.ByContentType[vector.ContentTypeFAQ])
}

func TestInsert_EmbeddingFromFile(t *testing.T) {
	base := sqliteArgs(t)
	path := filepath.Join(t.TempDir(), "vec.json")
	require.NoError(t, os.WriteFile(path, []byte("[0,0,1]"), 0o644))
	id := insert(t, base, "from file", "@"+path)
	assert.Positive(t, id)
}

func TestInsert_ValidationError(t *testing.T) {
	base := sqliteArgs(t)
	_, err := execute(t, append([]string{"insert"}, append(base, "--content", "short", "--embedding", "[1,2]")...)...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, vector.ErrValidation))

	_, err = execute(t, append([]string{"insert"}, append(base, "--content", "x", "--embedding", "not json")...)...)
	require.Error(t, err)
	assert.True(t, errs.HasCode(err, errs.CodeCLIInputInvalid))
}

func TestGet_NotFound(t *testing.T) {
	base := sqliteArgs(t)
	_, err := execute(t, append([]string{"get", "42"}, base...)...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, vector.ErrNotFound))
}

func TestReindexAndVerify(t *testing.T) {
	base := sqliteArgs(t)
	insert(t, base, "one", "[1,0,0]")
	insert(t, base, "two", "[0,1,0]")

	out, err := execute(t, append([]string{"reindex", "--index", "cover"}, base...)...)
	require.NoError(t, err)
	var result vecadmin.ReindexResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.EqualValues(t, "cover", result.Kind)
	assert.Equal(t, 2, result.Count)

	out, err = execute(t, append([]string{"search", "--index", "cover", "--embedding", "[0,1,0]"}, base...)...)
	require.NoError(t, err)
	var matches []vector.Match
	require.NoError(t, json.Unmarshal([]byte(out), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, "two", matches[0].Content)

	out, err = execute(t, append([]string{"verify"}, base...)...)
	require.NoError(t, err)
	var report vecadmin.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.EqualValues(t, 2, report.Records)
	assert.True(t, report.OK())

	_, err = execute(t, append([]string{"reindex"}, base...)...)
	require.Error(t, err, "exact mode has no snapshot")
}

func TestMaintenance_RequiresSQLite(t *testing.T) {
	_, err := execute(t, "reindex", "--backend", "memory", "--index", "ivf")
	require.Error(t, err)
	assert.True(t, errs.HasCode(err, errs.CodeStoreBackendUnsupported))
}

func TestMemoryBackend_EmptySearch(t *testing.T) {
	out, err := execute(t, "search", "--backend", "memory", "--dimensions", "3", "--embedding", "[1,0,0]")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestConfig_InvalidBackend(t *testing.T) {
	_, err := execute(t, "stats", "--backend", "redis")
	require.Error(t, err)
	assert.True(t, errs.HasCode(err, errs.CodeConfigValidateInvalidValue))
}

func TestConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vecstore.yaml")
	cfg := "storage:\n  backend: sqlite\n  dsn: " + filepath.Join(dir, "file.db") + "\nvector:\n  dimensions: 3\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))

	out, err := execute(t, "insert", "-c", path, "--content", "cfg", "--embedding", "[0,1,0]")
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(out))
}
