package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/phraseclip/internal/loader"
	"github.com/dshills/phraseclip/internal/phraseindex"
	"github.com/dshills/phraseclip/internal/storage"
	"github.com/dshills/phraseclip/pkg/types"
)

func setupTestServer(t *testing.T) (*Server, *phraseindex.Index) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ix, err := phraseindex.New(store)
	require.NoError(t, err)

	_, err = ix.Insert(context.Background(), []types.NewPhrase{
		{Text: "Merhaba, nasılsın?", StartTime: "00:00:01", EndTime: "00:00:03", ClipFilename: "clip_0001.mp4", ClipDuration: 5},
		{Text: "İyiyim, sağol.", StartTime: "00:00:10", EndTime: "00:00:12", ClipFilename: "clip_0002.mp4", ClipDuration: 4.5},
	})
	require.NoError(t, err)

	s, err := NewServer(ix, loader.New(ix, nil), nil)
	require.NoError(t, err)
	return s, ix
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)

	var text string
	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		text = c.Text
	case *mcp.TextContent:
		text = c.Text
	default:
		t.Fatalf("unexpected content type %T", c)
	}

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	return out
}

func requireMCPError(t *testing.T, err error, code int) *MCPError {
	t.Helper()
	require.Error(t, err)
	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr), "expected MCPError, got %T", err)
	assert.Equal(t, code, mcpErr.Code)
	return mcpErr
}

func TestNewServer_RequiresIndex(t *testing.T) {
	_, err := NewServer(nil, nil, nil)
	assert.Error(t, err)
}

func TestSearchPhrases(t *testing.T) {
	s, _ := setupTestServer(t)

	result, err := s.handleSearchPhrases(context.Background(), callRequest("search_phrases", map[string]interface{}{
		"query": "NASILSIN",
	}))
	require.NoError(t, err)

	out := resultJSON(t, result)
	assert.Equal(t, float64(1), out["count"])
	assert.Equal(t, "NASILSIN", out["query"])
	results := out["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, "Merhaba, nasılsın?", results[0].(map[string]interface{})["text"])
}

func TestSearchPhrases_TooShort(t *testing.T) {
	s, _ := setupTestServer(t)

	result, err := s.handleSearchPhrases(context.Background(), callRequest("search_phrases", map[string]interface{}{
		"query": "a",
	}))
	require.NoError(t, err)

	out := resultJSON(t, result)
	assert.Equal(t, phraseindex.TooShortMessage, out["message"])
	assert.Empty(t, out["results"])
}

func TestSearchPhrases_InvalidParams(t *testing.T) {
	s, _ := setupTestServer(t)

	_, err := s.handleSearchPhrases(context.Background(), callRequest("search_phrases", map[string]interface{}{}))
	requireMCPError(t, err, ErrorCodeEmptyQuery)

	_, err = s.handleSearchPhrases(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: "search_phrases", Arguments: "nope"},
	})
	requireMCPError(t, err, ErrorCodeInvalidParams)
}

func TestGetPhrase(t *testing.T) {
	s, ix := setupTestServer(t)
	ctx := context.Background()

	found, err := ix.Search(ctx, "sağol")
	require.NoError(t, err)
	require.Len(t, found.Results, 1)

	result, err := s.handleGetPhrase(ctx, callRequest("get_phrase", map[string]interface{}{
		"id": float64(found.Results[0].ID),
	}))
	require.NoError(t, err)

	out := resultJSON(t, result)
	assert.Equal(t, "İyiyim, sağol.", out["text"])
	assert.Equal(t, "iyiyim sağol", out["text_normalized"])
	assert.Equal(t, "clip_0002.mp4", out["clip_filename"])
	assert.Equal(t, 4.5, out["clip_duration"])
}

func TestGetPhrase_Errors(t *testing.T) {
	s, _ := setupTestServer(t)
	ctx := context.Background()

	_, err := s.handleGetPhrase(ctx, callRequest("get_phrase", map[string]interface{}{"id": float64(999)}))
	requireMCPError(t, err, ErrorCodeNotFound)

	_, err = s.handleGetPhrase(ctx, callRequest("get_phrase", map[string]interface{}{"id": 1.5}))
	requireMCPError(t, err, ErrorCodeInvalidParams)

	_, err = s.handleGetPhrase(ctx, callRequest("get_phrase", map[string]interface{}{"id": "1"}))
	requireMCPError(t, err, ErrorCodeInvalidParams)

	_, err = s.handleGetPhrase(ctx, callRequest("get_phrase", map[string]interface{}{}))
	requireMCPError(t, err, ErrorCodeInvalidParams)
}

func TestGetStats(t *testing.T) {
	s, _ := setupTestServer(t)

	result, err := s.handleGetStats(context.Background(), callRequest("get_stats", nil))
	require.NoError(t, err)

	out := resultJSON(t, result)
	assert.Equal(t, float64(2), out["total_phrases"])
	assert.Equal(t, 9.5, out["total_duration"])
}

func TestLoadManifest(t *testing.T) {
	s, ix := setupTestServer(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "clips-metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {"filename": "clip_0003.mp4", "text": "Görüşürüz!", "start_time": "00:02:00", "end_time": "00:02:01", "clip_duration": 3}
]`), 0o644))

	result, err := s.handleLoadManifest(ctx, callRequest("load_manifest", map[string]interface{}{
		"path":    path,
		"rebuild": true,
	}))
	require.NoError(t, err)

	out := resultJSON(t, result)
	assert.Equal(t, true, out["rebuilt"])
	assert.Equal(t, float64(1), out["total_phrases"])

	found, err := ix.Search(ctx, "görüşürüz")
	require.NoError(t, err)
	assert.Len(t, found.Results, 1)
}

func TestLoadManifest_InvalidPath(t *testing.T) {
	s, _ := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		path string
	}{
		{"relative", "clips-metadata.json"},
		{"missing", filepath.Join(t.TempDir(), "missing.json")},
		{"directory", t.TempDir()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.handleLoadManifest(ctx, callRequest("load_manifest", map[string]interface{}{"path": tt.path}))
			requireMCPError(t, err, ErrorCodeInvalidParams)
		})
	}

	_, err := s.handleLoadManifest(ctx, callRequest("load_manifest", map[string]interface{}{}))
	requireMCPError(t, err, ErrorCodeInvalidParams)
}

// stubLoader reports a load already running
type stubLoader struct{}

func (stubLoader) Load(context.Context, string, bool) (*loader.Statistics, error) {
	return nil, loader.ErrLoadInProgress
}

func TestLoadManifest_InProgress(t *testing.T) {
	_, ix := setupTestServer(t)
	busy, err := NewServer(ix, stubLoader{}, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "m.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	_, err = busy.handleLoadManifest(context.Background(), callRequest("load_manifest", map[string]interface{}{"path": path}))
	requireMCPError(t, err, ErrorCodeLoadInProgress)
}

func TestGetInt64(t *testing.T) {
	v, err := getInt64(map[string]interface{}{"id": float64(42)}, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	v, err = getInt64(map[string]interface{}{"id": 7}, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}

func TestMCPError(t *testing.T) {
	err := newMCPError(ErrorCodeNotFound, "Clip not found", nil)
	assert.Equal(t, "MCP error -32001: Clip not found", err.Error())
}
