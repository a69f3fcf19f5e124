package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/phraseclip/internal/phraseindex"
	"github.com/dshills/phraseclip/internal/storage"
	"github.com/dshills/phraseclip/pkg/types"
)

const manifest = `[
  {
    "filename": "clip_0001_00-00-01_merhaba-nasılsın.mp4",
    "text": "Merhaba, nasılsın?",
    "start_time": "00:00:01",
    "end_time": "00:00:03",
    "clip_duration": 5
  },
  {
    "filename": "clip_0002_00-00-10_iyiyim-sağol.mp4",
    "text": "İyiyim, sağol.",
    "start_time": "00:00:10",
    "end_time": "00:00:12",
    "clip_duration": 4.5
  }
]`

func setupTestLoader(t *testing.T) (*Loader, *phraseindex.Index) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ix, err := phraseindex.New(store)
	require.NoError(t, err)
	return New(ix, nil), ix
}

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clips-metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadManifest(t *testing.T) {
	entries, err := ReadManifest(strings.NewReader(manifest))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, types.NewPhrase{
		Text:         "Merhaba, nasılsın?",
		StartTime:    "00:00:01",
		EndTime:      "00:00:03",
		ClipFilename: "clip_0001_00-00-01_merhaba-nasılsın.mp4",
		ClipDuration: 5,
	}, entries[0])
}

func TestReadManifest_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "nope"},
		{"object instead of array", `{"text": "x"}`},
		{"unknown field", `[{"text": "x", "speaker": "ali"}]`},
		{"empty input", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadManifest(strings.NewReader(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestReadManifest_EmptyArray(t *testing.T) {
	entries, err := ReadManifest(strings.NewReader("[]"))
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLoad(t *testing.T) {
	l, ix := setupTestLoader(t)
	ctx := context.Background()

	stats, err := l.Load(ctx, writeManifest(t, manifest), false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PhrasesInserted)
	assert.Equal(t, 2, stats.TotalPhrases)
	assert.InDelta(t, 9.5, stats.TotalDuration, 1e-9)
	assert.False(t, stats.Rebuilt)

	resp, err := ix.Search(ctx, "NASILSIN")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Merhaba, nasılsın?", resp.Results[0].Text)

	// Appending loads the same manifest again
	stats, err = l.Load(ctx, writeManifest(t, manifest), false)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalPhrases)
}

func TestLoad_Rebuild(t *testing.T) {
	l, _ := setupTestLoader(t)
	ctx := context.Background()
	path := writeManifest(t, manifest)

	_, err := l.Load(ctx, path, false)
	require.NoError(t, err)

	stats, err := l.Load(ctx, path, true)
	require.NoError(t, err)
	assert.True(t, stats.Rebuilt)
	assert.Equal(t, 2, stats.TotalPhrases)
}

func TestLoad_MalformedRecordLoadsNothing(t *testing.T) {
	l, ix := setupTestLoader(t)
	ctx := context.Background()

	body := `[
  {"filename": "a.mp4", "text": "bir", "start_time": "00:00:01", "end_time": "00:00:02", "clip_duration": 1},
  {"filename": "b.mp4", "text": "iki", "start_time": "bad", "end_time": "00:00:04", "clip_duration": 1}
]`
	_, err := l.Load(ctx, writeManifest(t, body), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidPhrase)

	stats, err := ix.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalPhrases)
}

func TestLoad_MissingFile(t *testing.T) {
	l, _ := setupTestLoader(t)
	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"), false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EmptyManifest(t *testing.T) {
	l, _ := setupTestLoader(t)
	_, err := l.Load(context.Background(), writeManifest(t, "[]"), false)
	assert.ErrorIs(t, err, types.ErrEmptyBatch)
}

func TestLoadEntries_InProgress(t *testing.T) {
	l, _ := setupTestLoader(t)
	require.True(t, l.lock.tryAcquire())
	defer l.lock.release()

	_, err := l.LoadEntries(context.Background(), nil, true)
	assert.ErrorIs(t, err, ErrLoadInProgress)
}

func TestLoadLock(t *testing.T) {
	var lock loadLock
	assert.True(t, lock.tryAcquire())
	assert.False(t, lock.tryAcquire())
	lock.release()
	assert.True(t, lock.tryAcquire())
}
