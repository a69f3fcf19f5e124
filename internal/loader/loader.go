// Package loader imports a clip manifest into the phrase index.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dshills/phraseclip/internal/logger"
	"github.com/dshills/phraseclip/pkg/types"
)

// ErrLoadInProgress is returned when another load holds the index
var ErrLoadInProgress = errors.New("load already in progress")

// Index is the subset of phraseindex.Index the loader writes to
type Index interface {
	Insert(ctx context.Context, batch []types.NewPhrase) (int, error)
	Replace(ctx context.Context, batch []types.NewPhrase) (int, error)
	Stats(ctx context.Context) (*types.Stats, error)
}

// Statistics describes a completed load
type Statistics struct {
	PhrasesInserted int
	TotalPhrases    int
	TotalDuration   float64
	Rebuilt         bool
	Duration        time.Duration
}

// Loader reads manifests and writes them to an index
type Loader struct {
	index Index
	log   *logger.Logger
	lock  loadLock
}

// New creates a Loader. A nil log discards output.
func New(index Index, log *logger.Logger) *Loader {
	if log == nil {
		log = logger.NewNop()
	}
	return &Loader{index: index, log: log}
}

// ReadManifest decodes a clip manifest. Unknown fields are rejected so a
// manifest from a different tool fails loudly.
func ReadManifest(r io.Reader) ([]types.NewPhrase, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var entries []types.NewPhrase
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if entries == nil {
		entries = []types.NewPhrase{}
	}
	return entries, nil
}

// ReadManifestFile opens path and decodes it with ReadManifest
func ReadManifestFile(path string) ([]types.NewPhrase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return ReadManifest(f)
}

// Load imports the manifest at path. With rebuild the existing corpus is
// replaced in the same transaction; otherwise the entries are appended.
func (l *Loader) Load(ctx context.Context, path string, rebuild bool) (*Statistics, error) {
	entries, err := ReadManifestFile(path)
	if err != nil {
		return nil, err
	}
	return l.LoadEntries(ctx, entries, rebuild)
}

// LoadEntries writes already decoded entries
func (l *Loader) LoadEntries(ctx context.Context, entries []types.NewPhrase, rebuild bool) (*Statistics, error) {
	if !l.lock.tryAcquire() {
		return nil, ErrLoadInProgress
	}
	defer l.lock.release()

	startTime := time.Now()
	l.log.Info("loading phrases", "entries", len(entries), "rebuild", rebuild)

	var n int
	var err error
	if rebuild {
		n, err = l.index.Replace(ctx, entries)
	} else {
		n, err = l.index.Insert(ctx, entries)
	}
	if err != nil {
		return nil, fmt.Errorf("load phrases: %w", err)
	}

	stats, err := l.index.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("read stats after load: %w", err)
	}

	result := &Statistics{
		PhrasesInserted: n,
		TotalPhrases:    stats.TotalPhrases,
		TotalDuration:   stats.TotalDuration,
		Rebuilt:         rebuild,
		Duration:        time.Since(startTime),
	}
	l.log.Info("phrases loaded",
		"inserted", n,
		"total_phrases", stats.TotalPhrases,
		"total_duration", stats.TotalDuration,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}
