package phraseindex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/phraseclip/internal/normalize"
	"github.com/dshills/phraseclip/internal/observe"
	"github.com/dshills/phraseclip/internal/storage"
	"github.com/dshills/phraseclip/pkg/types"
)

const (
	// MaxResults caps every search response
	MaxResults = 50
	// MinQueryLength is the shortest trimmed query, in characters, that is searched
	MinQueryLength = 2
	// TooShortMessage accompanies a too-short response
	TooShortMessage = "Query too short"

	defaultCacheSize = 1000
	defaultCacheTTL  = 10 * time.Minute
)

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results  []types.PhraseResult
	Count    int
	Query    string
	TooShort bool
	Message  string
	CacheHit bool
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Index is the phrase lookup table: it owns normalization on the write
// path and the substring query on the read path
type Index struct {
	storage    storage.Storage
	normalizer *normalize.Normalizer
	metrics    *observe.Metrics
	cacheTTL   time.Duration
	cacheSize  int
	cache      *lru.Cache[string, *cacheEntry]
	cacheMu    sync.RWMutex
	now        func() time.Time
}

// Option configures an Index
type Option func(*Index)

// WithNormalizer replaces the Turkish default normalizer
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(ix *Index) { ix.normalizer = n }
}

// WithCacheSize sets the number of cached queries; 0 disables the cache
func WithCacheSize(size int) Option {
	return func(ix *Index) { ix.cacheSize = size }
}

// WithCacheTTL sets how long a cached response stays valid
func WithCacheTTL(ttl time.Duration) Option {
	return func(ix *Index) { ix.cacheTTL = ttl }
}

// WithMetrics records search outcomes on m
func WithMetrics(m *observe.Metrics) Option {
	return func(ix *Index) { ix.metrics = m }
}

// New creates an Index over store
func New(store storage.Storage, opts ...Option) (*Index, error) {
	if store == nil {
		return nil, errors.New("storage is required")
	}
	ix := &Index{
		storage:    store,
		normalizer: normalize.Default,
		cacheSize:  defaultCacheSize,
		cacheTTL:   defaultCacheTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(ix)
	}

	if ix.cacheSize > 0 {
		cache, err := lru.New[string, *cacheEntry](ix.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create LRU cache: %w", err)
		}
		ix.cache = cache
	}
	return ix, nil
}

// Normalize exposes the index's normalizer
func (ix *Index) Normalize(text string) string {
	return ix.normalizer.Normalize(text)
}

// Insert validates and inserts a batch in one transaction. Either every
// record becomes visible or none does.
func (ix *Index) Insert(ctx context.Context, batch []types.NewPhrase) (int, error) {
	return ix.write(ctx, batch, false)
}

// Replace deletes the whole corpus and inserts batch in the same
// transaction. On failure the previous corpus is left intact.
func (ix *Index) Replace(ctx context.Context, batch []types.NewPhrase) (int, error) {
	return ix.write(ctx, batch, true)
}

func (ix *Index) write(ctx context.Context, batch []types.NewPhrase, replace bool) (n int, err error) {
	if len(batch) == 0 && !replace {
		return 0, types.ErrEmptyBatch
	}

	phrases, err := ix.prepare(batch)
	if err != nil {
		return 0, err
	}

	tx, err := ix.storage.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if replace {
		if _, err = tx.DeleteAllPhrases(ctx); err != nil {
			return 0, err
		}
	}

	for i, p := range phrases {
		if err = tx.InsertPhrase(ctx, p); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	ix.InvalidateCache()
	return len(phrases), nil
}

// prepare validates every record before anything touches storage
func (ix *Index) prepare(batch []types.NewPhrase) ([]*types.Phrase, error) {
	phrases := make([]*types.Phrase, 0, len(batch))
	for i, np := range batch {
		if err := np.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		phrases = append(phrases, &types.Phrase{
			Text:           np.Text,
			TextNormalized: ix.normalizer.Normalize(np.Text),
			StartTime:      np.StartTime,
			EndTime:        np.EndTime,
			ClipFilename:   np.ClipFilename,
			ClipDuration:   np.ClipDuration,
		})
	}
	return phrases, nil
}

// Search returns every phrase whose normalized text contains the
// normalized query, ascending by id, at most MaxResults
func (ix *Index) Search(ctx context.Context, query string) (*SearchResponse, error) {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < MinQueryLength {
		ix.metrics.RecordSearch(ctx, observe.OutcomeTooShort, 0)
		return &SearchResponse{
			Results:  []types.PhraseResult{},
			Query:    query,
			TooShort: true,
			Message:  TooShortMessage,
		}, nil
	}

	needle := ix.normalizer.Normalize(query)

	if cached := ix.checkCache(needle); cached != nil {
		cached.Query = query
		cached.CacheHit = true
		ix.metrics.RecordSearch(ctx, observe.OutcomeOK, cached.Count)
		return cached, nil
	}

	phrases, err := ix.storage.SearchPhrases(ctx, needle, MaxResults)
	if err != nil {
		ix.metrics.RecordSearch(ctx, observe.OutcomeError, 0)
		return nil, err
	}

	results := make([]types.PhraseResult, 0, len(phrases))
	for _, p := range phrases {
		results = append(results, p.Result())
	}
	response := &SearchResponse{
		Results: results,
		Count:   len(results),
		Query:   query,
	}

	ix.storeInCache(needle, response)
	ix.metrics.RecordSearch(ctx, observe.OutcomeOK, response.Count)
	return response, nil
}

// GetByID returns the full record for id
func (ix *Index) GetByID(ctx context.Context, id int64) (*types.Phrase, error) {
	phrase, err := ix.storage.GetPhrase(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("phrase %d: %w: %w", id, types.ErrPhraseNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	return phrase, nil
}

// Stats returns the record count and summed clip duration
func (ix *Index) Stats(ctx context.Context) (*types.Stats, error) {
	return ix.storage.GetStats(ctx)
}

// Ping reports whether the backing storage is reachable
func (ix *Index) Ping(ctx context.Context) error {
	return ix.storage.Ping(ctx)
}

// checkCache looks up a cached response by normalized query
func (ix *Index) checkCache(key string) *SearchResponse {
	if ix.cache == nil {
		return nil
	}

	ix.cacheMu.RLock()
	entry, found := ix.cache.Get(key)
	if !found {
		ix.cacheMu.RUnlock()
		return nil
	}

	if ix.now().After(entry.expiresAt) {
		ix.cacheMu.RUnlock()

		ix.cacheMu.Lock()
		ix.cache.Remove(key)
		ix.cacheMu.Unlock()
		return nil
	}

	response := copySearchResponse(entry.response)
	ix.cacheMu.RUnlock()
	return response
}

// storeInCache saves a response under its normalized query
func (ix *Index) storeInCache(key string, response *SearchResponse) {
	if ix.cache == nil {
		return
	}
	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: ix.now().Add(ix.cacheTTL),
	}

	ix.cacheMu.Lock()
	ix.cache.Add(key, entry)
	ix.cacheMu.Unlock()
}

// InvalidateCache drops every cached response
func (ix *Index) InvalidateCache() {
	if ix.cache == nil {
		return
	}
	ix.cacheMu.Lock()
	ix.cache.Purge()
	ix.cacheMu.Unlock()
}

// copySearchResponse creates a copy whose Results slice is not shared.
// PhraseResult holds only value fields.
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}
	dst := *src
	dst.Results = make([]types.PhraseResult, len(src.Results))
	copy(dst.Results, src.Results)
	return &dst
}
