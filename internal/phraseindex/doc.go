// Package phraseindex implements the phrase lookup table: normalized
// inserts and substring search over the normalized text.
//
// # Basic Usage
//
//	ix, err := phraseindex.New(store)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := ix.Search(ctx, "NASILSIN")
//	if resp.TooShort {
//	    // fewer than MinQueryLength characters after trimming
//	}
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s %s-%s\n", r.ID, r.Text, r.StartTime, r.EndTime)
//	}
//
// # Matching
//
// Both the stored text and the query go through the same normalizer, so
// "Merhaba, nasılsın?" is found by "NASILSIN" and by "merhaba nasılsın".
// Results are in insertion order (ascending id) and capped at MaxResults.
// There is no ranking and no fuzzy matching.
//
// # Writes
//
// Insert validates the whole batch first and then writes it in a single
// transaction. Replace does the same after deleting the existing corpus.
// Both purge the query cache.
//
// # Caching
//
// Responses are cached in an LRU keyed by the normalized query, so "Nasılsın"
// and "nasılsın!" share an entry.
package phraseindex
