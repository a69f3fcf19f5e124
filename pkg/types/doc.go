// Package types provides shared type definitions for phraseclip.
//
// This package defines the phrase record and the shapes derived from it that
// travel between the storage layer, the phrase index, the HTTP API and the
// MCP tools.
//
// # Core Types
//
// Phrase is one utterance extracted from the source video, as persisted:
//
//	phrase := &types.Phrase{
//	    ID:             42,
//	    Text:           "Merhaba, nasılsın?",
//	    TextNormalized: "merhaba nasılsın",
//	    StartTime:      "00:08:12",
//	    EndTime:        "00:08:14",
//	    ClipFilename:   "clip_0042_00-08-12_merhaba-nasılsın.mp4",
//	    ClipDuration:   6.5,
//	}
//
// NewPhrase is the loader's input tuple. It deliberately has no normalized
// field: the phrase index derives it.
//
// PhraseResult is the public projection returned by searches; it omits
// TextNormalized and CreatedAt.
//
// # Validation
//
//	if err := p.Validate(); err != nil {
//	    // errors.Is(err, types.ErrInvalidPhrase) == true
//	}
package types
