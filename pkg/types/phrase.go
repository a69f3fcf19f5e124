package types

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// clockPattern matches zero-padded HH:MM:SS timestamps
var clockPattern = regexp.MustCompile(`^\d{2,}:[0-5]\d:[0-5]\d$`)

// Phrase is a persisted phrase record
type Phrase struct {
	ID             int64     `json:"id"`
	Text           string    `json:"text"`
	TextNormalized string    `json:"text_normalized"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	ClipFilename   string    `json:"clip_filename"`
	ClipDuration   float64   `json:"clip_duration"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewPhrase is a phrase record as produced by the loader, before indexing
type NewPhrase struct {
	Text         string  `json:"text"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	ClipFilename string  `json:"filename"`
	ClipDuration float64 `json:"clip_duration"`
}

// PhraseResult is the projection of a phrase exposed by searches
type PhraseResult struct {
	ID           int64   `json:"id"`
	Text         string  `json:"text"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	ClipFilename string  `json:"clip_filename"`
	ClipDuration float64 `json:"clip_duration"`
}

// Stats summarizes the indexed corpus
type Stats struct {
	TotalPhrases  int     `json:"total_phrases"`
	TotalDuration float64 `json:"total_duration"`
}

// Validate checks that the record can be indexed
func (p NewPhrase) Validate() error {
	if strings.TrimSpace(p.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidPhrase)
	}
	if !clockPattern.MatchString(p.StartTime) {
		return fmt.Errorf("%w: start_time %q is not HH:MM:SS", ErrInvalidPhrase, p.StartTime)
	}
	if !clockPattern.MatchString(p.EndTime) {
		return fmt.Errorf("%w: end_time %q is not HH:MM:SS", ErrInvalidPhrase, p.EndTime)
	}
	// Zero-padded clocks of equal width compare lexicographically.
	if len(p.StartTime) == len(p.EndTime) && p.StartTime > p.EndTime {
		return fmt.Errorf("%w: start_time %s is after end_time %s", ErrInvalidPhrase, p.StartTime, p.EndTime)
	}
	if strings.TrimSpace(p.ClipFilename) == "" {
		return fmt.Errorf("%w: clip filename is required", ErrInvalidPhrase)
	}
	if p.ClipDuration < 0 {
		return fmt.Errorf("%w: clip_duration %.3f is negative", ErrInvalidPhrase, p.ClipDuration)
	}
	return nil
}

// Result returns the public projection of the phrase
func (p *Phrase) Result() PhraseResult {
	return PhraseResult{
		ID:           p.ID,
		Text:         p.Text,
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		ClipFilename: p.ClipFilename,
		ClipDuration: p.ClipDuration,
	}
}
