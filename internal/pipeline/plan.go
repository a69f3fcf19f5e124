package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/phraseclip/internal/media"
	"github.com/dshills/phraseclip/internal/normalize"
	"github.com/dshills/phraseclip/internal/subtitle"
	"github.com/dshills/phraseclip/pkg/types"
)

const (
	DefaultPadding         = 2 * time.Second
	DefaultMaxClipDuration = 9 * time.Second

	slugWords    = 5
	slugMaxRunes = 50
)

// PlanOptions controls how cues become clips
type PlanOptions struct {
	VideoPath       string
	ClipsDir        string
	Padding         time.Duration
	MaxClipDuration time.Duration
	MaxClips        int // 0 plans every cue
	Width           int
	Normalizer      *normalize.Normalizer
}

// Plan is one clip to cut and the manifest entry describing it
type Plan struct {
	Index   int
	Request media.ClipRequest
	Entry   types.NewPhrase
}

// PlanClips turns cues into clip plans. Each clip starts Padding before the
// cue (never before 0), ends Padding after it and is capped at
// MaxClipDuration. Indexes are 1-based in cue order.
func PlanClips(cues []subtitle.Cue, opts PlanOptions) []Plan {
	if opts.Padding < 0 {
		opts.Padding = 0
	}
	if opts.MaxClipDuration <= 0 {
		opts.MaxClipDuration = DefaultMaxClipDuration
	}
	if opts.Normalizer == nil {
		opts.Normalizer = normalize.Default
	}

	n := len(cues)
	if opts.MaxClips > 0 && opts.MaxClips < n {
		n = opts.MaxClips
	}

	plans := make([]Plan, 0, n)
	for i, cue := range cues[:n] {
		index := i + 1

		clipStart := cue.Start - opts.Padding
		if clipStart < 0 {
			clipStart = 0
		}
		clipEnd := cue.End + opts.Padding
		if clipEnd-clipStart > opts.MaxClipDuration {
			clipEnd = clipStart + opts.MaxClipDuration
		}
		clipDuration := clipEnd - clipStart

		text := strings.TrimSpace(cue.Text)
		filename := ClipFilename(index, cue.Start, Slug(opts.Normalizer.Normalize(text)))

		plans = append(plans, Plan{
			Index: index,
			Request: media.ClipRequest{
				Input:    opts.VideoPath,
				Output:   filepath.Join(opts.ClipsDir, filename),
				Start:    clipStart,
				Duration: clipDuration,
				Width:    opts.Width,
			},
			Entry: types.NewPhrase{
				Text:         text,
				StartTime:    subtitle.FormatClock(cue.Start),
				EndTime:      subtitle.FormatClock(cue.End),
				ClipFilename: filename,
				ClipDuration: clipDuration.Seconds(),
			},
		})
	}
	return plans
}

// ClipFilename renders clip_NNNN_HH-MM-SS_slug.mp4
func ClipFilename(index int, start time.Duration, slug string) string {
	stamp := strings.ReplaceAll(subtitle.FormatClock(start), ":", "-")
	return fmt.Sprintf("clip_%04d_%s_%s.mp4", index, stamp, slug)
}

// Slug builds a filename-safe label from normalized text: the first five
// words, keeping only Turkish lower-case letters and digits, joined by "-"
// and cut to 50 characters.
func Slug(normalized string) string {
	kept := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case strings.ContainsRune("çğıöşü", r):
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, normalized)

	words := strings.Fields(kept)
	if len(words) > slugWords {
		words = words[:slugWords]
	}
	slug := strings.Join(words, "-")

	if utf8.RuneCountInString(slug) > slugMaxRunes {
		slug = string([]rune(slug)[:slugMaxRunes])
	}
	return slug
}
