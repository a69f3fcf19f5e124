// Package transcribe produces an SRT transcript of a video with the whisper CLI.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/phraseclip/internal/logger"
	"github.com/dshills/phraseclip/internal/media"
)

// Segment limits transcription to part of the video
type Segment struct {
	Start    time.Duration
	Duration time.Duration
}

// Request describes one whisper run
type Request struct {
	VideoPath string
	OutputDir string
	Model     string
	Language  string
	Device    string // "cuda", "mps" or "" for CPU
	FP16      bool
	Threads   int
	Segment   *Segment
}

// Validate checks the request before anything is executed
func (r Request) Validate() error {
	var errs []error
	if r.VideoPath == "" {
		errs = append(errs, errors.New("video path is required"))
	}
	if r.OutputDir == "" {
		errs = append(errs, errors.New("output dir is required"))
	}
	if r.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if r.Threads < 0 {
		errs = append(errs, fmt.Errorf("threads %d is negative", r.Threads))
	}
	if r.Segment != nil && r.Segment.Duration <= 0 {
		errs = append(errs, errors.New("segment duration must be positive"))
	}
	return errors.Join(errs...)
}

// Args returns the whisper argument vector transcribing input
func (r Request) Args(input string) []string {
	args := []string{
		input,
		"--model", r.Model,
		"--output_format", "srt",
		"--output_dir", r.OutputDir,
	}
	if r.Language != "" {
		args = append(args, "--language", r.Language)
	}
	if r.Device != "" {
		args = append(args, "--device", r.Device)
	}
	if r.FP16 {
		args = append(args, "--fp16", "True")
	}
	if r.Threads > 0 {
		args = append(args, "--threads", strconv.Itoa(r.Threads))
	}
	return args
}

// SubtitlePath is where the transcript of VideoPath ends up
func (r Request) SubtitlePath() string {
	return filepath.Join(r.OutputDir, baseName(r.VideoPath)+".srt")
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SegmentExtractor cuts the test segment out of the video
type SegmentExtractor interface {
	ExtractSegment(ctx context.Context, req media.SegmentRequest) error
}

// Runner executes whisper
type Runner struct {
	Path      string
	extractor SegmentExtractor
	log       *logger.Logger
}

// NewRunner returns a Runner using the whisper binary at path ("whisper"
// when empty). extractor is only needed for requests with a Segment.
func NewRunner(path string, extractor SegmentExtractor, log *logger.Logger) *Runner {
	if path == "" {
		path = "whisper"
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{Path: path, extractor: extractor, log: log.With("service", "whisper")}
}

// Run transcribes the request and returns the path of the SRT file
func (w *Runner) Run(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("invalid transcribe request: %w", err)
	}
	if _, err := os.Stat(req.VideoPath); err != nil {
		return "", fmt.Errorf("video not found: %w", err)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	input := req.VideoPath
	if req.Segment != nil {
		if w.extractor == nil {
			return "", errors.New("segment transcription needs a segment extractor")
		}
		tmpDir, err := os.MkdirTemp("", "phraseclip-segment-")
		if err != nil {
			return "", fmt.Errorf("create temp directory: %w", err)
		}
		defer func() { _ = os.RemoveAll(tmpDir) }()

		input = filepath.Join(tmpDir, "segment"+filepath.Ext(req.VideoPath))
		w.log.Info("extracting segment", "start", req.Segment.Start, "duration", req.Segment.Duration)
		err = w.extractor.ExtractSegment(ctx, media.SegmentRequest{
			Input:    req.VideoPath,
			Output:   input,
			Start:    req.Segment.Start,
			Duration: req.Segment.Duration,
		})
		if err != nil {
			return "", fmt.Errorf("extract segment: %w", err)
		}
	}

	args := req.Args(input)
	w.log.Info("running whisper", "model", req.Model, "language", req.Language, "device", req.Device)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.Path, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	produced := filepath.Join(req.OutputDir, baseName(input)+".srt")
	target := req.SubtitlePath()
	if produced != target {
		if err := os.Rename(produced, target); err != nil {
			return "", fmt.Errorf("rename transcript: %w", err)
		}
	}
	if _, err := os.Stat(target); err != nil {
		return "", fmt.Errorf("whisper produced no transcript: %w", err)
	}
	return target, nil
}
