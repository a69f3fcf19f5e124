// Package media cuts clips and extracts segments from a video with ffmpeg.
//
// Invocations are built from typed requests and passed to the binary as an
// argument vector; nothing goes through a shell.
package media

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
)

const (
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
)

// ClipRequest describes one re-encoded clip
type ClipRequest struct {
	Input      string
	Output     string
	Start      time.Duration
	Duration   time.Duration
	Width      int // 0 keeps the source size
	VideoCodec string
	AudioCodec string
}

// Validate checks the request before anything is executed
func (r ClipRequest) Validate() error {
	var errs []error
	if r.Input == "" {
		errs = append(errs, errors.New("input is required"))
	}
	if r.Output == "" {
		errs = append(errs, errors.New("output is required"))
	}
	if r.Start < 0 {
		errs = append(errs, fmt.Errorf("start %s is negative", r.Start))
	}
	if r.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration %s must be positive", r.Duration))
	}
	if r.Width < 0 {
		errs = append(errs, fmt.Errorf("width %d is negative", r.Width))
	}
	return errors.Join(errs...)
}

// Args returns the ffmpeg argument vector for the request
func (r ClipRequest) Args() []string {
	vcodec := r.VideoCodec
	if vcodec == "" {
		vcodec = DefaultVideoCodec
	}
	acodec := r.AudioCodec
	if acodec == "" {
		acodec = DefaultAudioCodec
	}

	args := []string{
		"-y",
		"-ss", Seconds(r.Start),
		"-i", r.Input,
		"-t", Seconds(r.Duration),
		"-c:v", vcodec,
		"-c:a", acodec,
	}
	if r.Width > 0 {
		// -2 keeps the aspect ratio with an even height, as libx264 requires
		args = append(args, "-vf", fmt.Sprintf("scale=%d:-2", r.Width))
	}
	return append(args, r.Output)
}

// SegmentRequest describes a stream-copied excerpt of the input
type SegmentRequest struct {
	Input    string
	Output   string
	Start    time.Duration
	Duration time.Duration
}

// Args returns the ffmpeg argument vector for the request
func (r SegmentRequest) Args() []string {
	return []string{
		"-y",
		"-ss", Seconds(r.Start),
		"-i", r.Input,
		"-t", Seconds(r.Duration),
		"-c", "copy",
		r.Output,
	}
}

// Seconds renders d as decimal seconds with millisecond precision
func Seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// Cutter produces a clip for a request
type Cutter interface {
	Cut(ctx context.Context, req ClipRequest) error
}

// FFmpeg runs the ffmpeg binary
type FFmpeg struct {
	Path    string
	Timeout time.Duration
	log     *logger.Logger
}

// NewFFmpeg returns an FFmpeg using path ("ffmpeg" when empty)
func NewFFmpeg(path string, log *logger.Logger) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &FFmpeg{
		Path:    path,
		Timeout: 5 * time.Minute,
		log:     log.With("service", "ffmpeg"),
	}
}

// AssertReady checks that the binary can be found
func (f *FFmpeg) AssertReady() error {
	if _, err := exec.LookPath(f.Path); err != nil {
		return fmt.Errorf("missing required binary %q in PATH: %w", f.Path, err)
	}
	return nil
}

// Cut encodes one clip, creating the output directory if needed
func (f *FFmpeg) Cut(ctx context.Context, req ClipRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid clip request: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return fmt.Errorf("create clip directory: %w", err)
	}
	return f.run(ctx, req.Args())
}

// ExtractSegment copies part of the input without re-encoding
func (f *FFmpeg) ExtractSegment(ctx context.Context, req SegmentRequest) error {
	if req.Input == "" || req.Output == "" {
		return errors.New("invalid segment request: input and output are required")
	}
	if req.Duration <= 0 {
		return fmt.Errorf("invalid segment request: duration %s must be positive", req.Duration)
	}
	if err := os.MkdirAll(filepath.Dir(req.Output), 0o755); err != nil {
		return fmt.Errorf("create segment directory: %w", err)
	}
	return f.run(ctx, req.Args())
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	f.log.Debug("running ffmpeg", "args", args)
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.Path, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

// lastLine returns the final non-empty line of ffmpeg's output, which
// carries the error
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
