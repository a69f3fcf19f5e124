package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/phraseclip/internal/media"
)

func TestRequestArgs(t *testing.T) {
	req := Request{
		VideoPath: "data/ep1.mp4",
		OutputDir: "data/subtitles",
		Model:     "large",
		Language:  "Turkish",
		Device:    "mps",
		FP16:      true,
		Threads:   4,
	}

	assert.Equal(t, []string{
		"data/ep1.mp4",
		"--model", "large",
		"--output_format", "srt",
		"--output_dir", "data/subtitles",
		"--language", "Turkish",
		"--device", "mps",
		"--fp16", "True",
		"--threads", "4",
	}, req.Args(req.VideoPath))
}

func TestRequestArgs_Minimal(t *testing.T) {
	req := Request{VideoPath: "v.mp4", OutputDir: "out", Model: "tiny"}
	assert.Equal(t, []string{"v.mp4", "--model", "tiny", "--output_format", "srt", "--output_dir", "out"}, req.Args("v.mp4"))
}

func TestRequestValidate(t *testing.T) {
	assert.NoError(t, Request{VideoPath: "v", OutputDir: "o", Model: "m"}.Validate())

	err := Request{Threads: -1, Segment: &Segment{}}.Validate()
	require.Error(t, err)
	for _, want := range []string{"video path", "output dir", "model", "threads", "segment"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestSubtitlePath(t *testing.T) {
	req := Request{VideoPath: "/data/original/kurtlar-vadisi-ep1.mp4", OutputDir: "/data/subtitles"}
	assert.Equal(t, "/data/subtitles/kurtlar-vadisi-ep1.srt", req.SubtitlePath())
}

// fakeWhisper writes a script that creates <output_dir>/<input base>.srt
func fakeWhisper(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	script := `#!/bin/sh
input="$1"
shift
while [ $# -gt 0 ]; do
  if [ "$1" = "--output_dir" ]; then out="$2"; fi
  shift
done
base=$(basename "$input")
base="${base%.*}"
printf '1\n00:00:01,000 --> 00:00:02,000\nMerhaba\n' > "$out/$base.srt"
`
	path := filepath.Join(t.TempDir(), "whisper")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ep1.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not really a video"), 0o644))
	return path
}

func TestRunnerRun(t *testing.T) {
	video := writeVideo(t)
	outDir := filepath.Join(t.TempDir(), "subtitles")

	r := NewRunner(fakeWhisper(t), nil, nil)
	path, err := r.Run(context.Background(), Request{VideoPath: video, OutputDir: outDir, Model: "tiny"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "ep1.srt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Merhaba")
}

type copyExtractor struct {
	got media.SegmentRequest
}

func (c *copyExtractor) ExtractSegment(_ context.Context, req media.SegmentRequest) error {
	c.got = req
	return os.WriteFile(req.Output, []byte("segment"), 0o644)
}

func TestRunnerRun_Segment(t *testing.T) {
	video := writeVideo(t)
	outDir := t.TempDir()
	ext := &copyExtractor{}

	r := NewRunner(fakeWhisper(t), ext, nil)
	path, err := r.Run(context.Background(), Request{
		VideoPath: video,
		OutputDir: outDir,
		Model:     "tiny",
		Segment:   &Segment{Start: 8 * time.Minute, Duration: 2 * time.Minute},
	})
	require.NoError(t, err)

	// The transcript is named after the original video, not the segment
	assert.Equal(t, filepath.Join(outDir, "ep1.srt"), path)
	_, err = os.Stat(filepath.Join(outDir, "segment.srt"))
	assert.True(t, os.IsNotExist(err))

	assert.Equal(t, video, ext.got.Input)
	assert.Equal(t, 8*time.Minute, ext.got.Start)
	assert.Equal(t, 2*time.Minute, ext.got.Duration)
}

func TestRunnerRun_SegmentNeedsExtractor(t *testing.T) {
	r := NewRunner(fakeWhisper(t), nil, nil)
	_, err := r.Run(context.Background(), Request{
		VideoPath: writeVideo(t),
		OutputDir: t.TempDir(),
		Model:     "tiny",
		Segment:   &Segment{Duration: time.Minute},
	})
	assert.ErrorContains(t, err, "extractor")
}

func TestRunnerRun_MissingVideo(t *testing.T) {
	r := NewRunner("whisper", nil, nil)
	_, err := r.Run(context.Background(), Request{VideoPath: "/nonexistent.mp4", OutputDir: t.TempDir(), Model: "tiny"})
	assert.ErrorContains(t, err, "video not found")
}

func TestRunnerRun_WhisperFails(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "whisper")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\necho 'model not found' >&2\nexit 2\n"), 0o755))

	r := NewRunner(bin, nil, nil)
	_, err := r.Run(context.Background(), Request{VideoPath: writeVideo(t), OutputDir: t.TempDir(), Model: "huge"})
	assert.ErrorContains(t, err, "model not found")
}
