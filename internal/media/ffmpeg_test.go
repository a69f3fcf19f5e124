package media

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipRequestArgs(t *testing.T) {
	req := ClipRequest{
		Input:    "in.mp4",
		Output:   "clips/out.mp4",
		Start:    8*time.Minute + 1500*time.Millisecond,
		Duration: 9 * time.Second,
		Width:    640,
	}

	assert.Equal(t, []string{
		"-y",
		"-ss", "481.500",
		"-i", "in.mp4",
		"-t", "9.000",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-vf", "scale=640:-2",
		"clips/out.mp4",
	}, req.Args())
}

func TestClipRequestArgs_NoScale(t *testing.T) {
	req := ClipRequest{Input: "a b.mp4", Output: "o.mp4", Duration: time.Second, VideoCodec: "libx265", AudioCodec: "opus"}
	args := req.Args()

	assert.NotContains(t, args, "-vf")
	assert.Contains(t, args, "libx265")
	assert.Contains(t, args, "opus")
	// Paths with spaces stay a single argument
	assert.Contains(t, args, "a b.mp4")
}

func TestClipRequestValidate(t *testing.T) {
	assert.NoError(t, ClipRequest{Input: "i", Output: "o", Duration: time.Second}.Validate())

	err := ClipRequest{Start: -time.Second, Width: -1}.Validate()
	require.Error(t, err)
	for _, want := range []string{"input", "output", "start", "duration", "width"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestSegmentRequestArgs(t *testing.T) {
	req := SegmentRequest{Input: "ep1.mp4", Output: "tmp/test-clip.mp4", Start: 480 * time.Second, Duration: 120 * time.Second}
	assert.Equal(t, []string{
		"-y", "-ss", "480.000", "-i", "ep1.mp4", "-t", "120.000", "-c", "copy", "tmp/test-clip.mp4",
	}, req.Args())
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, "0.000", Seconds(0))
	assert.Equal(t, "2.250", Seconds(2250*time.Millisecond))
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "boom", lastLine("ffmpeg version x\nconfig\nboom\n\n"))
	assert.Equal(t, "", lastLine(""))
}

// writeScript installs a fake ffmpeg that records its arguments
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestFFmpegCut(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	bin := writeScript(t, `for a in "$@"; do echo "$a"; done > "`+argsFile+`"`+"\n")

	f := NewFFmpeg(bin, nil)
	out := filepath.Join(dir, "clips", "clip.mp4")
	err := f.Cut(context.Background(), ClipRequest{Input: "in.mp4", Output: out, Duration: 3 * time.Second})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "clips"))
	assert.NoError(t, err)

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "in.mp4\n")
	assert.Contains(t, string(data), out+"\n")
}

func TestFFmpegCut_Failure(t *testing.T) {
	bin := writeScript(t, "echo 'in.mp4: No such file or directory' >&2\nexit 1\n")

	f := NewFFmpeg(bin, nil)
	err := f.Cut(context.Background(), ClipRequest{Input: "in.mp4", Output: filepath.Join(t.TempDir(), "o.mp4"), Duration: time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No such file or directory")
}

func TestFFmpegCut_InvalidRequest(t *testing.T) {
	f := NewFFmpeg("/nonexistent/ffmpeg", nil)
	err := f.Cut(context.Background(), ClipRequest{})
	assert.ErrorContains(t, err, "invalid clip request")
}

func TestFFmpegExtractSegment(t *testing.T) {
	bin := writeScript(t, "exit 0\n")
	f := NewFFmpeg(bin, nil)

	out := filepath.Join(t.TempDir(), "temp", "test-clip.mp4")
	require.NoError(t, f.ExtractSegment(context.Background(), SegmentRequest{Input: "ep.mp4", Output: out, Duration: time.Minute}))

	assert.Error(t, f.ExtractSegment(context.Background(), SegmentRequest{Input: "ep.mp4", Output: out}))
}

func TestAssertReady(t *testing.T) {
	assert.Error(t, NewFFmpeg("/nonexistent/ffmpeg-binary", nil).AssertReady())
	assert.NoError(t, NewFFmpeg(writeScript(t, "exit 0\n"), nil).AssertReady())
}
