package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dshills/phraseclip/internal/api"
	"github.com/dshills/phraseclip/internal/config"
	"github.com/dshills/phraseclip/internal/loader"
	"github.com/dshills/phraseclip/internal/logger"
	"github.com/dshills/phraseclip/internal/mcp"
	"github.com/dshills/phraseclip/internal/media"
	"github.com/dshills/phraseclip/internal/observe"
	"github.com/dshills/phraseclip/internal/phraseindex"
	"github.com/dshills/phraseclip/internal/pipeline"
	"github.com/dshills/phraseclip/internal/storage"
	"github.com/dshills/phraseclip/internal/subtitle"
	"github.com/dshills/phraseclip/internal/transcribe"
)

// openIndex opens storage and builds the phrase index over it. The caller
// closes the returned storage.
func (a *app) openIndex(ctx context.Context, metrics *observe.Metrics) (storage.Storage, *phraseindex.Index, error) {
	a.log.Info("opening storage",
		"driver", a.cfg.Storage.Driver,
		"path", a.cfg.Storage.Path,
		"dsn", a.cfg.Storage.DSN,
	)
	store, err := storage.Open(ctx, a.cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	opts := []phraseindex.Option{
		phraseindex.WithCacheSize(a.cfg.Search.CacheSize),
		phraseindex.WithCacheTTL(a.cfg.Search.CacheTTL),
	}
	if metrics != nil {
		opts = append(opts, phraseindex.WithMetrics(metrics))
	}

	ix, err := phraseindex.New(store, opts...)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return store, ix, nil
}

func closeStorage(store storage.Storage, log *logger.Logger) {
	if err := store.Close(); err != nil {
		log.Warn("failed to close storage", "error", err)
	}
}

func runServe(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", a.cfg.Server.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()
	metrics := observe.DefaultMetrics()

	store, ix, err := a.openIndex(ctx, metrics)
	if err != nil {
		return err
	}
	defer closeStorage(store, a.log)

	srv := api.NewServer(*addr, api.RouterConfig{
		Handler:     api.NewPhraseHandler(ix, a.log),
		APIPrefix:   a.cfg.Server.APIPrefix,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		ClipsDir:    a.cfg.Media.ClipsDir,
		FrontendDir: a.cfg.Server.FrontendDir,
		Metrics:     metrics,
		MetricsHTTP: observe.Handler(),
		Logger:      a.log,
	})
	return srv.Run(ctx)
}

func runMCP(ctx context.Context, a *app, args []string) error {
	store, ix, err := a.openIndex(ctx, nil)
	if err != nil {
		return err
	}
	defer closeStorage(store, a.log)

	server, err := mcp.NewServer(ix, loader.New(ix, a.log), a.log)
	if err != nil {
		return fmt.Errorf("create MCP server: %w", err)
	}
	err = server.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runTranscribe(ctx context.Context, a *app, args []string) error {
	tc := a.cfg.Transcribe
	fs := flag.NewFlagSet("transcribe", flag.ContinueOnError)
	video := fs.String("video", a.cfg.Media.VideoPath, "input video")
	outDir := fs.String("out", tc.OutputDir, "directory for the SRT file")
	model := fs.String("model", tc.Model, "whisper model")
	language := fs.String("language", tc.Language, "spoken language")
	device := fs.String("device", tc.Device, "compute device (cuda, mps or empty for CPU)")
	fp16 := fs.Bool("fp16", tc.FP16, "use half precision")
	threads := fs.Int("threads", tc.Threads, "CPU threads (0 leaves the whisper default)")
	segStart := fs.Duration("segment-start", 0, "transcribe only from this offset")
	segDuration := fs.Duration("segment-duration", 0, "transcribe only this much video")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := transcribe.Request{
		VideoPath: *video,
		OutputDir: *outDir,
		Model:     *model,
		Language:  *language,
		Device:    *device,
		FP16:      *fp16,
		Threads:   *threads,
	}
	if *segDuration > 0 {
		req.Segment = &transcribe.Segment{Start: *segStart, Duration: *segDuration}
	}

	ffmpeg := media.NewFFmpeg(a.cfg.Media.FFmpegPath, a.log)
	runner := transcribe.NewRunner(tc.WhisperPath, ffmpeg, a.log)

	srt, err := runner.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, srt)
	return nil
}

func runCut(ctx context.Context, a *app, args []string) error {
	mc := a.cfg.Media
	fs := flag.NewFlagSet("cut", flag.ContinueOnError)
	video := fs.String("video", mc.VideoPath, "input video")
	srtPath := fs.String("srt", "", "SRT transcript (default: where transcribe writes it)")
	clipsDir := fs.String("clips", mc.ClipsDir, "output directory for clips")
	metadata := fs.String("metadata", mc.MetadataPath, "manifest output path")
	maxClips := fs.Int("max-clips", mc.MaxClips, "cut at most this many clips (0 for all)")
	workers := fs.Int("workers", mc.Workers, "concurrent ffmpeg processes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *video == "" {
		return errors.New("cut: -video is required")
	}
	if *srtPath == "" {
		*srtPath = transcriptPath(a.cfg, *video)
	}

	ffmpeg := media.NewFFmpeg(mc.FFmpegPath, a.log)
	if err := ffmpeg.AssertReady(); err != nil {
		return err
	}

	f, err := os.Open(*srtPath)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	cues, err := subtitle.Parse(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("parse transcript: %w", err)
	}
	a.log.Info("transcript parsed", "path", *srtPath, "cues", len(cues))

	plans := pipeline.PlanClips(cues, pipeline.PlanOptions{
		VideoPath:       *video,
		ClipsDir:        *clipsDir,
		Padding:         mc.Padding,
		MaxClipDuration: mc.MaxClipDuration,
		MaxClips:        *maxClips,
		Width:           mc.Width,
	})

	result, err := pipeline.Run(ctx, ffmpeg, plans, *workers, a.log)
	if err != nil {
		return err
	}
	if err := pipeline.WriteManifestFile(*metadata, result.Entries); err != nil {
		return err
	}

	a.log.Info("clips created",
		"created", result.Stats.ClipsCreated,
		"failed", result.Stats.ClipsFailed,
		"duration_ms", result.Stats.Duration.Milliseconds(),
		"manifest", *metadata,
	)
	return writeJSON(a, map[string]interface{}{
		"clips_created": result.Stats.ClipsCreated,
		"clips_failed":  result.Stats.ClipsFailed,
		"errors":        result.Stats.ErrorMessages,
		"manifest":      *metadata,
	})
}

func runLoad(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	manifest := fs.String("manifest", a.cfg.Media.MetadataPath, "clip manifest to import")
	rebuild := fs.Bool("rebuild", false, "replace the whole corpus instead of appending")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, ix, err := a.openIndex(ctx, nil)
	if err != nil {
		return err
	}
	defer closeStorage(store, a.log)

	stats, err := loader.New(ix, a.log).Load(ctx, *manifest, *rebuild)
	if err != nil {
		return err
	}
	return writeJSON(a, map[string]interface{}{
		"phrases_inserted": stats.PhrasesInserted,
		"total_phrases":    stats.TotalPhrases,
		"total_duration":   stats.TotalDuration,
		"rebuilt":          stats.Rebuilt,
	})
}

func runStats(ctx context.Context, a *app, args []string) error {
	store, ix, err := a.openIndex(ctx, nil)
	if err != nil {
		return err
	}
	defer closeStorage(store, a.log)

	stats, err := ix.Stats(ctx)
	if err != nil {
		return err
	}
	return writeJSON(a, stats)
}

func writeJSON(a *app, v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// transcriptPath is where transcribe leaves the SRT for video, so cut finds
// it without -srt
func transcriptPath(cfg *config.Config, video string) string {
	return transcribe.Request{VideoPath: video, OutputDir: cfg.Transcribe.OutputDir}.SubtitlePath()
}
