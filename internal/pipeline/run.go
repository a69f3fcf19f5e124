package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/phraseclip/internal/logger"
	"github.com/dshills/phraseclip/internal/media"
	"github.com/dshills/phraseclip/pkg/types"
)

// Statistics contains statistics about a cutting run
type Statistics struct {
	ClipsCreated  int
	ClipsFailed   int
	Duration      time.Duration
	ErrorMessages []string
}

// Result is the outcome of Run: manifest entries for every clip that was
// cut, in plan order
type Result struct {
	Entries []types.NewPhrase
	Stats   Statistics
}

// Run cuts every plan using at most workers concurrent ffmpeg processes.
// A failed clip is logged and skipped; only cancellation aborts the run.
func Run(ctx context.Context, cutter media.Cutter, plans []Plan, workers int, log *logger.Logger) (*Result, error) {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	startTime := time.Now()

	var (
		created atomic.Int32
		failed  atomic.Int32
		mu      sync.Mutex // Protect stats.ErrorMessages
		errMsgs = make([]string, 0)
		done    = make([]bool, len(plans))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, plan := range plans {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			log.Info("creating clip",
				"index", plan.Index,
				"total", len(plans),
				"start", plan.Request.Start.Seconds(),
				"duration", plan.Entry.ClipDuration,
				"text", plan.Entry.Text,
			)

			if err := cutter.Cut(gctx, plan.Request); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed.Add(1)
				mu.Lock()
				errMsgs = append(errMsgs, fmt.Sprintf("clip %d: %v", plan.Index, err))
				mu.Unlock()
				log.Error("failed to create clip, continuing", "index", plan.Index, "error", err)
				return nil
			}

			created.Add(1)
			done[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make([]types.NewPhrase, 0, created.Load())
	for i, plan := range plans {
		if done[i] {
			entries = append(entries, plan.Entry)
		}
	}

	return &Result{
		Entries: entries,
		Stats: Statistics{
			ClipsCreated:  int(created.Load()),
			ClipsFailed:   int(failed.Load()),
			Duration:      time.Since(startTime),
			ErrorMessages: errMsgs,
		},
	}, nil
}
