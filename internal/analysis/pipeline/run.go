package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/monophoton/internal/source"
)

// RunConfig bounds a run.
type RunConfig struct {
	// Workers is the number of parallel shards. Values below 2 run
	// sequentially.
	Workers int
	// MaxEvents stops reading after this many events. Zero means all.
	MaxEvents int
}

// Setup is called once per worker Analysis before any event is
// processed, so callers can attach per-shard observers.
type Setup func(worker int, a *Analysis) error

// Run drains src into a. Event indices count from zero in source order.
func Run(ctx context.Context, src source.EventSource, a *Analysis, maxEvents int) error {
	start := time.Now()
	for i := 0; maxEvents <= 0 || i < maxEvents; i++ {
		raw, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read event %d: %w", i, err)
		}
		if err := a.ProcessEvent(raw, i); err != nil {
			return err
		}
	}
	st := a.Stats()
	diagf("processed %d events (%d skipped) in %s", st.Events, st.Skipped, time.Since(start))
	return nil
}

type job struct {
	index int
	raw   *source.RawEvent
}

// RunParallel reads src on one goroutine and hands events to cfg.Workers
// private Analyses. Each worker sees its events in source order. When all
// shards finish, their accumulators are merged into the first worker's
// Analysis, which is returned.
func RunParallel(ctx context.Context, src source.EventSource, opts Options, cfg RunConfig, setup Setup) (*Analysis, error) {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	shards := make([]*Analysis, workers)
	for w := range shards {
		a, err := New(opts)
		if err != nil {
			return nil, err
		}
		if setup != nil {
			if err := setup(w, a); err != nil {
				return nil, fmt.Errorf("worker %d setup: %w", w, err)
			}
		}
		shards[w] = a
	}

	if workers == 1 {
		if err := Run(ctx, src, shards[0], cfg.MaxEvents); err != nil {
			return nil, err
		}
		return shards[0], nil
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job, workers*4)

	g.Go(func() error {
		defer close(jobs)
		for i := 0; cfg.MaxEvents <= 0 || i < cfg.MaxEvents; i++ {
			raw, err := src.Next(gctx)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read event %d: %w", i, err)
			}
			select {
			case jobs <- job{index: i, raw: raw}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := range shards {
		a := shards[w]
		g.Go(func() error {
			for j := range jobs {
				if err := a.ProcessEvent(j.raw, j.index); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := shards[0]
	if err := merged.Merge(shards[1:]...); err != nil {
		return nil, err
	}
	st := merged.Stats()
	diagf("processed %d events (%d skipped) on %d workers in %s", st.Events, st.Skipped, workers, time.Since(start))
	return merged, nil
}
