// Package runner executes fixture jobs from a run file: generating output or
// seeding stores, several jobs at once.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"pkg.jsn.cam/forge/internal/config"
	"pkg.jsn.cam/forge/internal/fixtures"
	"pkg.jsn.cam/forge/pkg/forge"
	"pkg.jsn.cam/forge/pkg/values"
)

// Runner executes jobs.
type Runner struct {
	Logger   *slog.Logger
	Recorder forge.Recorder
	// Stdout receives output for jobs writing to "-". Defaults to os.Stdout.
	Stdout io.Writer

	stdoutMu sync.Mutex
}

// Result reports one finished job.
type Result struct {
	Job      string        `json:"job"`
	Fixture  string        `json:"fixture"`
	Count    int           `json:"count"`
	Store    string        `json:"store,omitempty"`
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration"`
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout == nil {
		return os.Stdout
	}
	return r.Stdout
}

// jobSeed derives a per-job seed so jobs stay reproducible regardless of
// scheduling order. Zero means unseeded.
func jobSeed(base uint64, index int) uint64 {
	if base == 0 {
		return 0
	}
	return base + uint64(index)
}

// Run executes every job in cfg with at most cfg.Concurrency in flight. The
// first failing job cancels the rest. Results are in job order.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) ([]Result, error) {
	targets := NewTargets()
	defer func() {
		if err := targets.Close(); err != nil {
			r.logger().Error("failed to close stores", "error", err)
		}
	}()

	var limiter *rate.Limiter
	if cfg.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}

	results := make([]Result, len(cfg.Jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for i, job := range cfg.Jobs {
		if limiter != nil {
			if err := limiter.Wait(gctx); err != nil {
				break
			}
		}
		g.Go(func() error {
			res, err := r.RunJob(gctx, job, jobSeed(cfg.Seed, i), targets)
			if err != nil {
				return fmt.Errorf("job %s: %w", job.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunJob executes a single job. Seeding jobs open their store through targets.
func (r *Runner) RunJob(ctx context.Context, job config.Job, seed uint64, targets *Targets) (Result, error) {
	start := time.Now()
	log := r.logger().With("job", job.Name, "fixture", job.Fixture)

	var provider *values.Provider
	if seed != 0 {
		provider = values.New(values.WithSeed(seed))
	} else {
		provider = values.New()
	}

	fx, err := fixtures.Get(job.Fixture, fixtures.Options{
		Values:   provider,
		MaxDepth: job.MaxDepth,
		Logger:   r.logger(),
		Recorder: r.Recorder,
	})
	if err != nil {
		return Result{}, err
	}

	count := job.Count
	if count == 0 {
		count = fx.DefaultCount()
	}

	res := Result{Job: job.Name, Fixture: job.Fixture, Store: job.Store}
	if job.Seeds() {
		target, err := targets.Open(job.Store, job.Path)
		if err != nil {
			return Result{}, err
		}
		n, err := fx.Seed(ctx, target, count)
		if err != nil {
			return Result{}, err
		}
		res.Count = n
	} else {
		items, err := fx.Generate(ctx, count)
		if err != nil {
			return Result{}, err
		}
		if err := r.write(job.Output, job.Format, items); err != nil {
			return Result{}, err
		}
		res.Count = len(items)
		res.Output = job.Output
	}

	res.Duration = time.Since(start)
	log.Info("job complete",
		"count", res.Count,
		"store", res.Store,
		"duration", res.Duration)
	return res, nil
}
