// Package bench drives a synthetic claim/release workload against a
// pool and reports what happened. It exists for the poolbench command;
// nothing here is part of the library's public surface.
package bench

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/stockpile/pkg/config"
	errs "github.com/ajitpratap0/stockpile/pkg/errors"
	"github.com/ajitpratap0/stockpile/pkg/expire"
	"github.com/ajitpratap0/stockpile/pkg/metrics"
	"github.com/ajitpratap0/stockpile/pkg/pool"
)

// Object is the synthetic pooled resource: a buffer large enough that
// pooling it is worth measuring, plus a generation marker that every
// claimer bumps before release. The marker is not part of the Report.
type Object struct {
	ID  uint64
	Gen uint64
	Buf []byte
}

// Report summarises one workload run.
type Report struct {
	Goroutines   int           `json:"goroutines"`
	Duration     time.Duration `json:"duration"`
	Claims       uint64        `json:"claims"`
	Timeouts     uint64        `json:"timeouts"`
	Poisoned     uint64        `json:"poisoned"`
	ClaimsPerSec float64       `json:"claims_per_sec"`
	Resized      bool          `json:"resized"`
	ShutdownOK   bool          `json:"shutdown_ok"`
	PoolStats    pool.Stats    `json:"pool_stats"`
}

// Runner owns one workload run against one freshly built pool.
type Runner struct {
	settings *config.Settings
	log      *zap.Logger
	ids      atomic.Uint64
}

// NewRunner creates a runner for the given settings.
func NewRunner(settings *config.Settings, log *zap.Logger) *Runner {
	return &Runner{settings: settings, log: log}
}

func (r *Runner) factory() pool.Factory[*Object] {
	delay := r.settings.Workload.CreateDelay
	return pool.FuncFactory[*Object]{
		CreateFunc: func(ctx context.Context) (*Object, error) {
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			return &Object{
				ID:  r.ids.Add(1),
				Buf: make([]byte, 4096),
			}, nil
		},
	}
}

// Run builds the pool, applies the configured load, then resizes and
// shuts down, returning the report. The context bounds the whole run.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	s := r.settings

	expiration, err := expire.TimeSpread(s.Pool.ExpireLower, s.Pool.ExpireUpper)
	if err != nil {
		return nil, err
	}

	var collector *metrics.Collector
	if s.Observability.EnableMetrics {
		collector = metrics.NewCollector(s.Pool.Name)
	}

	p, err := pool.New(pool.Config[*Object]{
		Name:          s.Pool.Name,
		Size:          s.Pool.Size,
		MaxSize:       s.Pool.MaxSize,
		Factory:       r.factory(),
		Expiration:    expiration,
		AllocatorName: s.Pool.AllocatorName,
		Logger:        r.log,
		Metrics:       collector,
	})
	if err != nil {
		return nil, err
	}

	var (
		claims   atomic.Uint64
		timeouts atomic.Uint64
		poisoned atomic.Uint64
	)

	runCtx, cancel := context.WithTimeout(ctx, s.Workload.Duration)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	for i := 0; i < s.Workload.Goroutines; i++ {
		g.Go(func() error {
			for gctx.Err() == nil {
				lease, err := p.Claim(gctx, s.Workload.ClaimTimeout)
				switch {
				case err == nil:
				case errs.IsTimeout(err):
					timeouts.Add(1)
					continue
				case errs.IsPoisoned(err):
					poisoned.Add(1)
					continue
				case errs.IsInterrupted(err) && gctx.Err() != nil:
					return nil // run is over
				default:
					return err
				}

				obj := lease.Object()
				obj.Gen++
				if s.Workload.HoldTime > 0 {
					time.Sleep(s.Workload.HoldTime)
				}
				claims.Add(1)
				if err := lease.Release(); err != nil {
					return err
				}
			}
			return nil
		})
	}

	resized := false
	if s.Workload.ResizeTo > 0 {
		g.Go(func() error {
			halfway := time.NewTimer(s.Workload.Duration / 2)
			defer halfway.Stop()
			select {
			case <-halfway.C:
			case <-gctx.Done():
				return nil
			}
			r.log.Info("resizing pool", zap.Int("target_size", s.Workload.ResizeTo))
			resized = true
			return p.SetTargetSize(s.Workload.ResizeTo)
		})
	}

	if err := g.Wait(); err != nil {
		p.Shutdown()
		return nil, err
	}

	stats := p.Stats()
	completed := p.Shutdown().Await(10 * time.Second)
	if !completed {
		r.log.Warn("shutdown did not complete; a lease may have leaked")
	}

	elapsed := s.Workload.Duration
	return &Report{
		Goroutines:   s.Workload.Goroutines,
		Duration:     elapsed,
		Claims:       claims.Load(),
		Timeouts:     timeouts.Load(),
		Poisoned:     poisoned.Load(),
		ClaimsPerSec: float64(claims.Load()) / elapsed.Seconds(),
		Resized:      resized,
		ShutdownOK:   completed,
		PoolStats:    stats,
	}, nil
}
