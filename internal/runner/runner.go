// Package runner issues the sequential probe attempts of a run and
// aggregates their outcome.
package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/knock/internal/metrics"
	"github.com/knock/pkg/protocol"
)

// Resolver turns a target into socket addresses before probing starts.
type Resolver interface {
	Resolve(ctx context.Context, target string) ([]string, error)
}

// Runner probes one target with one protocol, one attempt at a time.
type Runner struct {
	registry *protocol.Registry
	logger   *zap.Logger
	resolver Resolver
	metrics  *metrics.Metrics
	interval time.Duration

	onResolved func(target string, addrs []string)
	onAttempt  func(a Attempt)
}

// New creates a Runner dispatching through registry.
func New(registry *protocol.Registry, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		registry: registry,
		logger:   logger,
	}
}

// SetResolver sets the resolver consulted before the first attempt. Without
// one, resolution is skipped.
func (r *Runner) SetResolver(res Resolver) {
	r.resolver = res
}

// SetMetrics enables Prometheus recording.
func (r *Runner) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// SetInterval sets the minimum gap between the start of two attempts.
// Zero sends attempts back to back.
func (r *Runner) SetInterval(d time.Duration) {
	r.interval = d
}

// SetResolvedCallback sets the callback for the resolution result.
func (r *Runner) SetResolvedCallback(fn func(target string, addrs []string)) {
	r.onResolved = fn
}

// SetAttemptCallback sets the callback invoked after every attempt, in
// issue order.
func (r *Runner) SetAttemptCallback(fn func(a Attempt)) {
	r.onAttempt = fn
}

// Run performs count attempts against target. Unknown protocols, targets the
// protocol cannot dial and resolution failures abort before the first
// attempt; failed attempts are counted and the run goes on. When ctx is
// cancelled the statistics gathered so far are returned together with
// ctx.Err().
func (r *Runner) Run(ctx context.Context, target, proto string, count int) (*Stats, error) {
	if count < 0 {
		return nil, fmt.Errorf("count must not be negative, got %d", count)
	}

	prober, err := r.registry.Lookup(proto)
	if err != nil {
		return nil, err
	}

	addr := target
	if a, ok := prober.(protocol.Addresser); ok {
		if addr, err = a.Address(target); err != nil {
			return nil, err
		}
	}

	if r.resolver != nil {
		addrs, err := r.resolver.Resolve(ctx, addr)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("target resolved", zap.String("target", target), zap.Strings("addrs", addrs))
		if r.onResolved != nil {
			r.onResolved(target, addrs)
		}
	}

	r.logger.Info("run started",
		zap.String("target", target),
		zap.String("protocol", proto),
		zap.Int("count", count),
		zap.Duration("interval", r.interval),
	)

	limit := rate.Inf
	if r.interval > 0 {
		limit = rate.Every(r.interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	stats := NewStats()
	for seq := 1; seq <= count; seq++ {
		if err := limiter.Wait(ctx); err != nil {
			return stats, ctx.Err()
		}

		a := r.attempt(ctx, seq, target, proto)
		if a.Err != nil && ctx.Err() != nil {
			// Interrupted, not a verdict on the target.
			return stats, ctx.Err()
		}

		stats.Record(a)
		if r.onAttempt != nil {
			r.onAttempt(a)
		}
	}

	r.logger.Info("run finished",
		zap.String("target", target),
		zap.String("protocol", proto),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.Duration("total", stats.Total),
	)

	return stats, nil
}

// attempt executes a single probe.
func (r *Runner) attempt(ctx context.Context, seq int, target, proto string) Attempt {
	if r.metrics != nil {
		r.metrics.ProbeStarted()
		defer r.metrics.ProbeFinished()
	}

	elapsed, err := r.registry.Invoke(ctx, proto, target)
	a := Attempt{Seq: seq, Target: target, Protocol: proto, Elapsed: elapsed, Err: err}

	if err != nil {
		kind := protocol.Classify(err)
		r.logger.Debug("probe failed",
			zap.Int("seq", seq),
			zap.String("protocol", proto),
			zap.String("target", target),
			zap.Stringer("kind", kind),
			zap.Error(err),
		)
		if r.metrics != nil {
			r.metrics.RecordFailure(proto, kind.String())
		}
		return a
	}

	r.logger.Debug("probe succeeded",
		zap.Int("seq", seq),
		zap.String("protocol", proto),
		zap.String("target", target),
		zap.Duration("elapsed", elapsed),
	)
	if r.metrics != nil {
		r.metrics.RecordSuccess(proto, elapsed)
	}
	return a
}
