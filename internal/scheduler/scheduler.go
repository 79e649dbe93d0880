// Package scheduler drives the trading engine on a fixed interval and
// supervises cycle failures.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quietmarkets/equityrun/internal/engine"
	"github.com/quietmarkets/equityrun/internal/metrics"
)

// Scheduler runs engine cycles back to back with a fixed sleep between
// them. Cycles never overlap: a slow cycle delays the next one.
type Scheduler struct {
	engine       *engine.Engine
	metrics      *metrics.Registry
	interval     time.Duration
	errorBackoff time.Duration
	onCycle      func(at time.Time, ok bool)
}

// OnCycle registers a callback invoked after every cycle attempt, e.g.
// to feed the health endpoint.
func (s *Scheduler) OnCycle(fn func(at time.Time, ok bool)) { s.onCycle = fn }

// New creates a scheduler for the given engine and cadence.
func New(eng *engine.Engine, reg *metrics.Registry, interval, errorBackoff time.Duration) *Scheduler {
	return &Scheduler{
		engine:       eng,
		metrics:      reg,
		interval:     interval,
		errorBackoff: errorBackoff,
	}
}

// Run loops until ctx is cancelled. A failed cycle is logged and
// retried after the error backoff; nothing short of cancellation stops
// the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().Dur("interval", s.interval).Msg("trading loop started")

	for {
		sleep := s.interval

		report, err := s.engine.RunCycle(ctx)
		if s.onCycle != nil {
			s.onCycle(time.Now().UTC(), err == nil)
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Error().Err(err).Dur("backoff", s.errorBackoff).Msg("cycle failed, backing off")
			s.metrics.CycleErrors.Inc()
			sleep = s.errorBackoff
		} else {
			log.Info().Int("symbols", len(report.Results)).
				Int("trades", report.TradesExecuted).
				Dur("duration", report.Duration).Msg("cycle complete")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("trading loop stopped")
			return ctx.Err()
		case <-time.After(sleep):
		}
	}

	log.Info().Msg("trading loop stopped")
	return ctx.Err()
}
