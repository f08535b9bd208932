// Package retention removes chat sessions that have been idle too long.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/shadicards/concierge/backend/internal/metrics"
)

// Pruner deletes sessions, and their messages, idle since cutoff.
type Pruner interface {
	DeleteSessionsInactiveSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper runs Sweep on a cron schedule.
type Sweeper struct {
	pruner  Pruner
	maxIdle time.Duration
	cron    *cron.Cron
	log     zerolog.Logger
	now     func() time.Time
}

// NewSweeper schedules the sweep. A non-positive retention disables it and
// returns nil.
func NewSweeper(pruner Pruner, retentionDays int, schedule string, log zerolog.Logger) (*Sweeper, error) {
	if retentionDays <= 0 {
		return nil, nil
	}

	s := &Sweeper{
		pruner:  pruner,
		maxIdle: time.Duration(retentionDays) * 24 * time.Hour,
		cron:    cron.New(),
		log:     log.With().Str("component", "retention").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	if _, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, _ = s.Sweep(ctx)
	}); err != nil {
		return nil, fmt.Errorf("invalid CHAT_RETENTION_SCHEDULE %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.log.Info().Dur("max_idle", s.maxIdle).Msg("retention sweeper started")
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to
// expire.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Sweep deletes everything idle for longer than the retention period.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.maxIdle)
	deleted, err := s.pruner.DeleteSessionsInactiveSince(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Time("cutoff", cutoff).Msg("retention sweep failed")
		return 0, err
	}
	metrics.RetentionDeletedTotal.Add(float64(deleted))
	if deleted > 0 {
		s.log.Info().Int64("sessions", deleted).Time("cutoff", cutoff).Msg("removed idle chat sessions")
	}
	return deleted, nil
}
