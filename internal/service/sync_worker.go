package service

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// SyncWorker periodically copies the Google Calendar into the local calendar.
type SyncWorker struct {
	gcal       *GoogleCalendarService
	calendarID string
	interval   time.Duration
	synced     prometheus.Counter
	stopCh     chan struct{}
}

// NewSyncWorker creates a worker that ticks every interval. synced, when
// non-nil, counts the events created by each run.
func NewSyncWorker(gcal *GoogleCalendarService, calendarID string, interval time.Duration, synced prometheus.Counter) *SyncWorker {
	return &SyncWorker{
		gcal:       gcal,
		calendarID: calendarID,
		interval:   interval,
		synced:     synced,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the periodic sync loop.
// It runs one tick immediately, then every interval.
func (w *SyncWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("sync-worker: starting")

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			log.Info().Msg("sync-worker: stopping (context cancelled)")
			return
		case <-w.stopCh:
			log.Info().Msg("sync-worker: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *SyncWorker) Stop() {
	close(w.stopCh)
}

func (w *SyncWorker) tick(ctx context.Context) {
	start := time.Now()

	summary, err := w.gcal.Sync(ctx, w.calendarID, DefaultSyncMaxResults)
	if w.synced != nil {
		w.synced.Add(float64(summary.CreatedCount))
	}
	if err != nil {
		log.Error().Err(err).Int("created", summary.CreatedCount).Msg("sync-worker: sync failed")
		return
	}

	log.Info().
		Int("found", summary.TotalFound).
		Int("created", summary.CreatedCount).
		Int("skipped", summary.SkippedCount).
		Dur("elapsed", time.Since(start)).
		Msg("sync-worker: tick complete")
}
