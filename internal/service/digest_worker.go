package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
)

// Notifier delivers a text message. Implemented by notify.TelegramSender.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// DigestWorker sends the upcoming calendar events once a day.
type DigestWorker struct {
	calendar *CalendarService
	notifier Notifier
	format   func([]model.CalendarEvent) string
	hour     int
	now      func() time.Time
	stopCh   chan struct{}
}

// NewDigestWorker creates a worker that fires every day at hour (local time).
func NewDigestWorker(calendar *CalendarService, notifier Notifier, format func([]model.CalendarEvent) string, hour int) *DigestWorker {
	return &DigestWorker{
		calendar: calendar,
		notifier: notifier,
		format:   format,
		hour:     hour,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start waits for the next digest hour, sends, and repeats until stopped.
func (w *DigestWorker) Start(ctx context.Context) {
	for {
		next := NextDailyRun(w.now(), w.hour)
		log.Info().Time("next_run", next).Msg("digest-worker: scheduled")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			w.tick(ctx)
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("digest-worker: stopping (context cancelled)")
			return
		case <-w.stopCh:
			timer.Stop()
			log.Info().Msg("digest-worker: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *DigestWorker) Stop() {
	close(w.stopCh)
}

// tick sends one digest. An empty window sends nothing.
func (w *DigestWorker) tick(ctx context.Context) {
	events, err := w.calendar.DigestEvents(ctx, w.now())
	if err != nil {
		log.Error().Err(err).Msg("digest-worker: load events failed")
		return
	}
	if len(events) == 0 {
		log.Info().Msg("digest-worker: no upcoming events")
		return
	}
	if err := w.notifier.Send(ctx, w.format(events)); err != nil {
		log.Error().Err(err).Int("events", len(events)).Msg("digest-worker: send failed")
		return
	}
	log.Info().Int("events", len(events)).Msg("digest-worker: digest sent")
}

// NextDailyRun returns the first instant strictly after now at hour:00 in
// now's location.
func NextDailyRun(now time.Time, hour int) time.Time {
	hour = min(max(hour, 0), 23)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
