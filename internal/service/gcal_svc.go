package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
)

// Google Calendar read limits.
const (
	DefaultSyncMaxResults = 250
	DefaultUpcomingDays   = 7
)

// CalendarSource reads an external calendar. Implemented by gcal.Client.
type CalendarSource interface {
	CurrentMonthEvents(ctx context.Context, calendarID string, maxResults int64) ([]model.ExternalEvent, error)
	UpcomingEvents(ctx context.Context, daysAhead int, calendarID string, maxResults int64) ([]model.ExternalEvent, error)
	ListCalendars(ctx context.Context) ([]model.ExternalCalendar, error)
}

type GoogleCalendarService struct {
	source    CalendarSource
	store     EventStore
	defaultID string
}

// NewGoogleCalendarService wires the sync path. source may be nil, in which
// case every operation returns ErrDisabled.
func NewGoogleCalendarService(source CalendarSource, store EventStore, defaultCalendarID string) *GoogleCalendarService {
	if defaultCalendarID == "" {
		defaultCalendarID = "primary"
	}
	return &GoogleCalendarService{source: source, store: store, defaultID: defaultCalendarID}
}

// Enabled reports whether a calendar source is configured.
func (s *GoogleCalendarService) Enabled() bool {
	return s != nil && s.source != nil
}

func (s *GoogleCalendarService) calendarID(id string) string {
	if id == "" {
		return s.defaultID
	}
	return id
}

func (s *GoogleCalendarService) CurrentMonth(ctx context.Context, calendarID string, maxResults int64) ([]model.ExternalEvent, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	return s.source.CurrentMonthEvents(ctx, s.calendarID(calendarID), limitOr(maxResults, DefaultSyncMaxResults))
}

func (s *GoogleCalendarService) Upcoming(ctx context.Context, daysAhead int, calendarID string, maxResults int64) ([]model.ExternalEvent, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	if daysAhead <= 0 {
		daysAhead = DefaultUpcomingDays
	}
	return s.source.UpcomingEvents(ctx, daysAhead, s.calendarID(calendarID), limitOr(maxResults, DefaultSyncMaxResults))
}

func (s *GoogleCalendarService) Calendars(ctx context.Context) ([]model.ExternalCalendar, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}
	return s.source.ListCalendars(ctx)
}

// Sync copies the current month of the external calendar into the local
// calendar. Events already synced are reported as skipped.
func (s *GoogleCalendarService) Sync(ctx context.Context, calendarID string, maxResults int64) (model.SyncSummary, error) {
	if !s.Enabled() {
		return model.SyncSummary{}, ErrDisabled
	}
	id := s.calendarID(calendarID)
	events, err := s.source.CurrentMonthEvents(ctx, id, limitOr(maxResults, DefaultSyncMaxResults))
	if err != nil {
		return model.SyncSummary{}, fmt.Errorf("read google calendar: %w", err)
	}

	res, err := ReconcileExternal(ctx, s.store, events)
	summary := model.SyncSummary{
		CalendarID:   id,
		TotalFound:   len(events),
		CreatedCount: len(res.Created),
		SkippedCount: len(res.Skipped),
		Created:      res.Created,
		Skipped:      res.Skipped,
	}
	if err != nil {
		return summary, err
	}

	log.Info().
		Str("calendar_id", id).
		Int("found", summary.TotalFound).
		Int("created", summary.CreatedCount).
		Int("skipped", summary.SkippedCount).
		Msg("gcal: sync complete")
	return summary, nil
}

func limitOr(n, fallback int64) int64 {
	if n <= 0 {
		return fallback
	}
	return n
}
