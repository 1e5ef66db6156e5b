package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/repository"
)

// ErrMalformedEvent is returned when a proposed or external event cannot be
// normalized into a storable calendar event.
var ErrMalformedEvent = errors.New("malformed event")

// Skip reasons recorded in ReconcileResult.Skipped.
const (
	ReasonDuplicate = "Already exists in database"
)

const (
	externalNotesFormat = "Google Calendar Event ID: %s\nDescription: %s\nLocation: %s"
	ellipsis            = "..."
	untitledEvent       = "No Title"
)

var allDayTime = model.TimeOfDay{Hour: 9}

// EventStore persists calendar events.
type EventStore interface {
	Query(ctx context.Context, filter model.EventFilter) ([]model.CalendarEvent, error)
	Get(ctx context.Context, id string) (*model.CalendarEvent, error)
	Insert(ctx context.Context, ev model.CalendarEvent) (*model.CalendarEvent, error)
	// InsertExternal returns false when the event is already stored.
	InsertExternal(ctx context.Context, ev model.CalendarEvent) (*model.CalendarEvent, bool, error)
	Update(ctx context.Context, id string, patch model.EventPatch) (*model.CalendarEvent, error)
	Delete(ctx context.Context, id string) (bool, error)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedEvent, fmt.Sprintf(format, args...))
}

// NormalizeProposed validates p and converts it to a storable event. The
// time keeps its wall clock; any zone offset is dropped.
func NormalizeProposed(p model.ProposedEvent) (model.CalendarEvent, error) {
	platform := model.Platform(strings.ToLower(strings.TrimSpace(p.Platform)))
	if !platform.Valid() {
		return model.CalendarEvent{}, malformed("unknown platform %q", p.Platform)
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return model.CalendarEvent{}, malformed("title is required")
	}
	date, err := model.ParseDate(p.ScheduledDate)
	if err != nil {
		return model.CalendarEvent{}, malformed("%v", err)
	}
	clock, err := model.ParseTimeOfDay(p.ScheduledTime)
	if err != nil {
		return model.CalendarEvent{}, malformed("%v", err)
	}
	status := model.StatusScheduled
	if s := strings.TrimSpace(p.Status); s != "" {
		status = model.EventStatus(strings.ToLower(s))
		if !status.Valid() {
			return model.CalendarEvent{}, malformed("unknown status %q", p.Status)
		}
	}

	return model.CalendarEvent{
		ContentID:     p.ContentID,
		ResearchID:    p.ResearchID,
		Platform:      platform,
		Title:         TruncateRunes(title, model.TitleMaxLen),
		ScheduledDate: date,
		ScheduledTime: clock,
		Status:        status,
		Notes:         TruncateRunes(p.Notes, model.NotesMaxLen),
	}, nil
}

// ComposeExternalNotes embeds the external id, description and location in a
// notes string of at most model.NotesMaxLen runes. Only the description is
// shortened; the final cut only applies when the id and location alone
// exceed the limit.
func ComposeExternalNotes(externalID, description, location string) string {
	fixed := runeLen(fmt.Sprintf(externalNotesFormat, externalID, "", location))
	allowed := model.NotesMaxLen - fixed

	switch {
	case allowed <= 0:
		description = ""
	case runeLen(description) > allowed:
		if allowed > runeLen(ellipsis) {
			description = TruncateRunes(description, allowed-runeLen(ellipsis)) + ellipsis
		} else {
			description = TruncateRunes(description, allowed)
		}
	}
	return TruncateRunes(fmt.Sprintf(externalNotesFormat, externalID, description, location), model.NotesMaxLen)
}

// FromExternalEvent converts a Google Calendar event. Timed events keep the
// wall clock of their own zone; all-day events are placed at 09:00.
func FromExternalEvent(e model.ExternalEvent) (model.CalendarEvent, error) {
	if strings.TrimSpace(e.ID) == "" {
		return model.CalendarEvent{}, malformed("external event has no id")
	}

	var (
		date  model.Date
		clock model.TimeOfDay
	)
	start := strings.TrimSpace(e.Start)
	if strings.Contains(start, "T") {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return model.CalendarEvent{}, malformed("invalid start %q", e.Start)
		}
		date, clock = model.DateOf(t), model.TimeOfDayOf(t)
	} else {
		d, err := model.ParseDate(start)
		if err != nil {
			return model.CalendarEvent{}, malformed("invalid start %q", e.Start)
		}
		date, clock = d, allDayTime
	}

	title := strings.TrimSpace(e.Summary)
	if title == "" {
		title = untitledEvent
	}
	return model.CalendarEvent{
		ContentID:     model.NoContentID,
		ResearchID:    model.NoContentID,
		Platform:      model.PlatformGoogleCalendar,
		Title:         TruncateRunes(title, model.TitleMaxLen),
		ScheduledDate: date,
		ScheduledTime: clock,
		Status:        model.StatusScheduled,
		Notes:         ComposeExternalNotes(e.ID, e.Description, e.Location),
		ExternalID:    e.ID,
	}, nil
}

// candidate is one batch item after normalization, or the reason it failed.
type candidate struct {
	event model.CalendarEvent
	title string
	date  string
	err   error
}

// ReconcileProposals normalizes and stores agent or client proposals. Items
// that fail are skipped with a reason; only a store outage aborts the batch.
func ReconcileProposals(ctx context.Context, store EventStore, proposals []model.ProposedEvent) (model.ReconcileResult, error) {
	items := make([]candidate, 0, len(proposals))
	for _, p := range proposals {
		ev, err := NormalizeProposed(p)
		items = append(items, candidate{event: ev, title: p.Title, date: p.ScheduledDate, err: err})
	}
	return reconcile(ctx, items, func(ctx context.Context, ev model.CalendarEvent) (*model.CalendarEvent, bool, error) {
		created, err := store.Insert(ctx, ev)
		return created, err == nil, err
	})
}

// ReconcileExternal stores events read from an external calendar, skipping
// those already present.
func ReconcileExternal(ctx context.Context, store EventStore, events []model.ExternalEvent) (model.ReconcileResult, error) {
	items := make([]candidate, 0, len(events))
	for _, e := range events {
		ev, err := FromExternalEvent(e)
		date := e.Start
		if err == nil {
			date = ev.ScheduledDate.String()
		}
		items = append(items, candidate{event: ev, title: e.Summary, date: date, err: err})
	}
	return reconcile(ctx, items, store.InsertExternal)
}

type insertFunc func(ctx context.Context, ev model.CalendarEvent) (*model.CalendarEvent, bool, error)

func reconcile(ctx context.Context, items []candidate, insert insertFunc) (model.ReconcileResult, error) {
	result := model.ReconcileResult{Created: []model.CalendarEvent{}, Skipped: []model.SkippedEvent{}}
	skip := func(c candidate, reason string) {
		result.Skipped = append(result.Skipped, model.SkippedEvent{Title: c.title, Date: c.date, Reason: reason})
	}

	for _, c := range items {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("reconcile: %w", err)
		}
		if c.err != nil {
			log.Warn().Err(c.err).Str("title", c.title).Str("date", c.date).Msg("calendar: skipping malformed event")
			skip(c, c.err.Error())
			continue
		}

		created, inserted, err := insert(ctx, c.event)
		switch {
		case errors.Is(err, repository.ErrUnavailable):
			return result, fmt.Errorf("reconcile: %w", err)
		case err != nil:
			log.Error().Err(err).Str("title", c.title).Str("date", c.date).Msg("calendar: insert failed")
			skip(c, "insert failed: "+err.Error())
		case !inserted:
			skip(c, ReasonDuplicate)
		default:
			result.Created = append(result.Created, *created)
		}
	}
	return result, nil
}

// TruncateRunes cuts s to at most n runes.
func TruncateRunes(s string, n int) string {
	if runeLen(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func runeLen(s string) int {
	return len([]rune(s))
}
