package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
)

type fakeCalendarSource struct {
	events    []model.ExternalEvent
	err       error
	gotID     string
	gotMax    int64
	gotDays   int
	calendars []model.ExternalCalendar
}

func (f *fakeCalendarSource) CurrentMonthEvents(_ context.Context, id string, max int64) ([]model.ExternalEvent, error) {
	f.gotID, f.gotMax = id, max
	return f.events, f.err
}

func (f *fakeCalendarSource) UpcomingEvents(_ context.Context, days int, id string, max int64) ([]model.ExternalEvent, error) {
	f.gotDays, f.gotID, f.gotMax = days, id, max
	return f.events, f.err
}

func (f *fakeCalendarSource) ListCalendars(context.Context) ([]model.ExternalCalendar, error) {
	return f.calendars, f.err
}

func TestGoogleCalendarService_SyncIsIdempotent(t *testing.T) {
	source := &fakeCalendarSource{events: []model.ExternalEvent{
		{ID: "a", Summary: "Interview", Start: "2025-04-02T16:00:00+02:00", Location: "Studio"},
		{ID: "b", Summary: "", Start: "2025-04-03"},
		{ID: "c", Summary: "Broken", Start: "not a date"},
	}}
	store := newMemStore()
	svc := NewGoogleCalendarService(source, store, "")

	first, err := svc.Sync(context.Background(), "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if source.gotID != "primary" || source.gotMax != DefaultSyncMaxResults {
		t.Errorf("source called with %q/%d", source.gotID, source.gotMax)
	}
	if first.TotalFound != 3 || first.CreatedCount != 2 || first.SkippedCount != 1 {
		t.Errorf("first sync = %+v", first)
	}

	second, err := svc.Sync(context.Background(), "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if second.CreatedCount != 0 || second.SkippedCount != 3 {
		t.Errorf("second sync = %+v", second)
	}
	if store.count() != 2 {
		t.Errorf("stored %d, want 2", store.count())
	}

	var untitled bool
	for _, ev := range first.Created {
		if ev.Title == "No Title" && ev.ScheduledTime.String() == "09:00:00" {
			untitled = true
		}
	}
	if !untitled {
		t.Errorf("all-day untitled event not normalized: %+v", first.Created)
	}
}

func TestGoogleCalendarService_SourceError(t *testing.T) {
	svc := NewGoogleCalendarService(&fakeCalendarSource{err: errors.New("401")}, newMemStore(), "team")
	if _, err := svc.Sync(context.Background(), "", 10); err == nil {
		t.Fatal("expected error")
	}
}

func TestGoogleCalendarService_Disabled(t *testing.T) {
	svc := NewGoogleCalendarService(nil, newMemStore(), "")
	if _, err := svc.Sync(context.Background(), "", 0); !errors.Is(err, ErrDisabled) {
		t.Errorf("Sync err = %v", err)
	}
	if _, err := svc.Calendars(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Errorf("Calendars err = %v", err)
	}
}

func TestGoogleCalendarService_UpcomingDefaults(t *testing.T) {
	source := &fakeCalendarSource{}
	svc := NewGoogleCalendarService(source, newMemStore(), "work")
	if _, err := svc.Upcoming(context.Background(), 0, "", 5); err != nil {
		t.Fatal(err)
	}
	if source.gotDays != DefaultUpcomingDays || source.gotID != "work" || source.gotMax != 5 {
		t.Errorf("called with days=%d id=%q max=%d", source.gotDays, source.gotID, source.gotMax)
	}
}
