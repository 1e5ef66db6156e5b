package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
)

var (
	// ErrInvalidRequest marks caller errors that are not tied to a single event.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDisabled is returned when an optional integration is not configured.
	ErrDisabled = errors.New("integration not configured")
)

// SchedulingAgent proposes calendar events. Implemented by agent.Client.
type SchedulingAgent interface {
	ProposeCalendarEvents(ctx context.Context, items []model.ContentWithResearch, preferences string) ([]model.ProposedEvent, error)
	ProposeCalendarEventsFromText(ctx context.Context, text string) ([]model.ProposedEvent, error)
}

// ContentSource loads generated content with its research.
type ContentSource interface {
	FindByIDs(ctx context.Context, ids []int) ([]model.ContentWithResearch, error)
}

// DigestWindow is how far ahead the daily digest looks.
const DigestWindow = 24 * time.Hour

type CalendarService struct {
	store   EventStore
	content ContentSource
	agent   SchedulingAgent
	now     func() time.Time
}

// NewCalendarService wires the calendar. agent may be nil, in which case the
// AI scheduling paths return ErrDisabled.
func NewCalendarService(store EventStore, content ContentSource, agent SchedulingAgent) *CalendarService {
	return &CalendarService{store: store, content: content, agent: agent, now: time.Now}
}

// List returns events matching filter, ordered by date then time.
func (s *CalendarService) List(ctx context.Context, filter model.EventFilter) ([]model.CalendarEvent, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(filter.From.Time) {
		return nil, fmt.Errorf("%w: end_date is before start_date", ErrInvalidRequest)
	}
	return s.store.Query(ctx, filter)
}

// Range returns the events between from and to inclusive.
func (s *CalendarService) Range(ctx context.Context, from, to model.Date, platform *model.Platform) ([]model.CalendarEvent, error) {
	return s.List(ctx, model.EventFilter{From: &from, To: &to, Platform: platform})
}

func (s *CalendarService) Get(ctx context.Context, id string) (*model.CalendarEvent, error) {
	return s.store.Get(ctx, id)
}

// Create validates and stores a single client-supplied event.
func (s *CalendarService) Create(ctx context.Context, p model.ProposedEvent) (*model.CalendarEvent, error) {
	ev, err := NormalizeProposed(p)
	if err != nil {
		return nil, err
	}
	return s.store.Insert(ctx, ev)
}

// Update applies the non-nil fields of patch.
func (s *CalendarService) Update(ctx context.Context, id string, patch model.EventPatch) (*model.CalendarEvent, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidRequest)
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, malformed("title must not be empty")
		}
		title = TruncateRunes(title, model.TitleMaxLen)
		patch.Title = &title
	}
	if patch.Notes != nil {
		notes := TruncateRunes(*patch.Notes, model.NotesMaxLen)
		patch.Notes = &notes
	}
	if patch.Status != nil {
		status := model.EventStatus(strings.ToLower(string(*patch.Status)))
		if !status.Valid() {
			return nil, malformed("unknown status %q", *patch.Status)
		}
		patch.Status = &status
	}
	return s.store.Update(ctx, id, patch)
}

// Delete reports whether the event existed.
func (s *CalendarService) Delete(ctx context.Context, id string) (bool, error) {
	return s.store.Delete(ctx, id)
}

// ScheduleContent asks the agent to place the requested content items and
// stores every valid proposal.
func (s *CalendarService) ScheduleContent(ctx context.Context, req model.AIScheduleRequest) (model.ReconcileResult, error) {
	if s.agent == nil {
		return model.ReconcileResult{}, ErrDisabled
	}
	if len(req.ContentIDs) == 0 {
		return model.ReconcileResult{}, fmt.Errorf("%w: at least one content id is required", ErrInvalidRequest)
	}

	items, err := s.content.FindByIDs(ctx, req.ContentIDs)
	if err != nil {
		return model.ReconcileResult{}, fmt.Errorf("load content: %w", err)
	}
	if len(items) == 0 {
		return model.ReconcileResult{}, fmt.Errorf("%w: none of the content ids exist", ErrInvalidRequest)
	}

	startDate := req.StartDate
	if startDate == "" {
		startDate = model.DateOf(s.now()).String()
	} else if _, err := model.ParseDate(startDate); err != nil {
		return model.ReconcileResult{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	proposals, err := s.agent.ProposeCalendarEvents(ctx, items, FormatPreferences(req.Preferences, startDate))
	if err != nil {
		return model.ReconcileResult{}, fmt.Errorf("scheduling agent: %w", err)
	}
	log.Info().Int("items", len(items)).Int("proposals", len(proposals)).Msg("calendar: agent proposed schedule")

	return ReconcileProposals(ctx, s.store, proposals)
}

// CreateFromText turns free text into calendar events. The resulting events
// are not backed by stored content.
func (s *CalendarService) CreateFromText(ctx context.Context, text string) (model.ReconcileResult, error) {
	if s.agent == nil {
		return model.ReconcileResult{}, ErrDisabled
	}
	if strings.TrimSpace(text) == "" {
		return model.ReconcileResult{}, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}

	proposals, err := s.agent.ProposeCalendarEventsFromText(ctx, text)
	if err != nil {
		return model.ReconcileResult{}, fmt.Errorf("scheduling agent: %w", err)
	}
	for i := range proposals {
		proposals[i].ContentID = model.NoContentID
		proposals[i].ResearchID = model.NoContentID
	}
	return ReconcileProposals(ctx, s.store, proposals)
}

// DigestEvents returns the scheduled events starting within DigestWindow of now.
func (s *CalendarService) DigestEvents(ctx context.Context, now time.Time) ([]model.CalendarEvent, error) {
	from := model.DateOf(now)
	to := model.DateOf(now.Add(DigestWindow))
	status := model.StatusScheduled
	events, err := s.store.Query(ctx, model.EventFilter{From: &from, To: &to, Status: &status})
	if err != nil {
		return nil, err
	}
	return eventsWithin(events, now, DigestWindow), nil
}

// eventsWithin keeps events whose wall clock start, read in now's location,
// falls in [now, now+window).
func eventsWithin(events []model.CalendarEvent, now time.Time, window time.Duration) []model.CalendarEvent {
	end := now.Add(window)
	out := []model.CalendarEvent{}
	for _, ev := range events {
		d, t := ev.ScheduledDate, ev.ScheduledTime
		start := time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, t.Second, 0, now.Location())
		if !start.Before(now) && start.Before(end) {
			out = append(out, ev)
		}
	}
	return out
}

// FormatPreferences renders scheduling preferences for the agent. Missing
// preferences default to one day between posts with weekends allowed.
func FormatPreferences(p *model.SchedulingPreferences, startDate string) string {
	prefs := model.SchedulingPreferences{DaysBetweenPosts: 1}
	if p != nil {
		prefs = *p
		if prefs.DaysBetweenPosts < 1 {
			prefs.DaysBetweenPosts = 1
		}
	}
	slots := "any"
	if len(prefs.TimeSlots) > 0 {
		slots = strings.Join(prefs.TimeSlots, ", ")
	}
	return fmt.Sprintf("Time slots: %s\nDays between posts: %d\nAvoid weekends: %t\nStart date: %s",
		slots, prefs.DaysBetweenPosts, prefs.AvoidWeekends, startDate)
}
