package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/repository"
)

// memStore is an in-memory EventStore with the same duplicate rules as the
// Postgres implementation.
type memStore struct {
	mu     sync.Mutex
	seq    int
	events map[string]model.CalendarEvent
	// failTitle makes inserts of events with this title fail with failErr.
	failTitle string
	failErr   error
}

func newMemStore() *memStore {
	return &memStore{events: map[string]model.CalendarEvent{}}
}

func (s *memStore) Query(_ context.Context, f model.EventFilter) ([]model.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.CalendarEvent{}
	for _, ev := range s.events {
		if f.From != nil && ev.ScheduledDate.Before(f.From.Time) {
			continue
		}
		if f.To != nil && ev.ScheduledDate.After(f.To.Time) {
			continue
		}
		if f.Platform != nil && ev.Platform != *f.Platform {
			continue
		}
		if f.Status != nil && ev.Status != *f.Status {
			continue
		}
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledDate.Equal(out[j].ScheduledDate.Time) {
			return out[i].ScheduledDate.Before(out[j].ScheduledDate.Time)
		}
		return out[i].ScheduledTime.Microseconds() < out[j].ScheduledTime.Microseconds()
	})
	return out, nil
}

func (s *memStore) Get(_ context.Context, id string) (*model.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &ev, nil
}

func (s *memStore) Insert(_ context.Context, ev model.CalendarEvent) (*model.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(ev)
}

func (s *memStore) insertLocked(ev model.CalendarEvent) (*model.CalendarEvent, error) {
	if s.failTitle != "" && ev.Title == s.failTitle {
		return nil, s.failErr
	}
	s.seq++
	ev.ID = fmt.Sprintf("evt-%d", s.seq)
	ev.CreatedAt = time.Now()
	ev.UpdatedAt = ev.CreatedAt
	s.events[ev.ID] = ev
	return &ev, nil
}

func (s *memStore) InsertExternal(_ context.Context, ev model.CalendarEvent) (*model.CalendarEvent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.events {
		if existing.Platform != ev.Platform {
			continue
		}
		if existing.ExternalID != "" && existing.ExternalID == ev.ExternalID {
			return nil, false, nil
		}
		if existing.ExternalID == "" && existing.ScheduledDate.Equal(ev.ScheduledDate.Time) &&
			existing.Title == ev.Title && existing.ScheduledTime == ev.ScheduledTime &&
			strings.Contains(existing.Notes, ev.ExternalID) {
			return nil, false, nil
		}
	}
	created, err := s.insertLocked(ev)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *memStore) Update(_ context.Context, id string, p model.EventPatch) (*model.CalendarEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.Title != nil {
		ev.Title = *p.Title
	}
	if p.ScheduledDate != nil {
		ev.ScheduledDate = *p.ScheduledDate
	}
	if p.ScheduledTime != nil {
		ev.ScheduledTime = *p.ScheduledTime
	}
	if p.Status != nil {
		ev.Status = *p.Status
	}
	if p.Notes != nil {
		ev.Notes = *p.Notes
	}
	ev.UpdatedAt = time.Now().Add(time.Millisecond)
	s.events[id] = ev
	return &ev, nil
}

func (s *memStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return false, nil
	}
	delete(s.events, id)
	return true, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
