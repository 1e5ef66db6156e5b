package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Platform is the publishing destination of a calendar event.
type Platform string

const (
	PlatformYouTube        Platform = "youtube"
	PlatformX              Platform = "x"
	PlatformInstagram      Platform = "instagram"
	PlatformLinkedIn       Platform = "linkedin"
	PlatformGoogleCalendar Platform = "google_calendar"
)

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformYouTube, PlatformX, PlatformInstagram, PlatformLinkedIn, PlatformGoogleCalendar:
		return true
	}
	return false
}

// EventStatus is the lifecycle state of a calendar event. Transitions are not
// enforced; any valid status may be assigned.
type EventStatus string

const (
	StatusScheduled EventStatus = "scheduled"
	StatusPublished EventStatus = "published"
	StatusDraft     EventStatus = "draft"
	StatusCancelled EventStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusPublished, StatusDraft, StatusCancelled:
		return true
	}
	return false
}

// Field limits of the calendar_events table.
const (
	TitleMaxLen = 500
	NotesMaxLen = 1000

	// NoContentID marks events that are not backed by a platform content record.
	NoContentID = -1
)

// Date is a calendar day without time or zone. It marshals as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate truncates t to its calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay is a timezone-naive wall clock time, matching a Postgres TIME column.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay accepts HH:MM, HH:MM:SS and either form followed by a zone
// offset ("Z", "+02:00", "-0500") or fractional seconds. A leading date
// separated by 'T' or a space is ignored. The offset is discarded and the
// wall clock kept as written.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	raw := strings.TrimSpace(s)
	if i := strings.IndexAny(raw, "Tt "); i >= 0 && !strings.Contains(raw[:i], ":") {
		raw = raw[i+1:]
	}
	clock := strings.TrimSpace(stripZone(raw))
	if i := strings.IndexByte(clock, '.'); i >= 0 {
		clock = clock[:i]
	}

	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time %q: expected HH:MM[:SS]", s)
}

// stripZone removes a trailing "Z" or numeric UTC offset from a clock string.
func stripZone(s string) string {
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		return s[:len(s)-1]
	}
	if i := strings.LastIndexAny(s, "+-"); i > 0 {
		return s[:i]
	}
	return s
}

// TimeOfDayOf returns the wall clock of t in t's own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// Microseconds since midnight, the Postgres TIME wire representation.
func (t TimeOfDay) Microseconds() int64 {
	return (int64(t.Hour)*3600 + int64(t.Minute)*60 + int64(t.Second)) * 1_000_000
}

// TimeOfDayFromMicroseconds converts a Postgres TIME value.
func TimeOfDayFromMicroseconds(us int64) TimeOfDay {
	secs := us / 1_000_000
	return TimeOfDay{Hour: int(secs / 3600), Minute: int(secs % 3600 / 60), Second: int(secs % 60)}
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// CalendarEvent is a persisted publishing slot.
type CalendarEvent struct {
	ID            string      `json:"id"`
	ContentID     int         `json:"content_id"`
	ResearchID    int         `json:"research_id"`
	Platform      Platform    `json:"platform"`
	Title         string      `json:"title"`
	ScheduledDate Date        `json:"scheduled_date"`
	ScheduledTime TimeOfDay   `json:"scheduled_time"`
	Status        EventStatus `json:"status"`
	Notes         string      `json:"notes,omitempty"`
	ExternalID    string      `json:"external_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// EventFilter selects calendar events. Nil fields are ignored; set fields are AND-combined.
type EventFilter struct {
	From     *Date
	To       *Date
	Platform *Platform
	Status   *EventStatus
}

// EventPatch holds the mutable fields of a calendar event. Nil fields are left untouched.
type EventPatch struct {
	Title         *string      `json:"title,omitempty"`
	ScheduledDate *Date        `json:"scheduled_date,omitempty"`
	ScheduledTime *TimeOfDay   `json:"scheduled_time,omitempty"`
	Status        *EventStatus `json:"status,omitempty"`
	Notes         *string      `json:"notes,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
	return p.Title == nil && p.ScheduledDate == nil && p.ScheduledTime == nil && p.Status == nil && p.Notes == nil
}

// ProposedEvent is an unvalidated event as produced by the scheduling agent or
// submitted by a client. Date and time stay strings until normalization.
type ProposedEvent struct {
	ContentID     int    `json:"content_id"`
	ResearchID    int    `json:"research_id"`
	Platform      string `json:"platform"`
	Title         string `json:"title"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	Status        string `json:"status,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// ExternalEvent is an event read from a third-party calendar.
type ExternalEvent struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	// Start and End are RFC3339 date-times, or YYYY-MM-DD for all-day events.
	Start    string `json:"start"`
	End      string `json:"end"`
	Status   string `json:"status,omitempty"`
	HTMLLink string `json:"html_link,omitempty"`
	Created  string `json:"created,omitempty"`
	Updated  string `json:"updated,omitempty"`
}

// ExternalCalendar describes a calendar visible to the sync account.
type ExternalCalendar struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Primary     bool   `json:"primary"`
	AccessRole  string `json:"access_role,omitempty"`
	Selected    bool   `json:"selected"`
}

// SkippedEvent records why an event in a batch was not stored.
type SkippedEvent struct {
	Title  string `json:"title"`
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// ReconcileResult is the outcome of a batch insert.
type ReconcileResult struct {
	Created []CalendarEvent `json:"created"`
	Skipped []SkippedEvent  `json:"skipped"`
}

// SchedulingPreferences guide the scheduling agent.
type SchedulingPreferences struct {
	TimeSlots        []string `json:"time_slots,omitempty"`
	DaysBetweenPosts int      `json:"days_between_posts,omitempty"`
	AvoidWeekends    bool     `json:"avoid_weekends"`
}

// AIScheduleRequest asks the agent to place content items on the calendar.
type AIScheduleRequest struct {
	ContentIDs  []int                  `json:"content_ids"`
	StartDate   string                 `json:"start_date,omitempty"`
	Preferences *SchedulingPreferences `json:"preferences,omitempty"`
}

// SyncSummary is the API response of a Google Calendar sync.
type SyncSummary struct {
	CalendarID   string          `json:"calendar_id"`
	TotalFound   int             `json:"total_google_events"`
	CreatedCount int             `json:"created_events"`
	SkippedCount int             `json:"skipped_events"`
	Created      []CalendarEvent `json:"created_event_details"`
	Skipped      []SkippedEvent  `json:"skipped_event_details"`
}
