package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
)

const eventColumns = `id::text, content_id, research_id, platform, title, scheduled_date, scheduled_time,
		       status, notes, external_id, created_at, updated_at`

type CalendarRepo struct {
	pool *pgxpool.Pool
}

func NewCalendarRepo(pool *pgxpool.Pool) *CalendarRepo {
	return &CalendarRepo{pool: pool}
}

// Query returns the events matching filter ordered by date and time.
func (r *CalendarRepo) Query(ctx context.Context, filter model.EventFilter) ([]model.CalendarEvent, error) {
	query, args := buildEventQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	events := []model.CalendarEvent{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, classify(err)
		}
		events = append(events, ev)
	}
	return events, classify(rows.Err())
}

// Get returns a single event by id.
func (r *CalendarRepo) Get(ctx context.Context, id string) (*model.CalendarEvent, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := `SELECT ` + eventColumns + ` FROM calendar_events WHERE id = $1`
	ev, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classify(err)
	}
	return &ev, nil
}

// Insert stores ev under a new id and returns the stored row.
func (r *CalendarRepo) Insert(ctx context.Context, ev model.CalendarEvent) (*model.CalendarEvent, error) {
	ev.ID = uuid.NewString()
	query := `
		INSERT INTO calendar_events (id, content_id, research_id, platform, title,
		                             scheduled_date, scheduled_time, status, notes, external_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, eventArgs(ev)...).Scan(&ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &ev, nil
}

// InsertExternal stores an event imported from an external calendar. It
// returns false without error when the event already exists, either through
// the (platform, external_id) unique index or, for rows imported before
// external ids were recorded, a row on the same day and platform with the
// same title and time whose notes mention the external id.
func (r *CalendarRepo) InsertExternal(ctx context.Context, ev model.CalendarEvent) (*model.CalendarEvent, bool, error) {
	ev.ID = uuid.NewString()
	query := `
		INSERT INTO calendar_events (id, content_id, research_id, platform, title,
		                             scheduled_date, scheduled_time, status, notes, external_id)
		SELECT $1::uuid, $2::int, $3::int, $4::text, $5::text, $6::date, $7::time, $8::text, $9::text, $10::text
		WHERE NOT EXISTS (
			SELECT 1 FROM calendar_events
			WHERE platform = $4 AND scheduled_date = $6
			  AND external_id IS NULL
			  AND title = $5 AND scheduled_time = $7
			  AND position($10 IN COALESCE(notes, '')) > 0
		)
		ON CONFLICT DO NOTHING
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, eventArgs(ev)...).Scan(&ev.CreatedAt, &ev.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify(err)
	}
	return &ev, true, nil
}

// Update applies the non-nil fields of patch and bumps updated_at.
func (r *CalendarRepo) Update(ctx context.Context, id string, patch model.EventPatch) (*model.CalendarEvent, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	set, args := buildEventUpdate(patch)
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE calendar_events SET %s WHERE id = $%d RETURNING %s`,
		set, len(args), eventColumns)

	ev, err := scanEvent(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, classify(err)
	}
	return &ev, nil
}

// Delete removes an event and reports whether it existed.
func (r *CalendarRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM calendar_events WHERE id = $1`, id)
	if err != nil {
		return false, classify(err)
	}
	return tag.RowsAffected() > 0, nil
}

// buildEventQuery renders the SELECT for filter with positional arguments.
func buildEventQuery(filter model.EventFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.From != nil {
		add("scheduled_date >= $%d", filter.From.Time)
	}
	if filter.To != nil {
		add("scheduled_date <= $%d", filter.To.Time)
	}
	if filter.Platform != nil {
		add("platform = $%d", string(*filter.Platform))
	}
	if filter.Status != nil {
		add("status = $%d", string(*filter.Status))
	}

	query := `SELECT ` + eventColumns + ` FROM calendar_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY scheduled_date, scheduled_time"
	return query, args
}

// buildEventUpdate renders the SET list for patch. updated_at is always set.
func buildEventUpdate(patch model.EventPatch) (string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.ScheduledDate != nil {
		add("scheduled_date", patch.ScheduledDate.Time)
	}
	if patch.ScheduledTime != nil {
		add("scheduled_time", pgtype.Time{Microseconds: patch.ScheduledTime.Microseconds(), Valid: true})
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	sets = append(sets, "updated_at = NOW()")
	return strings.Join(sets, ", "), args
}

func eventArgs(ev model.CalendarEvent) []any {
	return []any{
		ev.ID, ev.ContentID, ev.ResearchID, string(ev.Platform), ev.Title,
		ev.ScheduledDate.Time,
		pgtype.Time{Microseconds: ev.ScheduledTime.Microseconds(), Valid: true},
		string(ev.Status), nullable(ev.Notes), nullable(ev.ExternalID),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scanEvent(row pgx.Row) (model.CalendarEvent, error) {
	var (
		ev         model.CalendarEvent
		date       time.Time
		clock      pgtype.Time
		platform   string
		status     string
		notes      *string
		externalID *string
	)
	err := row.Scan(
		&ev.ID, &ev.ContentID, &ev.ResearchID, &platform, &ev.Title, &date, &clock,
		&status, &notes, &externalID, &ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return ev, err
	}
	ev.Platform = model.Platform(platform)
	ev.Status = model.EventStatus(status)
	ev.ScheduledDate = model.DateOf(date)
	ev.ScheduledTime = model.TimeOfDayFromMicroseconds(clock.Microseconds)
	if notes != nil {
		ev.Notes = *notes
	}
	if externalID != nil {
		ev.ExternalID = *externalID
	}
	return ev, nil
}
