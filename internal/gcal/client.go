// Package gcal reads events from Google Calendar.
package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
)

const untitled = "No Title"

// Options configure a Client. Endpoint and HTTPClient replace the OAuth
// setup and are meant for tests.
type Options struct {
	CredentialsFile string
	TokenFile       string
	Endpoint        string
	HTTPClient      *http.Client
	Timeout         time.Duration
}

// Client is a read-only Google Calendar client.
type Client struct {
	svc     *calendar.Service
	timeout time.Duration
	now     func() time.Time
}

// New builds a Client. Without an HTTPClient it authenticates with the OAuth
// client in CredentialsFile and the user token in TokenFile; the token is
// refreshed in memory as needed.
func New(ctx context.Context, opts Options) (*Client, error) {
	var clientOpts []option.ClientOption
	switch {
	case opts.HTTPClient != nil:
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	default:
		ts, err := tokenSource(ctx, opts.CredentialsFile, opts.TokenFile)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, option.WithTokenSource(ts))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := calendar.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{svc: svc, timeout: timeout, now: time.Now}, nil
}

// storedToken accepts both the oauth2.Token layout and the authorized-user
// layout written by Google's Python client.
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
}

func tokenSource(ctx context.Context, credentialsFile, tokenFile string) (oauth2.TokenSource, error) {
	creds, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read google credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(creds, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}

	raw, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read google token: %w", err)
	}
	tok, err := parseToken(raw)
	if err != nil {
		return nil, err
	}
	return cfg.TokenSource(ctx, tok), nil
}

func parseToken(raw []byte) (*oauth2.Token, error) {
	var st storedToken
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("parse google token: %w", err)
	}
	access := st.AccessToken
	if access == "" {
		access = st.Token
	}
	if access == "" && st.RefreshToken == "" {
		return nil, errors.New("parse google token: no access or refresh token")
	}
	return &oauth2.Token{
		AccessToken:  access,
		RefreshToken: st.RefreshToken,
		TokenType:    st.TokenType,
		Expiry:       st.Expiry,
	}, nil
}

// CurrentMonthEvents lists the events of the current calendar month.
func (c *Client) CurrentMonthEvents(ctx context.Context, calendarID string, maxResults int64) ([]model.ExternalEvent, error) {
	now := c.now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return c.listEvents(ctx, calendarID, first, first.AddDate(0, 1, 0), maxResults)
}

// UpcomingEvents lists events from now until daysAhead days later.
func (c *Client) UpcomingEvents(ctx context.Context, daysAhead int, calendarID string, maxResults int64) ([]model.ExternalEvent, error) {
	now := c.now().UTC()
	return c.listEvents(ctx, calendarID, now, now.AddDate(0, 0, daysAhead), maxResults)
}

func (c *Client) listEvents(ctx context.Context, calendarID string, from, to time.Time, maxResults int64) ([]model.ExternalEvent, error) {
	if calendarID == "" {
		calendarID = "primary"
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.svc.Events.List(calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}

	events := make([]model.ExternalEvent, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, flatten(item))
	}
	return events, nil
}

// ListCalendars returns the calendars visible to the account.
func (c *Client) ListCalendars(ctx context.Context) ([]model.ExternalCalendar, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	cals := make([]model.ExternalCalendar, 0, len(resp.Items))
	for _, item := range resp.Items {
		cals = append(cals, model.ExternalCalendar{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Primary:     item.Primary,
			AccessRole:  item.AccessRole,
			Selected:    item.Selected,
		})
	}
	return cals, nil
}

func flatten(e *calendar.Event) model.ExternalEvent {
	out := model.ExternalEvent{
		ID:          e.Id,
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		Start:       eventTime(e.Start),
		End:         eventTime(e.End),
		Status:      e.Status,
		HTMLLink:    e.HtmlLink,
		Created:     e.Created,
		Updated:     e.Updated,
	}
	if out.Summary == "" {
		out.Summary = untitled
	}
	return out
}

func eventTime(t *calendar.EventDateTime) string {
	if t == nil {
		return ""
	}
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}
