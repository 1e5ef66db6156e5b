package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
)

// Request limits.
const (
	MaxChannelURLLen = 500
	MaxChannelURLs   = 50
	MaxContentIDs    = 100
	MaxTextLen       = 10000
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateEventID checks that a calendar event id is a UUID.
func ValidateEventID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "id is required"
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", "id must be a UUID"
	}
	return parsed.String(), ""
}

// ParseDateParam parses an optional YYYY-MM-DD query parameter.
func ParseDateParam(name, value string) (*model.Date, string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ""
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return nil, "Invalid " + name + ". Use YYYY-MM-DD"
	}
	return &d, ""
}

// ParsePlatformParam parses an optional platform filter.
func ParsePlatformParam(value string) (*model.Platform, string) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return nil, ""
	}
	p := model.Platform(value)
	if !p.Valid() {
		return nil, "platform must be one of youtube, x, instagram, linkedin, google_calendar"
	}
	return &p, ""
}

// ParseStatusParam parses an optional status filter.
func ParseStatusParam(value string) (*model.EventStatus, string) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return nil, ""
	}
	s := model.EventStatus(value)
	if !s.Valid() {
		return nil, "status must be one of scheduled, published, draft, cancelled"
	}
	return &s, ""
}

// ParseIDList parses a comma-separated list of positive integer ids.
func ParseIDList(value string) ([]int, string) {
	var ids []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, "ids must be positive integers"
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, "at least one id is required"
	}
	if len(ids) > MaxContentIDs {
		return nil, "at most 100 ids are allowed"
	}
	return ids, ""
}

// ParseRowID parses a positive numeric path id.
func ParseRowID(value string) (int64, string) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, "id must be a positive integer"
	}
	return id, ""
}

// ValidateChannelURLs checks a list of YouTube channel URLs. An empty list is
// valid; callers fall back to saved channels.
func ValidateChannelURLs(urls []string) ([]string, string) {
	if len(urls) > MaxChannelURLs {
		return nil, "at most 50 channel urls are allowed"
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if len(u) > MaxChannelURLLen {
			return nil, "channel url must be at most 500 characters"
		}
		if !strings.Contains(strings.ToLower(u), "youtube.com/") {
			return nil, "channel url must be a youtube.com URL: " + u
		}
		out = append(out, u)
	}
	return out, ""
}
