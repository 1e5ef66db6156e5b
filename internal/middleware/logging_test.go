package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/api/calendar/events", "/api/calendar/events"},
		{"/api/calendar/events/550e8400-e29b-41d4-a716-446655440000", "/api/calendar/events/:id"},
		{"/api/calendar/events/range", "/api/calendar/events/range"},
		{"/api/channels/12/active", "/api/channels/:id/active"},
		{"/api/channels", "/api/channels"},
		{"/health/live", "/health/live"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := sanitizePath(tt.in); got != tt.want {
				t.Errorf("sanitizePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	const valid = "550e8400-e29b-41d4-a716-446655440000"
	if got := requestID(valid); got != valid {
		t.Errorf("requestID(valid) = %q, want %q", got, valid)
	}
	for _, in := range []string{"", "not-a-uuid", "<script>"} {
		got := requestID(in)
		if _, err := uuid.Parse(got); err != nil || got == in {
			t.Errorf("requestID(%q) = %q, want a fresh UUID", in, got)
		}
	}
}

func TestRequestLogger_SetsRequestIDHeader(t *testing.T) {
	InitLogger("error", "test")
	app := fiber.New()
	app.Use(NewRequestLogger())
	app.Get("/", func(c fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "550e8400-e29b-41d4-a716-446655440000")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "550e8400-e29b-41d4-a716-446655440000" {
		t.Errorf("%s = %q, want the incoming id", RequestIDHeader, got)
	}
}
