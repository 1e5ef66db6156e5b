package router

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/handler"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/service"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	Setup(app, &Handlers{
		Health:         handler.NewHealthHandler(nil, nil, nil),
		Calendar:       handler.NewCalendarHandler(service.NewCalendarService(nil, nil, nil)),
		GoogleCalendar: handler.NewGoogleCalendarHandler(service.NewGoogleCalendarService(nil, nil, "")),
		Analytics:      handler.NewAnalyticsHandler(service.NewOutlierService(nil, nil, nil, 1)),
		Channel:        handler.NewChannelHandler(service.NewChannelService(nil, nil, nil)),
		Content:        handler.NewContentHandler(service.NewContentService(nil)),
	}, "*")
	return app
}

func TestSetup_RegistersRoutes(t *testing.T) {
	app := newTestApp()

	registered := make(map[string]bool)
	for _, r := range app.GetRoutes(true) {
		registered[r.Method+" "+r.Path] = true
	}

	want := []string{
		"GET /health/live",
		"GET /health/ready",
		"GET /metrics",
		"GET /api/calendar/events",
		"POST /api/calendar/events",
		"GET /api/calendar/events/range",
		"GET /api/calendar/events/:id",
		"PUT /api/calendar/events/:id",
		"DELETE /api/calendar/events/:id",
		"POST /api/calendar/ai-schedule",
		"POST /api/calendar/from-text",
		"GET /api/google-calendar/events/current-month",
		"GET /api/google-calendar/events/upcoming",
		"GET /api/google-calendar/calendars",
		"POST /api/google-calendar/sync",
		"POST /api/analytics/outliers",
		"POST /api/analytics/videos",
		"GET /api/channels",
		"POST /api/channels",
		"PATCH /api/channels/:id/active",
		"DELETE /api/channels/:id",
		"POST /api/content",
		"GET /api/content",
	}
	for _, route := range want {
		if !registered[route] {
			t.Errorf("route %q not registered", route)
		}
	}
}

func TestSetup_LiveProbe(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/health/live", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestSetup_GoogleCalendarNotConfigured(t *testing.T) {
	app := newTestApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/google-calendar/calendars", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}
