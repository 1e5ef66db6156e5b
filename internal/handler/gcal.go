package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/middleware"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/service"
)

// Google Calendar query limits.
const (
	maxGoogleResults = 2500
	maxDaysAhead     = 365
)

type GoogleCalendarHandler struct {
	svc *service.GoogleCalendarService
}

func NewGoogleCalendarHandler(svc *service.GoogleCalendarService) *GoogleCalendarHandler {
	return &GoogleCalendarHandler{svc: svc}
}

// CurrentMonth handles GET /api/google-calendar/events/current-month?calendar_id=&max_results=
func (h *GoogleCalendarHandler) CurrentMonth(c fiber.Ctx) error {
	maxResults, errMsg := parseBoundedInt(c.Query("max_results"), maxGoogleResults)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "max_results "+errMsg)
	}

	events, err := h.svc.CurrentMonth(c.Context(), c.Query("calendar_id"), int64(maxResults))
	if err != nil {
		return serviceError(c, err, "Failed to fetch Google Calendar events")
	}
	return c.JSON(fiber.Map{"events": events, "total": len(events)})
}

// Upcoming handles GET /api/google-calendar/events/upcoming?days_ahead=&calendar_id=&max_results=
func (h *GoogleCalendarHandler) Upcoming(c fiber.Ctx) error {
	days, errMsg := parseBoundedInt(c.Query("days_ahead"), maxDaysAhead)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "days_ahead "+errMsg)
	}
	maxResults, errMsg := parseBoundedInt(c.Query("max_results"), maxGoogleResults)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "max_results "+errMsg)
	}

	events, err := h.svc.Upcoming(c.Context(), days, c.Query("calendar_id"), int64(maxResults))
	if err != nil {
		return serviceError(c, err, "Failed to fetch Google Calendar events")
	}
	return c.JSON(fiber.Map{"events": events, "total": len(events)})
}

// Calendars handles GET /api/google-calendar/calendars
func (h *GoogleCalendarHandler) Calendars(c fiber.Ctx) error {
	cals, err := h.svc.Calendars(c.Context())
	if err != nil {
		return serviceError(c, err, "Failed to list calendars")
	}
	return c.JSON(fiber.Map{"calendars": cals, "total": len(cals)})
}

// Sync handles POST /api/google-calendar/sync?calendar_id=&max_results=
func (h *GoogleCalendarHandler) Sync(c fiber.Ctx) error {
	maxResults, errMsg := parseBoundedInt(c.Query("max_results"), maxGoogleResults)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "max_results "+errMsg)
	}

	summary, err := h.svc.Sync(c.Context(), c.Query("calendar_id"), int64(maxResults))
	if err != nil {
		return serviceError(c, err, "Failed to sync Google Calendar")
	}
	if Metrics.EventsSynced != nil {
		Metrics.EventsSynced.Add(float64(summary.CreatedCount))
	}
	countCreated("google_calendar", summary.CreatedCount)
	return c.JSON(summary)
}

// parseBoundedInt parses an optional positive query integer. Empty yields 0,
// letting the service apply its default.
func parseBoundedInt(value string, limit int) (int, string) {
	if value == "" {
		return 0, ""
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, "must be a positive integer"
	}
	if n > limit {
		return 0, "must be at most " + strconv.Itoa(limit)
	}
	return n, ""
}
