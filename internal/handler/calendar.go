package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/middleware"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/service"
)

type CalendarHandler struct {
	svc *service.CalendarService
}

func NewCalendarHandler(svc *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{svc: svc}
}

// List handles GET /api/calendar/events?start_date=&end_date=&platform=&status=
func (h *CalendarHandler) List(c fiber.Ctx) error {
	var filter model.EventFilter
	var errMsg string

	if filter.From, errMsg = middleware.ParseDateParam("start_date", c.Query("start_date")); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	if filter.To, errMsg = middleware.ParseDateParam("end_date", c.Query("end_date")); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	if filter.Platform, errMsg = middleware.ParsePlatformParam(c.Query("platform")); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	if filter.Status, errMsg = middleware.ParseStatusParam(c.Query("status")); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	events, err := h.svc.List(c.Context(), filter)
	if err != nil {
		return serviceError(c, err, "Failed to list events")
	}
	return c.JSON(events)
}

// Range handles GET /api/calendar/events/range?start_date=&end_date=&platform=
func (h *CalendarHandler) Range(c fiber.Ctx) error {
	from, errMsg := middleware.ParseDateParam("start_date", c.Query("start_date"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	to, errMsg := middleware.ParseDateParam("end_date", c.Query("end_date"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	if from == nil || to == nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "start_date and end_date are required")
	}
	platform, errMsg := middleware.ParsePlatformParam(c.Query("platform"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	events, err := h.svc.Range(c.Context(), *from, *to, platform)
	if err != nil {
		return serviceError(c, err, "Failed to list events")
	}
	return c.JSON(events)
}

// Get handles GET /api/calendar/events/:id
func (h *CalendarHandler) Get(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateEventID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	event, err := h.svc.Get(c.Context(), id)
	if err != nil {
		return serviceError(c, err, "Failed to get event")
	}
	return c.JSON(event)
}

// Create handles POST /api/calendar/events
func (h *CalendarHandler) Create(c fiber.Ctx) error {
	var req model.ProposedEvent
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	event, err := h.svc.Create(c.Context(), req)
	if err != nil {
		return serviceError(c, err, "Failed to create event")
	}
	countCreated("manual", 1)
	return c.Status(fiber.StatusCreated).JSON(event)
}

// Update handles PUT /api/calendar/events/:id
func (h *CalendarHandler) Update(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateEventID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	var patch model.EventPatch
	if err := c.Bind().JSON(&patch); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	event, err := h.svc.Update(c.Context(), id, patch)
	if err != nil {
		return serviceError(c, err, "Failed to update event")
	}
	return c.JSON(event)
}

// Delete handles DELETE /api/calendar/events/:id
func (h *CalendarHandler) Delete(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateEventID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	found, err := h.svc.Delete(c.Context(), id)
	if err != nil {
		return serviceError(c, err, "Failed to delete event")
	}
	if !found {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Event not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AISchedule handles POST /api/calendar/ai-schedule
func (h *CalendarHandler) AISchedule(c fiber.Ctx) error {
	var req model.AIScheduleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if len(req.ContentIDs) > middleware.MaxContentIDs {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "at most 100 content ids are allowed")
	}

	result, err := h.svc.ScheduleContent(c.Context(), req)
	if err != nil {
		return serviceError(c, err, "Failed to schedule content")
	}
	countCreated("ai_schedule", len(result.Created))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":          scheduledMessage(len(result.Created), len(result.Skipped)),
		"scheduled_events": result.Created,
		"total_scheduled":  len(result.Created),
		"skipped":          result.Skipped,
	})
}

type fromTextRequest struct {
	Text string `json:"text"`
}

// FromText handles POST /api/calendar/from-text
func (h *CalendarHandler) FromText(c fiber.Ctx) error {
	var req fromTextRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if len(req.Text) > middleware.MaxTextLen {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "text must be at most 10000 characters")
	}

	result, err := h.svc.CreateFromText(c.Context(), req.Text)
	if err != nil {
		return serviceError(c, err, "Failed to create events from text")
	}
	countCreated("from_text", len(result.Created))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      scheduledMessage(len(result.Created), len(result.Skipped)),
		"events":       result.Created,
		"total_events": len(result.Created),
		"skipped":      result.Skipped,
	})
}

func scheduledMessage(created, skipped int) string {
	switch {
	case created == 0 && skipped == 0:
		return "No events were proposed"
	case skipped == 0:
		return pluralEvents(created) + " scheduled"
	default:
		return pluralEvents(created) + " scheduled, " + strconv.Itoa(skipped) + " skipped"
	}
}

func pluralEvents(n int) string {
	if n == 1 {
		return "1 event"
	}
	return strconv.Itoa(n) + " events"
}
