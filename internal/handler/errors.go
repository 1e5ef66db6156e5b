package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/agent"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/middleware"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/repository"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/service"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/youtube"
)

// serviceError maps a service error to the API error envelope. action is
// used in the message of unexpected errors, e.g. "Failed to create event".
func serviceError(c fiber.Ctx, err error, action string) error {
	status, code, msg := classifyError(err, action)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg(action)
	}
	return middleware.ErrorResponse(c, status, code, msg)
}

func classifyError(err error, action string) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrMalformedEvent), errors.Is(err, service.ErrInvalidRequest):
		return fiber.StatusBadRequest, "INVALID_FIELD", err.Error()
	case errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND", "Resource not found"
	case errors.Is(err, youtube.ErrChannelNotResolved):
		return fiber.StatusNotFound, "CHANNEL_NOT_FOUND", err.Error()
	case errors.Is(err, service.ErrDisabled):
		return fiber.StatusServiceUnavailable, "NOT_CONFIGURED", "This integration is not configured"
	case errors.Is(err, repository.ErrUnavailable):
		return fiber.StatusServiceUnavailable, "UNAVAILABLE", "Database unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "TIMEOUT", action + ": upstream timed out"
	case errors.Is(err, agent.ErrEmptyResponse):
		return fiber.StatusBadGateway, "AGENT_ERROR", action + ": scheduling agent returned no events"
	default:
		return fiber.StatusInternalServerError, "INTERNAL_ERROR", action
	}
}
