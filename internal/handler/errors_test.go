package handler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/agent"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/repository"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/service"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/youtube"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"malformed event", fmt.Errorf("%w: title is required", service.ErrMalformedEvent), fiber.StatusBadRequest, "INVALID_FIELD"},
		{"invalid request", fmt.Errorf("%w: no ids", service.ErrInvalidRequest), fiber.StatusBadRequest, "INVALID_FIELD"},
		{"not found", repository.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
		{"channel not resolved", fmt.Errorf("resolve: %w", youtube.ErrChannelNotResolved), fiber.StatusNotFound, "CHANNEL_NOT_FOUND"},
		{"disabled", service.ErrDisabled, fiber.StatusServiceUnavailable, "NOT_CONFIGURED"},
		{"db unavailable", fmt.Errorf("query: %w", repository.ErrUnavailable), fiber.StatusServiceUnavailable, "UNAVAILABLE"},
		{"deadline", context.DeadlineExceeded, fiber.StatusGatewayTimeout, "TIMEOUT"},
		{"agent empty", fmt.Errorf("scheduling agent: %w", agent.ErrEmptyResponse), fiber.StatusBadGateway, "AGENT_ERROR"},
		{"unexpected", errors.New("boom"), fiber.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, msg := classifyError(tt.err, "Failed to do thing")
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
			if msg == "" {
				t.Error("message is empty")
			}
		})
	}
}

func TestClassifyError_HidesInternalDetail(t *testing.T) {
	_, _, msg := classifyError(errors.New("pq: password authentication failed"), "Failed to list events")
	if msg != "Failed to list events" {
		t.Errorf("msg = %q, want the action only", msg)
	}
}
