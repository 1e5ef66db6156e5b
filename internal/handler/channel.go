package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/middleware"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/service"
)

type ChannelHandler struct {
	svc *service.ChannelService
}

func NewChannelHandler(svc *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{svc: svc}
}

type trackChannelRequest struct {
	URL string `json:"url"`
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

// List handles GET /api/channels
func (h *ChannelHandler) List(c fiber.Ctx) error {
	channels, err := h.svc.List(c.Context())
	if err != nil {
		return serviceError(c, err, "Failed to list channels")
	}
	return c.JSON(fiber.Map{"channels": channels, "total": len(channels)})
}

// Track handles POST /api/channels
func (h *ChannelHandler) Track(c fiber.Ctx) error {
	var req trackChannelRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	urls, errMsg := middleware.ValidateChannelURLs([]string{req.URL})
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	if len(urls) == 0 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "url is required")
	}

	ch, err := h.svc.Track(c.Context(), urls[0])
	if err != nil {
		return serviceError(c, err, "Failed to track channel")
	}
	return c.Status(fiber.StatusCreated).JSON(ch)
}

// SetActive handles PATCH /api/channels/:id/active
func (h *ChannelHandler) SetActive(c fiber.Ctx) error {
	id, errMsg := middleware.ParseRowID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	var req setActiveRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if req.Active == nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "active is required")
	}

	if err := h.svc.SetActive(c.Context(), id, *req.Active); err != nil {
		return serviceError(c, err, "Failed to update channel")
	}
	return c.JSON(fiber.Map{"id": id, "active": *req.Active})
}

// Delete handles DELETE /api/channels/:id
func (h *ChannelHandler) Delete(c fiber.Ctx) error {
	id, errMsg := middleware.ParseRowID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	found, err := h.svc.Delete(c.Context(), id)
	if err != nil {
		return serviceError(c, err, "Failed to delete channel")
	}
	if !found {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
