package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/middleware"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/service"
)

type ContentHandler struct {
	svc *service.ContentService
}

func NewContentHandler(svc *service.ContentService) *ContentHandler {
	return &ContentHandler{svc: svc}
}

// Save handles POST /api/content
func (h *ContentHandler) Save(c fiber.Ctx) error {
	var req model.SaveContentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	content, err := h.svc.Save(c.Context(), req)
	if err != nil {
		return serviceError(c, err, "Failed to save content")
	}
	return c.Status(fiber.StatusCreated).JSON(content)
}

// Find handles GET /api/content?ids=1,2,3 and GET /api/content?research_id=N
func (h *ContentHandler) Find(c fiber.Ctx) error {
	if raw := c.Query("research_id"); raw != "" {
		researchID, err := strconv.Atoi(raw)
		if err != nil || researchID <= 0 {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "research_id must be a positive integer")
		}
		items, err := h.svc.ListByResearch(c.Context(), researchID)
		if err != nil {
			return serviceError(c, err, "Failed to list content")
		}
		return c.JSON(fiber.Map{"content": items, "total": len(items)})
	}

	ids, errMsg := middleware.ParseIDList(c.Query("ids"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	items, err := h.svc.FindByIDs(c.Context(), ids)
	if err != nil {
		return serviceError(c, err, "Failed to load content")
	}
	return c.JSON(fiber.Map{"content": items, "total": len(items)})
}
