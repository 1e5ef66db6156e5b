package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/middleware"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/service"
)

type AnalyticsHandler struct {
	svc *service.OutlierService
}

func NewAnalyticsHandler(svc *service.OutlierService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// Outliers handles POST /api/analytics/outliers
func (h *AnalyticsHandler) Outliers(c fiber.Ctx) error {
	req, code, errMsg := bindAnalyzeRequest(c)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, code, errMsg)
	}

	useSaved := req.UseSavedChannels == nil || *req.UseSavedChannels
	start := time.Now()
	report, err := h.svc.AnalyzeChannels(c.Context(), req.ChannelURLs, useSaved)
	observeAnalysis(start, err)
	if err != nil {
		return serviceError(c, err, "Failed to analyze channels")
	}
	return c.JSON(report)
}

// Videos handles POST /api/analytics/videos
func (h *AnalyticsHandler) Videos(c fiber.Ctx) error {
	req, code, errMsg := bindAnalyzeRequest(c)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, code, errMsg)
	}
	if req.DaysBack < 0 || req.MaxPerChannel < 0 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "days_back and max_videos_per_channel must not be negative")
	}

	listing, err := h.svc.ListRecentVideos(c.Context(), req)
	if err != nil {
		return serviceError(c, err, "Failed to fetch videos")
	}
	return c.JSON(listing)
}

// bindAnalyzeRequest parses and validates the shared analytics body. A
// non-empty message is the validation failure for the given error code.
func bindAnalyzeRequest(c fiber.Ctx) (model.AnalyzeRequest, string, string) {
	var req model.AnalyzeRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return req, "INVALID_BODY", "Invalid request body"
		}
	}
	urls, errMsg := middleware.ValidateChannelURLs(req.ChannelURLs)
	if errMsg != "" {
		return req, "INVALID_FIELD", errMsg
	}
	req.ChannelURLs = urls
	return req, "", ""
}
