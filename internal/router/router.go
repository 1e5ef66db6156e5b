package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/handler"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Health         *handler.HealthHandler
	Calendar       *handler.CalendarHandler
	GoogleCalendar *handler.GoogleCalendarHandler
	Analytics      *handler.AnalyticsHandler
	Channel        *handler.ChannelHandler
	Content        *handler.ContentHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(handler.MetricsMiddleware())

	// Probes and metrics (outside the API group, never rate limited)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	analysisLimit := middleware.NewAnalysisRateLimiter().Handler()
	aiLimit := middleware.NewAIRateLimiter().Handler()
	syncLimit := middleware.NewSyncRateLimiter().Handler()

	// API routes
	api := app.Group("/api")

	// Calendar routes. /range is registered before /:id.
	api.Get("/calendar/events", h.Calendar.List)
	api.Post("/calendar/events", h.Calendar.Create)
	api.Get("/calendar/events/range", h.Calendar.Range)
	api.Get("/calendar/events/:id", h.Calendar.Get)
	api.Put("/calendar/events/:id", h.Calendar.Update)
	api.Delete("/calendar/events/:id", h.Calendar.Delete)
	api.Post("/calendar/ai-schedule", aiLimit, h.Calendar.AISchedule)
	api.Post("/calendar/from-text", aiLimit, h.Calendar.FromText)

	// Google Calendar routes
	api.Get("/google-calendar/events/current-month", h.GoogleCalendar.CurrentMonth)
	api.Get("/google-calendar/events/upcoming", h.GoogleCalendar.Upcoming)
	api.Get("/google-calendar/calendars", h.GoogleCalendar.Calendars)
	api.Post("/google-calendar/sync", syncLimit, h.GoogleCalendar.Sync)

	// Analytics routes
	api.Post("/analytics/outliers", analysisLimit, h.Analytics.Outliers)
	api.Post("/analytics/videos", analysisLimit, h.Analytics.Videos)

	// Channel routes
	api.Get("/channels", h.Channel.List)
	api.Post("/channels", h.Channel.Track)
	api.Patch("/channels/:id/active", h.Channel.SetActive)
	api.Delete("/channels/:id", h.Channel.Delete)

	// Content routes
	api.Post("/content", h.Content.Save)
	api.Get("/content", h.Content.Find)
}
