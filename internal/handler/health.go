package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Version is reported by the readiness probe. Overridden at build time with -ldflags.
var Version = "dev"

type HealthHandler struct {
	pool         *pgxpool.Pool
	rdb          *redis.Client
	integrations map[string]bool
	startAt      time.Time
}

// NewHealthHandler builds the probes. integrations maps optional client names
// (youtube, google_calendar, agent, telegram) to whether they are configured.
func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client, integrations map[string]bool) *HealthHandler {
	return &HealthHandler{
		pool:         pool,
		rdb:          rdb,
		integrations: integrations,
		startAt:      time.Now(),
	}
}

// Live handles GET /health/live, the liveness probe.
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready, the readiness probe with dependency checks.
// The database is required; Redis only degrades caching.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	var dbPing, redisPing func(context.Context) error
	if h.pool != nil {
		dbPing = h.pool.Ping
	}
	if h.rdb != nil {
		redisPing = func(ctx context.Context) error { return h.rdb.Ping(ctx).Err() }
	}

	db := probe(ctx, dbPing)
	cache := probe(ctx, redisPing)

	overallStatus := "healthy"
	status := fiber.StatusOK
	switch {
	case db["status"] != "up":
		overallStatus = "unhealthy"
		status = fiber.StatusServiceUnavailable
	case cache["status"] == "down":
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":         overallStatus,
		"checks":         fiber.Map{"database": db, "redis": cache},
		"integrations":   integrationStatus(h.integrations),
		"uptime_seconds": int(time.Since(h.startAt).Seconds()),
		"version":        Version,
	})
}

// probe times one dependency ping. A nil ping means the dependency is not configured.
func probe(ctx context.Context, ping func(context.Context) error) fiber.Map {
	if ping == nil {
		return fiber.Map{"status": "disabled"}
	}

	start := time.Now()
	err := ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}

func integrationStatus(integrations map[string]bool) fiber.Map {
	out := make(fiber.Map, len(integrations))
	for name, enabled := range integrations {
		if enabled {
			out[name] = "configured"
		} else {
			out[name] = "disabled"
		}
	}
	return out
}
