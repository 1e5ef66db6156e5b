package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
)

func TestProbe(t *testing.T) {
	ctx := context.Background()

	if got := probe(ctx, nil); got["status"] != "disabled" {
		t.Errorf("nil ping status = %v, want disabled", got["status"])
	}
	if got := probe(ctx, func(context.Context) error { return nil }); got["status"] != "up" {
		t.Errorf("ok ping status = %v, want up", got["status"])
	}
	down := probe(ctx, func(context.Context) error { return errors.New("dial tcp: refused") })
	if down["status"] != "down" {
		t.Errorf("failing ping status = %v, want down", down["status"])
	}
	if down["error"] != "connection failed" {
		t.Errorf("error = %v, want the generic message", down["error"])
	}
}

func TestReady_NoDatabaseIsUnhealthy(t *testing.T) {
	h := NewHealthHandler(nil, nil, map[string]bool{"youtube": true, "telegram": false})
	app := fiber.New()
	app.Get("/health/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/ready", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	var body struct {
		Status       string            `json:"status"`
		Integrations map[string]string `json:"integrations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "unhealthy" {
		t.Errorf("status = %q, want unhealthy", body.Status)
	}
	if body.Integrations["youtube"] != "configured" || body.Integrations["telegram"] != "disabled" {
		t.Errorf("integrations = %v", body.Integrations)
	}
}
