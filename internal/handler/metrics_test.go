package handler

import "testing"

func TestSanitizeEndpoint(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/calendar/events", "/api/calendar/events"},
		{"/api/calendar/events/3f2a0c9e-0b7a-4d55-9a43-1f0c2a6b7e10", "/api/calendar/events/:id"},
		{"/api/calendar/events/range", "/api/calendar/events/range"},
		{"/api/channels", "/api/channels"},
		{"/api/channels/42", "/api/channels/:id"},
		{"/api/channels/42/active", "/api/channels/:id/active"},
		{"/api/analytics/outliers", "/api/analytics/outliers"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := sanitizeEndpoint(tt.path); got != tt.want {
				t.Errorf("sanitizeEndpoint(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
