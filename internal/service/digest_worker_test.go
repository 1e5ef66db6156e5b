package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
)

type recordingNotifier struct {
	sent []string
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, text string) error {
	n.sent = append(n.sent, text)
	return n.err
}

func titlesOnly(events []model.CalendarEvent) string {
	var b strings.Builder
	for _, ev := range events {
		fmt.Fprintln(&b, ev.Title)
	}
	return b.String()
}

func TestNextDailyRun(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		hour int
		want time.Time
	}{
		{"before hour", time.Date(2025, 5, 1, 7, 30, 0, 0, time.UTC), 9, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)},
		{"exactly at hour", time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC), 9, time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)},
		{"after hour", time.Date(2025, 5, 1, 22, 0, 0, 0, time.UTC), 9, time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)},
		{"month rollover", time.Date(2025, 5, 31, 10, 0, 0, 0, time.UTC), 9, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
		{"hour clamped", time.Date(2025, 5, 1, 1, 0, 0, 0, time.UTC), 30, time.Date(2025, 5, 1, 23, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextDailyRun(tt.now, tt.hour); !got.Equal(tt.want) {
				t.Errorf("NextDailyRun = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDigestWorker_Tick(t *testing.T) {
	svc, _ := newTestCalendar(nil)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	w := NewDigestWorker(svc, notifier, titlesOnly, 9)
	w.now = svc.now

	w.tick(ctx)
	if len(notifier.sent) != 0 {
		t.Fatalf("empty calendar sent %d messages", len(notifier.sent))
	}

	if _, err := svc.Create(ctx, model.ProposedEvent{Platform: "youtube", Title: "Upload", ScheduledDate: "2025-03-03", ScheduledTime: "15:00"}); err != nil {
		t.Fatal(err)
	}
	w.tick(ctx)
	if len(notifier.sent) != 1 || notifier.sent[0] != "Upload\n" {
		t.Errorf("sent = %q", notifier.sent)
	}

	notifier.err = errors.New("flood wait")
	w.tick(ctx)
	if len(notifier.sent) != 2 {
		t.Errorf("send attempts = %d, want 2", len(notifier.sent))
	}
}

func TestDigestWorker_StopsOnCancel(t *testing.T) {
	svc, _ := newTestCalendar(nil)
	w := NewDigestWorker(svc, &recordingNotifier{}, titlesOnly, 9)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
