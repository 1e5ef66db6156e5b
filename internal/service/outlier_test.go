package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/youtube"
)

var analysisNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func video(id string, daysAgo int, views, likes, comments int64) model.VideoMetric {
	return model.VideoMetric{
		VideoID:     id,
		Title:       "Video " + id,
		PublishedAt: analysisNow.Add(-time.Duration(daysAgo) * 24 * time.Hour),
		Views:       views,
		Likes:       likes,
		Comments:    comments,
	}
}

// baselineVideos are 20 days old with views per day 90, 100 and 110:
// mean 100, sample stddev 10.
func baselineVideos() []model.VideoMetric {
	return []model.VideoMetric{
		video("b1", 20, 1800, 90, 10),
		video("b2", 20, 2000, 100, 20),
		video("b3", 20, 2200, 110, 30),
	}
}

func TestAnalyze_FlatBaselineIsNormal(t *testing.T) {
	ch := model.ChannelVideos{URL: "u", Videos: []model.VideoMetric{
		video("b1", 20, 2000, 0, 0),
		video("b2", 20, 2000, 0, 0),
		video("b3", 20, 2000, 0, 0),
		video("r1", 5, 2500, 0, 0),
	}}

	report := Analyze([]model.ChannelVideos{ch}, analysisNow)
	got := report.Channels[0]
	if got.ErrorCode != "" {
		t.Fatalf("unexpected error code %q", got.ErrorCode)
	}
	if len(got.Videos) != 1 {
		t.Fatalf("got %d analyzed videos, want 1", len(got.Videos))
	}
	c := got.Videos[0].Classification
	if c.ViewsZScore != 0 || c.ViewsPercentageDiff != 400 {
		t.Errorf("z = %v pct = %v, want 0 and 400 for zero-spread baseline", c.ViewsZScore, c.ViewsPercentageDiff)
	}
	if c.OutlierType != model.OutlierNormal {
		t.Errorf("type = %s, want normal", c.OutlierType)
	}
	if c.ConfidenceLevel != model.ConfidenceLow {
		t.Errorf("confidence = %s, want low", c.ConfidenceLevel)
	}
}

func TestAnalyze_ViralHit(t *testing.T) {
	videos := append(baselineVideos(), video("r1", 5, 875, 50, 5))
	report := Analyze([]model.ChannelVideos{{URL: "u", Videos: videos}}, analysisNow)

	ch := report.Channels[0]
	if ch.Baseline == nil {
		t.Fatal("baseline stats missing")
	}
	if ch.Baseline.ViewsPerDay.Mean != 100 || ch.Baseline.ViewsPerDay.StdDev != 10 {
		t.Errorf("baseline = %+v, want mean 100 stddev 10", ch.Baseline.ViewsPerDay)
	}
	if ch.Baseline.ViewsPerDay.Median == nil || *ch.Baseline.ViewsPerDay.Median != 100 {
		t.Errorf("median = %v, want 100", ch.Baseline.ViewsPerDay.Median)
	}
	if ch.Baseline.BaselineVideoCount != 3 {
		t.Errorf("baseline count = %d, want 3", ch.Baseline.BaselineVideoCount)
	}

	c := ch.Videos[0].Classification
	if c.ViewsZScore != 7.5 {
		t.Errorf("z = %v, want 7.5", c.ViewsZScore)
	}
	if c.OutlierType != model.OutlierViralHit || c.ConfidenceLevel != model.ConfidenceHigh {
		t.Errorf("got %s/%s, want viral_hit/high", c.OutlierType, c.ConfidenceLevel)
	}
	if c.ViewsPercentageDiff != 75 {
		t.Errorf("pct diff = %v, want 75", c.ViewsPercentageDiff)
	}
	if ch.Summary[model.OutlierViralHit] != 1 {
		t.Errorf("summary = %v", ch.Summary)
	}
	if report.Summary.TotalOutliersFound != 1 || report.Summary.ChannelsWithOutliers != 1 {
		t.Errorf("report summary = %+v", report.Summary)
	}
}

func TestAnalyze_InsufficientBaseline(t *testing.T) {
	healthy := model.ChannelVideos{URL: "ok", Videos: append(baselineVideos(), video("r1", 2, 200, 1, 1))}
	thin := model.ChannelVideos{URL: "thin", Videos: []model.VideoMetric{
		video("b1", 20, 1000, 0, 0),
		video("b2", 15, 1000, 0, 0),
		video("r1", 3, 1000, 0, 0),
	}}

	report := Analyze([]model.ChannelVideos{thin, healthy}, analysisNow)
	if got := report.Channels[0]; got.ErrorCode != CodeInsufficientData || got.Baseline != nil {
		t.Errorf("thin channel: code %q baseline %v", got.ErrorCode, got.Baseline)
	}
	if got := report.Channels[1]; got.ErrorCode != "" || len(got.Videos) != 1 {
		t.Errorf("healthy channel affected: code %q, %d videos", got.ErrorCode, len(got.Videos))
	}
	if report.Summary.ChannelsFailed != 1 {
		t.Errorf("ChannelsFailed = %d, want 1", report.Summary.ChannelsFailed)
	}
}

func TestAnalyze_NoRecentVideos(t *testing.T) {
	report := Analyze([]model.ChannelVideos{{URL: "u", Videos: baselineVideos()}}, analysisNow)
	ch := report.Channels[0]
	if ch.ErrorCode != "" || ch.Baseline == nil {
		t.Fatalf("expected baseline without error, got code %q", ch.ErrorCode)
	}
	if ch.Videos == nil || len(ch.Videos) != 0 {
		t.Errorf("videos = %v, want empty list", ch.Videos)
	}
}

func TestAnalyze_FetchErrors(t *testing.T) {
	report := Analyze([]model.ChannelVideos{
		{URL: "a", Err: fmt.Errorf("resolve: %w", youtube.ErrChannelNotResolved)},
		{URL: "b", Err: errors.New("quota exceeded")},
		{URL: "c", Err: fmt.Errorf("resolve channel c: %w", context.DeadlineExceeded)},
	}, analysisNow)

	if got := report.Channels[0].ErrorCode; got != CodeChannelNotFound {
		t.Errorf("code = %q, want %q", got, CodeChannelNotFound)
	}
	if got := report.Channels[1].ErrorCode; got != CodeFetchFailed {
		t.Errorf("code = %q, want %q", got, CodeFetchFailed)
	}
	if got := report.Channels[2].ErrorCode; got != CodeTimeout {
		t.Errorf("code = %q, want %q", got, CodeTimeout)
	}
	if report.Summary.ChannelsFailed != 3 {
		t.Errorf("ChannelsFailed = %d, want 3", report.Summary.ChannelsFailed)
	}
}

func TestAnalyze_SortedByAbsoluteZ(t *testing.T) {
	videos := append(baselineVideos(),
		video("normal", 5, 500, 0, 0), // z 0
		video("down", 5, 400, 0, 0),   // z -2
		video("viral", 5, 875, 0, 0),  // z 7.5
	)
	report := Analyze([]model.ChannelVideos{{URL: "u", Videos: videos}}, analysisNow)

	var order []string
	for _, v := range report.Channels[0].Videos {
		order = append(order, v.VideoID)
	}
	want := []string{"viral", "down", "normal"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestAnalyze_SummaryCountsAddUp(t *testing.T) {
	chA := model.ChannelVideos{URL: "a", Videos: append(baselineVideos(),
		video("a1", 5, 875, 0, 0), video("a2", 5, 500, 0, 0), video("a3", 5, 250, 0, 0))}
	chB := model.ChannelVideos{URL: "b", Videos: append(baselineVideos(),
		video("b4", 3, 300, 0, 0), video("b5", 1, 120, 0, 0))}

	report := Analyze([]model.ChannelVideos{chA, chB}, analysisNow)
	if report.Summary.TotalVideosAnalyzed != 5 {
		t.Errorf("TotalVideosAnalyzed = %d, want 5", report.Summary.TotalVideosAnalyzed)
	}
	for _, ch := range report.Channels {
		sum := 0
		for _, n := range ch.Summary {
			sum += n
		}
		if sum != len(ch.Videos) {
			t.Errorf("channel %s: summary sums to %d, %d videos", ch.ChannelURL, sum, len(ch.Videos))
		}
	}
}

func TestElapsedDaysBoundary(t *testing.T) {
	tests := []struct {
		name string
		age  time.Duration
		want int
	}{
		{"just published", time.Minute, 0},
		{"one day", 24 * time.Hour, 1},
		{"almost two weeks", 14*24*time.Hour - time.Hour, 13},
		{"two weeks", 14 * 24 * time.Hour, 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ElapsedDays(analysisNow.Add(-tt.age), analysisNow); got != tt.want {
				t.Errorf("ElapsedDays = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeMetrics(t *testing.T) {
	t.Run("zero views", func(t *testing.T) {
		m := ComputeMetrics(video("z", 3, 0, 0, 0), analysisNow)
		if m.ViewsPerDay != 0 || m.EngagementRate != 0 || m.LikeRatio != 0 || m.CommentRatio != 0 {
			t.Errorf("metrics = %+v, want all zero", m)
		}
	})
	t.Run("same day counts as one day", func(t *testing.T) {
		v := video("new", 0, 300, 0, 0)
		v.PublishedAt = analysisNow.Add(-2 * time.Hour)
		m := ComputeMetrics(v, analysisNow)
		if m.DaysSincePublished != 1 || m.ViewsPerDay != 300 {
			t.Errorf("metrics = %+v, want 1 day and 300 views/day", m)
		}
	})
	t.Run("ratios", func(t *testing.T) {
		m := ComputeMetrics(video("r", 2, 1000, 40, 10), analysisNow)
		if m.ViewsPerDay != 500 || m.EngagementRate != 5 || m.LikeRatio != 4 || m.CommentRatio != 1 {
			t.Errorf("metrics = %+v", m)
		}
	})
}

func TestOutlierTypeFor(t *testing.T) {
	tests := []struct {
		z    float64
		want model.OutlierType
		conf model.Confidence
	}{
		{3.1, model.OutlierViralHit, model.ConfidenceHigh},
		{2.5, model.OutlierViralHit, model.ConfidenceHigh},
		{2.49, model.OutlierTrendingUp, model.ConfidenceMedium},
		{2.0, model.OutlierTrendingUp, model.ConfidenceMedium},
		{1.99, model.OutlierTrendingUp, model.ConfidenceLow},
		{1.5, model.OutlierTrendingUp, model.ConfidenceLow},
		{1.49, model.OutlierNormal, model.ConfidenceLow},
		{0, model.OutlierNormal, model.ConfidenceLow},
		{-1.49, model.OutlierNormal, model.ConfidenceLow},
		{-1.5, model.OutlierTrendingDown, model.ConfidenceLow},
		{-2.49, model.OutlierTrendingDown, model.ConfidenceMedium},
		{-2.5, model.OutlierUnderperformer, model.ConfidenceHigh},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("z=%v", tt.z), func(t *testing.T) {
			if got := OutlierTypeFor(tt.z); got != tt.want {
				t.Errorf("OutlierTypeFor(%v) = %s, want %s", tt.z, got, tt.want)
			}
			if got := ConfidenceFor(tt.z); got != tt.conf {
				t.Errorf("ConfidenceFor(%v) = %s, want %s", tt.z, got, tt.conf)
			}
		})
	}
}

func TestClassify_ZeroBaselineMean(t *testing.T) {
	base := model.BaselineStatistics{}
	c, z := Classify(model.DerivedMetrics{ViewsPerDay: 50}, base)
	if z != 0 || c.ViewsPercentageDiff != 0 {
		t.Errorf("z = %v, pct = %v, want both 0", z, c.ViewsPercentageDiff)
	}
}

func TestClassify_ViralFromStats(t *testing.T) {
	base := model.BaselineStatistics{ViewsPerDay: model.MetricStats{Mean: 100, StdDev: 20}}
	c, z := Classify(model.DerivedMetrics{ViewsPerDay: 250}, base)
	if z != 7.5 || c.ViewsZScore != 7.5 {
		t.Errorf("z = %v (%v), want 7.5", z, c.ViewsZScore)
	}
	if c.OutlierType != model.OutlierViralHit || c.ConfidenceLevel != model.ConfidenceHigh {
		t.Errorf("got %s/%s, want viral_hit/high", c.OutlierType, c.ConfidenceLevel)
	}
	if c.ViewsPercentageDiff != 150 || c.BaselineViewsPerDay != 100 {
		t.Errorf("pct = %v baseline = %v", c.ViewsPercentageDiff, c.BaselineViewsPerDay)
	}
}
