package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/youtube"
)

// Analysis windows. Videos at least BaselineDays old form the channel's
// baseline; younger ones are classified against it.
const (
	AnalysisWindowDays  = 28
	BaselineDays        = 14
	MinBaselineVideos   = 3
	MaxVideosPerChannel = 100
)

// Z-score thresholds on views per day.
const (
	viralZ    = 2.5
	trendingZ = 1.5
	mediumZ   = 2.0
)

// Per-channel error codes reported in an OutlierReport.
const (
	CodeInsufficientData = "insufficient_data"
	CodeChannelNotFound  = "channel_not_found"
	CodeTimeout          = "timeout"
	CodeFetchFailed      = "fetch_failed"
)

// Analyze classifies the recent videos of each channel against the channel's
// own baseline. It is pure: all time arithmetic is relative to now.
func Analyze(channels []model.ChannelVideos, now time.Time) model.OutlierReport {
	report := model.OutlierReport{
		Channels: make([]model.ChannelOutliers, 0, len(channels)),
		Summary: model.AnalysisSummary{
			TotalChannels: len(channels),
			Period: model.AnalysisPeriod{
				BaselinePeriod: fmt.Sprintf("days %d-%d", BaselineDays, AnalysisWindowDays),
				AnalysisPeriod: fmt.Sprintf("days 0-%d", BaselineDays-1),
				CurrentTime:    now,
			},
		},
	}

	for _, ch := range channels {
		result := analyzeChannel(ch, now)
		if result.ErrorCode != "" {
			report.Summary.ChannelsFailed++
		}
		if n := result.OutlierCount(); n > 0 {
			report.Summary.ChannelsWithOutliers++
			report.Summary.TotalOutliersFound += n
		}
		report.Summary.TotalVideosAnalyzed += len(result.Videos)
		report.Channels = append(report.Channels, result)
	}
	return report
}

func analyzeChannel(ch model.ChannelVideos, now time.Time) model.ChannelOutliers {
	out := model.ChannelOutliers{
		ChannelID:       ch.ChannelID,
		ChannelName:     ch.ChannelName,
		ChannelURL:      ch.URL,
		SubscriberCount: ch.SubscriberCount,
		Videos:          []model.AnalyzedVideo{},
		Summary:         emptySummary(),
	}
	if ch.Err != nil {
		out.ErrorCode = errorCode(ch.Err)
		out.Error = ch.Err.Error()
		return out
	}

	var baseline, recent []model.VideoMetric
	for _, v := range ch.Videos {
		if ElapsedDays(v.PublishedAt, now) >= BaselineDays {
			baseline = append(baseline, v)
		} else {
			recent = append(recent, v)
		}
	}

	if len(baseline) < MinBaselineVideos {
		out.ErrorCode = CodeInsufficientData
		out.Error = fmt.Sprintf("need at least %d baseline videos, found %d", MinBaselineVideos, len(baseline))
		return out
	}

	stats := BaselineStats(baseline, now)
	rounded := roundStats(stats)
	out.Baseline = &rounded

	type scored struct {
		video model.AnalyzedVideo
		z     float64
	}
	results := make([]scored, 0, len(recent))
	for _, v := range recent {
		m := ComputeMetrics(v, now)
		c, z := Classify(m, stats)
		results = append(results, scored{
			video: model.AnalyzedVideo{
				VideoID:        v.VideoID,
				Title:          v.Title,
				PublishedAt:    v.PublishedAt,
				VideoURL:       v.VideoURL,
				Thumbnail:      v.Thumbnail,
				Views:          v.Views,
				Likes:          v.Likes,
				Comments:       v.Comments,
				Metrics:        roundMetrics(m),
				Classification: c,
			},
			z: z,
		})
		out.Summary[c.OutlierType]++
	}

	sort.SliceStable(results, func(i, j int) bool {
		return math.Abs(results[i].z) > math.Abs(results[j].z)
	})
	for _, r := range results {
		out.Videos = append(out.Videos, r.video)
	}
	return out
}

func emptySummary() map[model.OutlierType]int {
	s := make(map[model.OutlierType]int, len(model.OutlierTypes))
	for _, t := range model.OutlierTypes {
		s[t] = 0
	}
	return s
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, youtube.ErrChannelNotResolved):
		return CodeChannelNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	default:
		return CodeFetchFailed
	}
}

// ElapsedDays is the number of whole days between published and now.
func ElapsedDays(published, now time.Time) int {
	return int(math.Floor(now.Sub(published).Hours() / 24))
}

// ComputeMetrics derives the normalized engagement figures of v. Videos
// younger than a day count as one day old; ratios are 0 for unwatched videos.
func ComputeMetrics(v model.VideoMetric, now time.Time) model.DerivedMetrics {
	days := max(1, ElapsedDays(v.PublishedAt, now))
	m := model.DerivedMetrics{
		DaysSincePublished: days,
		ViewsPerDay:        float64(v.Views) / float64(days),
	}
	if v.Views > 0 {
		views := float64(v.Views)
		m.EngagementRate = float64(v.Likes+v.Comments) / views * 100
		m.LikeRatio = float64(v.Likes) / views * 100
		m.CommentRatio = float64(v.Comments) / views * 100
	}
	return m
}

// BaselineStats summarizes the baseline videos of a channel.
func BaselineStats(videos []model.VideoMetric, now time.Time) model.BaselineStatistics {
	vpd := make([]float64, len(videos))
	eng := make([]float64, len(videos))
	like := make([]float64, len(videos))
	comment := make([]float64, len(videos))
	for i, v := range videos {
		m := ComputeMetrics(v, now)
		vpd[i], eng[i], like[i], comment[i] = m.ViewsPerDay, m.EngagementRate, m.LikeRatio, m.CommentRatio
	}

	views := summarize(vpd)
	mid := median(vpd)
	views.Median = &mid
	return model.BaselineStatistics{
		ViewsPerDay:        views,
		EngagementRate:     summarize(eng),
		LikeRatio:          summarize(like),
		CommentRatio:       summarize(comment),
		BaselineVideoCount: len(videos),
	}
}

// Classify grades a video against the baseline. The returned z is the
// unrounded views-per-day z-score used for ordering.
func Classify(m model.DerivedMetrics, base model.BaselineStatistics) (model.OutlierClassification, float64) {
	z := ZScore(m.ViewsPerDay, base.ViewsPerDay.Mean, base.ViewsPerDay.StdDev)
	engZ := ZScore(m.EngagementRate, base.EngagementRate.Mean, base.EngagementRate.StdDev)

	var pctDiff float64
	if base.ViewsPerDay.Mean > 0 {
		pctDiff = (m.ViewsPerDay - base.ViewsPerDay.Mean) / base.ViewsPerDay.Mean * 100
	}

	return model.OutlierClassification{
		OutlierType:         OutlierTypeFor(z),
		ConfidenceLevel:     ConfidenceFor(z),
		ViewsZScore:         round(z, 2),
		EngagementZScore:    round(engZ, 2),
		ViewsPercentageDiff: round(pctDiff, 1),
		BaselineViewsPerDay: round(base.ViewsPerDay.Mean, 2),
		BaselineEngagement:  round(base.EngagementRate.Mean, 3),
	}, z
}

// OutlierTypeFor maps a views z-score to its classification.
func OutlierTypeFor(z float64) model.OutlierType {
	switch {
	case z >= viralZ:
		return model.OutlierViralHit
	case z >= trendingZ:
		return model.OutlierTrendingUp
	case z <= -viralZ:
		return model.OutlierUnderperformer
	case z <= -trendingZ:
		return model.OutlierTrendingDown
	default:
		return model.OutlierNormal
	}
}

// ConfidenceFor grades |z|.
func ConfidenceFor(z float64) model.Confidence {
	switch a := math.Abs(z); {
	case a >= viralZ:
		return model.ConfidenceHigh
	case a >= mediumZ:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// ZScore is (x-mean)/stddev, or 0 when the baseline has no spread.
func ZScore(x, mean, stddev float64) float64 {
	if stddev == 0 {
		return 0
	}
	return (x - mean) / stddev
}

// summarize returns the mean and sample standard deviation of xs.
func summarize(xs []float64) model.MetricStats {
	if len(xs) == 0 {
		return model.MetricStats{}
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var sd float64
	if len(xs) > 1 {
		var sq float64
		for _, x := range xs {
			sq += (x - mean) * (x - mean)
		}
		sd = math.Sqrt(sq / float64(len(xs)-1))
	}
	return model.MetricStats{Mean: mean, StdDev: sd}
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

func roundMetrics(m model.DerivedMetrics) model.DerivedMetrics {
	m.ViewsPerDay = round(m.ViewsPerDay, 2)
	m.EngagementRate = round(m.EngagementRate, 3)
	m.LikeRatio = round(m.LikeRatio, 3)
	m.CommentRatio = round(m.CommentRatio, 3)
	return m
}

func roundStats(s model.BaselineStatistics) model.BaselineStatistics {
	r := func(m model.MetricStats, places int) model.MetricStats {
		out := model.MetricStats{Mean: round(m.Mean, places), StdDev: round(m.StdDev, places)}
		if m.Median != nil {
			v := round(*m.Median, places)
			out.Median = &v
		}
		return out
	}
	s.ViewsPerDay = r(s.ViewsPerDay, 2)
	s.EngagementRate = r(s.EngagementRate, 3)
	s.LikeRatio = r(s.LikeRatio, 3)
	s.CommentRatio = r(s.CommentRatio, 3)
	return s
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
