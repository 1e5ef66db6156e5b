package model

import "time"

// VideoMetric is the raw engagement snapshot of one YouTube video.
type VideoMetric struct {
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	Views       int64     `json:"view_count"`
	Likes       int64     `json:"like_count"`
	Comments    int64     `json:"comment_count"`
	VideoURL    string    `json:"video_url"`
	Tags        []string  `json:"tags,omitempty"`
	CategoryID  string    `json:"category_id,omitempty"`
}

// DerivedMetrics are the normalized engagement figures of a video.
type DerivedMetrics struct {
	DaysSincePublished int     `json:"days_since_published"`
	ViewsPerDay        float64 `json:"views_per_day"`
	EngagementRate     float64 `json:"engagement_rate"`
	LikeRatio          float64 `json:"like_ratio"`
	CommentRatio       float64 `json:"comment_ratio"`
}

// MetricStats summarizes one metric over the baseline period.
type MetricStats struct {
	Mean   float64  `json:"mean"`
	Median *float64 `json:"median,omitempty"`
	StdDev float64  `json:"std_dev"`
}

// BaselineStatistics describe a channel's typical performance.
type BaselineStatistics struct {
	ViewsPerDay        MetricStats `json:"views_per_day"`
	EngagementRate     MetricStats `json:"engagement_rate"`
	LikeRatio          MetricStats `json:"like_ratio"`
	CommentRatio       MetricStats `json:"comment_ratio"`
	BaselineVideoCount int         `json:"baseline_video_count"`
}

// OutlierType is the classification of an analysis-period video.
type OutlierType string

const (
	OutlierViralHit       OutlierType = "viral_hit"
	OutlierTrendingUp     OutlierType = "trending_up"
	OutlierNormal         OutlierType = "normal"
	OutlierTrendingDown   OutlierType = "trending_down"
	OutlierUnderperformer OutlierType = "underperformer"
)

// OutlierTypes lists every classification in display order.
var OutlierTypes = []OutlierType{
	OutlierViralHit, OutlierTrendingUp, OutlierNormal, OutlierTrendingDown, OutlierUnderperformer,
}

// Confidence grades how far a video sits from its baseline.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// OutlierClassification is the verdict for one analysis-period video.
type OutlierClassification struct {
	OutlierType         OutlierType `json:"outlier_type"`
	ConfidenceLevel     Confidence  `json:"confidence_level"`
	ViewsZScore         float64     `json:"views_z_score"`
	EngagementZScore    float64     `json:"engagement_z_score"`
	ViewsPercentageDiff float64     `json:"views_percentage_diff"`
	BaselineViewsPerDay float64     `json:"views_per_day_baseline"`
	BaselineEngagement  float64     `json:"engagement_rate_baseline"`
}

// AnalyzedVideo pairs a video with its metrics and classification.
type AnalyzedVideo struct {
	VideoID        string                `json:"video_id"`
	Title          string                `json:"title"`
	PublishedAt    time.Time             `json:"published_at"`
	VideoURL       string                `json:"video_url"`
	Thumbnail      string                `json:"thumbnail,omitempty"`
	Views          int64                 `json:"view_count"`
	Likes          int64                 `json:"like_count"`
	Comments       int64                 `json:"comment_count"`
	Metrics        DerivedMetrics        `json:"current_metrics"`
	Classification OutlierClassification `json:"outlier_analysis"`
}

// ChannelVideos is the analyzer input for one channel.
type ChannelVideos struct {
	URL             string        `json:"url"`
	ChannelID       string        `json:"channel_id"`
	ChannelName     string        `json:"channel_name"`
	SubscriberCount int64         `json:"subscriber_count"`
	Videos          []VideoMetric `json:"videos"`
	// Err is set when the channel could not be fetched; the analyzer reports it as is.
	Err error `json:"-"`
}

// ChannelOutliers is the per-channel section of an OutlierReport.
type ChannelOutliers struct {
	ChannelID       string              `json:"channel_id,omitempty"`
	ChannelName     string              `json:"channel_name,omitempty"`
	ChannelURL      string              `json:"channel_url"`
	SubscriberCount int64               `json:"subscriber_count"`
	Baseline        *BaselineStatistics `json:"baseline_stats,omitempty"`
	Videos          []AnalyzedVideo     `json:"videos_analyzed"`
	Summary         map[OutlierType]int `json:"outlier_summary"`
	ErrorCode       string              `json:"error_code,omitempty"`
	Error           string              `json:"error,omitempty"`
}

// OutlierCount is the number of non-normal videos in the channel.
func (c ChannelOutliers) OutlierCount() int {
	n := 0
	for t, count := range c.Summary {
		if t != OutlierNormal {
			n += count
		}
	}
	return n
}

// AnalysisPeriod documents the windows used by a report.
type AnalysisPeriod struct {
	BaselinePeriod string    `json:"baseline_period"`
	AnalysisPeriod string    `json:"analysis_period"`
	CurrentTime    time.Time `json:"current_time"`
}

// AnalysisSummary aggregates a report across channels.
type AnalysisSummary struct {
	TotalChannels        int            `json:"total_channels"`
	ChannelsWithOutliers int            `json:"channels_with_outliers"`
	ChannelsFailed       int            `json:"channels_failed"`
	TotalVideosAnalyzed  int            `json:"total_videos_analyzed"`
	TotalOutliersFound   int            `json:"total_outliers_found"`
	Period               AnalysisPeriod `json:"analysis_period"`
}

// OutlierReport is the result of one outlier analysis run.
type OutlierReport struct {
	Channels []ChannelOutliers `json:"channels"`
	Summary  AnalysisSummary   `json:"analysis_summary"`
}

// ChannelMetadata is what the YouTube API reports about a channel.
type ChannelMetadata struct {
	ChannelID       string `json:"channel_id"`
	ChannelName     string `json:"channel_name"`
	Description     string `json:"description,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
	SubscriberCount int64  `json:"subscriber_count"`
	VideoCount      int64  `json:"video_count"`
	ViewCount       int64  `json:"view_count"`
	CustomURL       string `json:"custom_url,omitempty"`
	Country         string `json:"country,omitempty"`
	PublishedAt     string `json:"published_at,omitempty"`
	Keywords        string `json:"keywords,omitempty"`
	BannerURL       string `json:"banner_url,omitempty"`
}

// TrackedChannel is a channel saved for recurring analysis.
type TrackedChannel struct {
	ID              int64      `json:"id"`
	URL             string     `json:"url"`
	ChannelID       string     `json:"channel_id"`
	ChannelName     string     `json:"channel_name"`
	SubscriberCount int64      `json:"subscriber_count"`
	Description     string     `json:"description,omitempty"`
	ThumbnailURL    string     `json:"thumbnail_url,omitempty"`
	Active          bool       `json:"active"`
	LastAnalyzedAt  *time.Time `json:"last_analyzed_at,omitempty"`
	LastVideoCount  int        `json:"last_video_count"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ChannelVideoListing is one channel in a multi-channel listing.
type ChannelVideoListing struct {
	URL        string           `json:"url"`
	ChannelID  string           `json:"channel_id,omitempty"`
	Metadata   *ChannelMetadata `json:"metadata,omitempty"`
	Videos     []VideoMetric    `json:"videos"`
	VideoCount int              `json:"video_count"`
	SavedToDB  bool             `json:"saved_to_db"`
	Error      string           `json:"error,omitempty"`
}

// ListingSummary aggregates a multi-channel listing.
type ListingSummary struct {
	ChannelsProcessed  int `json:"channels_processed"`
	ChannelsSuccessful int `json:"channels_successful"`
	ChannelsFailed     int `json:"channels_failed"`
	TotalVideosFound   int `json:"total_videos_found"`
	ChannelsSaved      int `json:"channels_saved"`
}

// VideoListing is the response of a multi-channel video fetch.
type VideoListing struct {
	Channels []ChannelVideoListing `json:"channels"`
	From     time.Time             `json:"from"`
	To       time.Time             `json:"to"`
	DaysBack int                   `json:"days_back"`
	Summary  ListingSummary        `json:"summary"`
}

// AnalyzeRequest is the body of POST /api/analytics/outliers and /videos.
type AnalyzeRequest struct {
	ChannelURLs      []string `json:"channel_urls"`
	UseSavedChannels *bool    `json:"use_saved_channels,omitempty"`
	DaysBack         int      `json:"days_back,omitempty"`
	MaxPerChannel    int      `json:"max_videos_per_channel,omitempty"`
}
