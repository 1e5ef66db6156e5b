package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/youtube"
)

// Video listing defaults.
const (
	DefaultListingDays       = 14
	MaxListingDays           = 90
	DefaultListingPerChannel = 50
)

// ChannelFetcher reads channel data from YouTube. Implemented by youtube.Client.
type ChannelFetcher interface {
	ResolveChannelID(ctx context.Context, url string) (string, error)
	ChannelMetadata(ctx context.Context, channelID string) (*model.ChannelMetadata, error)
	RecentVideos(ctx context.Context, channelID string, since time.Time, limit int) ([]model.VideoMetric, error)
}

// ChannelStore persists tracked channels. Implemented by repository.ChannelRepo.
type ChannelStore interface {
	Save(ctx context.Context, url string, meta model.ChannelMetadata) (*model.TrackedChannel, error)
	ListActiveURLs(ctx context.Context) ([]string, error)
	UpdateAnalysisStats(ctx context.Context, url string, videoCount int, at time.Time) error
	List(ctx context.Context) ([]model.TrackedChannel, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type OutlierService struct {
	fetcher     ChannelFetcher
	channels    ChannelStore
	cache       *CacheService
	concurrency int
	now         func() time.Time
}

// NewOutlierService wires the analyzer. fetcher may be nil when no YouTube
// key is configured; analysis then returns ErrDisabled.
func NewOutlierService(fetcher ChannelFetcher, channels ChannelStore, cache *CacheService, concurrency int) *OutlierService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &OutlierService{
		fetcher:     fetcher,
		channels:    channels,
		cache:       cache,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// fetched is everything gathered for one channel URL.
type fetched struct {
	input model.ChannelVideos
	meta  *model.ChannelMetadata
	saved bool
}

// AnalyzeChannels runs outlier analysis on urls, or on the saved active
// channels when urls is empty and useSaved is set. A channel that cannot be
// fetched is reported on its own entry; the others are unaffected.
func (s *OutlierService) AnalyzeChannels(ctx context.Context, urls []string, useSaved bool) (model.OutlierReport, error) {
	if s.fetcher == nil {
		return model.OutlierReport{}, ErrDisabled
	}
	urls, err := s.targetURLs(ctx, urls, useSaved)
	if err != nil {
		return model.OutlierReport{}, err
	}
	if cached, ok := s.cache.GetReport(ctx, urls); ok {
		log.Debug().Int("channels", len(urls)).Msg("outliers: served from cache")
		return *cached, nil
	}

	now := s.now()
	since := now.AddDate(0, 0, -AnalysisWindowDays)
	results, err := s.fetchAll(ctx, urls, since, MaxVideosPerChannel)
	if err != nil {
		return model.OutlierReport{}, err
	}

	inputs := make([]model.ChannelVideos, len(results))
	complete := true
	for i, r := range results {
		inputs[i] = r.input
		if r.input.Err != nil {
			complete = false
		}
	}
	report := Analyze(inputs, now)

	if complete {
		if err := s.cache.SetReport(ctx, urls, report); err != nil {
			log.Warn().Err(err).Msg("cache: report set error")
		}
	}
	log.Info().
		Int("channels", report.Summary.TotalChannels).
		Int("failed", report.Summary.ChannelsFailed).
		Int("videos", report.Summary.TotalVideosAnalyzed).
		Int("outliers", report.Summary.TotalOutliersFound).
		Msg("outliers: analysis complete")
	return report, nil
}

// ListRecentVideos returns the videos each channel published in the last
// daysBack days.
func (s *OutlierService) ListRecentVideos(ctx context.Context, req model.AnalyzeRequest) (model.VideoListing, error) {
	if s.fetcher == nil {
		return model.VideoListing{}, ErrDisabled
	}
	useSaved := req.UseSavedChannels == nil || *req.UseSavedChannels
	urls, err := s.targetURLs(ctx, req.ChannelURLs, useSaved)
	if err != nil {
		return model.VideoListing{}, err
	}

	daysBack := req.DaysBack
	switch {
	case daysBack <= 0:
		daysBack = DefaultListingDays
	case daysBack > MaxListingDays:
		daysBack = MaxListingDays
	}
	perChannel := req.MaxPerChannel
	switch {
	case perChannel <= 0:
		perChannel = DefaultListingPerChannel
	case perChannel > MaxVideosPerChannel:
		perChannel = MaxVideosPerChannel
	}

	now := s.now()
	since := now.AddDate(0, 0, -daysBack)
	results, err := s.fetchAll(ctx, urls, since, perChannel)
	if err != nil {
		return model.VideoListing{}, err
	}

	listing := model.VideoListing{
		Channels: make([]model.ChannelVideoListing, 0, len(results)),
		From:     since,
		To:       now,
		DaysBack: daysBack,
		Summary:  model.ListingSummary{ChannelsProcessed: len(results)},
	}
	for _, r := range results {
		entry := model.ChannelVideoListing{
			URL:        r.input.URL,
			ChannelID:  r.input.ChannelID,
			Metadata:   r.meta,
			Videos:     r.input.Videos,
			VideoCount: len(r.input.Videos),
			SavedToDB:  r.saved,
		}
		if entry.Videos == nil {
			entry.Videos = []model.VideoMetric{}
		}
		if r.input.Err != nil {
			entry.Error = r.input.Err.Error()
			listing.Summary.ChannelsFailed++
		} else {
			listing.Summary.ChannelsSuccessful++
		}
		if r.saved {
			listing.Summary.ChannelsSaved++
		}
		listing.Summary.TotalVideosFound += entry.VideoCount
		listing.Channels = append(listing.Channels, entry)
	}
	return listing, nil
}

// targetURLs cleans and de-duplicates urls, falling back to the saved
// active channels.
func (s *OutlierService) targetURLs(ctx context.Context, urls []string, useSaved bool) ([]string, error) {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		clean := youtube.CleanURL(u)
		if clean == "" || seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	if len(out) == 0 && useSaved && s.channels != nil {
		saved, err := s.channels.ListActiveURLs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list saved channels: %w", err)
		}
		out = saved
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no channels to analyze, add channels first", ErrInvalidRequest)
	}
	return out, nil
}

// fetchAll fetches every channel with bounded concurrency. Results keep the
// order of urls. Per-channel failures are recorded on the result; only
// cancellation of ctx fails the call.
func (s *OutlierService) fetchAll(ctx context.Context, urls []string, since time.Time, limit int) ([]fetched, error) {
	results := make([]fetched, len(urls))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = s.fetchChannel(ctx, u, since, limit)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *OutlierService) fetchChannel(ctx context.Context, url string, since time.Time, limit int) fetched {
	out := fetched{input: model.ChannelVideos{URL: url}}
	fail := func(err error) fetched {
		log.Warn().Err(err).Str("url", url).Msg("outliers: channel fetch failed")
		out.input.Err = err
		return out
	}

	id, err := s.resolve(ctx, url)
	if err != nil {
		return fail(err)
	}
	out.input.ChannelID = id

	meta, err := s.fetcher.ChannelMetadata(ctx, id)
	if err != nil {
		if errors.Is(err, youtube.ErrChannelNotFound) {
			err = fmt.Errorf("%w: %w", youtube.ErrChannelNotResolved, err)
		}
		return fail(err)
	}
	out.meta = meta
	out.input.ChannelName = meta.ChannelName
	out.input.SubscriberCount = meta.SubscriberCount

	if s.channels != nil {
		if _, err := s.channels.Save(ctx, url, *meta); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("outliers: save channel failed")
		} else {
			out.saved = true
		}
	}

	videos, err := s.fetcher.RecentVideos(ctx, id, since, limit)
	if err != nil {
		return fail(fmt.Errorf("fetch videos: %w", err))
	}
	out.input.Videos = videos

	if out.saved {
		if err := s.channels.UpdateAnalysisStats(ctx, url, len(videos), s.now()); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("outliers: update channel stats failed")
		}
	}
	return out
}

// resolve maps a URL to a channel id through the resolution cache.
func (s *OutlierService) resolve(ctx context.Context, url string) (string, error) {
	if id, ok := s.cache.GetChannelID(ctx, url); ok {
		return id, nil
	}
	id, err := s.fetcher.ResolveChannelID(ctx, url)
	if err != nil {
		return "", err
	}
	if err := s.cache.SetChannelID(ctx, url, id); err != nil {
		log.Warn().Err(err).Msg("cache: resolution set error")
	}
	return id, nil
}
