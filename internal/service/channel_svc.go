package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/youtube"
)

// ChannelService manages the channels saved for recurring analysis.
type ChannelService struct {
	store   ChannelStore
	fetcher ChannelFetcher
	cache   *CacheService
}

func NewChannelService(store ChannelStore, fetcher ChannelFetcher, cache *CacheService) *ChannelService {
	return &ChannelService{store: store, fetcher: fetcher, cache: cache}
}

func (s *ChannelService) List(ctx context.Context) ([]model.TrackedChannel, error) {
	return s.store.List(ctx)
}

// Track resolves url, loads its metadata and saves it as an active channel.
// Tracking an already saved URL refreshes its metadata.
func (s *ChannelService) Track(ctx context.Context, url string) (*model.TrackedChannel, error) {
	if s.fetcher == nil {
		return nil, ErrDisabled
	}
	clean := youtube.CleanURL(url)
	if clean == "" {
		return nil, fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}

	id, ok := s.cache.GetChannelID(ctx, clean)
	if !ok {
		var err error
		if id, err = s.fetcher.ResolveChannelID(ctx, clean); err != nil {
			return nil, err
		}
		if err := s.cache.SetChannelID(ctx, clean, id); err != nil {
			log.Warn().Err(err).Msg("cache: resolution set error")
		}
	}

	meta, err := s.fetcher.ChannelMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	ch, err := s.store.Save(ctx, clean, *meta)
	if err != nil {
		return nil, err
	}
	log.Info().Str("channel_id", id).Str("name", meta.ChannelName).Msg("channels: tracking channel")
	return ch, nil
}

// SetActive enables or disables recurring analysis of a channel.
func (s *ChannelService) SetActive(ctx context.Context, id int64, active bool) error {
	return s.store.SetActive(ctx, id, active)
}

func (s *ChannelService) Delete(ctx context.Context, id int64) (bool, error) {
	return s.store.Delete(ctx, id)
}
