package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/youtube"
	"github.com/mathieu-neron/contentpilot/contentpilot-go/pkg/hash"
)

// Redis key TTLs.
const (
	ReportCacheTTL     = 15 * time.Minute
	ResolutionCacheTTL = 24 * time.Hour
)

// CacheService provides a Redis cache-aside layer for outlier reports and
// channel URL resolutions.
type CacheService struct {
	rdb    *redis.Client
	hits   prometheus.Counter
	misses prometheus.Counter
}

// NewCacheService creates a new CacheService. If redisURL is empty or connection
// fails, it returns a CacheService with a nil client (cache operations become no-ops).
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		return &CacheService{}
	}

	log.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// WithCounters attaches hit and miss counters.
func (c *CacheService) WithCounters(hits, misses prometheus.Counter) *CacheService {
	c.hits, c.misses = hits, misses
	return c
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// GetReport returns the cached outlier report for the given URL list.
func (c *CacheService) GetReport(ctx context.Context, urls []string) (*model.OutlierReport, bool) {
	var report model.OutlierReport
	if !c.getJSON(ctx, reportKey(urls), &report) {
		return nil, false
	}
	return &report, true
}

// SetReport caches an outlier report.
func (c *CacheService) SetReport(ctx context.Context, urls []string, report model.OutlierReport) error {
	return c.setJSON(ctx, reportKey(urls), report, ReportCacheTTL)
}

// GetChannelID returns a cached URL resolution.
func (c *CacheService) GetChannelID(ctx context.Context, url string) (string, bool) {
	if c == nil || c.rdb == nil {
		return "", false
	}
	id, err := c.rdb.Get(ctx, resolutionKey(url)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("cache: resolution get error")
		}
		c.count(false)
		return "", false
	}
	c.count(true)
	return id, true
}

// SetChannelID caches a URL resolution.
func (c *CacheService) SetChannelID(ctx context.Context, url, channelID string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Set(ctx, resolutionKey(url), channelID, ResolutionCacheTTL).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *CacheService) getJSON(ctx context.Context, key string, dst any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("cache: get error")
		}
		c.count(false)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: corrupt entry")
		c.count(false)
		return false
	}
	c.count(true)
	return true
}

func (c *CacheService) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, ttl).Err()
}

func (c *CacheService) count(hit bool) {
	switch {
	case hit && c.hits != nil:
		c.hits.Inc()
	case !hit && c.misses != nil:
		c.misses.Inc()
	}
}

// reportKey ignores URL formatting but keeps order, since the report lists
// channels in request order.
func reportKey(urls []string) string {
	clean := make([]string, len(urls))
	for i, u := range urls {
		clean[i] = youtube.CleanURL(u)
	}
	return "outliers:" + hash.SHA256Hex(strings.Join(clean, "\n"))
}

func resolutionKey(url string) string {
	return "ytchannel:" + hash.HashPrefix(youtube.CleanURL(url), 32)
}
