package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
)

var (
	// ErrChannelNotResolved is returned when a URL maps to no channel.
	ErrChannelNotResolved = errors.New("channel could not be resolved")
	// ErrChannelNotFound is returned when a channel id has no channel.
	ErrChannelNotFound = errors.New("channel not found")
)

const (
	searchPageSize    = 50
	videosBatchSize   = 50
	descriptionMaxLen = 1000
	videoDescMaxLen   = 500
	maxTags           = 10
	defaultTimeout    = 30 * time.Second
	defaultRatePerSec = 5
	defaultMaxRetries = 3
	watchURLPrefix    = "https://www.youtube.com/watch?v="
)

// Options configure a Client.
type Options struct {
	APIKey     string
	Endpoint   string // overrides the API base URL, used by tests
	HTTPClient *http.Client
	RatePerSec float64
	Timeout    time.Duration
	MaxRetries uint64
	// BackOff overrides the retry schedule. Nil means exponential.
	BackOff func() backoff.BackOff
}

// Client reads channel and video data from the YouTube Data API v3.
type Client struct {
	svc        *yt.Service
	limiter    *rate.Limiter
	timeout    time.Duration
	maxRetries uint64
	backOff    func() backoff.BackOff
}

// New creates a Client. Every outbound call is rate limited, retried on
// transient errors and bounded by the request timeout.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("youtube: api key required")
	}
	clientOpts := []option.ClientOption{option.WithAPIKey(opts.APIKey)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	svc, err := yt.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	c := &Client{
		svc:        svc,
		limiter:    rate.NewLimiter(rate.Limit(defaultRatePerSec), defaultRatePerSec),
		timeout:    defaultTimeout,
		maxRetries: defaultMaxRetries,
		backOff:    opts.BackOff,
	}
	if opts.RatePerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), max(1, int(opts.RatePerSec)))
	}
	if opts.Timeout > 0 {
		c.timeout = opts.Timeout
	}
	if opts.MaxRetries > 0 {
		c.maxRetries = opts.MaxRetries
	}
	if c.backOff == nil {
		c.backOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = c.timeout
			return b
		}
	}
	return c, nil
}

// call runs fn under the rate limiter with retries. Each attempt gets its own
// timeout.
func (c *Client) call(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(c.backOff(), c.maxRetries), ctx)
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		err := fn(callCtx)
		if err == nil {
			return nil
		}
		if !retryable(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		log.Warn().Err(err).Str("call", name).Int("attempt", attempt).Msg("youtube: retrying")
		return err
	}, policy)
}

// retryable reports whether err is worth another attempt. Quota exhaustion
// and client errors are final; server errors, throttling and timeouts are not.
func retryable(err error) bool {
	if errors.Is(err, ErrChannelNotFound) || errors.Is(err, ErrChannelNotResolved) || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
			return true
		}
		for _, e := range apiErr.Errors {
			if e.Reason == "rateLimitExceeded" || e.Reason == "userRateLimitExceeded" {
				return true
			}
		}
		return false
	}
	return true
}

// ResolveChannelID maps a channel URL to its channel id. Direct /channel/ URLs
// need no API call; handles, custom and bare names go through search;
// /user/ names use the forUsername lookup. When the URL form is unknown or
// lookup finds nothing, the whole URL is used as a search query.
func (c *Client) ResolveChannelID(ctx context.Context, rawURL string) (string, error) {
	clean := CleanURL(rawURL)
	identifier, kind, ok := ParseChannelURL(clean)
	if ok {
		id, err := c.resolveIdentifier(ctx, identifier, kind)
		if err != nil && !errors.Is(err, ErrChannelNotResolved) {
			log.Warn().Err(err).Str("kind", string(kind)).Str("identifier", identifier).Msg("youtube: resolve failed, falling back to search")
		}
		if id != "" {
			return id, nil
		}
	}

	// Only an empty search result means the channel does not exist. API and
	// transport failures keep their own cause.
	id, err := c.searchChannel(ctx, clean)
	if err != nil {
		return "", fmt.Errorf("resolve channel %s: %w", rawURL, err)
	}
	if id == "" {
		return "", fmt.Errorf("%w: %s", ErrChannelNotResolved, rawURL)
	}
	return id, nil
}

func (c *Client) resolveIdentifier(ctx context.Context, identifier string, kind Kind) (string, error) {
	switch kind {
	case KindChannelID:
		return identifier, nil
	case KindUsername:
		var id string
		err := c.call(ctx, "channels.forUsername", func(ctx context.Context) error {
			resp, err := c.svc.Channels.List([]string{"id"}).ForUsername(identifier).Context(ctx).Do()
			if err != nil {
				return err
			}
			if len(resp.Items) > 0 {
				id = resp.Items[0].Id
			}
			return nil
		})
		return id, err
	default:
		return c.searchChannel(ctx, identifier)
	}
}

// searchChannel returns the first channel search hit for q, or "" when none.
func (c *Client) searchChannel(ctx context.Context, q string) (string, error) {
	var id string
	err := c.call(ctx, "search.channel", func(ctx context.Context) error {
		resp, err := c.svc.Search.List([]string{"snippet"}).
			Q(q).
			Type("channel").
			MaxResults(1).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		if len(resp.Items) > 0 && resp.Items[0].Snippet != nil {
			id = resp.Items[0].Snippet.ChannelId
		}
		return nil
	})
	return id, err
}

// ChannelMetadata returns the public profile of a channel.
func (c *Client) ChannelMetadata(ctx context.Context, channelID string) (*model.ChannelMetadata, error) {
	var ch *yt.Channel
	err := c.call(ctx, "channels.list", func(ctx context.Context) error {
		resp, err := c.svc.Channels.List([]string{"snippet", "statistics", "brandingSettings"}).
			Id(channelID).
			Context(ctx).
			Do()
		if err != nil {
			return err
		}
		if len(resp.Items) == 0 {
			return fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
		}
		ch = resp.Items[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return channelMetadata(ch), nil
}

func channelMetadata(ch *yt.Channel) *model.ChannelMetadata {
	meta := &model.ChannelMetadata{ChannelID: ch.Id}
	if s := ch.Snippet; s != nil {
		meta.ChannelName = s.Title
		meta.Description = truncateRunes(s.Description, descriptionMaxLen)
		meta.ThumbnailURL = thumbnailURL(s.Thumbnails)
		meta.CustomURL = s.CustomUrl
		meta.Country = s.Country
		meta.PublishedAt = s.PublishedAt
	}
	if st := ch.Statistics; st != nil {
		meta.SubscriberCount = int64(st.SubscriberCount)
		meta.VideoCount = int64(st.VideoCount)
		meta.ViewCount = int64(st.ViewCount)
	}
	if b := ch.BrandingSettings; b != nil {
		if b.Channel != nil {
			meta.Keywords = b.Channel.Keywords
		}
		if b.Image != nil {
			meta.BannerURL = b.Image.BannerExternalUrl
		}
	}
	return meta
}

// RecentVideos returns up to limit videos published at or after since,
// newest first, with their statistics.
func (c *Client) RecentVideos(ctx context.Context, channelID string, since time.Time, limit int) ([]model.VideoMetric, error) {
	ids, err := c.searchVideoIDs(ctx, channelID, since, limit)
	if err != nil {
		return nil, err
	}

	videos := make([]model.VideoMetric, 0, len(ids))
	for start := 0; start < len(ids); start += videosBatchSize {
		batch := ids[start:min(start+videosBatchSize, len(ids))]
		var items []*yt.Video
		err := c.call(ctx, "videos.list", func(ctx context.Context) error {
			resp, err := c.svc.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
				Id(batch...).
				Context(ctx).
				Do()
			if err != nil {
				return err
			}
			items = resp.Items
			return nil
		})
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			v, ok := videoMetric(item)
			// search occasionally returns videos older than publishedAfter
			if !ok || v.PublishedAt.Before(since) {
				continue
			}
			videos = append(videos, v)
		}
	}

	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].PublishedAt.After(videos[j].PublishedAt)
	})
	return videos, nil
}

func (c *Client) searchVideoIDs(ctx context.Context, channelID string, since time.Time, limit int) ([]string, error) {
	var (
		ids       []string
		pageToken string
	)
	for len(ids) < limit {
		pageSize := min(searchPageSize, limit-len(ids))
		var next string
		err := c.call(ctx, "search.videos", func(ctx context.Context) error {
			call := c.svc.Search.List([]string{"id"}).
				ChannelId(channelID).
				Type("video").
				Order("date").
				PublishedAfter(since.UTC().Format(time.RFC3339)).
				MaxResults(int64(pageSize)).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			resp, err := call.Do()
			if err != nil {
				return err
			}
			for _, item := range resp.Items {
				if item.Id != nil && item.Id.VideoId != "" {
					ids = append(ids, item.Id.VideoId)
				}
			}
			next = resp.NextPageToken
			return nil
		})
		if err != nil {
			return nil, err
		}
		if next == "" {
			break
		}
		pageToken = next
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func videoMetric(v *yt.Video) (model.VideoMetric, bool) {
	if v.Snippet == nil {
		return model.VideoMetric{}, false
	}
	published, err := time.Parse(time.RFC3339, v.Snippet.PublishedAt)
	if err != nil {
		return model.VideoMetric{}, false
	}
	m := model.VideoMetric{
		VideoID:     v.Id,
		Title:       v.Snippet.Title,
		Description: truncateWithEllipsis(v.Snippet.Description, videoDescMaxLen),
		PublishedAt: published,
		Thumbnail:   thumbnailURL(v.Snippet.Thumbnails),
		VideoURL:    watchURLPrefix + v.Id,
		CategoryID:  v.Snippet.CategoryId,
	}
	if len(v.Snippet.Tags) > maxTags {
		m.Tags = v.Snippet.Tags[:maxTags]
	} else {
		m.Tags = v.Snippet.Tags
	}
	if v.ContentDetails != nil {
		m.Duration = v.ContentDetails.Duration
	}
	if st := v.Statistics; st != nil {
		m.Views = int64(st.ViewCount)
		m.Likes = int64(st.LikeCount)
		m.Comments = int64(st.CommentCount)
	}
	return m, true
}

func thumbnailURL(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	if t.Medium != nil {
		return t.Medium.Url
	}
	if t.Default != nil {
		return t.Default.Url
	}
	return ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func truncateWithEllipsis(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return strings.TrimSpace(truncateRunes(s, n)) + "..."
}
