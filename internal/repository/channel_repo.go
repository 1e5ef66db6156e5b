package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
)

type ChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

// Save upserts a tracked channel by URL and reactivates it.
func (r *ChannelRepo) Save(ctx context.Context, url string, meta model.ChannelMetadata) (*model.TrackedChannel, error) {
	query := `
		INSERT INTO youtube_channels (url, channel_id, channel_name, subscriber_count, description, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (url) DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			channel_name = EXCLUDED.channel_name,
			subscriber_count = EXCLUDED.subscriber_count,
			description = EXCLUDED.description,
			thumbnail_url = EXCLUDED.thumbnail_url,
			active = TRUE,
			updated_at = NOW()
		RETURNING id, url, channel_id, channel_name, subscriber_count, description, thumbnail_url,
		          active, last_analyzed_at, last_video_count, created_at`

	var ch model.TrackedChannel
	err := r.pool.QueryRow(ctx, query,
		url, meta.ChannelID, meta.ChannelName, meta.SubscriberCount, meta.Description, meta.ThumbnailURL,
	).Scan(
		&ch.ID, &ch.URL, &ch.ChannelID, &ch.ChannelName, &ch.SubscriberCount, &ch.Description,
		&ch.ThumbnailURL, &ch.Active, &ch.LastAnalyzedAt, &ch.LastVideoCount, &ch.CreatedAt,
	)
	if err != nil {
		return nil, classify(err)
	}
	return &ch, nil
}

// ListActiveURLs returns the URLs of channels enabled for recurring analysis.
func (r *ChannelRepo) ListActiveURLs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT url FROM youtube_channels WHERE active ORDER BY id`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, classify(rows.Err())
}

// UpdateAnalysisStats records when a channel was last analyzed and how many videos it had.
func (r *ChannelRepo) UpdateAnalysisStats(ctx context.Context, url string, videoCount int, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE youtube_channels
		SET last_analyzed_at = $1, last_video_count = $2, updated_at = NOW()
		WHERE url = $3`, at, videoCount, url)
	return classify(err)
}

// List returns every tracked channel, active ones first.
func (r *ChannelRepo) List(ctx context.Context) ([]model.TrackedChannel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, url, channel_id, channel_name, subscriber_count, description, thumbnail_url,
		       active, last_analyzed_at, last_video_count, created_at
		FROM youtube_channels
		ORDER BY active DESC, channel_name`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	channels := []model.TrackedChannel{}
	for rows.Next() {
		var ch model.TrackedChannel
		err := rows.Scan(
			&ch.ID, &ch.URL, &ch.ChannelID, &ch.ChannelName, &ch.SubscriberCount, &ch.Description,
			&ch.ThumbnailURL, &ch.Active, &ch.LastAnalyzedAt, &ch.LastVideoCount, &ch.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, classify(rows.Err())
}

// SetActive toggles a channel. It returns ErrNotFound for unknown ids.
func (r *ChannelRepo) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE youtube_channels SET active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a tracked channel and reports whether it existed.
func (r *ChannelRepo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM youtube_channels WHERE id = $1`, id)
	if err != nil {
		return false, classify(err)
	}
	return tag.RowsAffected() > 0, nil
}
