package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
)

type ContentRepo struct {
	pool *pgxpool.Pool
}

func NewContentRepo(pool *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{pool: pool}
}

// Save validates and stores a content payload for a research record.
func (r *ContentRepo) Save(ctx context.Context, researchID int, payload model.PlatformPayload) (*model.PlatformContent, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}

	c := model.PlatformContent{ResearchID: researchID, Platform: payload.Platform(), Payload: payload}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO platform_content (research_id, platform, content)
		VALUES ($1, $2, $3)
		RETURNING id, used, created_at, updated_at`,
		researchID, string(c.Platform), raw,
	).Scan(&c.ID, &c.Used, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &c, nil
}

// FindByIDs returns the content items with the given ids joined with their
// research summaries. Unknown ids are ignored.
func (r *ContentRepo) FindByIDs(ctx context.Context, ids []int) ([]model.ContentWithResearch, error) {
	query := `
		SELECT pc.id, pc.research_id, pc.platform, pc.content, pc.used, pc.created_at, pc.updated_at,
		       rr.id, rr.query, rr.summary, rr.key_highlights, rr.noteworthy_points, rr.action_items, rr.urls
		FROM platform_content pc
		JOIN research_results rr ON rr.id = pc.research_id
		WHERE pc.id = ANY($1)
		ORDER BY pc.id`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	items := []model.ContentWithResearch{}
	for rows.Next() {
		var (
			item     model.ContentWithResearch
			platform string
			raw      []byte
		)
		err := rows.Scan(
			&item.Content.ID, &item.Content.ResearchID, &platform, &raw, &item.Content.Used,
			&item.Content.CreatedAt, &item.Content.UpdatedAt,
			&item.Research.ID, &item.Research.Query, &item.Research.Summary,
			&item.Research.KeyHighlights, &item.Research.NoteworthyPoints,
			&item.Research.ActionItems, &item.Research.URLs,
		)
		if err != nil {
			return nil, err
		}
		if err := decodeContent(&item.Content, platform, raw); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, classify(rows.Err())
}

// ListByResearch returns the content generated from one research record.
func (r *ContentRepo) ListByResearch(ctx context.Context, researchID int) ([]model.PlatformContent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, research_id, platform, content, used, created_at, updated_at
		FROM platform_content
		WHERE research_id = $1
		ORDER BY id`, researchID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PlatformContent, error) {
		var (
			c        model.PlatformContent
			platform string
			raw      []byte
		)
		if err := row.Scan(&c.ID, &c.ResearchID, &platform, &raw, &c.Used, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return c, err
		}
		return c, decodeContent(&c, platform, raw)
	})
}

func decodeContent(c *model.PlatformContent, platform string, raw []byte) error {
	c.Platform = model.Platform(platform)
	payload, err := model.DecodePayload(c.Platform, raw)
	if err != nil {
		return fmt.Errorf("content %d: %w", c.ID, err)
	}
	c.Payload = payload
	return nil
}
