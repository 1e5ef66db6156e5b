package service

import (
	"context"
	"fmt"

	"github.com/mathieu-neron/contentpilot/contentpilot-go/internal/model"
)

// ContentStore persists generated platform content. Implemented by repository.ContentRepo.
type ContentStore interface {
	ContentSource
	Save(ctx context.Context, researchID int, payload model.PlatformPayload) (*model.PlatformContent, error)
	ListByResearch(ctx context.Context, researchID int) ([]model.PlatformContent, error)
}

type ContentService struct {
	store ContentStore
}

func NewContentService(store ContentStore) *ContentService {
	return &ContentService{store: store}
}

// Save decodes the platform payload of req and stores it. Payloads that do
// not match their platform's shape are rejected with ErrInvalidRequest.
func (s *ContentService) Save(ctx context.Context, req model.SaveContentRequest) (*model.PlatformContent, error) {
	if req.ResearchID <= 0 {
		return nil, fmt.Errorf("%w: research_id is required", ErrInvalidRequest)
	}
	payload, err := model.DecodePayload(req.Platform, req.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return s.store.Save(ctx, req.ResearchID, payload)
}

func (s *ContentService) FindByIDs(ctx context.Context, ids []int) ([]model.ContentWithResearch, error) {
	if len(ids) == 0 {
		return []model.ContentWithResearch{}, nil
	}
	return s.store.FindByIDs(ctx, ids)
}

func (s *ContentService) ListByResearch(ctx context.Context, researchID int) ([]model.PlatformContent, error) {
	return s.store.ListByResearch(ctx, researchID)
}
