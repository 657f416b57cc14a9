package services

import (
	"context"

	"github.com/madr-project/apiserver/internal/mq"
	"github.com/madr-project/apiserver/internal/sanitize"
	"github.com/madr-project/apiserver/types"
)

// NovelistRepository defines persistence operations for novelists.
type NovelistRepository interface {
	List(ctx context.Context, name string, offset, limit int) ([]types.Novelist, int, error)
	Get(ctx context.Context, id int) (types.Novelist, error)
	Create(ctx context.Context, novelist types.Novelist) (types.Novelist, error)
	Update(ctx context.Context, novelist types.Novelist) (types.Novelist, error)
	Delete(ctx context.Context, id int) error
}

// NovelistService encapsulates novelist use-cases.
type NovelistService struct {
	repo   NovelistRepository
	events *mq.Bus
}

func NewNovelistService(repo NovelistRepository, events *mq.Bus) *NovelistService {
	return &NovelistService{repo: repo, events: events}
}

func (s *NovelistService) List(ctx context.Context, name string, offset, limit int) ([]types.Novelist, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, sanitize.String(name), offset, limit)
}

func (s *NovelistService) Get(ctx context.Context, id int) (types.Novelist, error) {
	return s.repo.Get(ctx, id)
}

func (s *NovelistService) Create(ctx context.Context, name string) (types.Novelist, error) {
	novelist, err := s.repo.Create(ctx, types.Novelist{Name: sanitize.String(name)})
	if err != nil {
		return types.Novelist{}, err
	}
	publishEvent(ctx, s.events, "novelist.created", "novelist", novelist.ID)
	return novelist, nil
}

func (s *NovelistService) Update(ctx context.Context, id int, name string) (types.Novelist, error) {
	novelist, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Novelist{}, err
	}

	novelist.Name = sanitize.String(name)
	updated, err := s.repo.Update(ctx, novelist)
	if err != nil {
		return types.Novelist{}, err
	}
	publishEvent(ctx, s.events, "novelist.updated", "novelist", updated.ID)
	return updated, nil
}

func (s *NovelistService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	publishEvent(ctx, s.events, "novelist.deleted", "novelist", id)
	return nil
}
