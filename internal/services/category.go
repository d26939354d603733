package services

import (
	"context"

	"github.com/Fomalhautarc/kucun/internal/events"
	"github.com/Fomalhautarc/kucun/types"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	Create(ctx context.Context, category types.Category) (types.Category, error)
	GetByID(ctx context.Context, id int) (types.Category, error)
}

// CategoryService encapsulates category use-cases.
type CategoryService struct {
	repo      CategoryRepository
	publisher *events.Publisher
}

func NewCategoryService(repo CategoryRepository, publisher *events.Publisher) *CategoryService {
	return &CategoryService{repo: repo, publisher: publisher}
}

// Create inserts a category; duplicates surface as store.ErrConflict.
func (s *CategoryService) Create(ctx context.Context, category types.Category) (types.Category, error) {
	created, err := s.repo.Create(ctx, category)
	if err != nil {
		return types.Category{}, err
	}

	s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeCategoryCreated,
		CategoryID: created.ID,
		Name:       created.Name,
	})
	return created, nil
}
