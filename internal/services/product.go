package services

import (
	"context"
	"errors"
	"io"

	"github.com/Fomalhautarc/kucun/internal/blob"
	"github.com/Fomalhautarc/kucun/internal/events"
	"github.com/Fomalhautarc/kucun/internal/store"
	"github.com/Fomalhautarc/kucun/types"
)

// ErrNoFieldsToUpdate is returned when an update request carries none
// of the updatable fields. An UPDATE with an empty SET clause is not
// valid SQL, so the request is rejected rather than treated as a no-op.
var ErrNoFieldsToUpdate = errors.New("no fields to update")

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	Get(ctx context.Context, id int) (types.Product, error)
	Create(ctx context.Context, product types.Product) (types.Product, error)
	Search(ctx context.Context, filter types.ProductFilter) ([]types.Product, error)
	UpdatePartial(ctx context.Context, id int, patch types.ProductPatch) (types.Product, error)
	SetImageKey(ctx context.Context, id int, key string) error
}

// ProductService encapsulates product use-cases. The image store and
// event publisher are optional; both may be nil.
type ProductService struct {
	repo      ProductRepository
	images    blob.Store
	publisher *events.Publisher
}

func NewProductService(repo ProductRepository, images blob.Store, publisher *events.Publisher) *ProductService {
	return &ProductService{repo: repo, images: images, publisher: publisher}
}

func (s *ProductService) Get(ctx context.Context, id int) (types.Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *ProductService) Create(ctx context.Context, product types.Product) (types.Product, error) {
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return types.Product{}, err
	}

	s.publisher.Publish(ctx, events.Event{
		Type:      events.TypeProductCreated,
		ProductID: created.ID,
		Name:      created.Name,
		Inventory: &created.Inventory,
		Price:     &created.Price,
	})
	return created, nil
}

func (s *ProductService) Search(ctx context.Context, filter types.ProductFilter) ([]types.Product, error) {
	return s.repo.Search(ctx, filter)
}

// UpdatePartial applies the present patch fields to an existing
// product. An empty patch is a validation error, not a silent no-op.
func (s *ProductService) UpdatePartial(ctx context.Context, id int, patch types.ProductPatch) (types.Product, error) {
	if patch.Empty() {
		return types.Product{}, ErrNoFieldsToUpdate
	}

	updated, err := s.repo.UpdatePartial(ctx, id, patch)
	if err != nil {
		return types.Product{}, err
	}

	s.publisher.Publish(ctx, events.Event{
		Type:      events.TypeProductUpdated,
		ProductID: updated.ID,
		Name:      updated.Name,
		Inventory: &updated.Inventory,
		Price:     &updated.Price,
	})
	return updated, nil
}

// UploadImage stores the product image and records its object key.
// The product must already exist.
func (s *ProductService) UploadImage(ctx context.Context, id int, r io.Reader, size int64, contentType string) (string, error) {
	if s.images == nil {
		return "", blob.ErrNotConfigured
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return "", err
	}

	key := blob.ProductImageKey(id)
	if err := s.images.Put(ctx, key, r, size, contentType); err != nil {
		return "", err
	}
	if err := s.repo.SetImageKey(ctx, id, key); err != nil {
		return "", err
	}
	return key, nil
}

// OpenImage opens a reader over the stored product image. A product
// without an image reports not-found.
func (s *ProductService) OpenImage(ctx context.Context, id int) (io.ReadCloser, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.ImageKey == "" {
		return nil, store.ErrNotFound
	}
	if s.images == nil {
		return nil, blob.ErrNotConfigured
	}
	return s.images.Get(ctx, product.ImageKey)
}
