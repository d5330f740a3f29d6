package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/wbkost/backend/pkg/catalog"
)

// Repository implements catalog.Repository using in-memory storage.
type Repository struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*catalog.Product
}

// New creates a new in-memory repository.
func New() catalog.Repository {
	return &Repository{products: make(map[uuid.UUID]*catalog.Product)}
}

func copyProduct(p *catalog.Product) *catalog.Product {
	productCopy := *p
	productCopy.FileKeys = slices.Clone(p.FileKeys)
	return &productCopy
}

func (r *Repository) CreateProduct(ctx context.Context, product *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[product.ID] = copyProduct(product)
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, catalog.ErrProductNotFound
	}
	return copyProduct(product), nil
}

func (r *Repository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*catalog.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*catalog.Product
	for _, product := range r.products {
		if product.SellerID == sellerID {
			result = append(result, copyProduct(product))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, product *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID]; !exists {
		return catalog.ErrProductNotFound
	}
	r.products[product.ID] = copyProduct(product)
	return nil
}

func (r *Repository) ListFileKeysBySeller(ctx context.Context, sellerID uuid.UUID) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var keys []string
	for _, product := range r.products {
		if product.SellerID == sellerID && product.Status != catalog.StatusArchived {
			keys = append(keys, product.FileKeys...)
		}
	}
	return keys, nil
}
