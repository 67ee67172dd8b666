package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-catalog/internal/domain/product"
)

// ProductRepository keeps products in insertion order with ids p1, p2, ...
type ProductRepository struct {
	mu     sync.RWMutex
	nextID int
	byID   map[string]*domain.Product
	order  []string
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		nextID: 1,
		byID:   make(map[string]*domain.Product),
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	_ = ctx
	if p == nil {
		return nil, fmt.Errorf("product repository: product is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneProduct(p)
	stored.ID = fmt.Sprintf("p%d", r.nextID)
	r.nextID++

	r.byID[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return cloneProduct(stored), nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *ProductRepository) List(ctx context.Context, category string) ([]domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Product, 0, len(r.order))
	for _, id := range r.order {
		p := r.byID[id]
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func cloneProduct(p *domain.Product) *domain.Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
