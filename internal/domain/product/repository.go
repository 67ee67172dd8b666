package product

import "context"

// Repository stores products. Create assigns the id.
type Repository interface {
	Create(ctx context.Context, p *Product) (*Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	// List returns products in insertion order; an empty category matches all.
	List(ctx context.Context, category string) ([]Product, error)
}
