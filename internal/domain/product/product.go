package product

import (
	"errors"
	"math"
)

// DefaultCategory is applied when a product is created without one.
const DefaultCategory = "general"

var (
	ErrNotFound     = errors.New("product not found")
	ErrNameRequired = errors.New("name is required")
	ErrInvalidPrice = errors.New("price must be a number")
)

type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

// New validates the attributes of a product that has not been given an id yet.
// category is kept as given; use CategoryOrDefault for an omitted one.
func New(name string, price float64, category string) (*Product, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, ErrInvalidPrice
	}
	return &Product{
		Name:     name,
		Price:    price,
		Category: category,
	}, nil
}

// CategoryOrDefault returns DefaultCategory when no category was supplied.
// An explicitly empty category is kept.
func CategoryOrDefault(category *string) string {
	if category == nil {
		return DefaultCategory
	}
	return *category
}
