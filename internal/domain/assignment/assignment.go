package assignment

import (
	"context"
	"time"
)

// Assignment records that a product was handed to an external account.
// Assignments are never updated or removed once appended.
type Assignment struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	ProductID string    `json:"productId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ledger is the append-only, per-account assignment history.
type Ledger interface {
	Append(ctx context.Context, accountID, productID string) (*Assignment, error)
	// ListByAccount returns the account's history in creation order. An
	// account without assignments yields an empty slice, not an error.
	ListByAccount(ctx context.Context, accountID string) ([]Assignment, error)
}
