package assignment

import (
	"context"

	domaccount "github.com/Zhima-Mochi/minishop-catalog/internal/domain/account"
	domproduct "github.com/Zhima-Mochi/minishop-catalog/internal/domain/product"
)

// ProductLookup is the slice of the catalog the orchestrator reads.
type ProductLookup interface {
	Get(ctx context.Context, id string) (*domproduct.Product, error)
}

// AccountDirectory is the outbound port to the account service.
type AccountDirectory interface {
	domaccount.Directory
}
