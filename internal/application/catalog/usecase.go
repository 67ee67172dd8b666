// Package catalog holds the product use cases of catalog-api.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-catalog/internal/application"
	domain "github.com/Zhima-Mochi/minishop-catalog/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-catalog/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	catalogService      = "catalog-service"
	useCaseCreate       = "product.create"
	useCaseGet          = "product.get"
	useCaseList         = "product.list"
	statusNotFound      = "PRODUCT_NOT_FOUND"
	statusRepoFailed    = "REPO_FAILED"
	statusInvalidName   = "NAME_REQUIRED"
	statusInvalidPrice  = "PRICE_INVALID"
	statusContextCancel = "CONTEXT_CANCELED"
)

var (
	ErrNotFound   = domain.ErrNotFound
	ErrRepository = errors.New("catalog: repository failure")
)

type CreateProductInput struct {
	Name  string
	Price float64
	// Category nil means omitted and resolves to the default category.
	Category *string
}

// CreateProductUseCase validates and stores a new product.
type CreateProductUseCase struct {
	repo domain.Repository
	inst *application.Instrumentation
}

var _ application.UseCase[CreateProductInput, *domain.Product] = (*CreateProductUseCase)(nil)

func NewCreateProductUseCase(repo domain.Repository, tel observability.Observability) *CreateProductUseCase {
	return &CreateProductUseCase{repo: repo, inst: application.NewInstrumentation(catalogService, tel)}
}

func (uc *CreateProductUseCase) Execute(ctx context.Context, cmd CreateProductInput) (_ *domain.Product, err error) {
	category := domain.CategoryOrDefault(cmd.Category)
	ctx, run := uc.inst.Begin(ctx, useCaseCreate, "CreateProduct",
		attribute.String("product.category", category),
	)
	defer func() { run.End(err) }()

	entity, err := domain.New(cmd.Name, cmd.Price, category)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNameRequired):
			run.Fail(statusInvalidName)
		case errors.Is(err, domain.ErrInvalidPrice):
			run.Fail(statusInvalidPrice)
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		run.Fail(statusContextCancel)
		return nil, err
	}

	created, err := uc.repo.Create(ctx, entity)
	if err != nil {
		run.Fail(statusRepoFailed)
		return nil, wrapRepositoryError(err)
	}

	run.Span().SetAttributes(attribute.String("product.id", created.ID))
	run.Field(observability.F("product_id", created.ID))
	return created, nil
}

// GetProductUseCase looks a product up by id.
type GetProductUseCase struct {
	repo domain.Repository
	inst *application.Instrumentation
}

var _ application.UseCase[string, *domain.Product] = (*GetProductUseCase)(nil)

func NewGetProductUseCase(repo domain.Repository, tel observability.Observability) *GetProductUseCase {
	return &GetProductUseCase{repo: repo, inst: application.NewInstrumentation(catalogService, tel)}
}

func (uc *GetProductUseCase) Execute(ctx context.Context, id string) (_ *domain.Product, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseGet, "GetProduct",
		attribute.String("product.id", id),
	)
	defer func() { run.End(err) }()

	p, err := uc.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			run.Fail(statusNotFound)
		} else {
			run.Fail(statusRepoFailed)
		}
		return nil, wrapRepositoryError(err)
	}
	return p, nil
}

// ListProductsUseCase lists products, optionally restricted to a category.
type ListProductsUseCase struct {
	repo domain.Repository
	inst *application.Instrumentation
}

var _ application.UseCase[string, []domain.Product] = (*ListProductsUseCase)(nil)

func NewListProductsUseCase(repo domain.Repository, tel observability.Observability) *ListProductsUseCase {
	return &ListProductsUseCase{repo: repo, inst: application.NewInstrumentation(catalogService, tel)}
}

func (uc *ListProductsUseCase) Execute(ctx context.Context, category string) (_ []domain.Product, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseList, "ListProducts",
		attribute.String("product.category", category),
	)
	defer func() { run.End(err) }()

	products, err := uc.repo.List(ctx, category)
	if err != nil {
		run.Fail(statusRepoFailed)
		return nil, wrapRepositoryError(err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	run.Field(observability.F("count", len(products)))
	return products, nil
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
