package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	appassignment "github.com/Zhima-Mochi/minishop-catalog/internal/application/assignment"
	appcatalog "github.com/Zhima-Mochi/minishop-catalog/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-catalog/internal/config"
	"github.com/Zhima-Mochi/minishop-catalog/internal/infrastructure/accounts"
	"github.com/Zhima-Mochi/minishop-catalog/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-catalog/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-catalog/internal/pkg/service"
	httppresentation "github.com/Zhima-Mochi/minishop-catalog/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-catalog/internal/presentation/worker"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load("catalog-api", config.DefaultCatalogPort)
	rt, err := service.Bootstrap(ctx, cfg)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer rt.Close(context.Background())
	log := rt.Logger()

	products := memory.NewProductRepository()
	ledger := memory.NewAssignmentRepository()
	directory := accounts.NewClient(cfg.Catalog.AccountsBaseURL, cfg.Catalog.AccountsTimeout, nil, rt.Tel)

	bus := outbox.NewBus(rt.Tel.Logger())
	reconciler := appassignment.NewChargeReconciliationWorker(rt.Tel)
	reconciler.Start(bus, workerpresentation.EventMiddleware(rt.Tel, "assignment-worker"))
	bus.Start(ctx)
	defer bus.Stop(context.Background())

	handler := httppresentation.NewCatalogHandler(cfg.ServiceName, httppresentation.CatalogUseCases{
		CreateProduct:   appcatalog.NewCreateProductUseCase(products, rt.Tel),
		GetProduct:      appcatalog.NewGetProductUseCase(products, rt.Tel),
		ListProducts:    appcatalog.NewListProductsUseCase(products, rt.Tel),
		AssignProduct:   appassignment.NewAssignProductUseCase(products, directory, ledger, bus, cfg.Catalog.ChargeOnAssign, rt.Tel),
		ListAssignments: appassignment.NewListAssignmentsUseCase(ledger, rt.Tel),
	}, rt.Tel)

	log.Info("catalog_config",
		zap.String("accounts_base_url", cfg.Catalog.AccountsBaseURL),
		zap.Bool("charge_on_assign", cfg.Catalog.ChargeOnAssign),
		zap.Duration("accounts_timeout", cfg.Catalog.AccountsTimeout),
	)

	if err := rt.Serve(ctx, handler.Router()); err != nil {
		log.Error("catalog_api_exit", zap.Error(err))
		rt.Close(context.Background())
		os.Exit(1)
	}
}
