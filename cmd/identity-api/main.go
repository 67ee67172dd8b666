package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	appidentity "github.com/Zhima-Mochi/minishop-catalog/internal/application/identity"
	"github.com/Zhima-Mochi/minishop-catalog/internal/config"
	"github.com/Zhima-Mochi/minishop-catalog/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-catalog/internal/pkg/service"
	httppresentation "github.com/Zhima-Mochi/minishop-catalog/internal/presentation/http"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load("identity-api", config.DefaultIdentityPort)
	rt, err := service.Bootstrap(ctx, cfg)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer rt.Close(context.Background())

	users := memory.NewUserRepository()
	handler := httppresentation.NewIdentityHandler(cfg.ServiceName, httppresentation.IdentityUseCases{
		RegisterUser:    appidentity.NewRegisterUserUseCase(users, cfg.Identity.InitialCredit, rt.Tel),
		GetUser:         appidentity.NewGetUserUseCase(users, rt.Tel),
		FindUserByEmail: appidentity.NewFindUserByEmailUseCase(users, rt.Tel),
		GetAccount:      appidentity.NewGetAccountUseCase(users, rt.Tel),
		ApplyCredit:     appidentity.NewApplyCreditUseCase(users, rt.Tel),
	}, rt.Tel)

	if err := rt.Serve(ctx, handler.Router()); err != nil {
		rt.Logger().Error("identity_api_exit", zap.Error(err))
		rt.Close(context.Background())
		os.Exit(1)
	}
}
