// Package identity holds the user and account use cases of identity-api.
// Every user is also an account with a balance.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-catalog/internal/application"
	domaccount "github.com/Zhima-Mochi/minishop-catalog/internal/domain/account"
	domain "github.com/Zhima-Mochi/minishop-catalog/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-catalog/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	identityService   = "identity-service"
	useCaseRegister   = "user.register"
	useCaseGetUser    = "user.get"
	useCaseFindEmail  = "user.find_by_email"
	useCaseGetAccount = "account.get"
	useCaseCredit     = "account.credit"
)

var (
	ErrUserNotFound       = domain.ErrNotFound
	ErrAccountNotFound    = domaccount.ErrNotFound
	ErrEmailQueryRequired = errors.New("email query is required")
	ErrRepository         = errors.New("identity: repository failure")
)

type RegisterUserInput struct {
	Name  string
	Email string
}

// RegisterUserResult reports whether the email was already registered, in
// which case User is the existing record.
type RegisterUserResult struct {
	User     *domain.User
	Existing bool
}

type RegisterUserUseCase struct {
	repo          domain.Repository
	initialCredit float64
	inst          *application.Instrumentation
}

var _ application.UseCase[RegisterUserInput, *RegisterUserResult] = (*RegisterUserUseCase)(nil)

func NewRegisterUserUseCase(repo domain.Repository, initialCredit float64, tel observability.Observability) *RegisterUserUseCase {
	return &RegisterUserUseCase{
		repo:          repo,
		initialCredit: initialCredit,
		inst:          application.NewInstrumentation(identityService, tel),
	}
}

func (uc *RegisterUserUseCase) Execute(ctx context.Context, cmd RegisterUserInput) (_ *RegisterUserResult, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseRegister, "RegisterUser")
	defer func() { run.End(err) }()

	entity, err := domain.New(cmd.Name, cmd.Email, uc.initialCredit)
	if err != nil {
		run.Fail("USER_INVALID")
		return nil, err
	}

	created, err := uc.repo.Create(ctx, entity)
	switch {
	case errors.Is(err, domain.ErrEmailConflict) && created != nil:
		run.Mark("EXISTING_USER")
		run.Field(observability.F("user_id", created.ID))
		return &RegisterUserResult{User: created, Existing: true}, nil
	case err != nil:
		run.Fail("REPO_INSERT_FAILED")
		return nil, wrapRepositoryError(err)
	}

	run.Span().SetAttributes(attribute.String("user.id", created.ID))
	run.Field(observability.F("user_id", created.ID))
	return &RegisterUserResult{User: created}, nil
}

type GetUserUseCase struct {
	repo domain.Repository
	inst *application.Instrumentation
}

var _ application.UseCase[string, *domain.User] = (*GetUserUseCase)(nil)

func NewGetUserUseCase(repo domain.Repository, tel observability.Observability) *GetUserUseCase {
	return &GetUserUseCase{repo: repo, inst: application.NewInstrumentation(identityService, tel)}
}

func (uc *GetUserUseCase) Execute(ctx context.Context, id string) (_ *domain.User, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseGetUser, "GetUser", attribute.String("user.id", id))
	defer func() { run.End(err) }()

	u, err := uc.repo.Get(ctx, id)
	if err != nil {
		run.Fail(lookupStatus(err))
		return nil, wrapRepositoryError(err)
	}
	return u, nil
}

type FindUserByEmailUseCase struct {
	repo domain.Repository
	inst *application.Instrumentation
}

var _ application.UseCase[string, *domain.User] = (*FindUserByEmailUseCase)(nil)

func NewFindUserByEmailUseCase(repo domain.Repository, tel observability.Observability) *FindUserByEmailUseCase {
	return &FindUserByEmailUseCase{repo: repo, inst: application.NewInstrumentation(identityService, tel)}
}

func (uc *FindUserByEmailUseCase) Execute(ctx context.Context, email string) (_ *domain.User, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseFindEmail, "FindUserByEmail")
	defer func() { run.End(err) }()

	if email == "" {
		run.Fail("EMAIL_REQUIRED")
		return nil, ErrEmailQueryRequired
	}
	u, err := uc.repo.FindByEmail(ctx, email)
	if err != nil {
		run.Fail(lookupStatus(err))
		return nil, wrapRepositoryError(err)
	}
	return u, nil
}

type GetAccountUseCase struct {
	repo domain.Repository
	inst *application.Instrumentation
}

var _ application.UseCase[string, *domaccount.Account] = (*GetAccountUseCase)(nil)

func NewGetAccountUseCase(repo domain.Repository, tel observability.Observability) *GetAccountUseCase {
	return &GetAccountUseCase{repo: repo, inst: application.NewInstrumentation(identityService, tel)}
}

func (uc *GetAccountUseCase) Execute(ctx context.Context, id string) (_ *domaccount.Account, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseGetAccount, "GetAccount", attribute.String("account.id", id))
	defer func() { run.End(err) }()

	u, err := uc.repo.Get(ctx, id)
	if err != nil {
		run.Fail(lookupStatus(err))
		return nil, asAccountError(err)
	}
	return accountOf(u), nil
}

type ApplyCreditInput struct {
	AccountID string
	Amount    float64
}

// ApplyCreditUseCase adjusts an account balance. Negative amounts debit; the
// balance may go below zero.
type ApplyCreditUseCase struct {
	repo domain.Repository
	inst *application.Instrumentation
}

var _ application.UseCase[ApplyCreditInput, *domaccount.Credit] = (*ApplyCreditUseCase)(nil)

func NewApplyCreditUseCase(repo domain.Repository, tel observability.Observability) *ApplyCreditUseCase {
	return &ApplyCreditUseCase{repo: repo, inst: application.NewInstrumentation(identityService, tel)}
}

func (uc *ApplyCreditUseCase) Execute(ctx context.Context, cmd ApplyCreditInput) (_ *domaccount.Credit, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseCredit, "ApplyCredit",
		attribute.String("account.id", cmd.AccountID),
		attribute.Float64("credit.amount", cmd.Amount),
	)
	defer func() { run.End(err) }()

	if err := domain.ValidateAmount(cmd.Amount); err != nil {
		run.Fail("AMOUNT_INVALID")
		return nil, err
	}

	u, err := uc.repo.AdjustBalance(ctx, cmd.AccountID, cmd.Amount)
	if err != nil {
		run.Fail(lookupStatus(err))
		return nil, asAccountError(err)
	}

	run.Field(observability.F("balance", u.Balance))
	return &domaccount.Credit{AccountID: u.ID, Amount: cmd.Amount, Balance: u.Balance}, nil
}

func accountOf(u *domain.User) *domaccount.Account {
	return &domaccount.Account{ID: u.ID, Name: u.Name, Email: u.Email, Balance: u.Balance}
}

func lookupStatus(err error) string {
	if errors.Is(err, domain.ErrNotFound) {
		return "NOT_FOUND"
	}
	return "REPO_READ_FAILED"
}

// asAccountError reports a missing user as a missing account.
func asAccountError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return ErrAccountNotFound
	}
	return wrapRepositoryError(err)
}

func wrapRepositoryError(err error) error {
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}
