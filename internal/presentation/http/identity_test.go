package httppresentation

import (
	"net/http"
	"testing"

	appidentity "github.com/Zhima-Mochi/minishop-catalog/internal/application/identity"
	"github.com/Zhima-Mochi/minishop-catalog/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentityHandler(initialCredit float64) http.Handler {
	users := memory.NewUserRepository()
	return NewIdentityHandler("identity-api", IdentityUseCases{
		RegisterUser:    appidentity.NewRegisterUserUseCase(users, initialCredit, nil),
		GetUser:         appidentity.NewGetUserUseCase(users, nil),
		FindUserByEmail: appidentity.NewFindUserByEmailUseCase(users, nil),
		GetAccount:      appidentity.NewGetAccountUseCase(users, nil),
		ApplyCredit:     appidentity.NewApplyCreditUseCase(users, nil),
	}, nil).Router()
}

func TestRegisterUserTwice(t *testing.T) {
	h := newIdentityHandler(0)

	rec, body := do(t, h, http.MethodPost, "/users", `{"name":"Ada","email":"ada@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, map[string]any{"id": "u1", "name": "Ada", "email": "ada@example.com"}, body["user"])
	assert.NotContains(t, body, "existing")

	rec, body = do(t, h, http.MethodPost, "/users", `{"name":"Someone","email":"ada@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["existing"])
	assert.Equal(t, "u1", body["user"].(map[string]any)["id"])
}

func TestRegisterUserValidation(t *testing.T) {
	h := newIdentityHandler(0)

	for _, payload := range []string{`{"name":"Ada"}`, `{"email":"a@b.c"}`, ``} {
		rec, body := do(t, h, http.MethodPost, "/users", payload)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "name and email are required", body["error"])
	}
}

func TestUserLookupRoutes(t *testing.T) {
	h := newIdentityHandler(0)
	do(t, h, http.MethodPost, "/users", `{"name":"Ada","email":"ada@example.com"}`)

	rec, body := do(t, h, http.MethodGet, "/users/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", body["user"].(map[string]any)["email"])

	rec, body = do(t, h, http.MethodGet, "/users?email=ada@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", body["user"].(map[string]any)["id"])

	rec, body = do(t, h, http.MethodGet, "/users/u2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user not found", body["error"])

	rec, body = do(t, h, http.MethodGet, "/users?email=nobody@example.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user not found", body["error"])

	rec, body = do(t, h, http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email query is required", body["error"])
}

func TestAccountRoutes(t *testing.T) {
	h := newIdentityHandler(50)
	do(t, h, http.MethodPost, "/users", `{"name":"Ada","email":"ada@example.com"}`)

	rec, body := do(t, h, http.MethodGet, "/accounts/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"id": "u1", "name": "Ada", "email": "ada@example.com", "balance": 50.0}, body["account"])

	rec, body = do(t, h, http.MethodPost, "/accounts/u1/credit", `{"amount":-10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"accountId": "u1", "amount": -10.0, "balance": 40.0}, body)

	rec, body = do(t, h, http.MethodPost, "/accounts/u1/credit", `{"amount":"ten"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "amount must be a number", body["error"])

	rec, body = do(t, h, http.MethodPost, "/accounts/u1/credit", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "amount must be a number", body["error"])

	rec, body = do(t, h, http.MethodPost, "/accounts/u7/credit", `{"amount":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "account not found", body["error"])

	rec, body = do(t, h, http.MethodGet, "/accounts/u7", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "account not found", body["error"])
}

func TestIdentityHealth(t *testing.T) {
	rec, body := do(t, newIdentityHandler(0), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok", "service": "identity-api"}, body)
}
