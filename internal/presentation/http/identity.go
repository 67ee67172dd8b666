package httppresentation

import (
	"encoding/json"
	"net/http"

	appidentity "github.com/Zhima-Mochi/minishop-catalog/internal/application/identity"
	domaccount "github.com/Zhima-Mochi/minishop-catalog/internal/domain/account"
	domuser "github.com/Zhima-Mochi/minishop-catalog/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-catalog/internal/observability"
)

// IdentityUseCases groups what the identity-api surface needs.
type IdentityUseCases struct {
	RegisterUser    *appidentity.RegisterUserUseCase
	GetUser         *appidentity.GetUserUseCase
	FindUserByEmail *appidentity.FindUserByEmailUseCase
	GetAccount      *appidentity.GetAccountUseCase
	ApplyCredit     *appidentity.ApplyCreditUseCase
}

type IdentityHandler struct {
	uc      IdentityUseCases
	service string
	rt      *router
}

func NewIdentityHandler(service string, uc IdentityUseCases, tel observability.Observability) *IdentityHandler {
	return &IdentityHandler{uc: uc, service: service, rt: newRouter(tel)}
}

func (h *IdentityHandler) Router() http.Handler {
	h.rt.handle("POST /users", h.handleRegisterUser)
	h.rt.handle("GET /users/{id}", h.handleGetUser)
	h.rt.handle("GET /users", h.handleFindUser)
	h.rt.handle("GET /accounts/{id}", h.handleGetAccount)
	h.rt.handle("POST /accounts/{id}/credit", h.handleApplyCredit)
	h.rt.handle("GET /health", healthHandler(h.service))
	return h.rt.mux
}

type registerUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
}

type userResponse struct {
	User     *domuser.User `json:"user"`
	Existing bool          `json:"existing,omitempty"`
}

func (h *IdentityHandler) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validateRequest(req, domuser.ErrInvalidUser); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.uc.RegisterUser.Execute(r.Context(), appidentity.RegisterUserInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		writeDomainError(w, r, h.rt.log, err)
		return
	}
	if res.Existing {
		writeJSON(w, http.StatusOK, userResponse{User: res.User, Existing: true})
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{User: res.User})
}

func (h *IdentityHandler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.uc.GetUser.Execute(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, h.rt.log, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: u})
}

func (h *IdentityHandler) handleFindUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.uc.FindUserByEmail.Execute(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeDomainError(w, r, h.rt.log, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: u})
}

type accountResponse struct {
	Account *domaccount.Account `json:"account"`
}

func (h *IdentityHandler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := h.uc.GetAccount.Execute(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, h.rt.log, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{Account: acct})
}

type creditRequest struct {
	Amount json.RawMessage `json:"amount"`
}

func (h *IdentityHandler) handleApplyCredit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := numberField(req.Amount, 0, true, domuser.ErrInvalidAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	credit, err := h.uc.ApplyCredit.Execute(r.Context(), appidentity.ApplyCreditInput{
		AccountID: r.PathValue("id"),
		Amount:    amount,
	})
	if err != nil {
		writeDomainError(w, r, h.rt.log, err)
		return
	}
	writeJSON(w, http.StatusOK, credit)
}
