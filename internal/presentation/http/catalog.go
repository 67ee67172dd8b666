package httppresentation

import (
	"encoding/json"
	"net/http"

	appassignment "github.com/Zhima-Mochi/minishop-catalog/internal/application/assignment"
	appcatalog "github.com/Zhima-Mochi/minishop-catalog/internal/application/catalog"
	domaccount "github.com/Zhima-Mochi/minishop-catalog/internal/domain/account"
	domassignment "github.com/Zhima-Mochi/minishop-catalog/internal/domain/assignment"
	domproduct "github.com/Zhima-Mochi/minishop-catalog/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-catalog/internal/observability"
)

// CatalogUseCases groups what the catalog-api surface needs.
type CatalogUseCases struct {
	CreateProduct   *appcatalog.CreateProductUseCase
	GetProduct      *appcatalog.GetProductUseCase
	ListProducts    *appcatalog.ListProductsUseCase
	AssignProduct   *appassignment.AssignProductUseCase
	ListAssignments *appassignment.ListAssignmentsUseCase
}

type CatalogHandler struct {
	uc      CatalogUseCases
	service string
	rt      *router
}

func NewCatalogHandler(service string, uc CatalogUseCases, tel observability.Observability) *CatalogHandler {
	return &CatalogHandler{uc: uc, service: service, rt: newRouter(tel)}
}

func (h *CatalogHandler) Router() http.Handler {
	h.rt.handle("POST /products", h.handleCreateProduct)
	h.rt.handle("GET /products/{id}", h.handleGetProduct)
	h.rt.handle("GET /products", h.handleListProducts)
	h.rt.handle("POST /products/{id}/assign", h.handleAssign)
	h.rt.handle("GET /assignments", h.handleListAssignments)
	h.rt.handle("GET /health", healthHandler(h.service))
	return h.rt.mux
}

type createProductRequest struct {
	Name     string          `json:"name" validate:"required"`
	Price    json.RawMessage `json:"price"`
	Category *string         `json:"category"`
}

type productResponse struct {
	Product *domproduct.Product `json:"product"`
}

func (h *CatalogHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validateRequest(req, domproduct.ErrNameRequired); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	price, err := numberField(req.Price, 0, false, domproduct.ErrInvalidPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.uc.CreateProduct.Execute(r.Context(), appcatalog.CreateProductInput{
		Name:     req.Name,
		Price:    price,
		Category: req.Category,
	})
	if err != nil {
		writeDomainError(w, r, h.rt.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, productResponse{Product: p})
}

func (h *CatalogHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.uc.GetProduct.Execute(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, h.rt.log, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Product: p})
}

type listProductsResponse struct {
	Products []domproduct.Product `json:"products"`
}

func (h *CatalogHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.uc.ListProducts.Execute(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeDomainError(w, r, h.rt.log, err)
		return
	}
	writeJSON(w, http.StatusOK, listProductsResponse{Products: products})
}

type assignRequest struct {
	AccountID string `json:"accountId" validate:"required"`
}

type chargeErrorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

type assignResponse struct {
	Assignment  *domassignment.Assignment `json:"assignment"`
	Charge      *domaccount.Credit        `json:"charge,omitempty"`
	ChargeError *chargeErrorBody          `json:"chargeError,omitempty"`
}

func (h *CatalogHandler) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validateRequest(req, appassignment.ErrAccountIDRequired); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.uc.AssignProduct.Execute(r.Context(), appassignment.AssignProductInput{
		ProductID: r.PathValue("id"),
		AccountID: req.AccountID,
	})
	if err != nil {
		writeDomainError(w, r, h.rt.log, err)
		return
	}

	body := assignResponse{Assignment: res.Assignment, Charge: res.Charge}
	if res.ChargeErr != nil {
		body.ChargeError = &chargeErrorBody{
			Error:  appassignment.ErrorMessage(res.ChargeErr),
			Status: domaccount.StatusOf(res.ChargeErr),
		}
	}
	writeJSON(w, http.StatusCreated, body)
}

type listAssignmentsResponse struct {
	Assignments []domassignment.Assignment `json:"assignments"`
}

func (h *CatalogHandler) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	items, err := h.uc.ListAssignments.Execute(r.Context(), r.URL.Query().Get("accountId"))
	if err != nil {
		writeDomainError(w, r, h.rt.log, err)
		return
	}
	writeJSON(w, http.StatusOK, listAssignmentsResponse{Assignments: items})
}
