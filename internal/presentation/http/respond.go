package httppresentation

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	appassignment "github.com/Zhima-Mochi/minishop-catalog/internal/application/assignment"
	appidentity "github.com/Zhima-Mochi/minishop-catalog/internal/application/identity"
	domaccount "github.com/Zhima-Mochi/minishop-catalog/internal/domain/account"
	domproduct "github.com/Zhima-Mochi/minishop-catalog/internal/domain/product"
	domuser "github.com/Zhima-Mochi/minishop-catalog/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-catalog/internal/observability"
	"github.com/Zhima-Mochi/minishop-catalog/internal/observability/logctx"
	"github.com/go-playground/validator/v10"
)

var (
	errInvalidBody = errors.New("invalid JSON body")
	errInternal    = errors.New("internal server error")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest runs struct tag validation and reports msg on any failure.
func validateRequest(req any, msg error) error {
	if err := validate.Struct(req); err != nil {
		return msg
	}
	return nil
}

// decodeJSON reads a JSON object body. An empty body decodes as {}.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errInvalidBody
	}
	return nil
}

// numberField reads a JSON value that must be a number. An absent field
// yields def; null, strings and other types yield msg.
func numberField(raw json.RawMessage, def float64, required bool, msg error) (float64, error) {
	if len(raw) == 0 {
		if required {
			return 0, msg
		}
		return def, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, msg
	}
	n, ok := v.(float64)
	if !ok {
		return 0, msg
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

var (
	badRequestErrors = []error{
		errInvalidBody,
		domproduct.ErrNameRequired,
		domproduct.ErrInvalidPrice,
		appassignment.ErrAccountIDRequired,
		appassignment.ErrAccountQueryNeeded,
		domuser.ErrInvalidUser,
		domuser.ErrInvalidAmount,
		appidentity.ErrEmailQueryRequired,
	}
	notFoundErrors = []error{
		domproduct.ErrNotFound,
		domaccount.ErrNotFound,
		domuser.ErrNotFound,
	}
)

// writeDomainError classifies err and writes the matching status with the
// sentinel's message. Unclassified errors become a generic 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, fallback observability.Logger, err error) {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			writeError(w, http.StatusBadRequest, target)
			return
		}
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			writeError(w, http.StatusNotFound, target)
			return
		}
	}

	var dep *appassignment.DependencyError
	if errors.As(err, &dep) {
		status := dep.Status
		if status < http.StatusBadRequest || status > 599 {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, errorResponse{Error: dep.Message()})
		return
	}

	logctx.FromOr(r.Context(), fallback).Error("http_unhandled_error",
		observability.F("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, errInternal)
}
