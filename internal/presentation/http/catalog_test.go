package httppresentation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	appassignment "github.com/Zhima-Mochi/minishop-catalog/internal/application/assignment"
	appcatalog "github.com/Zhima-Mochi/minishop-catalog/internal/application/catalog"
	domoutbox "github.com/Zhima-Mochi/minishop-catalog/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-catalog/internal/infrastructure/accounts"
	"github.com/Zhima-Mochi/minishop-catalog/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-catalog/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-catalog/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-catalog/internal/observability"
	workerpresentation "github.com/Zhima-Mochi/minishop-catalog/internal/presentation/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeDirectory stands in for the account service.
type fakeDirectory struct {
	mu           sync.Mutex
	known        map[string]bool
	creditStatus int
	getStatus    int
	credits      int
}

func (d *fakeDirectory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := r.PathValue("id")
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && d.getStatus != 0:
		w.WriteHeader(d.getStatus)
		_, _ = w.Write([]byte(`{"error":"directory unavailable"}`))
	case !d.known[id]:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"account not found"}`))
	case r.Method == http.MethodGet:
		_, _ = w.Write([]byte(`{"account":{"id":"` + id + `","balance":100}}`))
	case d.creditStatus != 0:
		d.credits++
		w.WriteHeader(d.creditStatus)
		_, _ = w.Write([]byte(`{"error":"credit rejected"}`))
	default:
		d.credits++
		var body struct {
			Amount float64 `json:"amount"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{"accountId": id, "amount": body.Amount, "balance": 100 + body.Amount})
	}
}

func (d *fakeDirectory) set(fn func(*fakeDirectory)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d)
}

func (d *fakeDirectory) creditCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.credits
}

type catalogEnv struct {
	handler   http.Handler
	directory *fakeDirectory
	ledger    *memory.AssignmentRepository
}

func newCatalogEnv(t *testing.T, chargeOnAssign bool, tel observability.Observability) *catalogEnv {
	t.Helper()
	return newCatalogEnvWithPublisher(t, chargeOnAssign, tel, nil)
}

func newCatalogEnvWithPublisher(t *testing.T, chargeOnAssign bool, tel observability.Observability, pub domoutbox.Publisher) *catalogEnv {
	t.Helper()
	dir := &fakeDirectory{known: map[string]bool{"acct-1": true}}
	mux := http.NewServeMux()
	mux.Handle("GET /accounts/{id}", dir)
	mux.Handle("POST /accounts/{id}/credit", dir)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	products := memory.NewProductRepository()
	ledger := memory.NewAssignmentRepository()
	client := accounts.NewClient(srv.URL, 0, srv.Client(), tel)

	h := NewCatalogHandler("catalog-api", CatalogUseCases{
		CreateProduct:   appcatalog.NewCreateProductUseCase(products, tel),
		GetProduct:      appcatalog.NewGetProductUseCase(products, tel),
		ListProducts:    appcatalog.NewListProductsUseCase(products, tel),
		AssignProduct:   appassignment.NewAssignProductUseCase(products, client, ledger, pub, chargeOnAssign, tel),
		ListAssignments: appassignment.NewListAssignmentsUseCase(ledger, tel),
	}, tel)

	return &catalogEnv{handler: h.Router(), directory: dir, ledger: ledger}
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestCreateAndGetProduct(t *testing.T) {
	env := newCatalogEnv(t, false, nil)

	rec, body := do(t, env.handler, http.MethodPost, "/products", `{"name":"Widget","price":10,"category":"tools"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, map[string]any{"id": "p1", "name": "Widget", "price": 10.0, "category": "tools"}, body["product"])

	rec, body = do(t, env.handler, http.MethodPost, "/products", `{"name":"Gadget"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	product := body["product"].(map[string]any)
	assert.Equal(t, "p2", product["id"])
	assert.Equal(t, 0.0, product["price"])
	assert.Equal(t, "general", product["category"])

	first, firstBody := do(t, env.handler, http.MethodGet, "/products/p1", "")
	second, secondBody := do(t, env.handler, http.MethodGet, "/products/p1", "")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, firstBody, secondBody)

	rec, body = do(t, env.handler, http.MethodGet, "/products/p404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product not found", body["error"])
}

func TestCreateProductValidation(t *testing.T) {
	env := newCatalogEnv(t, false, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing name", body: `{"price":1}`, want: "name is required"},
		{name: "empty body", body: ``, want: "name is required"},
		{name: "string price", body: `{"name":"Widget","price":"10"}`, want: "price must be a number"},
		{name: "null price", body: `{"name":"Widget","price":null}`, want: "price must be a number"},
		{name: "malformed", body: `{"name":`, want: "invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, env.handler, http.MethodPost, "/products", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, body["error"])
		})
	}

	_, body := do(t, env.handler, http.MethodGet, "/products", "")
	assert.Empty(t, body["products"])
}

func TestCreateProductKeepsNameAndCategoryAsGiven(t *testing.T) {
	env := newCatalogEnv(t, false, nil)

	rec, body := do(t, env.handler, http.MethodPost, "/products", `{"name":"   ","category":""}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, map[string]any{"id": "p1", "name": "   ", "price": 0.0, "category": ""}, body["product"])

	rec, body = do(t, env.handler, http.MethodPost, "/products", `{"name":"Bolt","category":null}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "general", body["product"].(map[string]any)["category"])
}

func TestListProductsByCategory(t *testing.T) {
	env := newCatalogEnv(t, false, nil)
	do(t, env.handler, http.MethodPost, "/products", `{"name":"Hammer","category":"tools"}`)
	do(t, env.handler, http.MethodPost, "/products", `{"name":"Apple","category":"food"}`)

	rec, body := do(t, env.handler, http.MethodGet, "/products?category=tools", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["products"], 1)

	rec, body = do(t, env.handler, http.MethodGet, "/products?category=toys", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["products"])

	_, body = do(t, env.handler, http.MethodGet, "/products", "")
	assert.Len(t, body["products"], 2)
}

func TestAssignScenario(t *testing.T) {
	t.Run("charging disabled", func(t *testing.T) {
		env := newCatalogEnv(t, false, nil)
		rec, body := do(t, env.handler, http.MethodPost, "/products", `{"name":"Widget","price":10,"category":"tools"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, "p1", body["product"].(map[string]any)["id"])

		rec, body = do(t, env.handler, http.MethodPost, "/products/p1/assign", `{"accountId":"acct-1"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assignment := body["assignment"].(map[string]any)
		assert.Equal(t, "p1", assignment["productId"])
		assert.Equal(t, "acct-1", assignment["accountId"])
		assert.NotContains(t, body, "charge")
		assert.NotContains(t, body, "chargeError")
		assert.Zero(t, env.directory.creditCalls())
	})

	t.Run("charge fails upstream", func(t *testing.T) {
		env := newCatalogEnv(t, true, nil)
		env.directory.set(func(d *fakeDirectory) { d.creditStatus = http.StatusInternalServerError })
		do(t, env.handler, http.MethodPost, "/products", `{"name":"Widget","price":10,"category":"tools"}`)

		rec, body := do(t, env.handler, http.MethodPost, "/products/p1/assign", `{"accountId":"acct-1"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assignment := body["assignment"].(map[string]any)
		assert.Equal(t, "p1", assignment["productId"])
		assert.Equal(t, map[string]any{"error": "credit rejected", "status": 500.0}, body["chargeError"])
		assert.NotContains(t, body, "charge")

		rec, body = do(t, env.handler, http.MethodGet, "/assignments?accountId=acct-1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		items := body["assignments"].([]any)
		require.Len(t, items, 1)
		assert.Equal(t, assignment["id"], items[0].(map[string]any)["id"])
	})

	t.Run("charge applied", func(t *testing.T) {
		env := newCatalogEnv(t, true, nil)
		do(t, env.handler, http.MethodPost, "/products", `{"name":"Widget","price":10}`)

		rec, body := do(t, env.handler, http.MethodPost, "/products/p1/assign", `{"accountId":"acct-1"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, map[string]any{"accountId": "acct-1", "amount": -10.0, "balance": 90.0}, body["charge"])
		assert.Equal(t, 1, env.directory.creditCalls())
	})
}

func TestAssignChargeFailureReachesReconciliation(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := prometheus.NewRegistry()
	tel, _ := infraobs.ForService("catalog-api", zap.New(core), reg)

	bus := outbox.NewBus(tel.Logger())
	appassignment.NewChargeReconciliationWorker(tel).Start(bus, workerpresentation.EventMiddleware(tel, "assignment-worker"))
	bus.Start(context.Background())

	env := newCatalogEnvWithPublisher(t, true, tel, bus)
	env.directory.set(func(d *fakeDirectory) { d.creditStatus = http.StatusServiceUnavailable })
	do(t, env.handler, http.MethodPost, "/products", `{"name":"Widget","price":10,"category":"tools"}`)

	rec, body := do(t, env.handler, http.MethodPost, "/products/p1/assign", `{"accountId":"acct-1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, map[string]any{"error": "credit rejected", "status": 503.0}, body["chargeError"])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bus.Stop(ctx)

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP assignment_charge_failures_total Assignments recorded whose charge could not be applied.
# TYPE assignment_charge_failures_total counter
assignment_charge_failures_total{status="503"} 1
# HELP assignments_recorded_total Assignments appended to the ledger.
# TYPE assignments_recorded_total counter
assignments_recorded_total 1
`), "assignment_charge_failures_total", "assignments_recorded_total")
	require.NoError(t, err)

	entries := logs.FilterMessage("charge_reconciliation_required").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "acct-1", entries[0].ContextMap()["account_id"])
	assert.Equal(t, "p1", entries[0].ContextMap()["product_id"])
	assert.Zero(t, logs.FilterMessage("event_dropped_no_subscriber").Len())
}

func TestAssignFailuresRecordNothing(t *testing.T) {
	env := newCatalogEnv(t, true, nil)
	do(t, env.handler, http.MethodPost, "/products", `{"name":"Widget","price":10}`)

	rec, body := do(t, env.handler, http.MethodPost, "/products/p9/assign", `{"accountId":"acct-1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product not found", body["error"])

	rec, body = do(t, env.handler, http.MethodPost, "/products/p1/assign", `{"accountId":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "account not found", body["error"])

	rec, body = do(t, env.handler, http.MethodPost, "/products/p1/assign", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "accountId is required", body["error"])

	env.directory.set(func(d *fakeDirectory) { d.getStatus = http.StatusServiceUnavailable })
	rec, body = do(t, env.handler, http.MethodPost, "/products/p1/assign", `{"accountId":"acct-1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "directory unavailable", body["error"])

	for _, acct := range []string{"acct-1", "ghost"} {
		_, body = do(t, env.handler, http.MethodGet, "/assignments?accountId="+acct, "")
		assert.Equal(t, []any{}, body["assignments"])
	}
	assert.Zero(t, env.directory.creditCalls())
}

func TestAssignTransportFailureIs500(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	products := memory.NewProductRepository()
	ledger := memory.NewAssignmentRepository()
	h := NewCatalogHandler("catalog-api", CatalogUseCases{
		CreateProduct:   appcatalog.NewCreateProductUseCase(products, nil),
		GetProduct:      appcatalog.NewGetProductUseCase(products, nil),
		ListProducts:    appcatalog.NewListProductsUseCase(products, nil),
		AssignProduct:   appassignment.NewAssignProductUseCase(products, accounts.NewClient(url, 0, nil, nil), ledger, nil, false, nil),
		ListAssignments: appassignment.NewListAssignmentsUseCase(ledger, nil),
	}, nil).Router()

	do(t, h, http.MethodPost, "/products", `{"name":"Widget"}`)
	rec, body := do(t, h, http.MethodPost, "/products/p1/assign", `{"accountId":"acct-1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestListAssignmentsRequiresAccount(t *testing.T) {
	env := newCatalogEnv(t, false, nil)

	rec, body := do(t, env.handler, http.MethodGet, "/assignments", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "accountId query is required", body["error"])
}

func TestCatalogHealth(t *testing.T) {
	env := newCatalogEnv(t, false, nil)

	rec, body := do(t, env.handler, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok", "service": "catalog-api"}, body)
}
