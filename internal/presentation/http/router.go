// Package httppresentation exposes the catalog-api and identity-api HTTP
// surfaces.
package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/minishop-catalog/internal/observability"
)

const componentHTTPHandler = "http_server"

// router owns the ServeMux and the middleware chain shared by both services.
type router struct {
	mux      *http.ServeMux
	log      observability.Logger
	requests observability.Counter
	duration observability.Histogram
}

func newRouter(tel observability.Observability) *router {
	logger, _, metrics := observability.Resolve(tel)
	return &router{
		mux:      http.NewServeMux(),
		log:      logger.With(observability.F("component", componentHTTPHandler)),
		requests: metrics.Counter(observability.MHTTPRequests),
		duration: metrics.Histogram(observability.MHTTPRequestDuration),
	}
}

// handle registers pattern ("GET /products/{id}") behind
// Trace → request logger → access log → HTTP metrics → handler.
func (rt *router) handle(pattern string, handler http.HandlerFunc) {
	wrapped := withTrace(
		ObservabilityMiddleware(
			rt.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
			func(r *http.Request) string { return r.Header.Get(headerTenantID) },
		)(
			withAccessLog(rt.log,
				withHTTPMetrics(rt.requests, rt.duration, handler),
			),
		),
	)
	rt.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		wrapped.ServeHTTP(w, r.WithContext(contextWithRoute(r.Context(), pattern)))
	})
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func healthHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Service: service})
	}
}
