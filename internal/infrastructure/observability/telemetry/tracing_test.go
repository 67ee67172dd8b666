package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

type collector struct {
	mu    sync.Mutex
	paths []string
}

func (c *collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.paths = append(c.paths, r.Method+" "+r.URL.Path)
	c.mu.Unlock()
	w.Header().Set("Content-Type", "application/x-protobuf")
	w.WriteHeader(http.StatusOK)
}

func (c *collector) hits() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func restoreGlobals(t *testing.T) {
	t.Helper()
	tp := otel.GetTracerProvider()
	prop := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})
}

func TestSetupTracingExportsToCollector(t *testing.T) {
	cases := []struct {
		name     string
		endpoint func(srvURL string) string
		wantPath string
	}{
		{"url", func(u string) string { return u }, "/v1/traces"},
		{"url with trailing slash", func(u string) string { return u + "/" }, "/v1/traces"},
		{"url with base path", func(u string) string { return u + "/otlp" }, "/otlp/v1/traces"},
		{"host and port", func(u string) string { return strings.TrimPrefix(u, "http://") }, "/v1/traces"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			restoreGlobals(t)
			c := &collector{}
			srv := httptest.NewServer(c)
			defer srv.Close()

			ctx := context.Background()
			shutdown, err := SetupTracing(ctx, "catalog-api", "test", tc.endpoint(srv.URL))
			require.NoError(t, err)

			_, span := otel.Tracer("test").Start(ctx, "UC.AssignProduct")
			assert.True(t, span.SpanContext().IsValid())
			span.End()

			require.NoError(t, shutdown(ctx))
			assert.Equal(t, []string{"POST " + tc.wantPath}, c.hits())
		})
	}
}

func TestSetupTracingWithoutEndpointIsNoop(t *testing.T) {
	restoreGlobals(t)
	before := otel.GetTracerProvider()
	shutdown, err := SetupTracing(context.Background(), "catalog-api", "test", "")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	assert.Same(t, before, otel.GetTracerProvider())
}

func TestSetupTracingRejectsMalformedURL(t *testing.T) {
	restoreGlobals(t)
	for _, endpoint := range []string{"ftp://collector:4318", "http://", "http://%zz"} {
		_, err := SetupTracing(context.Background(), "catalog-api", "test", endpoint)
		assert.Error(t, err, endpoint)
	}
}
