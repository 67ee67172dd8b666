// Package observability assembles the tracer, logger and metric set that
// each service hands to its use cases, handlers and workers.
package observability

import (
	"github.com/Zhima-Mochi/minishop-catalog/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-catalog/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-catalog/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-catalog/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Provider implements observability.Observability. The zero value is usable
// and reports through no-ops.
type Provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

type Option func(*Provider)

func WithTracer(t observability.Tracer) Option {
	return func(p *Provider) { p.tracer = t }
}

func WithLogger(l observability.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

func WithMetrics(m observability.Metrics) Option {
	return func(p *Provider) { p.metrics = m }
}

// New builds a Provider from opts.
func New(opts ...Option) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// ForService wires the process stack: spans from the global otel provider
// under service, logs through base, and the shared metric set registered on
// reg. It returns the set so callers can read instruments directly.
func ForService(service string, base *zap.Logger, reg prometheus.Registerer) (*Provider, *prometrics.Set) {
	set := prometrics.NewSet(prometrics.New(reg, "", ""))
	return New(
		WithTracer(oteltrace.New(service)),
		WithLogger(zaplogger.New(base)),
		WithMetrics(set),
	), set
}

func (p *Provider) Tracer() observability.Tracer {
	if p == nil || p.tracer == nil {
		return observability.NopTracer()
	}
	return p.tracer
}

func (p *Provider) Logger() observability.Logger {
	if p == nil || p.logger == nil {
		return observability.NopLogger()
	}
	return p.logger
}

func (p *Provider) Metrics() observability.Metrics {
	if p == nil || p.metrics == nil {
		return observability.NopMetrics()
	}
	return p.metrics
}
