package prometrics

import (
	"errors"
	"sync"

	"github.com/Zhima-Mochi/minishop-catalog/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// Registry exposes the subset of Prometheus registry functionality needed by the application.
type Registry interface {
	Counter(name string, help string, labelKeys ...string) observability.Counter
	Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram
}

type registry struct {
	counters   sync.Map // name -> *prometheus.CounterVec
	histograms sync.Map // name -> *prometheus.HistogramVec
	namespace  string
	subsystem  string
	reg        prometheus.Registerer
}

// New returns a Registry that registers its vectors on reg.
// A nil reg falls back to prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, namespace, subsystem string) Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &registry{namespace: namespace, subsystem: subsystem, reg: reg}
}

type counter struct{ v *prometheus.CounterVec }

// Add drops observations whose labels don't match the vector instead of panicking.
func (c *counter) Add(d float64, labels ...observability.Label) {
	m, err := c.v.GetMetricWith(labelMap(labels))
	if err != nil {
		return
	}
	m.Add(d)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	m, err := h.v.GetMetricWith(labelMap(labels))
	if err != nil {
		return
	}
	m.Observe(v)
}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}

func (r *registry) Counter(name string, help string, labelKeys ...string) observability.Counter {
	// ensure only registered once
	if v, ok := r.counters.Load(name); ok {
		return &counter{v: v.(*prometheus.CounterVec)}
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help,
	}, labelKeys)
	if err := r.reg.Register(cv); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			panic(err)
		}
		cv = are.ExistingCollector.(*prometheus.CounterVec)
	}
	r.counters.Store(name, cv)
	return &counter{v: cv}
}

func (r *registry) Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram {
	if v, ok := r.histograms.Load(name); ok {
		return &histogram{v: v.(*prometheus.HistogramVec)}
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labelKeys)
	if err := r.reg.Register(hv); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			panic(err)
		}
		hv = are.ExistingCollector.(*prometheus.HistogramVec)
	}
	r.histograms.Store(name, hv)
	return &histogram{v: hv}
}

// Set is the metric set shared by both services. It satisfies
// observability.Metrics; unknown keys resolve to no-ops.
type Set struct {
	UsecaseRequests         observability.Counter
	HTTPRequests            observability.Counter
	ExternalRequests        observability.Counter
	ChargeFailures          observability.Counter
	AssignmentsRecorded     observability.Counter
	UsecaseDuration         observability.Histogram
	HTTPRequestDuration     observability.Histogram
	ExternalRequestDuration observability.Histogram
}

// NewSet registers every instrument in Set on r. Calling it twice against
// the same registerer reuses the existing vectors.
func NewSet(r Registry) *Set {
	return &Set{
		UsecaseRequests: r.Counter(string(observability.MUsecaseRequests),
			"Total number of use case invocations.", "use_case", "outcome"),
		HTTPRequests: r.Counter(string(observability.MHTTPRequests),
			"Total number of HTTP requests.", "method", "route", "status"),
		ExternalRequests: r.Counter(string(observability.MExternalRequests),
			"Total number of outbound calls to peer services.", "peer", "endpoint", "outcome"),
		ChargeFailures: r.Counter(string(observability.MChargeFailures),
			"Assignments recorded whose charge could not be applied.", "status"),
		AssignmentsRecorded: r.Counter(string(observability.MAssignmentsRecorded),
			"Assignments appended to the ledger."),
		UsecaseDuration: r.Histogram(string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.", prometheus.DefBuckets, "use_case"),
		HTTPRequestDuration: r.Histogram(string(observability.MHTTPRequestDuration),
			"HTTP request latency in seconds.", prometheus.DefBuckets, "method", "route", "status"),
		ExternalRequestDuration: r.Histogram(string(observability.MExternalRequestDuration),
			"Outbound call latency in seconds.", prometheus.DefBuckets, "peer", "endpoint"),
	}
}

func (s *Set) Counter(key observability.MetricKey) observability.Counter {
	var c observability.Counter
	if s != nil {
		switch key {
		case observability.MUsecaseRequests:
			c = s.UsecaseRequests
		case observability.MHTTPRequests:
			c = s.HTTPRequests
		case observability.MExternalRequests:
			c = s.ExternalRequests
		case observability.MChargeFailures:
			c = s.ChargeFailures
		case observability.MAssignmentsRecorded:
			c = s.AssignmentsRecorded
		}
	}
	if c == nil {
		return observability.NopCounter()
	}
	return c
}

func (s *Set) Histogram(key observability.MetricKey) observability.Histogram {
	var h observability.Histogram
	if s != nil {
		switch key {
		case observability.MUsecaseDuration:
			h = s.UsecaseDuration
		case observability.MHTTPRequestDuration:
			h = s.HTTPRequestDuration
		case observability.MExternalRequestDuration:
			h = s.ExternalRequestDuration
		}
	}
	if h == nil {
		return observability.NopHistogram()
	}
	return h
}
