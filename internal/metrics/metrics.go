// Package metrics exposes Prometheus collectors for block validation, name
// resolution and the HTTP service.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/litescript/ls-odl/internal/block"
	"github.com/litescript/ls-odl/internal/target"
)

// Result label values.
const (
	ResultValid    = "valid"
	ResultInvalid  = "invalid"
	ResultFound    = "found"
	ResultNotFound = "not_found"
	ResultTimeout  = "timeout"
	ResultError    = "error"
)

// Collector bundles the ls-odl metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	BlocksFinalized    *prometheus.CounterVec
	Violations         *prometheus.CounterVec
	Resolutions        *prometheus.CounterVec
	ResolutionDuration *prometheus.HistogramVec
	HTTPRequests       *prometheus.CounterVec
}

// New registers the collectors against reg, defaulting to the global
// registry when nil. Registering twice on one registry reuses the existing
// collectors.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	finalized, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odl_blocks_finalized_total",
		Help: "Observing blocks finalized, labeled by kind and result.",
	}, []string{"kind", "result"}), "odl_blocks_finalized_total")
	if err != nil {
		return nil, err
	}

	violations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odl_composition_violations_total",
		Help: "Composition rule violations found while finalizing blocks, labeled by rule.",
	}, []string{"rule"}), "odl_composition_violations_total")
	if err != nil {
		return nil, err
	}

	resolutions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odl_name_resolutions_total",
		Help: "Target name lookups, labeled by resolver and result.",
	}, []string{"resolver", "result"}), "odl_name_resolutions_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odl_name_resolution_duration_seconds",
		Help:    "Target name lookup latency in seconds.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"resolver"}), "odl_name_resolution_duration_seconds")
	if err != nil {
		return nil, err
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odl_http_requests_total",
		Help: "HTTP requests served, labeled by handler and status code.",
	}, []string{"handler", "code"}), "odl_http_requests_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:           gatherer,
		BlocksFinalized:    finalized,
		Violations:         violations,
		Resolutions:        resolutions,
		ResolutionDuration: duration,
		HTTPRequests:       requests,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveBlock records the outcome of one finalized block. Unvalidated
// blocks are ignored.
func (c *Collector) ObserveBlock(b block.Block) {
	if c == nil {
		return
	}
	switch b.State() {
	case block.Valid:
		c.BlocksFinalized.WithLabelValues(string(b.Kind()), ResultValid).Inc()
	case block.Invalid:
		c.BlocksFinalized.WithLabelValues(string(b.Kind()), ResultInvalid).Inc()
		var ce *block.CompositionError
		if errors.As(b.Err(), &ce) {
			for _, rule := range ce.Rules() {
				c.Violations.WithLabelValues(rule).Inc()
			}
		}
	}
}

// ObserveList records every block of a finalized list.
func (c *Collector) ObserveList(l block.List) {
	for _, b := range l.All() {
		c.ObserveBlock(b)
	}
}

// InstrumentResolver wraps r so each lookup is counted and timed.
func (c *Collector) InstrumentResolver(r target.Resolver) target.Resolver {
	if c == nil {
		return r
	}
	return &instrumentedResolver{next: r, c: c}
}

type instrumentedResolver struct {
	next target.Resolver
	c    *Collector
}

func (r *instrumentedResolver) Name() string { return r.next.Name() }

func (r *instrumentedResolver) Resolve(ctx context.Context, name string) (*target.Target, error) {
	start := time.Now()
	t, err := r.next.Resolve(ctx, name)
	r.c.ResolutionDuration.WithLabelValues(r.next.Name()).Observe(time.Since(start).Seconds())
	r.c.Resolutions.WithLabelValues(r.next.Name(), resolutionResult(err)).Inc()
	return t, err
}

func resolutionResult(err error) string {
	switch {
	case err == nil:
		return ResultFound
	case errors.Is(err, target.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return ResultTimeout
	default:
		return ResultError
	}
}

// Middleware counts requests served by h under the given handler label.
func (c *Collector) Middleware(handler string, h http.Handler) http.Handler {
	if c == nil {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		h.ServeHTTP(sw, r)
		c.HTTPRequests.WithLabelValues(handler, strconv.Itoa(sw.code)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
