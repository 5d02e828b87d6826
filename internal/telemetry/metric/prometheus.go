package metric

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/ledgermesh-go/internal/core/lockreg"
)

const namespace = "ledgermesh"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Ledger metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Lock registry metrics
	LockEntriesCreated prometheus.Counter
	LockWait           *prometheus.HistogramVec
	LockPairFailures   prometheus.Counter
	LockSweeps         prometheus.Counter
	LockEvicted        prometheus.Counter
}

// NewRegistry creates a registry with every application metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests handled, by protocol, method and status.",
		}, []string{"protocol", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"protocol", "method"}),
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Ledger operations by operation and outcome (ok or error code).",
		}, []string{"op", "outcome"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Ledger operation latency in seconds, lock waits included.",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),
		LockEntriesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "entries_created_total",
			Help:      "Lock entries created by the registry.",
		}),
		LockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "wait_seconds",
			Help:      "Time spent waiting for an account lock, by mode.",
			Buckets:   []float64{.00001, .0001, .001, .01, .1, 1},
		}, []string{"mode"}),
		LockPairFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "pair_failures_total",
			Help:      "Pair acquisitions that ran out of retries.",
		}),
		LockSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "sweeps_total",
			Help:      "Registry sweeps run.",
		}),
		LockEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "evicted_total",
			Help:      "Lock entries removed by sweeps.",
		}),
	}

	reg.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.OperationsTotal,
		r.OperationDuration,
		r.LockEntriesCreated,
		r.LockWait,
		r.LockPairFailures,
		r.LockSweeps,
		r.LockEvicted,
	)
	return r
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler returns the /metrics handler of the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registerer exposes the underlying registry for component metrics
// (e.g. the Badger store).
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for tests and exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordRequest counts one request.
func (r *Registry) RecordRequest(protocol, method string, status int) {
	r.RequestsTotal.WithLabelValues(protocol, method, strconv.Itoa(status)).Inc()
}

// ObserveRequestDuration records request latency.
func (r *Registry) ObserveRequestDuration(protocol, method string, d time.Duration) {
	r.RequestDuration.WithLabelValues(protocol, method).Observe(d.Seconds())
}

// ObserveOperation implements service.OperationObserver.
func (r *Registry) ObserveOperation(op, outcome string, took time.Duration) {
	r.OperationsTotal.WithLabelValues(op, outcome).Inc()
	r.OperationDuration.WithLabelValues(op).Observe(took.Seconds())
}

// EntryCreated implements lockreg.Observer.
func (r *Registry) EntryCreated() {
	r.LockEntriesCreated.Inc()
}

// LockAcquired implements lockreg.Observer.
func (r *Registry) LockAcquired(mode lockreg.Mode, wait time.Duration) {
	r.LockWait.WithLabelValues(string(mode)).Observe(wait.Seconds())
}

// PairFailed implements lockreg.Observer.
func (r *Registry) PairFailed(int) {
	r.LockPairFailures.Inc()
}

// Swept implements lockreg.Observer.
func (r *Registry) Swept(evicted, _ int, _ time.Duration) {
	r.LockSweeps.Inc()
	r.LockEvicted.Add(float64(evicted))
}
