// Package metrics exposes the node's Prometheus gauges, histograms, and
// counters. A nil *Registry is a valid no-op receiver on every method so
// components can be constructed without a registry in tests.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles the node's metric collectors. Construct with New and
// serve it over HTTP through the prometheus.Gatherer returned by Gatherer().
type Registry struct {
	reg *prometheus.Registry

	MempoolSize          prometheus.Gauge
	ChainHeight           prometheus.Gauge
	BlockAssemblySeconds  prometheus.Histogram
	IndexDispatchSeconds  *prometheus.HistogramVec
	IdempotencyChecksTotal *prometheus.CounterVec
}

// New creates a Registry and registers all collectors with a fresh
// prometheus.Registry.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		MempoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hush_mempool_size",
			Help: "Number of validated transactions currently held in the mempool.",
		}),
		ChainHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hush_chain_height",
			Help: "Index of the most recently committed block.",
		}),
		BlockAssemblySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hush_block_assembly_seconds",
			Help:    "Time spent in a single AssembleAsync call.",
			Buckets: prometheus.DefBuckets,
		}),
		IndexDispatchSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hush_index_dispatch_seconds",
			Help:    "Time spent dispatching a single transaction to its matching strategies.",
			Buckets: prometheus.DefBuckets,
		}, []string{"payload_kind"}),
		IdempotencyChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hush_idempotency_checks_total",
			Help: "Outcomes of IdempotencyGate.Check, labeled by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(r.MempoolSize, r.ChainHeight, r.BlockAssemblySeconds, r.IndexDispatchSeconds, r.IdempotencyChecksTotal)
	return r
}

// Gatherer exposes the underlying prometheus.Gatherer for an HTTP handler.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.reg
}

// SetMempoolSize records the current mempool size. No-op on a nil Registry.
func (r *Registry) SetMempoolSize(n int) {
	if r == nil {
		return
	}
	r.MempoolSize.Set(float64(n))
}

// SetChainHeight records the current chain height. No-op on a nil Registry.
func (r *Registry) SetChainHeight(height int64) {
	if r == nil {
		return
	}
	r.ChainHeight.Set(float64(height))
}

// ObserveBlockAssemblySeconds records one AssembleAsync duration. No-op on a nil Registry.
func (r *Registry) ObserveBlockAssemblySeconds(seconds float64) {
	if r == nil {
		return
	}
	r.BlockAssemblySeconds.Observe(seconds)
}

// ObserveIndexDispatchSeconds records one strategy-dispatch duration. No-op on a nil Registry.
func (r *Registry) ObserveIndexDispatchSeconds(payloadKind string, seconds float64) {
	if r == nil {
		return
	}
	r.IndexDispatchSeconds.WithLabelValues(payloadKind).Observe(seconds)
}

// IncIdempotencyCheck records one Check outcome. No-op on a nil Registry.
func (r *Registry) IncIdempotencyCheck(outcome string) {
	if r == nil {
		return
	}
	r.IdempotencyChecksTotal.WithLabelValues(outcome).Inc()
}
