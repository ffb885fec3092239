// Package metrics exports content repository activity to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/surrealdb/sitecontent/pkg/content"
	"github.com/surrealdb/sitecontent/pkg/docstore"
)

const namespace = "sitecontent"

// Result label values.
const (
	ResultOK          = "ok"
	ResultNotFound    = "not_found"
	ResultReadOnly    = "read_only"
	ResultUnavailable = "error"
)

// Collector implements content.Observer.
type Collector struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	repaired   *prometheus.CounterVec
	lastRepair *prometheus.GaugeVec
}

var _ content.Observer = (*Collector)(nil)

// New registers the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Document store calls by collection, operation and result.",
		}, []string{"collection", "op", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Document store call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection", "op"}),
		repaired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repair_documents_total",
			Help:      "Documents visited by repair runs, by outcome.",
		}, []string{"collection", "outcome"}),
		lastRepair: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "repair_last_run_timestamp_seconds",
			Help:      "Unix time of the last finished repair run.",
		}, []string{"collection"}),
	}
	c.registry.MustRegister(
		c.operations,
		c.latency,
		c.repaired,
		c.lastRepair,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) ObserveOperation(collection, op string, took time.Duration, err error) {
	c.operations.WithLabelValues(collection, op, result(err)).Inc()
	c.latency.WithLabelValues(collection, op).Observe(took.Seconds())
}

func (c *Collector) ObserveRepair(collection string, res content.RepairResult) {
	if res.DryRun {
		return
	}
	c.repaired.WithLabelValues(collection, "fixed").Add(float64(len(res.Fixed)))
	c.repaired.WithLabelValues(collection, "already_correct").Add(float64(len(res.AlreadyCorrect)))
	c.repaired.WithLabelValues(collection, "failed").Add(float64(len(res.Failed)))
	c.lastRepair.WithLabelValues(collection).SetToCurrentTime()
}

// Registry exposes the underlying registry, mostly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, docstore.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, docstore.ErrReadOnly):
		return ResultReadOnly
	}
	return ResultUnavailable
}
