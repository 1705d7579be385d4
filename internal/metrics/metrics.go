// Package metrics holds the Prometheus collectors of the checkout backend.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/xquisito/pickandgo/internal/checkout"
)

const namespace = "pickandgo"

var _ checkout.Observer = (*Metrics)(nil)

// Metrics implements checkout.Observer and records RPC timings.
type Metrics struct {
	submissions    *prometheus.CounterVec
	steps          *prometheus.HistogramVec
	softFailures   *prometheus.CounterVec
	reconciliation *prometheus.CounterVec
	removedItems   prometheus.Counter
	rpcDuration    *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_submissions_total",
			Help:      "Order submissions by outcome.",
		}, []string{"outcome"}),
		steps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_step_duration_seconds",
			Help:      "Duration of each order submission step by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step", "outcome"}),
		softFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soft_failures_total",
			Help:      "Best-effort steps that failed after a successful charge.",
		}, []string{"step"}),
		reconciliation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "branch_switches_total",
			Help:      "Applied branch switches, by whether the catalog check failed open.",
		}, []string{"fail_open"}),
		removedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "branch_switch_removed_items_total",
			Help:      "Cart items removed because the new branch does not offer them.",
		}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Duration of checkout RPCs by procedure and code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}

	for _, c := range []prometheus.Collector{m.submissions, m.steps, m.softFailures, m.reconciliation, m.removedItems, m.rpcDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveStep(step, outcome string, elapsed time.Duration) {
	m.steps.WithLabelValues(step, outcome).Observe(elapsed.Seconds())
	if outcome == checkout.OutcomeSoftFailed {
		m.softFailures.WithLabelValues(step).Inc()
	}
}

func (m *Metrics) ObserveSubmission(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveReconciliation(removed int, failOpen bool) {
	m.reconciliation.WithLabelValues(strconv.FormatBool(failOpen)).Inc()
	m.removedItems.Add(float64(removed))
}

// ObserveRPC records one RPC. code is "ok" or the Connect error code.
func (m *Metrics) ObserveRPC(procedure, code string, elapsed time.Duration) {
	m.rpcDuration.WithLabelValues(procedure, code).Observe(elapsed.Seconds())
}
