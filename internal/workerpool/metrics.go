package workerpool

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the pool's optional Prometheus instrumentation. A nil
// *Metrics is valid everywhere in this package: every method is a no-op on
// a nil receiver, so callers who don't want metrics never pay for them.
type Metrics struct {
	jobsSubmitted prometheus.Counter
	jobsCompleted prometheus.Counter
	activeWorkers prometheus.Gauge
	queueDepth    prometheus.Gauge
}

// NewMetrics builds a Metrics instance and registers its collectors with
// reg. The caller owns reg; this package never touches the global default
// registry, so multiple pools can be instrumented independently.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		jobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "Total number of jobs submitted to the worker pool.",
		}),
		jobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Total number of jobs that finished running.",
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_workers",
			Help:      "Number of workers currently executing a job.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Number of jobs currently sitting in the delay queue.",
		}),
	}
	reg.MustRegister(m.jobsSubmitted, m.jobsCompleted, m.activeWorkers, m.queueDepth)
	return m
}

func (m *Metrics) incSubmitted() {
	if m == nil {
		return
	}
	m.jobsSubmitted.Inc()
}

func (m *Metrics) incCompleted() {
	if m == nil {
		return
	}
	m.jobsCompleted.Inc()
}

func (m *Metrics) incActive() {
	if m == nil {
		return
	}
	m.activeWorkers.Inc()
}

func (m *Metrics) decActive() {
	if m == nil {
		return
	}
	m.activeWorkers.Dec()
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
