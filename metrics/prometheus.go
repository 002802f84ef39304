package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lixenwraith/ccerve/log"
)

// Prometheus records events into a private registry
type Prometheus struct {
	namespace string
	registry  *prometheus.Registry

	accepted     prometheus.Counter
	rejected     *prometheus.CounterVec
	acceptErrors prometheus.Counter
	queueDepth   prometheus.Gauge
	workersBusy  prometheus.Gauge
	requests     *prometheus.HistogramVec
}

// NewPrometheus creates a recorder with its own registry.
// Registered metrics:
//   - <ns>_connections_accepted_total (counter)
//   - <ns>_connections_rejected_total{reason} (counter)
//   - <ns>_accept_errors_total (counter)
//   - <ns>_conn_queue_depth (gauge)
//   - <ns>_workers_busy (gauge)
//   - <ns>_request_duration_seconds{status} (histogram)
func NewPrometheus(namespace string) (*Prometheus, error) {
	p := &Prometheus{
		namespace: namespace,
		registry:  prometheus.NewRegistry(),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Connections accepted from the listener",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_rejected_total",
			Help:      "Connections closed without being served",
		}, []string{"reason"}),
		acceptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accept_errors_total",
			Help:      "Failed accept calls",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conn_queue_depth",
			Help:      "Connections waiting for a worker",
		}),
		workersBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_busy",
			Help:      "Workers currently serving a connection",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from request read to response written",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"status"}),
	}

	// Register instead of MustRegister, duplicates are reported not panicked
	collectors := []prometheus.Collector{
		p.accepted, p.rejected, p.acceptErrors, p.queueDepth, p.workersBusy, p.requests,
	}
	for _, c := range collectors {
		if err := p.registry.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: failed to register collector: %w", err)
		}
	}
	return p, nil
}

// RegisterLogger exposes the counters of l, labeled with its name
func (p *Prometheus) RegisterLogger(l *log.Logger) error {
	labels := prometheus.Labels{"logger": l.Name()}
	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   p.namespace,
			Name:        "log_records_total",
			Help:        "Log records written to all sinks",
			ConstLabels: labels,
		}, func() float64 { return float64(l.Stats().Processed) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   p.namespace,
			Name:        "log_sink_errors_total",
			Help:        "Failed log sink writes",
			ConstLabels: labels,
		}, func() float64 { return float64(l.Stats().SinkErrors) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   p.namespace,
			Name:        "log_dropped_total",
			Help:        "Log records rejected after shutdown",
			ConstLabels: labels,
		}, func() float64 { return float64(l.Stats().Dropped) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   p.namespace,
			Name:        "log_queue_depth",
			Help:        "Log records waiting for the drain goroutine",
			ConstLabels: labels,
		}, func() float64 { return float64(l.Stats().QueueDepth) }),
	}
	for _, c := range collectors {
		if err := p.registry.Register(c); err != nil {
			return fmt.Errorf("metrics: failed to register logger '%s': %w", l.Name(), err)
		}
	}
	return nil
}

// Registry returns the underlying registry
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus text format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Prometheus) ConnAccepted() {
	p.accepted.Inc()
}

func (p *Prometheus) ConnRejected(reason string) {
	p.rejected.WithLabelValues(reason).Inc()
}

func (p *Prometheus) QueueDepth(n int) {
	p.queueDepth.Set(float64(n))
}

func (p *Prometheus) WorkerBusy(delta int) {
	p.workersBusy.Add(float64(delta))
}

func (p *Prometheus) RequestServed(status int, d time.Duration) {
	p.requests.WithLabelValues(strconv.Itoa(status)).Observe(d.Seconds())
}

func (p *Prometheus) AcceptError() {
	p.acceptErrors.Inc()
}
