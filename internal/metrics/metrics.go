package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the registration pipeline and dashboard push.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	WorkersRegistered    prometheus.Counter
	RegistrationFailures *prometheus.CounterVec
	WorkersDeleted       prometheus.Counter
	RegisterDuration     prometheus.Histogram
	DocumentsAssembled   *prometheus.CounterVec
	EventSubscribers     prometheus.Gauge
	OrphansSwept         prometheus.Counter
}

// New registers the metrics on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WorkersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "idcard_workers_registered_total",
			Help: "Total number of workers registered",
		}),
		RegistrationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idcard_registration_failures_total",
			Help: "Registrations rejected or aborted, by stage",
		}, []string{"stage"}),
		WorkersDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "idcard_workers_deleted_total",
			Help: "Total number of worker records deleted",
		}),
		RegisterDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "idcard_register_duration_seconds",
			Help:    "Duration of a registration from validation to commit",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		DocumentsAssembled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idcard_documents_assembled_total",
			Help: "PDF documents assembled, by category",
		}, []string{"category"}),
		EventSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Name: "idcard_event_subscribers",
			Help: "Dashboard clients connected to the event stream",
		}),
		OrphansSwept: f.NewCounter(prometheus.CounterOpts{
			Name: "idcard_orphan_namespaces_swept_total",
			Help: "Storage namespaces removed because no worker record owns them",
		}),
	}
}

func (m *Metrics) IncrementRegistered() {
	if m == nil {
		return
	}
	m.WorkersRegistered.Inc()
}

// IncrementRegistrationFailure records where a registration stopped:
// validation, duplicate, allocation, assembly or store.
func (m *Metrics) IncrementRegistrationFailure(stage string) {
	if m == nil {
		return
	}
	m.RegistrationFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) IncrementDeleted() {
	if m == nil {
		return
	}
	m.WorkersDeleted.Inc()
}

// ObserveRegister records the duration since start.
func (m *Metrics) ObserveRegister(start time.Time) {
	if m == nil {
		return
	}
	m.RegisterDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementAssembled(category string) {
	if m == nil {
		return
	}
	m.DocumentsAssembled.WithLabelValues(category).Inc()
}

func (m *Metrics) SubscriberConnected() {
	if m == nil {
		return
	}
	m.EventSubscribers.Inc()
}

func (m *Metrics) SubscriberDisconnected() {
	if m == nil {
		return
	}
	m.EventSubscribers.Dec()
}

func (m *Metrics) AddOrphansSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.OrphansSwept.Add(float64(n))
}
