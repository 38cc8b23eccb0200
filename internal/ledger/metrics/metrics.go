package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger module. All methods are
// nil-safe so the ledger can run without metrics in tests.
type Metrics struct {
	DevicesRegistered    prometheus.Counter
	DataRecordsStored    prometheus.Counter
	AccessGrants         prometheus.Counter
	AccessRevocations    prometheus.Counter
	UnauthorizedAttempts prometheus.Counter
	MutationDuration     prometheus.Histogram
}

// New creates a Metrics instance with all ledger metrics registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		DevicesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "iotledger_devices_registered_total",
			Help: "Total number of devices registered",
		}),
		DataRecordsStored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "iotledger_data_records_stored_total",
			Help: "Total number of data integrity records stored",
		}),
		AccessGrants: promauto.NewCounter(prometheus.CounterOpts{
			Name: "iotledger_access_grants_total",
			Help: "Total number of access permissions granted",
		}),
		AccessRevocations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "iotledger_access_revocations_total",
			Help: "Total number of access permissions revoked",
		}),
		UnauthorizedAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "iotledger_unauthorized_attempts_total",
			Help: "Total number of mutations rejected by capability checks",
		}),
		MutationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "iotledger_mutation_duration_seconds",
			Help:    "Duration of serialized ledger mutations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
	}
}

func (m *Metrics) IncDeviceRegistered() {
	if m != nil {
		m.DevicesRegistered.Inc()
	}
}

func (m *Metrics) IncDataRecordStored() {
	if m != nil {
		m.DataRecordsStored.Inc()
	}
}

func (m *Metrics) IncAccessGranted() {
	if m != nil {
		m.AccessGrants.Inc()
	}
}

func (m *Metrics) IncAccessRevoked() {
	if m != nil {
		m.AccessRevocations.Inc()
	}
}

func (m *Metrics) IncUnauthorized() {
	if m != nil {
		m.UnauthorizedAttempts.Inc()
	}
}

// ObserveMutation records the duration of one serialized mutation. Call with
// time.Now() at the start of the operation.
func (m *Metrics) ObserveMutation(start time.Time) {
	if m != nil {
		m.MutationDuration.Observe(time.Since(start).Seconds())
	}
}
