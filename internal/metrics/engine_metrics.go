package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics содержит метрики для операций движка заказов и резервов.
type EngineMetrics struct {
	// Счётчики операций checkout
	checkoutStarted     prometheus.Counter
	checkoutCompleted   prometheus.Counter
	checkoutFailed      prometheus.Counter
	checkoutCompensated prometheus.Counter

	// Гистограммы времени выполнения
	checkoutDuration prometheus.Histogram
	stepDuration     *prometheus.HistogramVec

	// Счётчики резервов
	reservationsCreated  prometheus.Counter
	reservationsReleased prometheus.Counter
	reservationsExpired  prometheus.Counter

	// Счётчики движений по журналу
	ledgerEntries *prometheus.CounterVec

	// Gauge для активных резервов
	activeReservations prometheus.Gauge
}

// NewEngineMetrics создаёт новый экземпляр метрик движка.
func NewEngineMetrics() *EngineMetrics {
	return newEngineMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newEngineMetricsWithRegisterer(registerer prometheus.Registerer) *EngineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &EngineMetrics{
		checkoutStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ims_checkout_started_total",
			Help: "Total number of checkout operations started",
		}),
		checkoutCompleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ims_checkout_completed_total",
			Help: "Total number of checkout operations completed successfully",
		}),
		checkoutFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ims_checkout_failed_total",
			Help: "Total number of checkout operations failed",
		}),
		checkoutCompensated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ims_checkout_compensated_total",
			Help: "Total number of checkouts rolled back after a mid-flight failure",
		}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "ims_checkout_duration_seconds",
			Help:    "Duration of checkout operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stepDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "ims_checkout_step_duration_seconds",
			Help:    "Duration of individual checkout steps in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"step"}),
		reservationsCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ims_reservations_created_total",
			Help: "Total number of stock reservations created",
		}),
		reservationsReleased: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ims_reservations_released_total",
			Help: "Total number of stock reservations released back to stock",
		}),
		reservationsExpired: registerCounter(registerer, prometheus.CounterOpts{
			Name: "ims_reservations_expired_total",
			Help: "Total number of stock reservations released by the expiry sweeper",
		}),
		ledgerEntries: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "ims_ledger_entries_total",
			Help: "Total number of ledger entries recorded grouped by kind",
		}, []string{"kind"}),
		activeReservations: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "ims_active_reservations",
			Help: "Number of currently held stock reservations",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordCheckoutStarted увеличивает счётчик запущенных checkout.
func (m *EngineMetrics) RecordCheckoutStarted() {
	m.checkoutStarted.Inc()
}

// RecordCheckoutCompleted увеличивает счётчик успешных checkout.
func (m *EngineMetrics) RecordCheckoutCompleted() {
	m.checkoutCompleted.Inc()
}

// RecordCheckoutFailed увеличивает счётчик неудачных checkout.
func (m *EngineMetrics) RecordCheckoutFailed() {
	m.checkoutFailed.Inc()
}

// RecordCheckoutCompensated увеличивает счётчик откаченных checkout.
func (m *EngineMetrics) RecordCheckoutCompensated() {
	m.checkoutCompensated.Inc()
}

// RecordCheckoutDuration записывает время выполнения checkout.
func (m *EngineMetrics) RecordCheckoutDuration(duration time.Duration) {
	m.checkoutDuration.Observe(duration.Seconds())
}

// RecordStepDuration записывает время выполнения шага checkout.
func (m *EngineMetrics) RecordStepDuration(step string, duration time.Duration) {
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// RecordReservationCreated учитывает созданный резерв.
func (m *EngineMetrics) RecordReservationCreated() {
	m.reservationsCreated.Inc()
	m.activeReservations.Inc()
}

// RecordReservationReleased учитывает снятый резерв.
func (m *EngineMetrics) RecordReservationReleased() {
	m.reservationsReleased.Inc()
	m.activeReservations.Dec()
}

// RecordReservationExpired учитывает резерв, снятый по истечении срока.
// Gauge активных резервов уже уменьшен сопутствующим RecordReservationReleased.
func (m *EngineMetrics) RecordReservationExpired() {
	m.reservationsExpired.Inc()
}

// RecordReservationConsumed учитывает резерв, сконвертированный в заказ.
func (m *EngineMetrics) RecordReservationConsumed() {
	m.activeReservations.Dec()
}

// RecordLedgerEntry увеличивает счётчик записей журнала по виду движения.
func (m *EngineMetrics) RecordLedgerEntry(kind string) {
	m.ledgerEntries.WithLabelValues(kind).Inc()
}
