package reservation

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

const (
	defaultSweepInterval  = 5 * time.Second
	defaultSweepBatchSize = 200
)

var (
	sweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ims_reservation_sweep_runs_total",
		Help: "Total number of reservation sweep runs grouped by result.",
	}, []string{"result"})
	sweepReleasedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ims_reservation_sweep_released_total",
		Help: "Total number of expired reservations released by the sweeper.",
	})
	sweepLastReleased = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ims_reservation_sweep_last_released",
		Help: "Number of reservations released during the last sweep run.",
	})
)

// SweeperOptions задаёт параметры воркера снятия просроченных резервов.
type SweeperOptions struct {
	Logger    *log.Entry
	Interval  time.Duration
	BatchSize int
}

// SweeperOption настраивает Sweeper.
type SweeperOption func(*SweeperOptions)

// WithSweeperLogger задаёт logger для воркера.
func WithSweeperLogger(logger *log.Entry) SweeperOption {
	return func(opts *SweeperOptions) {
		opts.Logger = logger
	}
}

// WithInterval задаёт интервал между проходами.
func WithInterval(interval time.Duration) SweeperOption {
	return func(opts *SweeperOptions) {
		opts.Interval = interval
	}
}

// WithBatchSize задаёт размер порции одного прохода.
func WithBatchSize(batchSize int) SweeperOption {
	return func(opts *SweeperOptions) {
		opts.BatchSize = batchSize
	}
}

// Sweeper периодически снимает просроченные резервы и возвращает остатки.
// Без него удержания брошенных оформлений остались бы навсегда.
type Sweeper struct {
	tracker   *Tracker
	logger    *log.Entry
	interval  time.Duration
	batchSize int
}

// NewSweeper создаёт воркер снятия просроченных резервов.
func NewSweeper(tracker *Tracker, options ...SweeperOption) *Sweeper {
	opts := SweeperOptions{
		Interval:  defaultSweepInterval,
		BatchSize: defaultSweepBatchSize,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "reservation-sweeper")
	}

	if opts.Interval <= 0 {
		opts.Interval = defaultSweepInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultSweepBatchSize
	}

	return &Sweeper{
		tracker:   tracker,
		logger:    logger,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
	}
}

// Run запускает периодические проходы до отмены ctx.
func (s *Sweeper) Run(ctx context.Context) {
	if s.tracker == nil {
		s.logger.Warn("reservation sweeper is disabled: tracker is nil")
		return
	}

	s.sweep(time.Now().UTC())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(time.Now().UTC())
		}
	}
}

func (s *Sweeper) sweep(before time.Time) {
	released, err := s.Sweep(before)
	if err != nil {
		sweepRunsTotal.WithLabelValues("error").Inc()
		s.logger.WithError(err).Warn("reservation sweep run failed")
		return
	}

	sweepRunsTotal.WithLabelValues("ok").Inc()
	sweepLastReleased.Set(float64(released))
	if released > 0 {
		s.logger.WithField("released", released).Info("expired reservations released")
	}
}

// Sweep снимает все резервы, истёкшие к моменту before, порциями batchSize.
func (s *Sweeper) Sweep(before time.Time) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	totalReleased := 0
	for {
		released, err := s.tracker.ExpireDue(before, s.batchSize)
		if err != nil {
			return totalReleased, err
		}

		totalReleased += released
		if released > 0 {
			sweepReleasedTotal.Add(float64(released))
		}

		if released < s.batchSize {
			break
		}
	}

	return totalReleased, nil
}
