package reservation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ims/internal/domain"
	"github.com/vladislavdragonenkov/ims/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ims/internal/metrics"
)

// DefaultTTL — срок жизни резерва по умолчанию.
const DefaultTTL = 30 * time.Second

// TrackerOptions задаёт параметры трекера резервов.
type TrackerOptions struct {
	Logger   *log.Entry
	TTL      time.Duration
	Producer *kafka.Producer
}

// TrackerOption настраивает Tracker.
type TrackerOption func(*TrackerOptions)

// WithTrackerLogger задаёт logger трекера.
func WithTrackerLogger(logger *log.Entry) TrackerOption {
	return func(opts *TrackerOptions) {
		opts.Logger = logger
	}
}

// WithTTL задаёт срок жизни резерва.
func WithTTL(ttl time.Duration) TrackerOption {
	return func(opts *TrackerOptions) {
		opts.TTL = ttl
	}
}

// WithProducer задаёт опциональный Kafka producer для stock-событий.
func WithProducer(producer *kafka.Producer) TrackerOption {
	return func(opts *TrackerOptions) {
		opts.Producer = producer
	}
}

// Tracker управляет срочными удержаниями остатков. Остаток уменьшается в момент
// создания резерва и возвращается при снятии; просроченные резервы снимает Sweeper.
type Tracker struct {
	reservations domain.ReservationRepository
	mu           *sync.Mutex
	ttl          time.Duration
	logger       *log.Entry
	metrics      *metrics.EngineMetrics
	producer     *kafka.Producer
}

// NewTracker создаёт трекер резервов.
func NewTracker(
	reservations domain.ReservationRepository,
	mu *sync.Mutex,
	options ...TrackerOption,
) *Tracker {
	opts := TrackerOptions{
		TTL: DefaultTTL,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "reservation-tracker")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}

	return &Tracker{
		reservations: reservations,
		mu:           mu,
		ttl:          opts.TTL,
		logger:       logger,
		metrics:      metrics.NewEngineMetrics(),
		producer:     opts.Producer,
	}
}

// TTL возвращает действующий срок жизни резерва.
func (t *Tracker) TTL() time.Duration {
	return t.ttl
}

// Reserve удерживает qty единиц товара под владельца одной атомарной единицей:
// остаток проверяется и уменьшается, резерв и журнальная запись reserve
// вставляются вместе. При нехватке остатка — ErrInsufficientStock без изменений.
func (t *Tracker) Reserve(productID, owner string, qty int32) (domain.Reservation, error) {
	now := time.Now().UTC()
	res := domain.Reservation{
		ID:        uuid.NewString(),
		ProductID: productID,
		Owner:     owner,
		Qty:       qty,
		ExpiresAt: now.Add(t.ttl),
		CreatedAt: now,
	}
	if errs := res.Validate(); len(errs) > 0 {
		return domain.Reservation{}, errors.Join(errs...)
	}

	entry := domain.LedgerEntry{
		ID:        uuid.NewString(),
		ProductID: productID,
		Kind:      domain.EntryKindReserve,
		Delta:     -qty,
		RefID:     res.ID,
		CreatedAt: now,
	}

	t.mu.Lock()
	stock, err := t.reservations.Reserve(res, entry)
	t.mu.Unlock()
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("reserve %d of %s: %w", qty, productID, err)
	}

	t.metrics.RecordReservationCreated()
	t.metrics.RecordLedgerEntry(string(domain.EntryKindReserve))
	t.logger.WithFields(log.Fields{
		"reservation_id": res.ID,
		"product_id":     productID,
		"owner":          owner,
		"qty":            qty,
		"expires_at":     res.ExpiresAt,
	}).Debug("stock reserved")

	t.publishStockEvent(kafka.EventTypeStockReserved, productID, -qty, stock)

	return res, nil
}

// Release снимает самый старый резерв с ключом (productID, owner, qty) и
// возвращает остаток одной атомарной единицей. Повторное снятие того же
// удержания — ErrReservationNotFound без изменения остатка.
func (t *Tracker) Release(productID, owner string, qty int32) (domain.Reservation, error) {
	if qty <= 0 {
		return domain.Reservation{}, domain.ErrQtyInvalid
	}

	now := time.Now().UTC()
	entry := domain.LedgerEntry{
		ID:        uuid.NewString(),
		ProductID: productID,
		Kind:      domain.EntryKindRelease,
		Delta:     qty,
		CreatedAt: now,
	}

	t.mu.Lock()
	released, stock, err := t.reservations.Release(productID, owner, qty, entry)
	t.mu.Unlock()
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("release %d of %s: %w", qty, productID, err)
	}

	t.recordReleased(released, stock)

	return released, nil
}

// ReleaseByID снимает ровно названный резерв и возвращает остаток одной
// атомарной единицей. Компенсация и Sweeper снимают удержания только по ID:
// при двух живых резервах с одинаковым ключом (productID, owner, qty)
// снятие по ключу забрало бы чужое, более старое удержание.
func (t *Tracker) ReleaseByID(id string) (domain.Reservation, error) {
	if id == "" {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}

	entry := domain.LedgerEntry{
		ID:        uuid.NewString(),
		Kind:      domain.EntryKindRelease,
		CreatedAt: time.Now().UTC(),
	}

	t.mu.Lock()
	released, stock, err := t.reservations.ReleaseByID(id, entry)
	t.mu.Unlock()
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("release reservation %s: %w", id, err)
	}

	t.recordReleased(released, stock)

	return released, nil
}

func (t *Tracker) recordReleased(released domain.Reservation, stock int32) {
	t.metrics.RecordReservationReleased()
	t.metrics.RecordLedgerEntry(string(domain.EntryKindRelease))
	t.logger.WithFields(log.Fields{
		"reservation_id": released.ID,
		"product_id":     released.ProductID,
		"owner":          released.Owner,
		"qty":            released.Qty,
	}).Debug("reservation released")

	t.publishStockEvent(kafka.EventTypeStockReleased, released.ProductID, released.Qty, stock)
}

// ExpireDue снимает резервы, истёкшие к моменту before, порциями до limit.
// Ошибки отдельных снятий логируются и не прерывают проход.
// Возвращает количество снятых резервов.
func (t *Tracker) ExpireDue(before time.Time, limit int) (int, error) {
	expired, err := t.reservations.ListExpired(before, limit)
	if err != nil {
		return 0, fmt.Errorf("list expired reservations: %w", err)
	}

	released := 0
	for _, res := range expired {
		if _, err := t.ReleaseByID(res.ID); err != nil {
			// Резерв мог быть сконвертирован или снят между list и release.
			if errors.Is(err, domain.ErrReservationNotFound) {
				continue
			}
			t.logger.WithError(err).WithFields(log.Fields{
				"reservation_id": res.ID,
				"product_id":     res.ProductID,
			}).Warn("failed to release expired reservation")
			continue
		}
		released++
		t.metrics.RecordReservationExpired()
	}

	return released, nil
}

func (t *Tracker) publishStockEvent(eventType kafka.EventType, productID string, delta, stock int32) {
	if t.producer == nil {
		return
	}
	event := kafka.NewStockEvent(eventType, productID, delta, stock, nil)
	if err := t.producer.PublishStockEvent(event); err != nil {
		t.logger.WithError(err).WithField("product_id", productID).Warn("failed to publish stock event")
	}
}
