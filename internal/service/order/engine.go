package order

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ims/internal/domain"
	"github.com/vladislavdragonenkov/ims/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ims/internal/metrics"
	"github.com/vladislavdragonenkov/ims/internal/service/reservation"
)

// Metrics — сводка по набору заказов.
// Выручка считается только по доставленным заказам.
type Metrics struct {
	TotalOrders        int
	RevenueMinor       int64
	AvgOrderValueMinor int64
	CompletionRate     float64
}

// Engine оформляет заказы и владеет машиной состояний их жизненного цикла.
// Любая смена статуса проходит через UpdateStatus или Cancel; репозиторий
// заказов переходы не проверяет.
type Engine struct {
	orders   domain.OrderRepository
	products domain.CatalogRepository
	tracker  *reservation.Tracker
	mu       *sync.Mutex
	logger   *log.Entry
	metrics  *metrics.EngineMetrics
	producer *kafka.Producer // опциональный Kafka producer, nil допустим
}

// NewEngine создаёт движок заказов.
func NewEngine(
	orders domain.OrderRepository,
	products domain.CatalogRepository,
	tracker *reservation.Tracker,
	mu *sync.Mutex,
	logger *log.Entry,
) *Engine {
	if logger == nil {
		logger = log.WithField("component", "order-engine")
	}
	return &Engine{
		orders:   orders,
		products: products,
		tracker:  tracker,
		mu:       mu,
		logger:   logger,
		metrics:  metrics.NewEngineMetrics(),
	}
}

// NewEngineWithKafka создаёт движок заказов, публикующий order-события.
func NewEngineWithKafka(
	orders domain.OrderRepository,
	products domain.CatalogRepository,
	tracker *reservation.Tracker,
	mu *sync.Mutex,
	producer *kafka.Producer,
	logger *log.Entry,
) *Engine {
	engine := NewEngine(orders, products, tracker, mu, logger)
	engine.producer = producer
	return engine
}

// Checkout оформляет заказ по позициям корзины владельца. Остаток удерживается
// позиция за позицией; при любом сбое все удержания этой попытки снимаются и
// возвращается причина. Успешная попытка одной атомарной единицей сохраняет
// заказ со статусом placed, записи sale, конвертирует резервы и очищает корзину.
func (e *Engine) Checkout(owner string, lines []domain.CartLine) (string, error) {
	start := time.Now()
	e.metrics.RecordCheckoutStarted()

	orderID, err := e.checkout(owner, lines)
	if err != nil {
		e.metrics.RecordCheckoutFailed()
		return "", err
	}

	e.metrics.RecordCheckoutCompleted()
	e.metrics.RecordCheckoutDuration(time.Since(start))
	return orderID, nil
}

func (e *Engine) checkout(owner string, lines []domain.CartLine) (string, error) {
	if owner == "" {
		return "", domain.ErrOwnerRequired
	}
	if len(lines) == 0 {
		return "", domain.ErrEmptyCart
	}
	for _, line := range lines {
		if line.Qty <= 0 {
			return "", fmt.Errorf("cart line %s: %w", line.ProductID, domain.ErrQtyInvalid)
		}
	}

	// Удерживаем остаток по каждой позиции; собираем резервы для конвертации.
	reserved := make([]domain.Reservation, 0, len(lines))
	snapshots := make([]domain.Product, 0, len(lines))
	for _, line := range lines {
		stepStart := time.Now()
		res, err := e.tracker.Reserve(line.ProductID, owner, line.Qty)
		if err != nil {
			e.compensate(reserved)
			return "", fmt.Errorf("checkout: %w", err)
		}
		e.metrics.RecordStepDuration("reserve", time.Since(stepStart))

		product, err := e.products.Get(line.ProductID)
		if err != nil {
			e.compensate(append(reserved, res))
			return "", fmt.Errorf("checkout: %w", err)
		}

		reserved = append(reserved, res)
		snapshots = append(snapshots, product)
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:        uuid.NewString(),
		Owner:     owner,
		Status:    domain.OrderStatusPlaced,
		CreatedAt: now,
		UpdatedAt: now,
	}

	sales := make([]domain.LedgerEntry, 0, len(lines))
	reservationIDs := make([]string, 0, len(reserved))
	for i, line := range lines {
		// Название и цена снимаются на момент резервирования.
		orderLine := domain.OrderLine{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: snapshots[i].Name,
			Qty:         line.Qty,
			PriceMinor:  snapshots[i].PriceMinor,
			CreatedAt:   now,
		}
		order.Lines = append(order.Lines, orderLine)
		order.AmountMinor += orderLine.Subtotal()

		sales = append(sales, domain.LedgerEntry{
			ID:        uuid.NewString(),
			ProductID: line.ProductID,
			Kind:      domain.EntryKindSale,
			Delta:     -line.Qty,
			RefID:     order.ID,
			CreatedAt: now,
		})
		reservationIDs = append(reservationIDs, reserved[i].ID)
	}

	stepStart := time.Now()
	e.mu.Lock()
	err := e.orders.Create(order, sales, reservationIDs, owner)
	e.mu.Unlock()
	if err != nil {
		e.compensate(reserved)
		return "", fmt.Errorf("checkout: create order: %w", err)
	}
	e.metrics.RecordStepDuration("create", time.Since(stepStart))

	for range reserved {
		e.metrics.RecordReservationConsumed()
	}
	for range sales {
		e.metrics.RecordLedgerEntry(string(domain.EntryKindSale))
	}
	e.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"owner":        owner,
		"lines":        len(order.Lines),
		"amount_minor": order.AmountMinor,
	}).Info("order placed")

	e.publishOrderEvent(kafka.EventTypeOrderPlaced, order)

	return order.ID, nil
}

// compensate снимает удержания неудавшейся попытки оформления строго по ID
// резерва: у владельца могут жить два удержания с одинаковым ключом
// (productID, owner, qty), и снятие по ключу забрало бы чужое.
// Ошибки снятия только логируются: просроченные резервы доснимет Sweeper.
func (e *Engine) compensate(reserved []domain.Reservation) {
	if len(reserved) == 0 {
		return
	}
	e.metrics.RecordCheckoutCompensated()

	for _, res := range reserved {
		if _, err := e.tracker.ReleaseByID(res.ID); err != nil {
			e.logger.WithError(err).WithFields(log.Fields{
				"reservation_id": res.ID,
				"product_id":     res.ProductID,
			}).Warn("failed to release reservation during checkout rollback")
		}
	}
}

// UpdateStatus переводит заказ в новый статус по машине состояний
// placed → paid → delivered; перевод в cancelled делегируется Cancel,
// чтобы отмена не могла обойти возврат остатков.
func (e *Engine) UpdateStatus(orderID string, newStatus domain.OrderStatus) error {
	if newStatus == domain.OrderStatusCancelled {
		return e.Cancel(orderID)
	}

	now := time.Now().UTC()

	e.mu.Lock()
	order, err := e.orders.Get(orderID)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("update status: %w", err)
	}
	if !domain.CanTransition(order.Status, newStatus) {
		e.mu.Unlock()
		return fmt.Errorf("update status %s: %s -> %s: %w",
			orderID, order.Status, newStatus, domain.ErrInvalidTransition)
	}
	if err := e.orders.SetStatus(orderID, newStatus, now); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("update status: %w", err)
	}
	order.Status = newStatus
	order.UpdatedAt = now
	e.mu.Unlock()

	e.logger.WithFields(log.Fields{
		"order_id": orderID,
		"status":   newStatus,
	}).Info("order status updated")

	switch newStatus {
	case domain.OrderStatusPaid:
		e.publishOrderEvent(kafka.EventTypeOrderPaid, order)
	case domain.OrderStatusDelivered:
		e.publishOrderEvent(kafka.EventTypeOrderDelivered, order)
	}

	return nil
}

// Cancel отменяет заказ из статуса placed или paid: одной атомарной единицей
// возвращает остаток каждой позиции с записью return и ставит статус cancelled.
// Отмена из терминального статуса — ErrInvalidState.
func (e *Engine) Cancel(orderID string) error {
	now := time.Now().UTC()

	e.mu.Lock()
	order, err := e.orders.Get(orderID)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("cancel: %w", err)
	}
	if !domain.CanTransition(order.Status, domain.OrderStatusCancelled) {
		e.mu.Unlock()
		return fmt.Errorf("cancel %s in status %s: %w", orderID, order.Status, domain.ErrInvalidState)
	}

	returns := make([]domain.LedgerEntry, 0, len(order.Lines))
	for _, line := range order.Lines {
		returns = append(returns, domain.LedgerEntry{
			ID:        uuid.NewString(),
			ProductID: line.ProductID,
			Kind:      domain.EntryKindReturn,
			Delta:     line.Qty,
			RefID:     order.ID,
			CreatedAt: now,
		})
	}

	if err := e.orders.Cancel(order, returns, now); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("cancel: %w", err)
	}
	order.Status = domain.OrderStatusCancelled
	order.UpdatedAt = now
	e.mu.Unlock()

	for range returns {
		e.metrics.RecordLedgerEntry(string(domain.EntryKindReturn))
	}
	e.logger.WithFields(log.Fields{
		"order_id": orderID,
		"lines":    len(order.Lines),
	}).Info("order cancelled, stock returned")

	e.publishOrderEvent(kafka.EventTypeOrderCancelled, order)

	return nil
}

// GetOrder возвращает заказ с позициями.
func (e *Engine) GetOrder(id string) (domain.Order, error) {
	return e.orders.Get(id)
}

// ListOrders возвращает заказы владельца, свежие первыми.
// Пустой owner — все заказы.
func (e *Engine) ListOrders(owner string, limit int) ([]domain.Order, error) {
	return e.orders.List(owner, limit)
}

// Summary считает сводку по заказам владельца (или по всем при owner == "").
func (e *Engine) Summary(owner string) (Metrics, error) {
	orders, err := e.orders.List(owner, 0)
	if err != nil {
		return Metrics{}, err
	}
	return CalculateMetrics(orders), nil
}

// CalculateMetrics считает сводку по набору заказов: общее количество,
// выручку по доставленным, средний чек и долю доставленных среди завершённых.
func CalculateMetrics(orders []domain.Order) Metrics {
	m := Metrics{TotalOrders: len(orders)}
	if len(orders) == 0 {
		return m
	}

	var total int64
	delivered := 0
	terminal := 0
	for _, o := range orders {
		total += o.AmountMinor
		if o.Status == domain.OrderStatusDelivered {
			m.RevenueMinor += o.AmountMinor
			delivered++
		}
		if o.Status.IsTerminal() {
			terminal++
		}
	}

	m.AvgOrderValueMinor = total / int64(len(orders))
	if terminal > 0 {
		m.CompletionRate = float64(delivered) / float64(terminal)
	}
	return m
}

func (e *Engine) publishOrderEvent(eventType kafka.EventType, order domain.Order) {
	if e.producer == nil {
		return
	}
	event := kafka.NewOrderEvent(eventType, order.ID, order.Owner, string(order.Status), order.AmountMinor, map[string]interface{}{
		"lines": len(order.Lines),
	})
	if err := e.producer.PublishOrderEvent(event); err != nil {
		e.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to publish order event")
	}
}
