package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// Order события
	EventTypeOrderPlaced    EventType = "order.placed"
	EventTypeOrderPaid      EventType = "order.paid"
	EventTypeOrderDelivered EventType = "order.delivered"
	EventTypeOrderCancelled EventType = "order.cancelled"

	// Stock события
	EventTypeStockAdjusted EventType = "stock.adjusted"
	EventTypeStockReserved EventType = "stock.reserved"
	EventTypeStockReleased EventType = "stock.released"
	EventTypeStockLow      EventType = "stock.low"
)

// Topics для Kafka
const (
	TopicOrderEvents = "ims.order.events"
	TopicStockEvents = "ims.stock.events"
)

// OrderEvent представляет событие заказа
type OrderEvent struct {
	EventType   EventType              `json:"event_type"`
	OrderID     string                 `json:"order_id"`
	Owner       string                 `json:"owner"`
	Status      string                 `json:"status"`
	AmountMinor int64                  `json:"amount_minor"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// StockEvent представляет событие движения остатка
type StockEvent struct {
	EventType EventType              `json:"event_type"`
	ProductID string                 `json:"product_id"`
	Delta     int32                  `json:"delta"`
	Stock     int32                  `json:"stock"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderEvent создает новое событие заказа
func NewOrderEvent(eventType EventType, orderID, owner, status string, amountMinor int64, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType:   eventType,
		OrderID:     orderID,
		Owner:       owner,
		Status:      status,
		AmountMinor: amountMinor,
		Timestamp:   time.Now(),
		Metadata:    metadata,
	}
}

// NewStockEvent создает новое событие движения остатка
func NewStockEvent(eventType EventType, productID string, delta, stock int32, metadata map[string]interface{}) *StockEvent {
	return &StockEvent{
		EventType: eventType,
		ProductID: productID,
		Delta:     delta,
		Stock:     stock,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
