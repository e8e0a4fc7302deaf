package kafka

import (
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func TestProducer_PublishOrderEvent(t *testing.T) {
	// Создаем mock producer
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	// Настраиваем ожидания
	mockProducer.ExpectSendMessageAndSucceed()

	// Создаем тестовое событие
	event := NewOrderEvent(
		EventTypeOrderPlaced,
		"test-order-123",
		"alice",
		"placed",
		3998,
		map[string]interface{}{
			"lines": 2,
		},
	)

	// Публикуем событие
	err := producer.PublishOrderEvent(event)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Проверяем, что все ожидания выполнены
	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishStockEvent_Error(t *testing.T) {
	// Создаем mock producer с ошибкой
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	// Настраиваем ожидание ошибки
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	event := NewStockEvent(EventTypeStockReserved, "product-1", -3, 7, nil)

	// Публикуем событие
	err := producer.PublishStockEvent(event)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewOrderEvent(t *testing.T) {
	orderID := "order-123"
	owner := "alice"
	status := "paid"
	metadata := map[string]interface{}{
		"lines": 1,
	}

	event := NewOrderEvent(EventTypeOrderPaid, orderID, owner, status, 1999, metadata)

	if event.EventType != EventTypeOrderPaid {
		t.Errorf("expected event type %s, got %s", EventTypeOrderPaid, event.EventType)
	}

	if event.OrderID != orderID {
		t.Errorf("expected order id %s, got %s", orderID, event.OrderID)
	}

	if event.Owner != owner {
		t.Errorf("expected owner %s, got %s", owner, event.Owner)
	}

	if event.Status != status {
		t.Errorf("expected status %s, got %s", status, event.Status)
	}

	if event.AmountMinor != 1999 {
		t.Errorf("expected amount 1999, got %d", event.AmountMinor)
	}

	// Проверяем, что timestamp установлен
	if event.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}

	// Проверяем, что timestamp близок к текущему времени
	if time.Since(event.Timestamp) > time.Second {
		t.Error("timestamp should be close to current time")
	}
}

func TestNewStockEvent(t *testing.T) {
	event := NewStockEvent(EventTypeStockLow, "product-1", -2, 8, map[string]interface{}{
		"threshold": 10,
	})

	if event.EventType != EventTypeStockLow {
		t.Errorf("expected event type %s, got %s", EventTypeStockLow, event.EventType)
	}

	if event.ProductID != "product-1" {
		t.Errorf("expected product id product-1, got %s", event.ProductID)
	}

	if event.Delta != -2 || event.Stock != 8 {
		t.Errorf("expected delta -2 stock 8, got %d %d", event.Delta, event.Stock)
	}

	if event.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}
}
