package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPlaced — заказ создан, резервы сконвертированы в продажу, оплата не выполнена.
	OrderStatusPlaced OrderStatus = "placed"
	// OrderStatusPaid — оплата подтверждена.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusDelivered — заказ доставлен; терминальный статус.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён с возвратом остатков; терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// validTransitions задаёт машину состояний заказа:
// placed → paid → delivered, отмена возможна из placed и paid.
var validTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPlaced:    {OrderStatusPaid: true, OrderStatusCancelled: true},
	OrderStatusPaid:      {OrderStatusDelivered: true, OrderStatusCancelled: true},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// CanTransition сообщает, разрешён ли переход статуса from → to.
func CanTransition(from, to OrderStatus) bool {
	return validTransitions[from][to]
}

// IsTerminal сообщает, является ли статус конечным.
func (s OrderStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// OrderLine представляет одну позицию заказа. Название и цена товара
// снимаются в момент оформления и больше не меняются, поэтому исторические
// заказы не зависят от последующих правок каталога.
type OrderLine struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	Qty         int32
	// PriceMinor — цена за единицу на момент резервирования.
	PriceMinor int64
	CreatedAt  time.Time
}

// Subtotal возвращает стоимость позиции в минимальных единицах.
func (l *OrderLine) Subtotal() int64 {
	return int64(l.Qty) * l.PriceMinor
}

// Order агрегирует состояние заказа и его позиции.
type Order struct {
	ID    string
	Owner string
	// Status меняется только через Order Engine.
	Status OrderStatus
	// AmountMinor — сумма заказа, равная сумме позиций.
	AmountMinor int64
	Lines       []OrderLine
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.Owner == "" {
		errs = append(errs, ErrOwnerRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}

	// Сверяем сумму заказа с суммой позиций: qty * price.
	var calc int64
	for _, line := range o.Lines {
		if line.Qty <= 0 {
			errs = append(errs, ErrQtyInvalid)
		}
		if line.PriceMinor <= 0 {
			errs = append(errs, ErrPriceInvalid)
		}
		calc += line.Subtotal()
	}
	if calc != o.AmountMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
