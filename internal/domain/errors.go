package domain

import "errors"

var (
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrReservationNotFound возвращается, если подходящий резерв отсутствует
	// (в том числе при повторном освобождении уже снятого резерва).
	ErrReservationNotFound = errors.New("reservation not found")
	// ErrCartLineNotFound возвращается при удалении отсутствующей позиции корзины.
	ErrCartLineNotFound = errors.New("cart line not found")
	// ErrInsufficientStock — запрошенное количество превышает доступный остаток.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidTransition — запрошенный переход статуса запрещён машиной состояний.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidState — операция недопустима в текущем статусе заказа.
	ErrInvalidState = errors.New("operation not allowed in current order state")
	// ErrConstraintViolation — нарушение уникальности или ссылочной целостности в хранилище.
	ErrConstraintViolation = errors.New("store constraint violation")
	// ErrStoreUnavailable — транспортная ошибка или сбой транзакции хранилища.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEmptyCart — попытка оформить заказ по пустой корзине.
	ErrEmptyCart = errors.New("cart is empty")

	// Ошибка отсутствующего имени товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка неположительной цены товара.
	ErrPriceInvalid = errors.New("price_minor must be greater than zero")
	// Ошибка отрицательного остатка.
	ErrStockNegative = errors.New("stock must be non-negative")
	// Ошибка отрицательного порога пополнения.
	ErrThresholdInvalid = errors.New("low_stock_threshold must be non-negative")
	// Ошибка отсутствующей идентичности владельца.
	ErrOwnerRequired = errors.New("owner is required")
	// Ошибка отсутствующего идентификатора товара.
	ErrProductIDRequired = errors.New("product_id is required")
	// Ошибка некорректного количества (<= 0).
	ErrQtyInvalid = errors.New("qty must be greater than zero")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrLinesRequired = errors.New("order must contain at least one line")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order amount does not match lines sum")
	// Ошибка неизвестного вида записи журнала.
	ErrUnknownEntryKind = errors.New("unknown ledger entry kind")
)

// IsNotFound проверяет, относится ли ошибка к семейству «не найдено».
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrCartLineNotFound)
}
