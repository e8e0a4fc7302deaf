package domain

import "time"

// Reservation описывает срочное удержание остатка под незавершённое оформление.
// Остаток товара уже уменьшен на Qty; до истечения ExpiresAt удержание должно
// быть сконвертировано в продажу или снято.
type Reservation struct {
	// ID — сгенерированный идентификатор; устраняет неоднозначность, когда
	// один владелец дважды резервирует одинаковое количество одного товара.
	ID        string
	ProductID string
	Owner     string
	Qty       int32
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired сообщает, истёк ли срок удержания к моменту now.
func (r *Reservation) IsExpired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// Validate проверяет, корректно ли заполнены ключевые поля резерва.
func (r *Reservation) Validate() []error {
	var errs []error

	if r.ProductID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if r.Owner == "" {
		errs = append(errs, ErrOwnerRequired)
	}
	if r.Qty <= 0 {
		errs = append(errs, ErrQtyInvalid)
	}

	return errs
}
