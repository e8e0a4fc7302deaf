package domain

import "time"

// CartLine — позиция корзины владельца. Количества здесь ориентировочные:
// подтверждение остатка происходит только при оформлении через резервирование.
type CartLine struct {
	Owner     string
	ProductID string
	Qty       int32
	UpdatedAt time.Time
}

// Validate проверяет, корректно ли заполнена позиция корзины.
func (l *CartLine) Validate() []error {
	var errs []error

	if l.Owner == "" {
		errs = append(errs, ErrOwnerRequired)
	}
	if l.ProductID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if l.Qty <= 0 {
		errs = append(errs, ErrQtyInvalid)
	}

	return errs
}
