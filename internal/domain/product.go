package domain

import (
	"strings"
	"time"
)

// DefaultLowStockThreshold — порог «мало на складе» по умолчанию.
const DefaultLowStockThreshold int32 = 10

// Product описывает товар каталога и его текущий доступный остаток.
// Поле Stock уже исключает активные резервы: это количество, которое
// ещё можно зарезервировать.
type Product struct {
	ID          string
	SKU         string
	Name        string
	Description string
	// PriceMinor — цена за единицу в минимальных денежных единицах (например, центы).
	PriceMinor int64
	Stock      int32
	Category   string
	// LowStockThreshold — остаток, при котором товар считается требующим пополнения.
	LowStockThreshold int32
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsLowStock сообщает, находится ли остаток на пороге пополнения или ниже.
func (p *Product) IsLowStock() bool {
	return p.Stock <= p.LowStockThreshold
}

// ValidateInvariants проверяет базовые инварианты товара и возвращает список замечаний.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.PriceMinor <= 0 {
		errs = append(errs, ErrPriceInvalid)
	}
	if p.Stock < 0 {
		errs = append(errs, ErrStockNegative)
	}
	if p.LowStockThreshold < 0 {
		errs = append(errs, ErrThresholdInvalid)
	}

	return errs
}
