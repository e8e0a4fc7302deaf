package domain

import "time"

// EntryKind — закрытый набор видов записей журнала остатков.
type EntryKind string

const (
	// EntryKindInitialStock — стартовый остаток при создании товара.
	EntryKindInitialStock EntryKind = "initial_stock"
	// EntryKindRestock — пополнение склада.
	EntryKindRestock EntryKind = "restock"
	// EntryKindManualAdjust — ручная корректировка остатка.
	EntryKindManualAdjust EntryKind = "manual_adjust"
	// EntryKindReserve — удержание под незавершённое оформление; остаток уже уменьшен.
	EntryKindReserve EntryKind = "reserve"
	// EntryKindRelease — снятие удержания; остаток возвращён.
	EntryKindRelease EntryKind = "release"
	// EntryKindSale — конвертация удержания в подтверждённую продажу.
	// Остаток был списан записью reserve того же оформления, поэтому
	// sale не участвует в сверке остатков (см. AffectsStock).
	EntryKindSale EntryKind = "sale"
	// EntryKindReturn — компенсирующий возврат остатка при отмене заказа.
	EntryKindReturn EntryKind = "return"
)

// knownEntryKinds перечисляет допустимые виды записей.
var knownEntryKinds = map[EntryKind]bool{
	EntryKindInitialStock: true,
	EntryKindRestock:      true,
	EntryKindManualAdjust: true,
	EntryKindReserve:      true,
	EntryKindRelease:      true,
	EntryKindSale:         true,
	EntryKindReturn:       true,
}

// IsValid сообщает, входит ли вид записи в закрытый набор.
func (k EntryKind) IsValid() bool {
	return knownEntryKinds[k]
}

// AffectsStock сообщает, должна ли дельта записи учитываться при сверке
// журнала с текущим остатком. Пара reserve+sale фиксирует одно и то же
// списание дважды для аудита (удержание и подтверждение), поэтому sale
// помечен как не влияющий на остаток.
func (k EntryKind) AffectsStock() bool {
	return k != EntryKindSale
}

// LedgerEntry — одна запись append-only журнала изменений остатка.
// Записи никогда не обновляются и не удаляются.
type LedgerEntry struct {
	ID        string
	ProductID string
	Kind      EntryKind
	// Delta — знаковое изменение остатка в штуках.
	Delta int32
	// RefID ссылается на заказ или резерв, породивший запись (опционально).
	RefID     string
	Notes     string
	CreatedAt time.Time
}

// Validate проверяет, корректно ли заполнена запись журнала.
func (e *LedgerEntry) Validate() []error {
	var errs []error

	if e.ProductID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if !e.Kind.IsValid() {
		errs = append(errs, ErrUnknownEntryKind)
	}

	return errs
}

// LedgerBalance суммирует дельты записей одного товара, учитывая только
// влияющие на остаток виды. Для корректного журнала результат совпадает
// с текущим доступным остатком товара.
func LedgerBalance(entries []LedgerEntry, productID string) int32 {
	var sum int32
	for _, e := range entries {
		if e.ProductID != productID || !e.Kind.AffectsStock() {
			continue
		}
		sum += e.Delta
	}
	return sum
}
