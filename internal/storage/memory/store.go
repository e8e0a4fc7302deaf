package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

// Store держит все таблицы in-memory хранилища под одним замком, поэтому
// составные записи (остаток + журнал + резерв, заказ + позиции + корзина)
// выполняются атомарно — как транзакции в настоящей БД.
type Store struct {
	mu           sync.RWMutex
	products     map[string]domain.Product
	orders       map[string]domain.Order
	reservations map[string]domain.Reservation
	carts        map[string][]domain.CartLine
	ledger       []domain.LedgerEntry
}

// NewStore создаёт пустое in-memory хранилище для локальной разработки и тестов.
func NewStore() *Store {
	return &Store{
		products:     make(map[string]domain.Product),
		orders:       make(map[string]domain.Order),
		reservations: make(map[string]domain.Reservation),
		carts:        make(map[string][]domain.CartLine),
	}
}

// copyOrder возвращает копию заказа с независимым срезом позиций,
// чтобы избежать непредсказуемых мутаций извне.
func copyOrder(order domain.Order) domain.Order {
	out := order
	out.Lines = make([]domain.OrderLine, len(order.Lines))
	copy(out.Lines, order.Lines)
	return out
}

func (s *Store) skuExistsLocked(sku string) bool {
	if sku == "" {
		return false
	}
	for _, p := range s.products {
		if p.SKU == sku {
			return true
		}
	}
	return false
}
