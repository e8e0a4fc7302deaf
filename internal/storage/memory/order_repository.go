package memory

import (
	"sort"
	"time"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	store *Store
}

// NewOrderRepository возвращает in-memory репозиторий заказов.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepositoryInMemory{store: store}
}

// Create сохраняет заказ с позициями, записи sale, удаляет сконвертированные
// резервы и очищает корзину владельца под одним замком.
func (r *orderRepositoryInMemory) Create(order domain.Order, sales []domain.LedgerEntry, reservationIDs []string, clearCartOwner string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return domain.ErrConstraintViolation
	}

	s.orders[order.ID] = copyOrder(order)
	s.ledger = append(s.ledger, sales...)
	for _, id := range reservationIDs {
		delete(s.reservations, id)
	}
	if clearCartOwner != "" {
		delete(s.carts, clearCartOwner)
	}

	return nil
}

// Get возвращает заказ с позициями или ErrOrderNotFound.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return copyOrder(order), nil
}

// List возвращает заказы владельца (или все), свежие первыми.
func (r *orderRepositoryInMemory) List(owner string, limit int) ([]domain.Order, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if owner != "" && order.Owner != owner {
			continue
		}
		result = append(result, copyOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// SetStatus записывает новый статус и момент обновления.
func (r *orderRepositoryInMemory) SetStatus(id string, status domain.OrderStatus, updatedAt time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = updatedAt
	s.orders[id] = order
	return nil
}

// Cancel возвращает остатки по всем позициям, пишет записи return и переводит
// заказ в cancelled под одним замком. Перед изменениями проверяются все товары,
// чтобы частичное состояние не было наблюдаемо.
func (r *orderRepositoryInMemory) Cancel(order domain.Order, returns []domain.LedgerEntry, updatedAt time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	for _, line := range stored.Lines {
		if _, ok := s.products[line.ProductID]; !ok {
			return domain.ErrProductNotFound
		}
	}

	for _, line := range stored.Lines {
		product := s.products[line.ProductID]
		product.Stock += line.Qty
		product.UpdatedAt = updatedAt
		s.products[line.ProductID] = product
	}
	s.ledger = append(s.ledger, returns...)

	stored.Status = domain.OrderStatusCancelled
	stored.UpdatedAt = updatedAt
	s.orders[order.ID] = stored

	return nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
