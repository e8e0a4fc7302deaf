package memory

import (
	"sort"
	"time"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

// reservationRepositoryInMemory — in-memory реализация ReservationRepository.
type reservationRepositoryInMemory struct {
	store *Store
}

// NewReservationRepository возвращает in-memory репозиторий резервов.
func NewReservationRepository(store *Store) domain.ReservationRepository {
	return &reservationRepositoryInMemory{store: store}
}

// Reserve под одним замком: проверка остатка, списание, резерв и запись журнала.
// Никто не наблюдает списание без резерва и журнальной записи, и наоборот.
func (r *reservationRepositoryInMemory) Reserve(res domain.Reservation, entry domain.LedgerEntry) (int32, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[res.ProductID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	if res.Qty > product.Stock {
		return 0, domain.ErrInsufficientStock
	}

	product.Stock -= res.Qty
	product.UpdatedAt = res.CreatedAt
	s.products[res.ProductID] = product
	s.reservations[res.ID] = res
	s.ledger = append(s.ledger, entry)

	return product.Stock, nil
}

// Release снимает самый старый резерв с ключом (productID, owner, qty)
// и возвращает остаток под одним замком.
func (r *reservationRepositoryInMemory) Release(productID, owner string, qty int32, entry domain.LedgerEntry) (domain.Reservation, int32, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		match domain.Reservation
		found bool
	)
	for _, res := range s.reservations {
		if res.ProductID != productID || res.Owner != owner || res.Qty != qty {
			continue
		}
		if !found || res.CreatedAt.Before(match.CreatedAt) {
			match = res
			found = true
		}
	}
	if !found {
		return domain.Reservation{}, 0, domain.ErrReservationNotFound
	}

	return r.removeLocked(match, entry)
}

// ReleaseByID снимает ровно названный резерв под одним замком. Соседние
// удержания с тем же ключом (productID, owner, qty) не затрагиваются.
func (r *reservationRepositoryInMemory) ReleaseByID(id string, entry domain.LedgerEntry) (domain.Reservation, int32, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	match, ok := s.reservations[id]
	if !ok {
		return domain.Reservation{}, 0, domain.ErrReservationNotFound
	}

	return r.removeLocked(match, entry)
}

// removeLocked удаляет резерв, возвращает остаток и дописывает журнал.
// Вызывается только под s.mu.
func (r *reservationRepositoryInMemory) removeLocked(match domain.Reservation, entry domain.LedgerEntry) (domain.Reservation, int32, error) {
	s := r.store

	product, ok := s.products[match.ProductID]
	if !ok {
		return domain.Reservation{}, 0, domain.ErrProductNotFound
	}

	delete(s.reservations, match.ID)
	product.Stock += match.Qty
	product.UpdatedAt = entry.CreatedAt
	s.products[match.ProductID] = product

	entry.ProductID = match.ProductID
	entry.Delta = match.Qty
	entry.RefID = match.ID
	s.ledger = append(s.ledger, entry)

	return match, product.Stock, nil
}

// ListExpired возвращает до limit истёкших резервов, самые старые первыми.
func (r *reservationRepositoryInMemory) ListExpired(before time.Time, limit int) ([]domain.Reservation, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Reservation, 0)
	for _, res := range s.reservations {
		if res.IsExpired(before) {
			result = append(result, res)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ExpiresAt.Equal(result[j].ExpiresAt) {
			return result[i].ExpiresAt.Before(result[j].ExpiresAt)
		}
		return result[i].ID < result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

var _ domain.ReservationRepository = (*reservationRepositoryInMemory)(nil)
