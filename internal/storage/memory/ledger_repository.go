package memory

import (
	"github.com/vladislavdragonenkov/ims/internal/domain"
)

// ledgerRepositoryInMemory — read-only доступ к журналу in-memory хранилища.
type ledgerRepositoryInMemory struct {
	store *Store
}

// NewLedgerRepository возвращает in-memory репозиторий журнала остатков.
func NewLedgerRepository(store *Store) domain.LedgerRepository {
	return &ledgerRepositoryInMemory{store: store}
}

// List возвращает записи журнала, свежие первыми.
func (r *ledgerRepositoryInMemory) List(limit int) ([]domain.LedgerEntry, error) {
	return r.collect("", limit)
}

// ListByProduct возвращает записи по товару, свежие первыми.
func (r *ledgerRepositoryInMemory) ListByProduct(productID string, limit int) ([]domain.LedgerEntry, error) {
	return r.collect(productID, limit)
}

// Balance возвращает сумму влияющих на остаток дельт по товару.
func (r *ledgerRepositoryInMemory) Balance(productID string) (int32, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.LedgerBalance(s.ledger, productID), nil
}

func (r *ledgerRepositoryInMemory) collect(productID string, limit int) ([]domain.LedgerEntry, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.LedgerEntry, 0, len(s.ledger))
	// Журнал хранится в порядке добавления; обходим с конца.
	for i := len(s.ledger) - 1; i >= 0; i-- {
		entry := s.ledger[i]
		if productID != "" && entry.ProductID != productID {
			continue
		}
		result = append(result, entry)
		if limit > 0 && len(result) >= limit {
			break
		}
	}

	return result, nil
}

var _ domain.LedgerRepository = (*ledgerRepositoryInMemory)(nil)
