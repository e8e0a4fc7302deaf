package memory

import (
	"github.com/vladislavdragonenkov/ims/internal/domain"
)

// cartRepositoryInMemory — in-memory реализация CartRepository.
type cartRepositoryInMemory struct {
	store *Store
}

// NewCartRepository возвращает in-memory репозиторий корзин.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepositoryInMemory{store: store}
}

// Upsert добавляет позицию; существующая позиция суммируется по количеству.
func (r *cartRepositoryInMemory) Upsert(line domain.CartLine) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[line.Owner]
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i].Qty += line.Qty
			lines[i].UpdatedAt = line.UpdatedAt
			return nil
		}
	}
	s.carts[line.Owner] = append(lines, line)
	return nil
}

// List возвращает позиции владельца в порядке добавления.
func (r *cartRepositoryInMemory) List(owner string) ([]domain.CartLine, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := s.carts[owner]
	result := make([]domain.CartLine, len(lines))
	copy(result, lines)
	return result, nil
}

// Remove удаляет позицию или возвращает ErrCartLineNotFound.
func (r *cartRepositoryInMemory) Remove(owner, productID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[owner]
	for i := range lines {
		if lines[i].ProductID == productID {
			s.carts[owner] = append(lines[:i], lines[i+1:]...)
			return nil
		}
	}
	return domain.ErrCartLineNotFound
}

// Clear удаляет все позиции владельца.
func (r *cartRepositoryInMemory) Clear(owner string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, owner)
	return nil
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
