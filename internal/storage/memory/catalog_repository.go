package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

// catalogRepositoryInMemory — in-memory реализация CatalogRepository.
type catalogRepositoryInMemory struct {
	store *Store
}

// NewCatalogRepository возвращает in-memory репозиторий каталога.
func NewCatalogRepository(store *Store) domain.CatalogRepository {
	return &catalogRepositoryInMemory{store: store}
}

// CreateProduct сохраняет товар и запись initial_stock под одним замком.
func (r *catalogRepositoryInMemory) CreateProduct(product domain.Product, initial domain.LedgerEntry) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return domain.ErrConstraintViolation
	}
	if s.skuExistsLocked(product.SKU) {
		return domain.ErrConstraintViolation
	}

	s.products[product.ID] = product
	s.ledger = append(s.ledger, initial)
	return nil
}

// Get возвращает снимок товара или ErrProductNotFound.
func (r *catalogRepositoryInMemory) Get(id string) (domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// List возвращает все товары, отсортированные по названию.
func (r *catalogRepositoryInMemory) List() ([]domain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// AdjustStock записывает новый остаток и журнальную запись под одним замком.
func (r *catalogRepositoryInMemory) AdjustStock(productID string, newQty int32, entry domain.LedgerEntry) (domain.Product, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}

	entry.ProductID = productID
	entry.Delta = newQty - product.Stock

	product.Stock = newQty
	product.UpdatedAt = entry.CreatedAt
	s.products[productID] = product
	s.ledger = append(s.ledger, entry)

	return product, nil
}

var _ domain.CatalogRepository = (*catalogRepositoryInMemory)(nil)
