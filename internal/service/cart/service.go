package cart

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

// Service управляет корзинами владельцев. Корзина носит рекомендательный
// характер: остаток не удерживается до оформления, checkout перепроверяет
// доступность через трекер резервов.
type Service struct {
	carts    domain.CartRepository
	products domain.CatalogRepository
	logger   *log.Entry
}

// NewService создаёт сервис корзин.
func NewService(carts domain.CartRepository, products domain.CatalogRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "cart")
	}
	return &Service{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// Add добавляет qty единиц товара в корзину владельца; существующая позиция
// суммируется. Товар должен существовать в каталоге.
func (s *Service) Add(owner, productID string, qty int32) error {
	if owner == "" {
		return domain.ErrOwnerRequired
	}
	if qty <= 0 {
		return domain.ErrQtyInvalid
	}
	if _, err := s.products.Get(productID); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}

	line := domain.CartLine{
		Owner:     owner,
		ProductID: productID,
		Qty:       qty,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.carts.Upsert(line); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}

	s.logger.WithFields(log.Fields{
		"owner":      owner,
		"product_id": productID,
		"qty":        qty,
	}).Debug("cart line added")

	return nil
}

// Remove удаляет позицию из корзины владельца.
func (s *Service) Remove(owner, productID string) error {
	if owner == "" {
		return domain.ErrOwnerRequired
	}
	if err := s.carts.Remove(owner, productID); err != nil {
		return fmt.Errorf("remove from cart: %w", err)
	}
	return nil
}

// Clear очищает корзину владельца. Очистка пустой корзины не ошибка.
func (s *Service) Clear(owner string) error {
	if owner == "" {
		return domain.ErrOwnerRequired
	}
	if err := s.carts.Clear(owner); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// List возвращает позиции корзины владельца в порядке добавления.
func (s *Service) List(owner string) ([]domain.CartLine, error) {
	if owner == "" {
		return nil, domain.ErrOwnerRequired
	}
	return s.carts.List(owner)
}
