package catalog

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ims/internal/domain"
	"github.com/vladislavdragonenkov/ims/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/ims/internal/metrics"
)

// Reconciliation — результат сверки текущего остатка товара с журналом.
type Reconciliation struct {
	ProductID     string
	Stock         int32
	LedgerBalance int32
	Match         bool
}

// Service управляет каталогом товаров и всеми ручными изменениями остатков.
// Каждая мутация проходит под общим замком движка и фиксируется в журнале.
type Service struct {
	products domain.CatalogRepository
	ledger   domain.LedgerRepository
	mu       *sync.Mutex
	logger   *log.Entry
	metrics  *metrics.EngineMetrics
	producer *kafka.Producer // опциональный Kafka producer, nil допустим
}

// NewService создаёт сервис каталога.
func NewService(
	products domain.CatalogRepository,
	ledger domain.LedgerRepository,
	mu *sync.Mutex,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.WithField("component", "catalog")
	}
	return &Service{
		products: products,
		ledger:   ledger,
		mu:       mu,
		logger:   logger,
		metrics:  metrics.NewEngineMetrics(),
	}
}

// NewServiceWithKafka создаёт сервис каталога, публикующий stock-события.
func NewServiceWithKafka(
	products domain.CatalogRepository,
	ledger domain.LedgerRepository,
	mu *sync.Mutex,
	producer *kafka.Producer,
	logger *log.Entry,
) *Service {
	service := NewService(products, ledger, mu, logger)
	service.producer = producer
	return service
}

// AddProduct валидирует и сохраняет новый товар вместе с записью initial_stock
// одной атомарной единицей. Возвращает идентификатор товара.
func (s *Service) AddProduct(product domain.Product) (string, error) {
	if errs := product.ValidateInvariants(); len(errs) > 0 {
		return "", errors.Join(errs...)
	}

	now := time.Now().UTC()
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	initial := domain.LedgerEntry{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		Kind:      domain.EntryKindInitialStock,
		Delta:     product.Stock,
		Notes:     "initial stock",
		CreatedAt: now,
	}

	s.mu.Lock()
	err := s.products.CreateProduct(product, initial)
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}

	s.metrics.RecordLedgerEntry(string(domain.EntryKindInitialStock))
	s.logger.WithFields(log.Fields{
		"product_id": product.ID,
		"sku":        product.SKU,
		"stock":      product.Stock,
	}).Info("product added")

	if product.IsLowStock() {
		s.publishLowStock(product, product.Stock)
	}

	return product.ID, nil
}

// AdjustStock записывает новый абсолютный остаток товара и журнальную запись
// одной атомарной единицей. Допустимые виды — restock и manual_adjust.
func (s *Service) AdjustStock(productID string, newQty int32, kind domain.EntryKind, notes string) (domain.Product, error) {
	if kind != domain.EntryKindRestock && kind != domain.EntryKindManualAdjust {
		return domain.Product{}, fmt.Errorf("adjust stock with kind %q: %w", kind, domain.ErrUnknownEntryKind)
	}
	if newQty < 0 {
		return domain.Product{}, domain.ErrStockNegative
	}

	s.mu.Lock()
	product, delta, err := s.adjustLocked(productID, newQty, kind, notes)
	s.mu.Unlock()
	if err != nil {
		return domain.Product{}, err
	}

	s.metrics.RecordLedgerEntry(string(kind))
	s.logger.WithFields(log.Fields{
		"product_id": productID,
		"kind":       kind,
		"delta":      delta,
		"stock":      product.Stock,
	}).Info("stock adjusted")

	s.publishAdjusted(product, delta)
	if product.IsLowStock() {
		s.publishLowStock(product, delta)
	}

	return product, nil
}

// Restock увеличивает остаток товара на addQty (вид restock).
func (s *Service) Restock(productID string, addQty int32, notes string) (domain.Product, error) {
	if addQty <= 0 {
		return domain.Product{}, domain.ErrQtyInvalid
	}

	s.mu.Lock()
	current, err := s.products.Get(productID)
	if err != nil {
		s.mu.Unlock()
		return domain.Product{}, fmt.Errorf("restock: %w", err)
	}
	product, delta, err := s.adjustLocked(productID, current.Stock+addQty, domain.EntryKindRestock, notes)
	s.mu.Unlock()
	if err != nil {
		return domain.Product{}, err
	}

	s.metrics.RecordLedgerEntry(string(domain.EntryKindRestock))
	s.logger.WithFields(log.Fields{
		"product_id": productID,
		"delta":      delta,
		"stock":      product.Stock,
	}).Info("product restocked")

	s.publishAdjusted(product, delta)

	return product, nil
}

// adjustLocked выполняет запись нового остатка; вызывается только под s.mu.
func (s *Service) adjustLocked(productID string, newQty int32, kind domain.EntryKind, notes string) (domain.Product, int32, error) {
	current, err := s.products.Get(productID)
	if err != nil {
		return domain.Product{}, 0, fmt.Errorf("adjust stock: %w", err)
	}

	entry := domain.LedgerEntry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}
	product, err := s.products.AdjustStock(productID, newQty, entry)
	if err != nil {
		return domain.Product{}, 0, fmt.Errorf("adjust stock: %w", err)
	}

	return product, newQty - current.Stock, nil
}

// GetProduct возвращает снимок товара.
func (s *Service) GetProduct(id string) (domain.Product, error) {
	return s.products.Get(id)
}

// ListProducts возвращает снимок каталога; при lowStockOnly — только товары
// на пороге пополнения или ниже.
func (s *Service) ListProducts(lowStockOnly bool) ([]domain.Product, error) {
	products, err := s.products.List()
	if err != nil {
		return nil, err
	}
	if !lowStockOnly {
		return products, nil
	}

	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.IsLowStock() {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// Reconcile сверяет текущий остаток товара с балансом журнала.
func (s *Service) Reconcile(productID string) (Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.products.Get(productID)
	if err != nil {
		return Reconciliation{}, fmt.Errorf("reconcile: %w", err)
	}
	balance, err := s.ledger.Balance(productID)
	if err != nil {
		return Reconciliation{}, fmt.Errorf("reconcile: %w", err)
	}

	return Reconciliation{
		ProductID:     productID,
		Stock:         product.Stock,
		LedgerBalance: balance,
		Match:         product.Stock == balance,
	}, nil
}

// InventoryValue возвращает суммарную стоимость склада в минимальных единицах.
func (s *Service) InventoryValue() (int64, error) {
	products, err := s.products.List()
	if err != nil {
		return 0, err
	}

	var total int64
	for _, p := range products {
		total += int64(p.Stock) * p.PriceMinor
	}
	return total, nil
}

func (s *Service) publishAdjusted(product domain.Product, delta int32) {
	if s.producer == nil {
		return
	}
	event := kafka.NewStockEvent(kafka.EventTypeStockAdjusted, product.ID, delta, product.Stock, nil)
	if err := s.producer.PublishStockEvent(event); err != nil {
		s.logger.WithError(err).WithField("product_id", product.ID).Warn("failed to publish stock.adjusted")
	}
}

func (s *Service) publishLowStock(product domain.Product, delta int32) {
	if s.producer == nil {
		return
	}
	event := kafka.NewStockEvent(kafka.EventTypeStockLow, product.ID, delta, product.Stock, map[string]interface{}{
		"threshold": product.LowStockThreshold,
	})
	if err := s.producer.PublishStockEvent(event); err != nil {
		s.logger.WithError(err).WithField("product_id", product.ID).Warn("failed to publish stock.low")
	}
}
