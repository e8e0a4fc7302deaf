package catalog

import (
	"errors"
	"sync"
	"testing"

	"github.com/vladislavdragonenkov/ims/internal/domain"
	"github.com/vladislavdragonenkov/ims/internal/storage/memory"
)

func newTestService() (*Service, *memory.Store) {
	store := memory.NewStore()
	var mu sync.Mutex
	service := NewService(
		memory.NewCatalogRepository(store),
		memory.NewLedgerRepository(store),
		&mu,
		nil,
	)
	return service, store
}

func addProduct(t *testing.T, service *Service, sku string, priceMinor int64, stock int32) string {
	t.Helper()

	id, err := service.AddProduct(domain.Product{
		SKU:               sku,
		Name:              "Basketball",
		PriceMinor:        priceMinor,
		Stock:             stock,
		Category:          "Sports",
		LowStockThreshold: domain.DefaultLowStockThreshold,
	})
	if err != nil {
		t.Fatalf("add product: %v", err)
	}
	return id
}

func TestService_AddProduct(t *testing.T) {
	service, _ := newTestService()

	id := addProduct(t, service, "SPT-BB-001", 2999, 50)

	product, err := service.GetProduct(id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if product.Stock != 50 || product.SKU != "SPT-BB-001" {
		t.Fatalf("unexpected product: %+v", product)
	}

	// Создание товара должно оставить запись initial_stock на полный остаток.
	rec, err := service.Reconcile(id)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !rec.Match || rec.LedgerBalance != 50 {
		t.Fatalf("expected matched balance 50, got %+v", rec)
	}
}

func TestService_AddProductValidation(t *testing.T) {
	service, _ := newTestService()

	_, err := service.AddProduct(domain.Product{SKU: "SPT-BB-001", PriceMinor: 0, Stock: -1})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, domain.ErrProductNameRequired) {
		t.Fatalf("expected ErrProductNameRequired, got %v", err)
	}
	if !errors.Is(err, domain.ErrPriceInvalid) {
		t.Fatalf("expected ErrPriceInvalid, got %v", err)
	}
	if !errors.Is(err, domain.ErrStockNegative) {
		t.Fatalf("expected ErrStockNegative, got %v", err)
	}
}

func TestService_AddProductDuplicateSKU(t *testing.T) {
	service, _ := newTestService()

	addProduct(t, service, "SPT-BB-001", 2999, 50)

	_, err := service.AddProduct(domain.Product{
		SKU:        "SPT-BB-001",
		Name:       "Another Basketball",
		PriceMinor: 1999,
		Stock:      5,
	})
	if !errors.Is(err, domain.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}

func TestService_AdjustStock(t *testing.T) {
	service, _ := newTestService()
	id := addProduct(t, service, "SPT-BB-001", 2999, 10)

	product, err := service.AdjustStock(id, 25, domain.EntryKindManualAdjust, "оприходование")
	if err != nil {
		t.Fatalf("adjust stock: %v", err)
	}
	if product.Stock != 25 {
		t.Fatalf("expected stock 25, got %d", product.Stock)
	}

	rec, err := service.Reconcile(id)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !rec.Match {
		t.Fatalf("expected matched reconciliation, got %+v", rec)
	}
}

func TestService_AdjustStockRejectsWrongKind(t *testing.T) {
	service, _ := newTestService()
	id := addProduct(t, service, "SPT-BB-001", 2999, 10)

	if _, err := service.AdjustStock(id, 5, domain.EntryKindSale, ""); !errors.Is(err, domain.ErrUnknownEntryKind) {
		t.Fatalf("expected ErrUnknownEntryKind, got %v", err)
	}
	if _, err := service.AdjustStock(id, -1, domain.EntryKindRestock, ""); !errors.Is(err, domain.ErrStockNegative) {
		t.Fatalf("expected ErrStockNegative, got %v", err)
	}
}

func TestService_Restock(t *testing.T) {
	service, _ := newTestService()
	id := addProduct(t, service, "SPT-BB-001", 2999, 10)

	product, err := service.Restock(id, 15, "поставка")
	if err != nil {
		t.Fatalf("restock: %v", err)
	}
	if product.Stock != 25 {
		t.Fatalf("expected stock 25, got %d", product.Stock)
	}

	if _, err := service.Restock(id, 0, ""); !errors.Is(err, domain.ErrQtyInvalid) {
		t.Fatalf("expected ErrQtyInvalid, got %v", err)
	}
	if _, err := service.Restock("missing", 5, ""); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestService_ListProductsLowStockOnly(t *testing.T) {
	service, _ := newTestService()

	addProduct(t, service, "SPT-BB-001", 2999, 50)
	lowID := addProduct(t, service, "SPT-CB-009", 6999, 8)

	all, err := service.ListProducts(false)
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 products, got %d", len(all))
	}

	low, err := service.ListProducts(true)
	if err != nil {
		t.Fatalf("list low stock: %v", err)
	}
	if len(low) != 1 || low[0].ID != lowID {
		t.Fatalf("expected only low stock product, got %v", low)
	}
}

func TestService_InventoryValue(t *testing.T) {
	service, _ := newTestService()

	addProduct(t, service, "SPT-BB-001", 2999, 2)
	addProduct(t, service, "SPT-CB-009", 6999, 1)

	value, err := service.InventoryValue()
	if err != nil {
		t.Fatalf("inventory value: %v", err)
	}
	if value != 2*2999+6999 {
		t.Fatalf("expected inventory value %d, got %d", 2*2999+6999, value)
	}
}
