package memory

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

func TestLedgerRepository_ListNewestFirstAndLimit(t *testing.T) {
	store := NewStore()
	ledger := NewLedgerRepository(store)

	product := seedProduct(t, store, "p-1", "SKU-1", 10)
	now := time.Now().UTC()

	store.mu.Lock()
	store.ledger = append(store.ledger,
		domain.LedgerEntry{ID: "e-restock", ProductID: product.ID, Kind: domain.EntryKindRestock, Delta: 5, CreatedAt: now},
		domain.LedgerEntry{ID: "e-reserve", ProductID: product.ID, Kind: domain.EntryKindReserve, Delta: -2, CreatedAt: now.Add(time.Second)},
	)
	store.mu.Unlock()

	entries, err := ledger.List(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// initial_stock от seedProduct плюс две добавленные записи.
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].ID != "e-reserve" || entries[1].ID != "e-restock" {
		t.Fatalf("expected newest-first ordering, got %+v", entries)
	}

	limited, err := ledger.List(1)
	if err != nil {
		t.Fatalf("list with limit: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "e-reserve" {
		t.Fatalf("unexpected limited result: %+v", limited)
	}
}

func TestLedgerRepository_ListByProductFilters(t *testing.T) {
	store := NewStore()
	ledger := NewLedgerRepository(store)

	first := seedProduct(t, store, "p-1", "SKU-1", 10)
	second := seedProduct(t, store, "p-2", "SKU-2", 20)

	entries, err := ledger.ListByProduct(first.ID, 0)
	if err != nil {
		t.Fatalf("list by product: %v", err)
	}
	if len(entries) != 1 || entries[0].ProductID != first.ID {
		t.Fatalf("expected single entry for first product, got %+v", entries)
	}

	entries, err = ledger.ListByProduct(second.ID, 0)
	if err != nil {
		t.Fatalf("list by second product: %v", err)
	}
	if len(entries) != 1 || entries[0].Delta != 20 {
		t.Fatalf("expected initial entry for second product, got %+v", entries)
	}
}

func TestLedgerRepository_BalanceSkipsSaleEntries(t *testing.T) {
	store := NewStore()
	ledger := NewLedgerRepository(store)

	product := seedProduct(t, store, "p-1", "SKU-1", 10)
	now := time.Now().UTC()

	store.mu.Lock()
	store.ledger = append(store.ledger,
		domain.LedgerEntry{ID: "e-reserve", ProductID: product.ID, Kind: domain.EntryKindReserve, Delta: -4, CreatedAt: now},
		domain.LedgerEntry{ID: "e-sale", ProductID: product.ID, Kind: domain.EntryKindSale, Delta: -4, CreatedAt: now},
	)
	store.mu.Unlock()

	balance, err := ledger.Balance(product.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	// sale фиксирует уже списанное резервом количество и в сумму не входит.
	if balance != 6 {
		t.Fatalf("expected balance 6, got %d", balance)
	}
}
