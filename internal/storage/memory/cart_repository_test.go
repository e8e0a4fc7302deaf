package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

func TestCartRepository_UpsertSumsQuantity(t *testing.T) {
	store := NewStore()
	repo := NewCartRepository(store)

	now := time.Now().UTC()
	if err := repo.Upsert(domain.CartLine{Owner: "alice", ProductID: "p1", Qty: 2, UpdatedAt: now}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Upsert(domain.CartLine{Owner: "alice", ProductID: "p1", Qty: 3, UpdatedAt: now.Add(time.Second)}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if err := repo.Upsert(domain.CartLine{Owner: "alice", ProductID: "p2", Qty: 1, UpdatedAt: now}); err != nil {
		t.Fatalf("third upsert: %v", err)
	}

	lines, err := repo.List("alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if line.ProductID == "p1" && line.Qty != 5 {
			t.Fatalf("expected summed qty 5 for p1, got %d", line.Qty)
		}
	}
}

func TestCartRepository_ListIsolatedByOwner(t *testing.T) {
	store := NewStore()
	repo := NewCartRepository(store)

	now := time.Now().UTC()
	_ = repo.Upsert(domain.CartLine{Owner: "alice", ProductID: "p1", Qty: 2, UpdatedAt: now})
	_ = repo.Upsert(domain.CartLine{Owner: "bob", ProductID: "p1", Qty: 7, UpdatedAt: now})

	lines, err := repo.List("bob")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lines) != 1 || lines[0].Qty != 7 {
		t.Fatalf("expected single bob line qty 7, got %v", lines)
	}
}

func TestCartRepository_Remove(t *testing.T) {
	store := NewStore()
	repo := NewCartRepository(store)

	now := time.Now().UTC()
	_ = repo.Upsert(domain.CartLine{Owner: "alice", ProductID: "p1", Qty: 2, UpdatedAt: now})

	if err := repo.Remove("alice", "p1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := repo.Remove("alice", "p1"); !errors.Is(err, domain.ErrCartLineNotFound) {
		t.Fatalf("expected ErrCartLineNotFound, got %v", err)
	}
}

func TestCartRepository_Clear(t *testing.T) {
	store := NewStore()
	repo := NewCartRepository(store)

	now := time.Now().UTC()
	_ = repo.Upsert(domain.CartLine{Owner: "alice", ProductID: "p1", Qty: 2, UpdatedAt: now})
	_ = repo.Upsert(domain.CartLine{Owner: "alice", ProductID: "p2", Qty: 1, UpdatedAt: now})

	if err := repo.Clear("alice"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	lines, err := repo.List("alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %v", lines)
	}

	// Повторная очистка пустой корзины не является ошибкой.
	if err := repo.Clear("alice"); err != nil {
		t.Fatalf("clear empty: %v", err)
	}
}
