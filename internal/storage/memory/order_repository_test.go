package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

func makeStoredOrder(owner string) domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:          "order-1",
		Owner:       owner,
		Status:      domain.OrderStatusPlaced,
		AmountMinor: 3998,
		Lines: []domain.OrderLine{
			{
				ID:          "line-1",
				OrderID:     "order-1",
				ProductID:   "p1",
				ProductName: "Basketball",
				Qty:         2,
				PriceMinor:  1999,
				CreatedAt:   now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderRepository_CreateConsumesReservationAndCart(t *testing.T) {
	store := NewStore()
	orders := NewOrderRepository(store)
	reservations := NewReservationRepository(store)
	carts := NewCartRepository(store)

	seedProduct(t, store, "p1", "SKU-1", 10)

	res, resEntry := makeReservation("r1", "p1", "alice", 2, time.Now().Add(time.Minute))
	if _, err := reservations.Reserve(res, resEntry); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := carts.Upsert(domain.CartLine{Owner: "alice", ProductID: "p1", Qty: 2, UpdatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("cart upsert: %v", err)
	}

	order := makeStoredOrder("alice")
	sale := domain.LedgerEntry{ID: "ls1", ProductID: "p1", Kind: domain.EntryKindSale, Delta: -2, RefID: order.ID, CreatedAt: time.Now().UTC()}
	if err := orders.Create(order, []domain.LedgerEntry{sale}, []string{"r1"}, "alice"); err != nil {
		t.Fatalf("create order: %v", err)
	}

	// Резерв сконвертирован: повторное снятие должно вернуть NotFound.
	if _, _, err := reservations.Release("p1", "alice", 2, domain.LedgerEntry{Kind: domain.EntryKindRelease}); !errors.Is(err, domain.ErrReservationNotFound) {
		t.Fatalf("expected consumed reservation, got %v", err)
	}

	lines, err := carts.List("alice")
	if err != nil {
		t.Fatalf("cart list: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected cart cleared, got %d lines", len(lines))
	}

	got, err := orders.Get("order-1")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if len(got.Lines) != 1 || got.Lines[0].ProductName != "Basketball" {
		t.Fatalf("unexpected order lines: %v", got.Lines)
	}
}

func TestOrderRepository_CreateDuplicate(t *testing.T) {
	store := NewStore()
	orders := NewOrderRepository(store)

	seedProduct(t, store, "p1", "SKU-1", 10)
	order := makeStoredOrder("alice")

	if err := orders.Create(order, nil, nil, ""); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := orders.Create(order, nil, nil, ""); !errors.Is(err, domain.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}

func TestOrderRepository_ListByOwner(t *testing.T) {
	store := NewStore()
	orders := NewOrderRepository(store)

	seedProduct(t, store, "p1", "SKU-1", 10)

	first := makeStoredOrder("alice")
	second := makeStoredOrder("bob")
	second.ID = "order-2"
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	if err := orders.Create(first, nil, nil, ""); err != nil {
		t.Fatalf("create first: %v", err)
	}
	if err := orders.Create(second, nil, nil, ""); err != nil {
		t.Fatalf("create second: %v", err)
	}

	all, err := orders.List("", 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 || all[0].ID != "order-2" {
		t.Fatalf("expected newest first of 2 orders, got %v", all)
	}

	mine, err := orders.List("alice", 0)
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(mine) != 1 || mine[0].Owner != "alice" {
		t.Fatalf("expected only alice orders, got %v", mine)
	}
}

func TestOrderRepository_SetStatus(t *testing.T) {
	store := NewStore()
	orders := NewOrderRepository(store)

	seedProduct(t, store, "p1", "SKU-1", 10)
	if err := orders.Create(makeStoredOrder("alice"), nil, nil, ""); err != nil {
		t.Fatalf("create order: %v", err)
	}

	ts := time.Now().UTC().Add(time.Minute)
	if err := orders.SetStatus("order-1", domain.OrderStatusPaid, ts); err != nil {
		t.Fatalf("set status: %v", err)
	}

	got, _ := orders.Get("order-1")
	if got.Status != domain.OrderStatusPaid || !got.UpdatedAt.Equal(ts) {
		t.Fatalf("expected paid at %v, got %s at %v", ts, got.Status, got.UpdatedAt)
	}

	if err := orders.SetStatus("missing", domain.OrderStatusPaid, ts); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_CancelRestoresStock(t *testing.T) {
	store := NewStore()
	orders := NewOrderRepository(store)
	catalog := NewCatalogRepository(store)
	ledger := NewLedgerRepository(store)

	seedProduct(t, store, "p1", "SKU-1", 8)

	order := makeStoredOrder("alice")
	if err := orders.Create(order, nil, nil, ""); err != nil {
		t.Fatalf("create order: %v", err)
	}

	now := time.Now().UTC()
	ret := domain.LedgerEntry{ID: "lret", ProductID: "p1", Kind: domain.EntryKindReturn, Delta: 2, RefID: order.ID, CreatedAt: now}
	if err := orders.Cancel(order, []domain.LedgerEntry{ret}, now); err != nil {
		t.Fatalf("cancel order: %v", err)
	}

	product, _ := catalog.Get("p1")
	if product.Stock != 10 {
		t.Fatalf("expected stock 10 after cancel, got %d", product.Stock)
	}

	got, _ := orders.Get("order-1")
	if got.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}

	entries, _ := ledger.ListByProduct("p1", 1)
	if len(entries) != 1 || entries[0].Kind != domain.EntryKindReturn || entries[0].Delta != 2 {
		t.Fatalf("expected return entry +2, got %v", entries)
	}
}
