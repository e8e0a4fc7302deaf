package domain_test

import (
	"testing"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

func TestEntryKindIsValid(t *testing.T) {
	valid := []domain.EntryKind{
		domain.EntryKindInitialStock,
		domain.EntryKindRestock,
		domain.EntryKindManualAdjust,
		domain.EntryKindReserve,
		domain.EntryKindRelease,
		domain.EntryKindSale,
		domain.EntryKindReturn,
	}
	for _, kind := range valid {
		if !kind.IsValid() {
			t.Fatalf("expected kind %s to be valid", kind)
		}
	}

	if domain.EntryKind("refurbish").IsValid() {
		t.Fatal("unknown kind must be invalid")
	}
}

func TestEntryKindAffectsStock(t *testing.T) {
	// Продажа фиксируется в журнале только для аудита: остаток был списан
	// парной записью reserve.
	if domain.EntryKindSale.AffectsStock() {
		t.Fatal("sale must not affect stock reconciliation")
	}
	for _, kind := range []domain.EntryKind{
		domain.EntryKindInitialStock,
		domain.EntryKindRestock,
		domain.EntryKindManualAdjust,
		domain.EntryKindReserve,
		domain.EntryKindRelease,
		domain.EntryKindReturn,
	} {
		if !kind.AffectsStock() {
			t.Fatalf("expected kind %s to affect stock", kind)
		}
	}
}

func TestLedgerEntryValidate(t *testing.T) {
	entry := domain.LedgerEntry{ProductID: "product-1", Kind: domain.EntryKindRestock, Delta: 5}
	if errs := entry.Validate(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}

	bad := domain.LedgerEntry{Kind: domain.EntryKind("bogus")}
	if errs := bad.Validate(); len(errs) != 2 {
		t.Fatalf("expected 2 validation errors, got %v", errs)
	}
}

func TestLedgerBalance(t *testing.T) {
	entries := []domain.LedgerEntry{
		{ProductID: "p1", Kind: domain.EntryKindInitialStock, Delta: 10},
		{ProductID: "p1", Kind: domain.EntryKindReserve, Delta: -4},
		{ProductID: "p1", Kind: domain.EntryKindSale, Delta: -4}, // аудит, не влияет
		{ProductID: "p1", Kind: domain.EntryKindReturn, Delta: 4},
		{ProductID: "p2", Kind: domain.EntryKindInitialStock, Delta: 7},
	}

	if got := domain.LedgerBalance(entries, "p1"); got != 10 {
		t.Fatalf("expected balance 10 for p1, got %d", got)
	}
	if got := domain.LedgerBalance(entries, "p2"); got != 7 {
		t.Fatalf("expected balance 7 for p2, got %d", got)
	}
	if got := domain.LedgerBalance(entries, "p3"); got != 0 {
		t.Fatalf("expected balance 0 for unknown product, got %d", got)
	}
}
