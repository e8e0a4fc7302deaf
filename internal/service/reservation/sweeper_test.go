package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/ims/internal/storage/memory"
)

func TestSweeper_SweepReleasesExpired(t *testing.T) {
	tracker, store := newTestTracker(t, 5*time.Millisecond)
	productID := seedProduct(t, store, 10)
	catalog := memory.NewCatalogRepository(store)

	for i := 0; i < 3; i++ {
		if _, err := tracker.Reserve(productID, "alice", 2); err != nil {
			t.Fatalf("reserve: %v", err)
		}
	}

	sweeper := NewSweeper(tracker, WithBatchSize(2))

	released, err := sweeper.Sweep(time.Now().UTC().Add(time.Second))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if released != 3 {
		t.Fatalf("expected 3 released, got %d", released)
	}

	product, _ := catalog.Get(productID)
	if product.Stock != 10 {
		t.Fatalf("expected stock restored to 10, got %d", product.Stock)
	}
}

func TestSweeper_SweepNothingExpired(t *testing.T) {
	tracker, store := newTestTracker(t, time.Hour)
	productID := seedProduct(t, store, 10)

	if _, err := tracker.Reserve(productID, "alice", 2); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	sweeper := NewSweeper(tracker)

	released, err := sweeper.Sweep(time.Now().UTC())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if released != 0 {
		t.Fatalf("expected nothing released, got %d", released)
	}
}

func TestSweeper_RunStopsOnContextCancel(t *testing.T) {
	tracker, store := newTestTracker(t, 5*time.Millisecond)
	productID := seedProduct(t, store, 10)
	catalog := memory.NewCatalogRepository(store)

	if _, err := tracker.Reserve(productID, "alice", 4); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	sweeper := NewSweeper(tracker, WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sweeper.Run(ctx)
	}()

	// Даём воркеру время снять просроченный резерв.
	deadline := time.Now().Add(time.Second)
	for {
		product, _ := catalog.Get(productID)
		if product.Stock == 10 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sweeper did not release expired reservation in time")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}

func TestSweeper_DisabledWithoutTracker(t *testing.T) {
	sweeper := NewSweeper(nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sweeper.Run(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper without tracker should return immediately")
	}
}
