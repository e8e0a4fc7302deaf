package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:          "order-1",
		Owner:       "customer-1",
		Status:      domain.OrderStatusPlaced,
		AmountMinor: 500,
		Lines: []domain.OrderLine{
			{
				ID:          "line-1",
				OrderID:     "order-1",
				ProductID:   "product-1",
				ProductName: "Basketball",
				Qty:         5,
				PriceMinor:  100,
				CreatedAt:   now,
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
	}{
		{
			name: "no owner",
			mut: func(o *domain.Order) {
				o.Owner = ""
			},
		},
		{
			name: "no lines",
			mut: func(o *domain.Order) {
				o.Lines = nil
			},
		},
		{
			name: "qty invalid",
			mut: func(o *domain.Order) {
				o.Lines[0].Qty = 0
			},
		},
		{
			name: "price invalid",
			mut: func(o *domain.Order) {
				o.Lines[0].PriceMinor = -5
			},
		},
		{
			name: "amount mismatch",
			mut: func(o *domain.Order) {
				o.AmountMinor = 999
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)

			if len(order.ValidateInvariants()) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct {
		from, to domain.OrderStatus
	}{
		{domain.OrderStatusPlaced, domain.OrderStatusPaid},
		{domain.OrderStatusPlaced, domain.OrderStatusCancelled},
		{domain.OrderStatusPaid, domain.OrderStatusDelivered},
		{domain.OrderStatusPaid, domain.OrderStatusCancelled},
	}
	for _, tc := range allowed {
		if !domain.CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	forbidden := []struct {
		from, to domain.OrderStatus
	}{
		// Доставка требует предварительной оплаты.
		{domain.OrderStatusPlaced, domain.OrderStatusDelivered},
		{domain.OrderStatusDelivered, domain.OrderStatusPaid},
		{domain.OrderStatusDelivered, domain.OrderStatusCancelled},
		{domain.OrderStatusCancelled, domain.OrderStatusPlaced},
		{domain.OrderStatusCancelled, domain.OrderStatusPaid},
		{domain.OrderStatusPaid, domain.OrderStatusPlaced},
	}
	for _, tc := range forbidden {
		if domain.CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %s -> %s to be forbidden", tc.from, tc.to)
		}
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	if domain.OrderStatusPlaced.IsTerminal() || domain.OrderStatusPaid.IsTerminal() {
		t.Fatal("placed and paid must not be terminal")
	}
	if !domain.OrderStatusDelivered.IsTerminal() || !domain.OrderStatusCancelled.IsTerminal() {
		t.Fatal("delivered and cancelled must be terminal")
	}
}

func TestOrderLineSubtotal(t *testing.T) {
	line := domain.OrderLine{Qty: 3, PriceMinor: 250}
	if got := line.Subtotal(); got != 750 {
		t.Fatalf("expected subtotal 750, got %d", got)
	}
}
