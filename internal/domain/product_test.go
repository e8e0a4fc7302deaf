package domain_test

import (
	"testing"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

func makeProduct() domain.Product {
	return domain.Product{
		ID:                "product-1",
		SKU:               "SPT-BB-001",
		Name:              "Basketball",
		PriceMinor:        2999,
		Stock:             50,
		Category:          "Sports",
		LowStockThreshold: domain.DefaultLowStockThreshold,
	}
}

func TestProductValidateInvariants(t *testing.T) {
	product := makeProduct()
	if errs := product.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}

	cases := []struct {
		name string
		mut  func(p *domain.Product)
	}{
		{name: "blank name", mut: func(p *domain.Product) { p.Name = "   " }},
		{name: "zero price", mut: func(p *domain.Product) { p.PriceMinor = 0 }},
		{name: "negative stock", mut: func(p *domain.Product) { p.Stock = -1 }},
		{name: "negative threshold", mut: func(p *domain.Product) { p.LowStockThreshold = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := makeProduct()
			tc.mut(&p)
			if len(p.ValidateInvariants()) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}

func TestProductIsLowStock(t *testing.T) {
	p := makeProduct()
	p.LowStockThreshold = 10

	p.Stock = 11
	if p.IsLowStock() {
		t.Fatal("stock above threshold must not be low")
	}
	// Порог включительный: остаток, равный порогу, считается низким.
	p.Stock = 10
	if !p.IsLowStock() {
		t.Fatal("stock at threshold must be low")
	}
	p.Stock = 0
	if !p.IsLowStock() {
		t.Fatal("zero stock must be low")
	}
}
