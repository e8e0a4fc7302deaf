package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ims/internal/domain"
	"github.com/vladislavdragonenkov/ims/internal/service/catalog"
	"github.com/vladislavdragonenkov/ims/internal/storage/postgres"
)

const defaultTimeout = 30 * time.Second

// demoProducts — стартовый набор товаров для демонстрации и локальной разработки.
func demoProducts() []domain.Product {
	return []domain.Product{
		{SKU: "SPT-BB-001", Name: "Basketball", Description: "Official size basketball", PriceMinor: 2999, Stock: 50, Category: "Sports", LowStockThreshold: domain.DefaultLowStockThreshold},
		{SKU: "SPT-SB-002", Name: "Soccer Ball", Description: "FIFA approved soccer ball", PriceMinor: 2499, Stock: 30, Category: "Sports", LowStockThreshold: domain.DefaultLowStockThreshold},
		{SKU: "SPT-TR-003", Name: "Tennis Racket", Description: "Professional tennis racket", PriceMinor: 8999, Stock: 15, Category: "Sports", LowStockThreshold: domain.DefaultLowStockThreshold},
		{SKU: "FTW-RS-004", Name: "Running Shoes", Description: "Lightweight running shoes", PriceMinor: 7999, Stock: 25, Category: "Footwear", LowStockThreshold: domain.DefaultLowStockThreshold},
		{SKU: "ACC-GB-005", Name: "Gym Bag", Description: "Spacious gym bag", PriceMinor: 3499, Stock: 40, Category: "Accessories", LowStockThreshold: domain.DefaultLowStockThreshold},
		{SKU: "ACC-WB-006", Name: "Water Bottle", Description: "Insulated water bottle", PriceMinor: 1999, Stock: 100, Category: "Accessories", LowStockThreshold: domain.DefaultLowStockThreshold},
		{SKU: "FIT-YM-007", Name: "Yoga Mat", Description: "Non-slip yoga mat", PriceMinor: 3999, Stock: 20, Category: "Fitness", LowStockThreshold: domain.DefaultLowStockThreshold},
		{SKU: "SPT-CB-009", Name: "Cricket Bat", Description: "Professional cricket bat", PriceMinor: 6999, Stock: 8, Category: "Sports", LowStockThreshold: domain.DefaultLowStockThreshold},
	}
}

// seedCatalog добавляет демо-товары; уже существующие SKU пропускаются.
func seedCatalog(service *catalog.Service, logger *log.Entry) (added, skipped int, err error) {
	for _, product := range demoProducts() {
		id, addErr := service.AddProduct(product)
		if addErr != nil {
			if errors.Is(addErr, domain.ErrConstraintViolation) {
				skipped++
				logger.WithField("sku", product.SKU).Info("product already exists, skipping")
				continue
			}
			return added, skipped, fmt.Errorf("seed product %s: %w", product.SKU, addErr)
		}
		added++
		logger.WithFields(log.Fields{
			"sku":        product.SKU,
			"product_id": id,
			"stock":      product.Stock,
		}).Info("product seeded")
	}
	return added, skipped, nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	_ = godotenv.Load()

	var dsn string
	flag.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: IMS_POSTGRES_DSN)")
	flag.Parse()

	if strings.TrimSpace(dsn) == "" {
		dsn = strings.TrimSpace(os.Getenv("IMS_POSTGRES_DSN"))
	}
	if dsn == "" {
		fail("IMS_POSTGRES_DSN (or -dsn) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		fail("open postgres store: %v", err)
	}
	defer store.Close()

	if err := store.MigrateUp(ctx, 0); err != nil {
		fail("apply migrations: %v", err)
	}

	logger := log.WithField("component", "seed")
	var mu sync.Mutex
	service := catalog.NewService(
		postgres.NewCatalogRepository(store),
		postgres.NewLedgerRepository(store),
		&mu,
		logger,
	)

	added, skipped, err := seedCatalog(service, logger)
	if err != nil {
		fail("seed catalog: %v", err)
	}
	fmt.Printf("seed ok: added=%d skipped=%d\n", added, skipped)
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
