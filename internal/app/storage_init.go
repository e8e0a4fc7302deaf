package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ims/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/ims/internal/health"
	"github.com/vladislavdragonenkov/ims/internal/storage/memory"
	"github.com/vladislavdragonenkov/ims/internal/storage/postgres"
)

// runtimeStorage объединяет репозитории выбранного хранилища.
type runtimeStorage struct {
	products     domain.CatalogRepository
	reservations domain.ReservationRepository
	orders       domain.OrderRepository
	ledger       domain.LedgerRepository
	carts        domain.CartRepository

	// storageChecker непустой только для внешних хранилищ.
	storageChecker healthcheck.Checker
	// closeFn освобождает ресурсы хранилища; может быть nil.
	closeFn func() error
}

// initRuntimeStorage создаёт репозитории согласно конфигурации.
func initRuntimeStorage(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeStorage, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		store := memory.NewStore()
		logger.Info("используется in-memory хранилище")
		return &runtimeStorage{
			products:     memory.NewCatalogRepository(store),
			reservations: memory.NewReservationRepository(store),
			orders:       memory.NewOrderRepository(store),
			ledger:       memory.NewLedgerRepository(store),
			carts:        memory.NewCartRepository(store),
		}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage requires IMS_POSTGRES_DSN")
		}

		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}

		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("миграции применены")
		}

		logger.Info("используется postgres хранилище")
		return &runtimeStorage{
			products:     postgres.NewCatalogRepository(store),
			reservations: postgres.NewReservationRepository(store),
			orders:       postgres.NewOrderRepository(store),
			ledger:       postgres.NewLedgerRepository(store),
			carts:        postgres.NewCartRepository(store),
			storageChecker: healthcheck.NewPingChecker("postgres", 0, func(ctx context.Context) error {
				return store.Ping(ctx)
			}),
			closeFn: store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}

// close освобождает ресурсы хранилища.
func (s *runtimeStorage) close(logger *log.Entry) {
	if s == nil || s.closeFn == nil {
		return
	}
	if err := s.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}
