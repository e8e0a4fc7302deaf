package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/ims/internal/service/reservation"
)

// StorageDriver выбирает реализацию хранилища.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// Config описывает настройки запуска приложения.
type Config struct {
	// HTTPAddr — адрес основного HTTP API.
	HTTPAddr string
	// MetricsAddr — адрес сервера метрик и health-проверок.
	MetricsAddr string

	StorageDriver StorageDriver
	// PostgresDSN обязателен при StorageDriver == postgres.
	PostgresDSN string
	// PostgresAutoMigrate применяет миграции при старте.
	PostgresAutoMigrate bool

	// KafkaBrokers — список брокеров через запятую; пустой отключает Kafka.
	KafkaBrokers string

	// ReservationTTL — срок жизни резерва до автоматического снятия.
	ReservationTTL time.Duration
	// SweepInterval — период обхода просроченных резервов.
	SweepInterval time.Duration
	// SweepBatchSize — сколько резервов снимается за один обход.
	SweepBatchSize int
}

// DefaultConfig возвращает настройки для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		ReservationTTL:      reservation.DefaultTTL,
		SweepInterval:       5 * time.Second,
		SweepBatchSize:      200,
	}
}

// LoadConfig собирает конфигурацию из переменных окружения поверх значений
// по умолчанию.
func LoadConfig() Config {
	cfg := DefaultConfig()

	cfg.HTTPAddr = envString("IMS_HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsAddr = envString("IMS_METRICS_ADDR", cfg.MetricsAddr)

	if v := envString("IMS_STORAGE_DRIVER", ""); v != "" {
		cfg.StorageDriver = StorageDriver(strings.ToLower(v))
	}
	cfg.PostgresDSN = envString("IMS_POSTGRES_DSN", cfg.PostgresDSN)
	if cfg.PostgresDSN != "" && envString("IMS_STORAGE_DRIVER", "") == "" {
		cfg.StorageDriver = StorageDriverPostgres
	}
	cfg.PostgresAutoMigrate = envBool("IMS_POSTGRES_AUTO_MIGRATE", cfg.PostgresAutoMigrate)

	cfg.KafkaBrokers = envString("IMS_KAFKA_BROKERS", cfg.KafkaBrokers)

	cfg.ReservationTTL = envDuration("IMS_RESERVATION_TTL", cfg.ReservationTTL)
	cfg.SweepInterval = envDuration("IMS_SWEEP_INTERVAL", cfg.SweepInterval)
	cfg.SweepBatchSize = envInt("IMS_SWEEP_BATCH_SIZE", cfg.SweepBatchSize)

	return cfg
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
