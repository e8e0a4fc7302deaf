package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/ims/internal/health"
	"github.com/vladislavdragonenkov/ims/internal/httpapi"
	"github.com/vladislavdragonenkov/ims/internal/service/cart"
	"github.com/vladislavdragonenkov/ims/internal/service/catalog"
	"github.com/vladislavdragonenkov/ims/internal/service/order"
	"github.com/vladislavdragonenkov/ims/internal/service/reservation"
	"github.com/vladislavdragonenkov/ims/internal/version"
)

// Run собирает зависимости и держит HTTP-серверы до отмены контекста.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	storage, err := initRuntimeStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer storage.close(logger)

	// Ошибка Kafka не фатальна: сервис работает без публикации событий.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	// Общий мьютекс сериализует операции каталога, резервов и заказов.
	var mu sync.Mutex

	trackerOpts := []reservation.TrackerOption{
		reservation.WithTTL(cfg.ReservationTTL),
		reservation.WithTrackerLogger(logger.WithField("component", "reservation-tracker")),
	}
	if kafkaProducer != nil {
		trackerOpts = append(trackerOpts, reservation.WithProducer(kafkaProducer))
	}
	tracker := reservation.NewTracker(storage.reservations, &mu, trackerOpts...)

	var catalogSvc *catalog.Service
	var engine *order.Engine
	if kafkaProducer != nil {
		catalogSvc = catalog.NewServiceWithKafka(storage.products, storage.ledger, &mu, kafkaProducer, nil)
		engine = order.NewEngineWithKafka(storage.orders, storage.products, tracker, &mu, kafkaProducer, nil)
	} else {
		catalogSvc = catalog.NewService(storage.products, storage.ledger, &mu, nil)
		engine = order.NewEngine(storage.orders, storage.products, tracker, &mu, nil)
	}
	cartSvc := cart.NewService(storage.carts, storage.products, nil)

	sweeper := reservation.NewSweeper(tracker,
		reservation.WithInterval(cfg.SweepInterval),
		reservation.WithBatchSize(cfg.SweepBatchSize),
		reservation.WithSweeperLogger(logger.WithField("component", "reservation-sweeper")),
	)
	go sweeper.Run(ctx)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if storage.storageChecker != nil {
		healthHandler.RegisterChecker("storage", storage.storageChecker)
	}
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	handler := httpapi.NewHandler(catalogSvc, engine, cartSvc, storage.ledger, logger.WithField("layer", "http"))
	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: httpapi.NewRouter(handler)}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP API")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
