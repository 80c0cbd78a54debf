package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/ventas-api/internal/application/outbox"
	"github.com/jhoicas/ventas-api/internal/application/reporting"
	"github.com/jhoicas/ventas-api/internal/application/sales"
	"github.com/jhoicas/ventas-api/internal/application/usecase"
	"github.com/jhoicas/ventas-api/internal/infrastructure/events"
	"github.com/jhoicas/ventas-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/ventas-api/internal/interfaces/http"
	"github.com/jhoicas/ventas-api/pkg/config"
	"github.com/jhoicas/ventas-api/pkg/logger"
	"github.com/jhoicas/ventas-api/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén")
	}
	defer backend.Close()

	m := metrics.New()

	createSaleUC := sales.NewCreateSaleUseCase(backend.Tx, sales.Config{
		LowStockThreshold: cfg.Sales.LowStockThreshold,
		RetryAttempts:     cfg.Sales.RetryAttempts,
		RetryBackoff:      cfg.Sales.RetryBackoff,
		TxTimeout:         cfg.Sales.TxTimeout,
	}, log, m)
	saleQueryUC := sales.NewQueryUseCase(backend.Sales)
	productUC := usecase.NewProductUseCase(backend.Products, backend.Categories)
	stockUC := usecase.NewStockUseCase(backend.Tx, backend.Movements, backend.Products)
	categoryUC := usecase.NewCategoryUseCase(backend.Categories)
	clientUC := usecase.NewClientUseCase(backend.Clients)
	statsUC := reporting.NewStatsUseCase(backend.Tx, cfg.Sales.LowStockThreshold)

	var publisher outbox.Publisher
	if len(cfg.Events.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.TopicPrefix)
		defer func() {
			if err := kp.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar writer de Kafka")
			}
		}()
		publisher = kp
	} else {
		log.Warn().Msg("KAFKA_BROKERS vacío: los eventos se escriben al log")
		publisher = events.NewLogPublisher(log)
	}
	relay := outbox.NewRelay(backend.Tx, publisher, outbox.Config{
		PollInterval: cfg.Events.PollInterval,
		BatchSize:    cfg.Events.BatchSize,
	}, log, m)

	app := httpRouter.NewApp(httpRouter.AppConfig{
		Name:        cfg.App.Name,
		SwaggerFile: "./docs/swagger.json",
		Log:         log,
		Metrics:     m,
	}, httpRouter.RouterDeps{
		CreateSale:        createSaleUC,
		SaleQuery:         saleQueryUC,
		ProductUC:         productUC,
		StockUC:           stockUC,
		CategoryUC:        categoryUC,
		ClientUC:          clientUC,
		StatsUC:           statsUC,
		LowStockThreshold: cfg.Sales.LowStockThreshold,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("aplicación finalizada con error")
		backend.Close()
		os.Exit(1)
	}
	log.Info().Msg("aplicación detenida")
}
