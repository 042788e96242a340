package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/labstock/internal/application/catalog"
	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/infrastructure/events"
	"github.com/jhoicas/labstock/internal/infrastructure/metrics"
	"github.com/jhoicas/labstock/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/labstock/internal/interfaces/http"
	"github.com/jhoicas/labstock/pkg/config"
	"github.com/jhoicas/labstock/pkg/logger"
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
		Str("driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	backend, err := storage.Open(ctx, cfg.DB, log.Component("storage"))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén")
	}
	defer backend.Close()

	catalogUC := catalog.NewCatalogUseCase(backend.Catalog)

	opts := []inventory.Option{inventory.WithLogger(log.Component("ledger"))}
	if cfg.Ledger.ValidateCatalog {
		opts = append(opts, inventory.WithResolver(catalogUC))
	}
	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder("labstock")
		opts = append(opts, inventory.WithRecorder(recorder))
	}
	if cfg.Kafka.Enabled() {
		publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar publicador Kafka")
			}
		}()
		opts = append(opts, inventory.WithPublisher(publisher))
		log.Info().Str("topic", cfg.Kafka.Topic).Msg("publicación de movimientos habilitada")
	}

	registerMovementUC := inventory.NewRegisterMovementUseCase(backend.TxRunner, opts...)
	queryUC := inventory.NewLedgerQueryUseCase(backend.Movements, backend.Balances)
	reconcileUC := inventory.NewReconcileUseCase(backend.TxRunner)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.App.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.App.SwaggerFile,
			Path:     "docs",
			Title:    "Labstock Ledger API",
		}))
	}

	if recorder != nil {
		app.Get("/metrics", adaptor.HTTPHandler(recorder.Handler()))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		RegisterMovement: registerMovementUC,
		LedgerQuery:      queryUC,
		Reconcile:        reconcileUC,
		CatalogUC:        catalogUC,
		JWTSecret:        cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
