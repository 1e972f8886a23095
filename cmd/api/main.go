package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/kiosk-service/internal/api/http"
	"github.com/spec-kit/kiosk-service/internal/api/http/handlers"
	"github.com/spec-kit/kiosk-service/internal/auth"
	"github.com/spec-kit/kiosk-service/internal/config"
	"github.com/spec-kit/kiosk-service/internal/events"
	"github.com/spec-kit/kiosk-service/internal/observability"
	"github.com/spec-kit/kiosk-service/internal/persistence"
	"github.com/spec-kit/kiosk-service/internal/service"
	"github.com/spec-kit/kiosk-service/internal/storage"
	"github.com/spec-kit/kiosk-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := persistence.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open ticket store", zap.Error(err))
	}
	defer backend.Close()

	blobs, local, err := openBlobStore(cfg.Blob)
	if err != nil {
		logger.Fatal("failed to init blob store", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	var forwarder *events.StreamForwarder
	if cfg.Redis.EventStream != "" {
		forwarder = events.NewStreamForwarder(backend.Redis.Client, cfg.Redis.EventStream, logger)
	}
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger), forwarder, dispatcher)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: backend.Tickets,
		BlobStore:  blobs,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	signer := auth.NewLinkSigner(cfg.Link.Secret, cfg.Link.TTLHours)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Blob.MaxBytes) + 1<<20,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	routes := httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, backend.Checks(), metrics),
		Kiosk:      handlers.NewKioskHandler(ticketService, signer, cfg.App.PublicBaseURL),
		Visitor:    handlers.NewVisitorHandler(ticketService),
		Admin:      handlers.NewAdminHandler(ticketService),
		LinkSigner: signer,
	}
	if local != nil {
		routes.UploadsPrefix = local.PublicPrefix()
		routes.UploadsDir = local.Dir()
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// openBlobStore returns the configured store and, for the local backend, the
// concrete store so its directory can be served.
func openBlobStore(cfg config.BlobConfig) (storage.BlobStore, *storage.LocalBlobStore, error) {
	if cfg.Backend == config.BlobS3 {
		s3, err := storage.NewS3BlobStore(storage.S3Config{
			Endpoint:   cfg.S3Endpoint,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Bucket:     cfg.S3Bucket,
			UseSSL:     cfg.S3UseSSL,
			BaseFolder: cfg.S3BaseFolder,
			MaxBytes:   cfg.MaxBytes,
		})
		if err != nil {
			return nil, nil, err
		}
		return s3, nil, nil
	}
	local, err := storage.NewLocalBlobStore(cfg.LocalDir, cfg.PublicPrefix, cfg.MaxBytes)
	if err != nil {
		return nil, nil, err
	}
	return local, local, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
