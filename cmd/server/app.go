package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/File-Sharing-BondBridg/Catalog-Service/cmd/middleware"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/api"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/api/handlers/file"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/configuration"
	natsroutes "github.com/File-Sharing-BondBridg/Catalog-Service/internal/nats"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services/command"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services/download"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services/infrastructure"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/services/query"
	"github.com/File-Sharing-BondBridg/Catalog-Service/internal/storage"
)

const durablePrefix = "catalog-service"

// app holds everything main needs to serve and later shut down.
type app struct {
	router  *gin.Engine
	catalog storage.Catalog
	bus     *services.EventBus
}

func newApp(ctx context.Context, cfg *configuration.Config, logger *slog.Logger) (*app, error) {
	root, err := filepath.Abs(cfg.Storage.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	policy, err := infrastructure.NewPathPolicy(root)
	if err != nil {
		return nil, err
	}
	logger.Info("storage root ready", slog.String("root", policy.Root()))

	catalog, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &app{catalog: catalog}
	optional := map[string]handlers.Check{}

	var scanner services.VirusScanner
	if cfg.ClamAV.URL != "" {
		s := services.NewScanner(cfg.ClamAV.URL)
		scanner = s
		optional["clamav"] = func(context.Context) error { return s.CheckConnection() }
	}

	var mirror services.ObjectMirror
	if cfg.MinIO.Enabled {
		m, err := services.NewMinioMirror(ctx, cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey,
			cfg.MinIO.BucketName, cfg.MinIO.UseSSL, logger)
		if err != nil {
			logger.Warn("MinIO unavailable, mirroring disabled", slog.Any("error", err))
		} else {
			mirror = m
			optional["minio"] = m.CheckConnection
		}
	}

	processor := services.NewFileProcessor(scanner, mirror, logger)

	var publisher command.EventPublisher = services.InlinePublisher{Processor: processor}
	if cfg.NATS.URL != "" {
		bus, err := services.ConnectEventBus(cfg.NATS.URL, logger)
		if err != nil {
			logger.Warn("NATS unavailable, processing events inline", slog.Any("error", err))
		} else {
			routes := natsroutes.Routes(handlers.NewEventHandlers(processor, logger))
			if _, err := natsroutes.SubscribeAll(bus, durablePrefix, routes); err != nil {
				_ = bus.Drain()
				_ = catalog.Close()
				return nil, fmt.Errorf("failed to subscribe to file events: %w", err)
			}
			a.bus = bus
			publisher = bus
			optional["nats"] = func(context.Context) error { return bus.CheckConnection() }
		}
	}

	fileHandler := file.NewHandler(
		query.NewService(catalog, logger),
		command.NewService(catalog, policy, publisher, logger),
		download.NewService(catalog, logger),
		logger,
	)
	health := handlers.NewHealth(cfg.Catalog.Driver, catalog.Ping, optional)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(logger))
	api.RegisterRoutes(r, fileHandler, health)
	a.router = r

	return a, nil
}

// openCatalog picks the catalog driver and wraps it in the read cache.
func openCatalog(ctx context.Context, cfg *configuration.Config, logger *slog.Logger) (storage.Catalog, error) {
	var catalog storage.Catalog
	switch cfg.Catalog.Driver {
	case "postgres":
		pg, err := storage.NewPostgresStorage(ctx, cfg.Database.ConnectionString(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres catalog: %w", err)
		}
		catalog = pg
	default:
		local, err := storage.NewLocalStorage(cfg.Catalog.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open local catalog: %w", err)
		}
		catalog = local
	}
	logger.Info("catalog opened", slog.String("driver", cfg.Catalog.Driver))

	if cfg.Catalog.CacheSize > 0 {
		catalog = storage.NewCachedCatalog(catalog, cfg.Catalog.CacheSize, cfg.Catalog.CacheTTL)
	}
	return catalog, nil
}

// shutdown drains the event bus, then closes the catalog.
func (a *app) shutdown() error {
	if a.bus != nil {
		if err := a.bus.Drain(); err != nil {
			return err
		}
	}
	return a.catalog.Close()
}
