package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/personalsuite/pkg/app"
	"github.com/platinummonkey/personalsuite/pkg/config"
	"github.com/platinummonkey/personalsuite/pkg/database"
	"github.com/platinummonkey/personalsuite/pkg/modules"
	"github.com/platinummonkey/personalsuite/pkg/observability"
	"github.com/platinummonkey/personalsuite/pkg/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load modules and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

// runServe wires configuration, logging, tracing, the engine, the module
// registry and the server, then blocks until SIGINT or SIGTERM.
func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	engine, err := database.Open(ctx, database.Config{
		URL:             cfg.Database.URL,
		Echo:            cfg.Database.Echo,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
		Logger:          logger,
	})
	if err != nil {
		providers.Shutdown(context.Background())
		return err
	}

	srv, manager, err := build(ctx, cfg, logger, engine, providers)
	if err != nil {
		logger.WithError(err).Error("Startup failed")
		if manager != nil {
			manager.Shutdown(context.Background())
		}
		engine.Close()
		providers.Shutdown(context.Background())
		return err
	}

	return srv.Run(ctx)
}

// build loads and registers modules and composes the server. The manager is
// returned even on failure so the caller can close what was constructed.
func build(ctx context.Context, cfg *config.Config, logger *logrus.Logger, engine *database.Engine, providers *observability.OTelProviders) (*server.Server, *modules.Manager, error) {
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(nil)
		if err := metrics.RegisterDBStats(engine.SQL(), string(engine.Dialect())); err != nil {
			return nil, nil, fmt.Errorf("failed to register database metrics: %w", err)
		}
	}

	application := app.New(logger)
	if metrics != nil {
		application.OnJobRun(metrics.JobRun)
	}

	opts := []modules.Option{modules.WithLogger(logger)}
	if metrics != nil {
		opts = append(opts, modules.WithRecorder(metrics))
	}
	if path := cfg.Modules.ManifestFile; path != "" {
		manifest, err := modules.LoadManifest(path)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, modules.WithManifest(manifest))
	}

	manager := modules.NewManager(application, engine, opts...)
	if err := manager.Load(ctx); err != nil {
		return nil, manager, err
	}
	if err := manager.RegisterAll(ctx); err != nil {
		return nil, manager, err
	}

	srv, err := server.New(server.Options{
		Config:  cfg,
		Logger:  logger,
		App:     application,
		Engine:  engine,
		Manager: manager,
		Metrics: metrics,
		OTel:    providers,
		Version: version,
	})
	if err != nil {
		return nil, manager, err
	}

	logger.WithFields(logrus.Fields{
		"modules": manager.Names(),
		"version": version,
	}).Info("Personal Suite ready")

	return srv, manager, nil
}
