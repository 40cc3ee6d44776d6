// Package observability provides structured logging, Prometheus metrics,
// health checks, and OpenTelemetry setup.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, observability.FormatJSON, os.Stdout)
//	logger.WithField("module", "notes").Info("Module registered")
//
// Request-scoped logging picks up the request ID and the active span:
//
//	observability.FromContext(r.Context()).Warn("note not found")
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(nil)
//	metrics.RegisterDBStats(engine.SQL(), "main")
//	handler = observability.HTTPMetricsMiddleware(metrics)(handler)
//
// Metrics also implements the module manager's Recorder.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(engine.SQL(), redisClient, version)
//	checker.AddCheck("modules", true, func(ctx context.Context) error { ... })
//	observability.RegisterHealthRoutes(mux, checker)
//
// # Shutdown
//
//	sm := observability.NewShutdownManager(logger, 30*time.Second)
//	sm.RegisterShutdownFunc("http", srv.Shutdown)
//	sm.Shutdown(ctx)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "personalsuite",
//	}, logger)
//	defer providers.Shutdown(ctx)
package observability
