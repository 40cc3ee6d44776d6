// Package server composes the running service: the core routes, the
// middleware chain around the application router, a separate health and
// metrics listener, and ordered graceful shutdown.
//
//	srv, err := server.New(server.Options{
//		Config:  cfg,
//		Logger:  logger,
//		App:     application,
//		Engine:  engine,
//		Manager: manager,
//		Metrics: metrics,
//	})
//	if err != nil {
//		return err
//	}
//	return srv.Run(ctx)
//
// Shutdown order is API listener, health listener, scheduler, module
// closers, database, Redis, then OpenTelemetry.
package server
