package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/personalsuite/pkg/app"
	"github.com/platinummonkey/personalsuite/pkg/config"
	"github.com/platinummonkey/personalsuite/pkg/database"
	"github.com/platinummonkey/personalsuite/pkg/httputil"
	"github.com/platinummonkey/personalsuite/pkg/middleware"
	"github.com/platinummonkey/personalsuite/pkg/modules"
	"github.com/platinummonkey/personalsuite/pkg/observability"
)

const maxBodyBytes = 1 << 20

// Options holds everything the server composes. Metrics and OTel are optional.
type Options struct {
	Config  *config.Config
	Logger  *logrus.Logger
	App     *app.App
	Engine  *database.Engine
	Manager *modules.Manager
	Metrics *observability.Metrics
	OTel    *observability.OTelProviders
	Version string
}

// Server runs the public API listener and the health/metrics listener
type Server struct {
	cfg     *config.Config
	logger  *logrus.Logger
	app     *app.App
	engine  *database.Engine
	manager *modules.Manager
	metrics *observability.Metrics
	otel    *observability.OTelProviders

	redis       *redis.Client
	memLimiter  *middleware.RateLimiter
	checker     *observability.HealthChecker
	handler     http.Handler
	healthMux   *http.ServeMux
	httpServer  *http.Server
	healthSrv   *http.Server
	shutdownMgr *observability.ShutdownManager
}

// New wires the core routes, the middleware chain and the health listener
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("server: config is required")
	}
	if opts.App == nil || opts.Engine == nil || opts.Manager == nil {
		return nil, errors.New("server: app, engine and manager are required")
	}
	if opts.Config.Security.APIKey == "" {
		return nil, errors.New("server: API key is required")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	s := &Server{
		cfg:     opts.Config,
		logger:  opts.Logger,
		app:     opts.App,
		engine:  opts.Engine,
		manager: opts.Manager,
		metrics: opts.Metrics,
		otel:    opts.OTel,
	}

	if url := s.cfg.RateLimit.RedisURL; url != "" {
		redisOpts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		s.redis = redis.NewClient(redisOpts)
	}

	s.registerCoreRoutes()

	s.handler = s.buildHandler()
	s.buildHealth(opts.Version)

	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	s.healthSrv = &http.Server{
		Addr:              s.cfg.Server.HealthAddr(),
		Handler:           s.healthMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.shutdownMgr = observability.NewShutdownManager(s.logger, s.cfg.Server.ShutdownTimeout)
	s.shutdownMgr.RegisterShutdownFunc("http", s.httpServer.Shutdown)
	s.shutdownMgr.RegisterShutdownFunc("health", s.healthSrv.Shutdown)
	s.shutdownMgr.RegisterShutdownFunc("scheduler", s.app.Stop)
	s.shutdownMgr.RegisterShutdownFunc("modules", s.manager.Shutdown)
	s.shutdownMgr.RegisterShutdownFunc("database", func(context.Context) error {
		return s.engine.Close()
	})
	if s.redis != nil {
		s.shutdownMgr.RegisterShutdownFunc("redis", func(context.Context) error {
			return s.redis.Close()
		})
	}
	s.shutdownMgr.RegisterShutdownFunc("otel", s.otel.Shutdown)

	return s, nil
}

func (s *Server) registerCoreRoutes() {
	s.app.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteSuccess(w, map[string]string{"message": "Hello World"})
	}).Methods(http.MethodGet)

	s.app.HandleFunc("/modules", func(w http.ResponseWriter, r *http.Request) {
		if state := s.manager.State(); state != modules.StateRegistered {
			httputil.WriteServiceUnavailable(w, "modules are "+state.String())
			return
		}
		httputil.WriteSuccess(w, s.manager.Names())
	}).Methods(http.MethodGet)
}

// buildHandler wraps the application router, outermost first: recovery,
// request ID, access log, metrics, tracing, CORS, rate limit, API key,
// body limit.
func (s *Server) buildHandler() http.Handler {
	chain := []func(http.Handler) http.Handler{
		httputil.RecoveryMiddleware(s.logger),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger),
	}

	if s.metrics != nil {
		chain = append(chain, observability.HTTPMetricsMiddleware(s.metrics))
	}

	if s.cfg.Observability.OTelEnabled {
		chain = append(chain, func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, "personalsuite.http",
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return r.Method + " " + r.URL.Path
				}),
			)
		})
	}

	cors := middleware.NewCORSMiddleware(middleware.CORSConfig{
		AllowedOrigins:   s.cfg.Security.CORSOrigins,
		AllowCredentials: s.cfg.Security.CORSAllowCredentials,
	})
	chain = append(chain, cors.Handler)

	if s.cfg.RateLimit.Enabled {
		limiter := s.newLimiter()
		rl := middleware.NewRateLimitMiddleware(limiter, s.logger)
		if s.metrics != nil {
			rl.OnLimit(s.metrics.RateLimited)
		}
		chain = append(chain, rl.Handler)
	}

	chain = append(chain,
		middleware.NewAPIKeyMiddleware(s.cfg.Security.APIKey, s.logger).Handler,
		httputil.MaxBytesMiddleware(maxBodyBytes),
	)

	return httputil.Chain(chain...)(s.app)
}

func (s *Server) newLimiter() middleware.Limiter {
	rlCfg := &middleware.RateLimitConfig{
		RequestsPerWindow: s.cfg.RateLimit.Requests,
		WindowDuration:    s.cfg.RateLimit.Window,
		BurstSize:         s.cfg.RateLimit.Burst,
	}
	if s.redis != nil {
		s.logger.Info("Using Redis rate limiter")
		return middleware.NewDistributedRateLimiter(s.redis, rlCfg, "")
	}
	s.logger.Info("Using in-memory rate limiter")
	s.memLimiter = middleware.NewRateLimiter(rlCfg)
	return s.memLimiter
}

func (s *Server) buildHealth(version string) {
	s.checker = observability.NewHealthChecker(s.engine.SQL(), s.redis, version)
	s.checker.AddCheck("modules", true, func(context.Context) error {
		if state := s.manager.State(); state != modules.StateRegistered {
			return fmt.Errorf("modules are %s", state)
		}
		return nil
	})

	s.healthMux = http.NewServeMux()
	observability.RegisterHealthRoutes(s.healthMux, s.checker)
	if s.metrics != nil {
		s.healthMux.Handle("/metrics", s.metrics.Handler())
	}
}

// Handler returns the public handler with the full middleware chain
func (s *Server) Handler() http.Handler {
	return s.handler
}

// HealthHandler returns the health and metrics handler
func (s *Server) HealthHandler() http.Handler {
	return s.healthMux
}

// Run serves both listeners and the scheduler until ctx is cancelled or a
// listener fails, then shuts everything down in order.
func (s *Server) Run(ctx context.Context) error {
	apiLn, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		s.shutdown()
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	healthLn, err := net.Listen("tcp", s.healthSrv.Addr)
	if err != nil {
		apiLn.Close()
		s.shutdown()
		return fmt.Errorf("failed to listen on %s: %w", s.healthSrv.Addr, err)
	}
	return s.Serve(ctx, apiLn, healthLn)
}

// Serve is Run on already bound listeners
func (s *Server) Serve(ctx context.Context, apiLn, healthLn net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	if s.memLimiter != nil {
		s.memLimiter.StartCleanup(gctx)
	}
	s.app.Start()

	g.Go(func() error {
		s.logger.WithField("addr", apiLn.Addr().String()).Info("Starting API server")
		if err := s.httpServer.Serve(apiLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.logger.WithField("addr", healthLn.Addr().String()).Info("Starting health server")
		if err := s.healthSrv.Serve(healthLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down")
		return s.shutdown()
	})

	return g.Wait()
}

func (s *Server) shutdown() error {
	return s.shutdownMgr.Shutdown(context.Background())
}
