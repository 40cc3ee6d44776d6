// Package middleware provides the HTTP middleware in front of every module route.
//
// # Middleware Components
//
// CORSMiddleware answers browser preflights and decorates responses for
// allowed origins. It runs before the API key check so preflights succeed:
//
//	cors := middleware.NewCORSMiddleware(middleware.CORSConfig{
//		AllowedOrigins: []string{"https://app.example.com"},
//	})
//
// APIKeyMiddleware rejects requests without the shared X-API-Key header with
// 403 {"error":"Invalid or missing API Key"}:
//
//	auth := middleware.NewAPIKeyMiddleware(cfg.Security.APIKey, logger)
//
// RateLimitMiddleware limits requests per client IP using any Limiter:
//
//	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
//	// or, shared across instances:
//	limiter := middleware.NewDistributedRateLimiter(redisClient, cfg, "")
//	rl := middleware.NewRateLimitMiddleware(limiter, logger)
//
// Rejected requests get 429 with Retry-After and X-RateLimit-* headers.
// Limiter errors fail open.
//
// # Related Packages
//
//   - pkg/httputil: JSON error responses
//   - pkg/server: middleware ordering
package middleware
