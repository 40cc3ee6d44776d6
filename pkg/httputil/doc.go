// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Overview
//
// Every JSON error written by the service has the shape {"error": "..."}.
// Module handlers use these helpers so their responses match the core routes.
//
// # Response Helpers
//
//	httputil.WriteSuccess(w, note)
//	httputil.WriteCreated(w, note)
//	httputil.WriteNotFound(w, "note not found")
//	httputil.WriteInternalError(w)
//
// # Request Parsing
//
//	var req createNoteRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
//	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
//	limit, err := httputil.ParseQueryInt(r, "limit", 50)
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RecoveryMiddleware(logger),
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.MaxBytesMiddleware(1<<20),
//	)(router)
//
// # Related Packages
//
//   - pkg/middleware: API key, CORS and rate limiting middleware
package httputil
