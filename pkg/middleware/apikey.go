package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/personalsuite/pkg/httputil"
	"github.com/platinummonkey/personalsuite/pkg/observability"
)

const (
	// APIKeyHeader carries the shared API key
	APIKeyHeader = "X-API-Key"

	invalidAPIKeyMessage = "Invalid or missing API Key"
)

// APIKeyMiddleware rejects every request that does not present the
// configured key in the X-API-Key header
type APIKeyMiddleware struct {
	key    []byte
	logger *logrus.Logger
}

// NewAPIKeyMiddleware creates the API key check. An empty key rejects
// every request.
func NewAPIKeyMiddleware(key string, logger *logrus.Logger) *APIKeyMiddleware {
	if logger == nil {
		logger = logrus.New()
	}
	return &APIKeyMiddleware{
		key:    []byte(key),
		logger: logger,
	}
}

// Handler wraps an HTTP handler with the API key check
func (m *APIKeyMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.valid(r.Header.Get(APIKeyHeader)) {
			observability.FromContext(r.Context()).WithFields(logrus.Fields{
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
			}).Warn("Rejected request with invalid API key")
			httputil.WriteForbidden(w, invalidAPIKeyMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *APIKeyMiddleware) valid(provided string) bool {
	if len(m.key) == 0 || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), m.key) == 1
}
