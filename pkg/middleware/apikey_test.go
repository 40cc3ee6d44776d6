package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		setHeader  bool
		wantStatus int
		wantCalled bool
	}{
		{name: "valid key", configured: "secret", header: "secret", setHeader: true, wantStatus: http.StatusOK, wantCalled: true},
		{name: "missing header", configured: "secret", wantStatus: http.StatusForbidden},
		{name: "empty header", configured: "secret", header: "", setHeader: true, wantStatus: http.StatusForbidden},
		{name: "wrong key", configured: "secret", header: "guess", setHeader: true, wantStatus: http.StatusForbidden},
		{name: "prefix of key", configured: "secret", header: "secre", setHeader: true, wantStatus: http.StatusForbidden},
		{name: "case differs", configured: "secret", header: "SECRET", setHeader: true, wantStatus: http.StatusForbidden},
		{name: "no key configured", configured: "", header: "", setHeader: true, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			handler := NewAPIKeyMiddleware(tt.configured, quietLogger()).Handler(okHandler(&called))

			req := httptest.NewRequest(http.MethodGet, "/notes", nil)
			if tt.setHeader {
				req.Header.Set(APIKeyHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantStatus == http.StatusForbidden {
				assert.JSONEq(t, `{"error":"Invalid or missing API Key"}`, rec.Body.String())
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestAPIKeyMiddleware_LeavesRequestUnchanged(t *testing.T) {
	var gotPath, gotBodyHeader string
	handler := NewAPIKeyMiddleware("secret", nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBodyHeader = r.Header.Get(APIKeyHeader)
	}))

	req := httptest.NewRequest(http.MethodPost, "/notes/1", nil)
	req.Header.Set(APIKeyHeader, "secret")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "/notes/1", gotPath)
	assert.Equal(t, "secret", gotBodyHeader)
}
