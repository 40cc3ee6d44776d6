package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/personalsuite/pkg/app"
	"github.com/platinummonkey/personalsuite/pkg/database"
	"github.com/platinummonkey/personalsuite/pkg/modules"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newEngine(t *testing.T) *database.Engine {
	t.Helper()
	engine, err := database.Open(context.Background(), database.Config{
		URL:    "sqlite:///:memory:",
		Logger: quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine
}

// newRegistered builds and registers the module against a fresh database
func newRegistered(t *testing.T) (*app.App, *Module) {
	t.Helper()
	a := app.New(quietLogger())
	mod, err := New(a, newEngine(t))
	require.NoError(t, err)
	require.NoError(t, mod.Register())
	return a, mod.(*Module)
}

func call(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeNote(t *testing.T, rec *httptest.ResponseRecorder) Note {
	t.Helper()
	var note Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	return note
}

func TestNew(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)

	mod, err := New(app.New(quietLogger()), newEngine(t))
	require.NoError(t, err)
	assert.Equal(t, "notes", mod.Name())
}

func TestPublishedInDefaultCatalog(t *testing.T) {
	factory, err := modules.Default().Resolve(modules.Group, "notes")
	require.NoError(t, err)
	assert.NotNil(t, factory)
}

func TestRegisterIsIdempotentOnSchema(t *testing.T) {
	engine := newEngine(t)

	first, err := New(app.New(quietLogger()), engine)
	require.NoError(t, err)
	require.NoError(t, first.Register())

	second, err := New(app.New(quietLogger()), engine)
	require.NoError(t, err)
	assert.NoError(t, second.Register(), "table creation must tolerate an existing table")
}

func TestNotesCRUD(t *testing.T) {
	a, _ := newRegistered(t)

	rec := call(t, a, http.MethodGet, "/notes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = call(t, a, http.MethodPost, "/notes", map[string]string{"title": "  Groceries ", "body": "milk"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeNote(t, rec)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Groceries", created.Title)
	assert.False(t, created.CreatedAt.IsZero())

	path := "/notes/" + jsonNumber(created.ID)

	rec = call(t, a, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "milk", decodeNote(t, rec).Body)

	rec = call(t, a, http.MethodPut, path, map[string]string{"title": "Groceries", "body": "milk, eggs"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "milk, eggs", decodeNote(t, rec).Body)

	rec = call(t, a, http.MethodGet, "/notes", nil)
	var all []Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "milk, eggs", all[0].Body)

	rec = call(t, a, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(t, a, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"note not found"}`, rec.Body.String())
}

func TestNotesPagination(t *testing.T) {
	a, mod := newRegistered(t)
	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, mod.store.Create(context.Background(), &Note{Title: title}))
	}

	rec := call(t, a, http.MethodGet, "/notes?limit=2&offset=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page []Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].Title)
	assert.Equal(t, "c", page[1].Title)
}

func TestNotesValidation(t *testing.T) {
	a, _ := newRegistered(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"missing title", http.MethodPost, "/notes", map[string]string{"body": "x"}, http.StatusBadRequest},
		{"blank title", http.MethodPost, "/notes", map[string]string{"title": "   "}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/notes", "{not json", http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/notes", map[string]string{"title": "t", "color": "red"}, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/notes/abc", nil, http.StatusBadRequest},
		{"bad limit", http.MethodGet, "/notes?limit=0", nil, http.StatusBadRequest},
		{"negative offset", http.MethodGet, "/notes?offset=-1", nil, http.StatusBadRequest},
		{"unknown id", http.MethodGet, "/notes/999", nil, http.StatusNotFound},
		{"update unknown id", http.MethodPut, "/notes/999", map[string]string{"title": "t"}, http.StatusNotFound},
		{"delete unknown id", http.MethodDelete, "/notes/999", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, a, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestNotesStoreErrorIsInternal(t *testing.T) {
	a, mod := newRegistered(t)
	require.NoError(t, mod.store.db.Close())

	rec := call(t, a, http.MethodGet, "/notes", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func jsonNumber(id int64) string {
	data, _ := json.Marshal(id)
	return string(data)
}
