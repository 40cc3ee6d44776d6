package notes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/platinummonkey/personalsuite/pkg/httputil"
	"github.com/platinummonkey/personalsuite/pkg/observability"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type noteRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (req *noteRequest) normalize() {
	req.Title = strings.TrimSpace(req.Title)
}

func (m *Module) list(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.ParseQueryInt(r, "limit", defaultLimit)
	if err != nil || limit < 1 || limit > maxLimit {
		httputil.WriteBadRequest(w, "limit must be between 1 and 200")
		return
	}
	offset, err := httputil.ParseQueryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		httputil.WriteBadRequest(w, "offset must not be negative")
		return
	}

	notes, err := m.store.List(r.Context(), limit, offset)
	if err != nil {
		m.internalError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, notes)
}

func (m *Module) create(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.normalize()
	if !httputil.RequireNonEmpty(w, req.Title, "title") {
		return
	}

	note := &Note{Title: req.Title, Body: req.Body}
	if err := m.store.Create(r.Context(), note); err != nil {
		m.internalError(w, r, err)
		return
	}
	httputil.WriteCreated(w, note)
}

func (m *Module) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	note, err := m.store.Get(r.Context(), id)
	if err != nil {
		m.writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, note)
}

func (m *Module) update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	var req noteRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	req.normalize()
	if !httputil.RequireNonEmpty(w, req.Title, "title") {
		return
	}

	note, err := m.store.Get(r.Context(), id)
	if err != nil {
		m.writeStoreError(w, r, err)
		return
	}
	note.Title, note.Body = req.Title, req.Body

	if err := m.store.Update(r.Context(), note); err != nil {
		m.writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, note)
}

func (m *Module) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}

	if err := m.store.Delete(r.Context(), id); err != nil {
		m.writeStoreError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (m *Module) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, err)
		return
	}
	m.internalError(w, r, err)
}

func (m *Module) internalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.FromContext(r.Context()).WithField("module", moduleName).WithError(err).Error("Notes request failed")
	httputil.WriteInternalError(w)
}
