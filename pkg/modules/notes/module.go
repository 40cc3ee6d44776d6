package notes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/platinummonkey/personalsuite/pkg/app"
	"github.com/platinummonkey/personalsuite/pkg/database"
	"github.com/platinummonkey/personalsuite/pkg/modules"
)

const (
	moduleName     = "notes"
	migrateTimeout = 30 * time.Second
)

func init() {
	modules.Register(moduleName, New)
}

// Module serves personal notes under /notes
type Module struct {
	app   *app.App
	store *Store
}

// New is the catalog factory for the notes module
func New(a *app.App, engine *database.Engine) (modules.Module, error) {
	if a == nil || engine == nil {
		return nil, errors.New("notes: application and engine are required")
	}
	return &Module{app: a, store: NewStore(engine.DB())}, nil
}

// Name returns the module name
func (m *Module) Name() string {
	return moduleName
}

// Register creates the notes table and mounts the routes
func (m *Module) Register() error {
	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	if err := m.store.Migrate(ctx); err != nil {
		return err
	}

	r := m.app.Subrouter("/notes")
	r.HandleFunc("", m.list).Methods(http.MethodGet)
	r.HandleFunc("", m.create).Methods(http.MethodPost)
	r.HandleFunc("/{id}", m.get).Methods(http.MethodGet)
	r.HandleFunc("/{id}", m.update).Methods(http.MethodPut)
	r.HandleFunc("/{id}", m.remove).Methods(http.MethodDelete)

	m.app.Logger().WithField("module", moduleName).Debug("Notes routes mounted")
	return nil
}
