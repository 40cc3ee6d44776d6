package modules

import (
	"context"

	"github.com/platinummonkey/personalsuite/pkg/app"
	"github.com/platinummonkey/personalsuite/pkg/database"
)

// Group is the catalog label every built-in and third-party module publishes under
const Group = "personal_suite.modules"

// Module is a unit of application behavior wired in at startup
type Module interface {
	// Name returns a human readable module name
	Name() string

	// Register attaches the module's routes and background jobs to the
	// application handle it was constructed with
	Register() error
}

// Closer is implemented by modules holding resources that must be released
// during graceful shutdown
type Closer interface {
	Close(ctx context.Context) error
}

// Factory constructs a module from the shared application handle and
// database engine. Neither handle is owned by the module.
type Factory func(a *app.App, engine *database.Engine) (Module, error)
