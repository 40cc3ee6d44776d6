package modules

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/personalsuite/pkg/app"
	"github.com/platinummonkey/personalsuite/pkg/database"
	"github.com/platinummonkey/personalsuite/pkg/observability"
)

const tracerName = "github.com/platinummonkey/personalsuite/pkg/modules"

// State is the registry lifecycle state
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateRegistered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateRegistered:
		return "registered"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Recorder receives registry measurements
type Recorder interface {
	ModulesLoaded(count int)
	ModuleError(phase string)
	ModuleRegistered(name string, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ModulesLoaded(int) {}

func (noopRecorder) ModuleError(string) {}

func (noopRecorder) ModuleRegistered(string, time.Duration) {}

// Manager discovers modules from a catalog group, constructs each with the
// shared application handle and engine, and runs their registration hooks.
//
// Load and RegisterAll each run once, in that order. Any failure moves the
// manager to StateFailed and every later lifecycle call returns a StateError.
type Manager struct {
	app      *app.App
	engine   *database.Engine
	catalog  *Catalog
	group    string
	manifest *Manifest
	logger   *logrus.Logger
	recorder Recorder
	tracer   trace.Tracer

	mu      sync.RWMutex
	state   State
	modules []Module
	names   []string
	closed  bool
}

// Option configures a Manager
type Option func(*Manager)

// WithCatalog replaces the default catalog
func WithCatalog(c *Catalog) Option {
	return func(m *Manager) {
		if c != nil {
			m.catalog = c
		}
	}
}

// WithGroup overrides the catalog group label
func WithGroup(group string) Option {
	return func(m *Manager) {
		if group != "" {
			m.group = group
		}
	}
}

// WithManifest restricts and orders the loaded entries
func WithManifest(manifest *Manifest) Option {
	return func(m *Manager) {
		m.manifest = manifest
	}
}

// WithLogger sets the manager logger
func WithLogger(logger *logrus.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(m *Manager) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithTracerProvider sets the tracer provider used for lifecycle spans
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Manager) {
		if tp != nil {
			m.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewManager creates a manager in StateUnloaded. The application handle and
// engine are forwarded to every factory and never used by the manager itself.
func NewManager(a *app.App, engine *database.Engine, opts ...Option) *Manager {
	m := &Manager{
		app:      a,
		engine:   engine,
		catalog:  defaultCatalog,
		group:    Group,
		logger:   logrus.New(),
		recorder: noopRecorder{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load resolves and constructs every selected catalog entry. Modules built
// before a failure stay in the collection.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateUnloaded {
		return &StateError{Op: "load", State: m.state}
	}

	_, span := m.tracer.Start(ctx, "modules.load",
		trace.WithAttributes(attribute.String("modules.group", m.group)))
	defer span.End()

	names, err := m.selection()
	if err != nil {
		return m.fail(span, "resolve", err)
	}

	for _, name := range names {
		log := m.logger.WithField("module", name)

		factory, err := m.catalog.Resolve(m.group, name)
		if err != nil {
			return m.fail(span, "resolve", err)
		}

		mod, modName, err := m.construct(factory)
		if err != nil {
			return m.fail(span, "construct", &ConstructionError{Name: name, Err: err})
		}

		m.modules = append(m.modules, mod)
		m.names = append(m.names, modName)
		log.WithField("name", modName).Debug("Module loaded")
	}

	m.state = StateLoaded
	m.recorder.ModulesLoaded(len(m.modules))
	span.SetAttributes(attribute.Int("modules.count", len(m.modules)))
	m.logger.WithFields(logrus.Fields{
		"group": m.group,
		"count": len(m.modules),
	}).Info("Modules loaded")

	return nil
}

// RegisterAll invokes Register on every loaded module in load order and
// stops at the first failure without rolling back earlier registrations.
func (m *Manager) RegisterAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateLoaded {
		return &StateError{Op: "register", State: m.state}
	}

	ctx, span := m.tracer.Start(ctx, "modules.register",
		trace.WithAttributes(attribute.Int("modules.count", len(m.modules))))
	defer span.End()

	for i, mod := range m.modules {
		name := m.names[i]
		_, modSpan := m.tracer.Start(ctx, "module.register",
			trace.WithAttributes(attribute.String("module.name", name)))

		start := time.Now()
		err := register(mod)
		modSpan.End()

		if err != nil {
			return m.fail(span, "register", &RegistrationError{Name: name, Err: err})
		}

		elapsed := time.Since(start)
		m.recorder.ModuleRegistered(name, elapsed)
		m.logger.WithFields(logrus.Fields{
			"module":   name,
			"duration": elapsed.String(),
		}).Info("Module registered")
	}

	m.state = StateRegistered
	return nil
}

// construct runs a factory and reads the module name, turning a panic in
// either or a nil module into an error
func (m *Manager) construct(factory Factory) (mod Module, name string, err error) {
	defer func() {
		if r := recover(); r != nil {
			mod, name, err = nil, "", observability.MustRecover(r)
		}
	}()

	mod, err = factory(m.app, m.engine)
	if err != nil {
		return nil, "", err
	}
	if mod == nil {
		return nil, "", ErrNilModule
	}
	return mod, mod.Name(), nil
}

func register(mod Module) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = observability.MustRecover(r)
		}
	}()
	return mod.Register()
}

// selection returns the entry names to load in order
func (m *Manager) selection() ([]string, error) {
	if m.manifest == nil {
		return m.catalog.Names(m.group), nil
	}
	if err := m.manifest.Validate(); err != nil {
		return nil, err
	}
	return m.manifest.Enabled(), nil
}

// fail records a lifecycle failure; callers hold m.mu
func (m *Manager) fail(span trace.Span, phase string, err error) error {
	m.state = StateFailed
	m.recorder.ModuleError(phase)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	m.logger.WithField("phase", phase).WithError(err).Error("Module lifecycle failed")
	return err
}

// Names returns module names in load order
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.names))
	copy(names, m.names)
	return names
}

// Modules returns the loaded modules in load order
func (m *Manager) Modules() []Module {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Module, len(m.modules))
	copy(result, m.modules)
	return result
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Shutdown closes every module implementing Closer in reverse load order.
// All closers run; their errors are joined. Only the first call has effect.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	mods := make([]Module, len(m.modules))
	copy(mods, m.modules)
	names := make([]string, len(m.names))
	copy(names, m.names)
	m.mu.Unlock()

	var errs []error
	for i := len(mods) - 1; i >= 0; i-- {
		closer, ok := mods[i].(Closer)
		if !ok {
			continue
		}

		name := names[i]
		if err := closer.Close(ctx); err != nil {
			m.logger.WithField("module", name).WithError(err).Error("Module close failed")
			errs = append(errs, &ShutdownError{Name: name, Err: err})
			continue
		}
		m.logger.WithField("module", name).Debug("Module closed")
	}

	return errors.Join(errs...)
}
