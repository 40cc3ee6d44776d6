package app

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/personalsuite/pkg/observability"
)

// Job is a named background hook added through Schedule
type Job struct {
	Name string
	Spec string
	ID   cron.EntryID
}

// JobFunc is the body of a background job. Its context is cancelled when
// the scheduler stops.
type JobFunc func(ctx context.Context) error

// App is the application handle every module receives. It owns the HTTP
// router and the background scheduler; modules attach behavior to both
// during registration.
type App struct {
	router    *mux.Router
	scheduler *cron.Cron
	logger    *logrus.Logger

	mu       sync.Mutex
	jobs     map[string]Job
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc
	observer func(job string, err error)
}

// New creates an application handle
func New(logger *logrus.Logger) *App {
	if logger == nil {
		logger = logrus.New()
	}

	cronLog := cronLogger{entry: logger.WithField("component", "scheduler")}
	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		router: mux.NewRouter(),
		scheduler: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		logger: logger,
		jobs:   make(map[string]Job),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Router returns the underlying router
func (a *App) Router() *mux.Router {
	return a.router
}

// HandleFunc registers a handler function for the path
func (a *App) HandleFunc(path string, f func(http.ResponseWriter, *http.Request)) *mux.Route {
	return a.router.HandleFunc(path, f)
}

// Handle registers a handler for the path
func (a *App) Handle(path string, h http.Handler) *mux.Route {
	return a.router.Handle(path, h)
}

// Subrouter returns a router scoped to a path prefix
func (a *App) Subrouter(prefix string) *mux.Router {
	return a.router.PathPrefix(prefix).Subrouter()
}

// Use appends router level middleware
func (a *App) Use(mw ...mux.MiddlewareFunc) {
	a.router.Use(mw...)
}

// ServeHTTP dispatches to the router
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Schedule adds a named background job using a cron spec such as
// "@every 5m" or "0 3 * * *". Names must be unique.
func (a *App) Schedule(name, spec string, fn JobFunc) error {
	if name == "" {
		return fmt.Errorf("job name is required")
	}
	if fn == nil {
		return fmt.Errorf("job %s has no function", name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.jobs[name]; exists {
		return fmt.Errorf("job already scheduled: %s", name)
	}

	log := a.logger.WithField("job", name)
	id, err := a.scheduler.AddFunc(spec, func() {
		a.runJob(name, fn, log)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}

	a.jobs[name] = Job{Name: name, Spec: spec, ID: id}
	log.WithField("spec", spec).Info("Scheduled background job")
	return nil
}

func (a *App) runJob(name string, fn JobFunc, log *logrus.Entry) {
	a.mu.Lock()
	ctx, observer := a.ctx, a.observer
	a.mu.Unlock()

	start := time.Now()
	err := callJob(ctx, fn)
	log = log.WithField("duration", time.Since(start).String())
	if err != nil {
		log.WithError(err).Error("Scheduled job failed")
	} else {
		log.Debug("Scheduled job complete")
	}

	if observer != nil {
		observer(name, err)
	}
}

// callJob runs fn, reporting a panic as an error
func callJob(ctx context.Context, fn JobFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = observability.MustRecover(r)
		}
	}()
	return fn(ctx)
}

// OnJobRun sets a callback invoked after every job run with its outcome
func (a *App) OnJobRun(fn func(job string, err error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observer = fn
}

// Jobs returns the scheduled jobs sorted by name
func (a *App) Jobs() []Job {
	a.mu.Lock()
	defer a.mu.Unlock()

	jobs := make([]Job, 0, len(a.jobs))
	for _, job := range a.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs
}

// Start starts the scheduler. Calling it twice is a no-op.
func (a *App) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return
	}
	if a.ctx.Err() != nil {
		a.ctx, a.cancel = context.WithCancel(context.Background())
	}
	a.scheduler.Start()
	a.running = true
	a.logger.WithField("jobs", len(a.jobs)).Info("Scheduler started")
}

// Stop stops the scheduler, cancels the job context and waits for running
// jobs until ctx is done
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	cancel := a.cancel
	a.mu.Unlock()

	done := a.scheduler.Stop()
	cancel()
	select {
	case <-done.Done():
		a.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler did not drain: %w", ctx.Err())
	}
}

// Logger returns the application logger
func (a *App) Logger() *logrus.Logger {
	return a.logger
}

// cronLogger adapts logrus to cron.Logger
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
