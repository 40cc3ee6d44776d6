package housekeeping

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/personalsuite/pkg/app"
	"github.com/platinummonkey/personalsuite/pkg/database"
	"github.com/platinummonkey/personalsuite/pkg/httputil"
	"github.com/platinummonkey/personalsuite/pkg/modules"
	"github.com/platinummonkey/personalsuite/pkg/observability"
)

const (
	moduleName = "housekeeping"
	schedule   = "@every 5m"
	runTimeout = 30 * time.Second
)

// Report statuses
const (
	// StatusPending means no run has completed yet
	StatusPending = "pending"
	// StatusOK means the last run reached the database
	StatusOK = "ok"
	// StatusError means the last run failed or panicked
	StatusError = "error"
)

func init() {
	modules.Register(moduleName, New)
}

// Report describes the most recent housekeeping run
type Report struct {
	Status          string     `json:"status"`
	LastRun         *time.Time `json:"last_run,omitempty"`
	Duration        string     `json:"duration,omitempty"`
	Error           string     `json:"error,omitempty"`
	Runs            int        `json:"runs"`
	OpenConnections int        `json:"open_connections"`
	InUse           int        `json:"in_use"`
	Idle            int        `json:"idle"`
	WaitCount       int64      `json:"wait_count"`
}

// Module periodically checks the database engine and reports pool stats
type Module struct {
	app    *app.App
	logger *logrus.Entry
	now    func() time.Time
	check  func(context.Context) error
	stats  func() sql.DBStats

	mu     sync.RWMutex
	report Report
}

// New is the catalog factory for the housekeeping module
func New(a *app.App, engine *database.Engine) (modules.Module, error) {
	if a == nil || engine == nil {
		return nil, errors.New("housekeeping: application and engine are required")
	}
	return &Module{
		app:    a,
		logger: a.Logger().WithField("module", moduleName),
		now:    time.Now,
		check:  engine.HealthCheck,
		stats:  engine.Stats,
		report: Report{Status: StatusPending},
	}, nil
}

// Name returns the module name
func (m *Module) Name() string {
	return moduleName
}

// Register schedules the periodic check and mounts the status route
func (m *Module) Register() error {
	if err := m.app.Schedule(moduleName, schedule, m.Run); err != nil {
		return err
	}
	m.app.HandleFunc("/housekeeping", m.status).Methods(http.MethodGet)
	return nil
}

// Run performs one check. A panic is recorded as a failed run.
func (m *Module) Run(ctx context.Context) (err error) {
	start := m.now()
	defer observability.RecoverPanicWithCallback(m.logger, moduleName, func(r interface{}) {
		err = observability.MustRecover(r)
		m.record(start, err)
	})

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	err = m.check(ctx)
	m.record(start, err)
	return err
}

func (m *Module) record(start time.Time, err error) {
	stats := m.stats()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.report.Runs++
	m.report.LastRun = &start
	m.report.Duration = m.now().Sub(start).String()
	m.report.OpenConnections = stats.OpenConnections
	m.report.InUse = stats.InUse
	m.report.Idle = stats.Idle
	m.report.WaitCount = stats.WaitCount

	if err != nil {
		m.report.Status = StatusError
		m.report.Error = err.Error()
		return
	}
	m.report.Status = StatusOK
	m.report.Error = ""

	m.logger.WithFields(logrus.Fields{
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
	}).Debug("Database pool checked")
}

// Last returns a copy of the latest report
func (m *Module) Last() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.report
}

func (m *Module) status(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, m.Last())
}
