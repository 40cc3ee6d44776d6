// Package app provides the application handle shared by every module.
//
// An App wraps a gorilla/mux router and a robfig/cron scheduler. Modules
// receive the handle from their factory and attach routes and background
// jobs to it while the registry runs its registration pass:
//
//	func (m *Module) Register() error {
//		m.app.HandleFunc("/notes", m.list).Methods(http.MethodGet)
//		return m.app.Schedule("notes.compact", "@daily", m.compact)
//	}
//
// The server starts the scheduler once registration completes and stops it
// during graceful shutdown.
package app
