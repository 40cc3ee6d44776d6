// Package modules discovers and wires pluggable application modules.
//
// # Overview
//
// Module packages publish a factory under the fixed catalog group
// "personal_suite.modules" from their init function, the same way
// database/sql drivers register themselves:
//
//	func init() {
//		modules.Register("notes", New)
//	}
//
// A binary selects its modules by blank-importing their packages. At startup
// the Manager enumerates the group, constructs every module with the shared
// application handle and database engine, then invokes each module's
// Register hook in the same order.
//
// # Lifecycle
//
//	Unloaded --Load--> Loaded --RegisterAll--> Registered
//	     \                 \
//	      +----failure------+----> Failed
//
// Each transition runs once. Calling Load or RegisterAll in any other state
// returns a *StateError matching ErrState and changes nothing. Failures are not retried and earlier work is not rolled back:
//
//   - *ResolutionError: an entry has no factory or a manifest name is unknown
//   - *ConstructionError: a factory failed or returned a nil module
//   - *RegistrationError: a Register hook failed
//
// # Ordering
//
// Without a manifest, entries load in lexical name order. A YAML manifest
// restricts the set and fixes the order:
//
//	modules:
//	  - name: notes
//	  - name: housekeeping
//	    enabled: false
//
// # Shutdown
//
// Modules implementing Closer are closed in reverse load order by
// Manager.Shutdown.
package modules
