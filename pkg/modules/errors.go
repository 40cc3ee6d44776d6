package modules

import (
	"errors"
	"fmt"
)

var (
	// ErrState is matched by every StateError
	ErrState = errors.New("invalid module registry state")

	// ErrNotFound is returned when a selected name has no catalog entry
	ErrNotFound = errors.New("module not found in catalog")

	// ErrNoFactory is returned when a catalog entry has no factory
	ErrNoFactory = errors.New("module has no factory")

	// ErrNilModule is returned when a factory succeeds without a module
	ErrNilModule = errors.New("factory returned nil module")
)

// ResolutionError reports a catalog entry that cannot be resolved to a factory
type ResolutionError struct {
	Group string
	Name  string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve module %q in group %s: %v", e.Name, e.Group, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// ConstructionError reports a factory that rejected the shared handles
type ConstructionError struct {
	Name string
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("failed to construct module %q: %v", e.Name, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// RegistrationError reports a module whose Register hook failed. The module
// may have partially mutated the application before failing.
type RegistrationError struct {
	Name string
	Err  error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("failed to register module %q: %v", e.Name, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// StateError reports a registry operation called out of order
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: cannot %s in state %s", ErrState, e.Op, e.State)
}

func (e *StateError) Unwrap() error {
	return ErrState
}

// ShutdownError reports a module whose Close hook failed
type ShutdownError struct {
	Name string
	Err  error
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("failed to close module %q: %v", e.Name, e.Err)
}

func (e *ShutdownError) Unwrap() error {
	return e.Err
}
