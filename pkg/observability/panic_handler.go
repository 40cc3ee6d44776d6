package observability

import (
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// RecoverPanicWithCallback recovers from a panic, logs it, and executes a callback
//
//	func (j *job) run() {
//	    defer observability.RecoverPanicWithCallback(logger, "housekeeping", func(interface{}) {
//	        j.markFailed()
//	    })
//	    // ... code that might panic
//	}
//
// The callback only runs when a panic was recovered. The panic is not re-raised.
func RecoverPanicWithCallback(logger logrus.FieldLogger, context string, callback func(recovered interface{})) {
	if r := recover(); r != nil {
		logger.WithFields(logrus.Fields{
			"panic":   fmt.Sprint(r),
			"stack":   string(debug.Stack()),
			"context": context,
		}).Error("PANIC recovered")
		if callback != nil {
			callback(r)
		}
	}
}

// MustRecover converts a recovered panic value to an error
//
//	func call() (err error) {
//	    defer func() {
//	        if r := recover(); r != nil {
//	            err = observability.MustRecover(r)
//	        }
//	    }()
//	    ...
//	}
//
// It returns nil when r is nil. The stack trace is not included.
func MustRecover(r interface{}) error {
	if r == nil {
		return nil
	}
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
