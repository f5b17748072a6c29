package observability

import (
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// RecoverPanic recovers from a panic and logs it with its stack
//
// Usage in defer statements:
//
//	go func() {
//	    defer observability.RecoverPanic(entry, "catalog watcher")
//	    // ... code that might panic
//	}()
//
// The panic is NOT re-raised; the deferring function returns normally.
func RecoverPanic(log logrus.FieldLogger, context string) {
	if r := recover(); r != nil {
		logPanic(log, context, r)
	}
}

// RecoverPanicWithCallback recovers from a panic, logs it, and then runs
// callback. The callback only runs when a panic occurred.
//
//	defer observability.RecoverPanicWithCallback(entry, "http handler", func() {
//	    writeInternalError(w, r)
//	})
func RecoverPanicWithCallback(log logrus.FieldLogger, context string, callback func()) {
	if r := recover(); r != nil {
		logPanic(log, context, r)
		if callback != nil {
			callback()
		}
	}
}

func logPanic(log logrus.FieldLogger, context string, value interface{}) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{
		"panic":   value,
		"stack":   string(debug.Stack()),
		"context": context,
	}).Error("PANIC recovered")
}
