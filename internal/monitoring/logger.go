// Package monitoring holds the swappable hot-path diagnostic logger used by
// the grid worker and its collaborators.
package monitoring

import (
	"log"
	"sync/atomic"
)

type logFunc = func(format string, v ...any)

var current atomic.Pointer[logFunc]

func init() {
	f := logFunc(log.Printf)
	current.Store(&f)
}

// Logf writes a diagnostic line through the installed logger. It defaults
// to log.Printf and is safe to call from any goroutine.
func Logf(format string, v ...any) {
	(*current.Load())(format, v...)
}

// SetLogger replaces the diagnostic logger and returns the previous one.
// Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...any)) (previous func(format string, v ...any)) {
	if f == nil {
		f = func(string, ...any) {}
	}
	next := logFunc(f)
	return *current.Swap(&next)
}

// Mute silences diagnostics until the returned restore func is called.
func Mute() (restore func()) {
	prev := SetLogger(nil)
	return func() { SetLogger(prev) }
}
