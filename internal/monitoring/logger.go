// Package monitoring holds the process-wide diagnostic logger used by
// subsystems that report problems without failing the operation, such
// as baseline lookup and capture archival.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf
// and may be swapped out with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger, which tests use to silence expected failures.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
