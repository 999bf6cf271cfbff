package monitoring

import (
	"io"
	"log"
)

// Logf is the package-level run logger used by the CLI for progress and
// summary lines. It defaults to log.Printf but may be replaced by
// SetLogger or redirected with SetOutput.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetOutput routes Logf to w with the "[monophoton] " prefix and
// microsecond timestamps. A nil writer mutes it.
func SetOutput(w io.Writer) {
	if w == nil {
		SetLogger(nil)
		return
	}
	l := log.New(w, "[monophoton] ", log.LstdFlags|log.Lmicroseconds)
	SetLogger(l.Printf)
}
