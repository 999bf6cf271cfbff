package pipeline

import (
	"io"
	"log"
)

// Loggers are read by every RunParallel worker without locking; set them
// before a run starts, not during one.
var (
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters routes the analysis log streams. The CLI always sends ops
// to stderr and enables diag with --debug and trace with --trace. A nil
// writer silences its stream.
//
//   - ops: skipped degenerate events (index and stage) and run aborts
//   - diag: event, skip and worker totals at the end of a run
//   - trace: size of every built collection, per event; very verbose
func SetLogWriters(ops, diag, trace io.Writer) {
	opsLogger = newLogger(ops)
	diagLogger = newLogger(diag)
	traceLogger = newLogger(trace)
}

func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, "[pipeline] ", log.LstdFlags|log.Lmicroseconds)
}

// tracing reports whether the trace stream is on, so per-builder hooks
// can be left out of the hot path when it is not.
func tracing() bool { return traceLogger != nil }

func opsf(format string, args ...interface{}) {
	if opsLogger != nil {
		opsLogger.Printf(format, args...)
	}
}

func diagf(format string, args ...interface{}) {
	if diagLogger != nil {
		diagLogger.Printf(format, args...)
	}
}

func tracef(format string, args ...interface{}) {
	if traceLogger != nil {
		traceLogger.Printf(format, args...)
	}
}
