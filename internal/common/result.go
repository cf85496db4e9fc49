package common

import (
	"errors"
	"log/slog"
)

// Result is the outcome of a best-effort call. A failed Result never
// propagates as an error; callers that do not care about the outcome call
// Discard, which records it in the log and drops it.
type Result struct {
	Op  string
	Err error
}

// Succeeded builds a successful Result for op.
func Succeeded(op string) Result {
	return Result{Op: op}
}

// Degraded builds a failed Result for op. The error matches ErrNetworkDegraded.
func Degraded(op string, cause error) Result {
	if cause == nil {
		cause = errors.New("unknown failure")
	}
	return Result{Op: op, Err: errors.Join(ErrNetworkDegraded, cause)}
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Discard logs a failed outcome at warn level and otherwise does nothing.
func (r Result) Discard(logger *slog.Logger) {
	if r.Err == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("best-effort call failed", "op", r.Op, "error", r.Err)
}
