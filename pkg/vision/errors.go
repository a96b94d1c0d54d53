package vision

import "errors"

var (
	// ErrEngineUnavailable means the recognition engine never initialized.
	// Non-fatal: the analyzer falls back to simulated records.
	ErrEngineUnavailable = errors.New("recognition engine unavailable")

	// ErrEngineTimeout means a recognition call exceeded its budget.
	// Non-fatal: the analyzer falls back, but the reason stays visible.
	ErrEngineTimeout = errors.New("recognition timed out")

	// ErrEngineFailure means the engine rejected a call for a reason other
	// than timeout. Propagated to callers instead of falling back.
	ErrEngineFailure = errors.New("recognition failed")
)
