package server

import "github.com/pkg/errors"

// Registry error causes. NotFound is a system invariant violation, not a
// recoverable user error: every id referenced anywhere in the system must
// already be registered. Callers match these with errors.Cause.
var (
	ErrDuplicateTask   = errors.New("task already registered")
	ErrTaskNotFound    = errors.New("task not found")
	ErrDuplicateWorker = errors.New("worker already registered")
	ErrWorkerNotFound  = errors.New("worker not found")
)
