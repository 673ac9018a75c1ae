package core

import (
	"errors"
)

var (
	ErrAssertion       = errors.New("assertion failed")
	ErrNilResource     = errors.New("resource is nil")
	ErrNilDevice       = errors.New("device is nil")
	ErrCycleDetected   = errors.New("circular dependency found in job graph")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrJobSystemClosed = errors.New("job system already shut down")
)
