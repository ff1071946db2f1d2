package controlplane

import "errors"

// Sentinel errors for control plane operations.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrTaskNotFound   = errors.New("task not found")
	ErrTaskFinished   = errors.New("task already finished")
	ErrInvalidRequest = errors.New("invalid request")
	ErrConflict       = errors.New("resource already exists")
)
