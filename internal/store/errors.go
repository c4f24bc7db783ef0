package store

import (
	"errors"
	"fmt"
)

// ErrInconsistent is matched by every ConsistencyError.
var ErrInconsistent = errors.New("store: configuration is inconsistent")

// StorageError reports a failed filesystem operation.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op, path string, err error) error {
	return &StorageError{Op: op, Path: path, Err: err}
}

// ConsistencyError reports persisted state that disagrees with itself, such
// as a Machine listed in the root document without a machine document.
type ConsistencyError struct {
	Entity string
	Name   string
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("store: %s %q: %s", e.Entity, e.Name, e.Detail)
}

// Unwrap returns the underlying cause, if any.
func (e *ConsistencyError) Unwrap() error {
	return e.Err
}

// Is matches ErrInconsistent.
func (e *ConsistencyError) Is(target error) bool {
	return target == ErrInconsistent
}
