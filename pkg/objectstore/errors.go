package objectstore

import (
	"errors"
	"fmt"
)

// Common storage errors
var (
	// ErrNotFound indicates the requested object was not found.
	ErrNotFound = errors.New("objectstore: object not found")

	// ErrInvalidKey indicates an invalid object key was provided.
	ErrInvalidKey = errors.New("objectstore: invalid object key")

	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("objectstore: invalid configuration")

	// ErrNotSupported indicates the operation is not supported by the provider.
	ErrNotSupported = errors.New("objectstore: operation not supported")
)

// Error is a storage error with bucket/key/operation context.
type Error struct {
	Op       string
	Bucket   string
	Key      string
	Provider Provider
	Err      error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("objectstore %s: %s failed for %s/%s: %v", e.Provider, e.Op, e.Bucket, e.Key, e.Err)
	}
	return fmt.Sprintf("objectstore %s: %s failed for %s: %v", e.Provider, e.Op, e.Bucket, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return errors.Is(e.Err, target) }

// NewError creates a new storage error.
func NewError(op string, provider Provider, bucket, key string, err error) error {
	return &Error{Op: op, Bucket: bucket, Key: key, Provider: provider, Err: err}
}

// IsNotFound checks whether an error indicates a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
