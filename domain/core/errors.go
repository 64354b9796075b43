package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Lifecycle errors
	ErrNotInitialized = errors.New("not initialized")
	ErrAlreadyBound   = errors.New("stream already bound")
	ErrLocked         = errors.New("schema is locked")

	// Seed arbitration errors
	ErrSeedCollision = errors.New("seed offset collision")

	// Draw protocol errors
	ErrNotReady = errors.New("stream not ready: already sampled this timestep")

	// Data errors
	ErrNotFound        = errors.New("resource not found")
	ErrColumnNotFound  = fmt.Errorf("%w: column", ErrNotFound)
	ErrStreamNotFound  = fmt.Errorf("%w: stream", ErrNotFound)
	ErrNetworkNotFound = fmt.Errorf("%w: network", ErrNotFound)
	ErrResultNotFound  = fmt.Errorf("%w: result", ErrNotFound)

	// Argument errors
	ErrInvalidArgument = errors.New("invalid argument")
	ErrLengthMismatch  = errors.New("length mismatch")
)

// Error constructors with context
func NewNotFoundError(resource string, name string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, resource, name)
}

func NewInvalidArgumentError(arg string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidArgument, arg, reason)
}

func NewLengthMismatchError(key string, expected, actual int) error {
	return fmt.Errorf("%w: expecting length %d for %q, got %d", ErrLengthMismatch, expected, key, actual)
}

func NewSeedCollisionError(offset int, stream string) error {
	return fmt.Errorf("%w: offset %d requested by stream %q is already in use", ErrSeedCollision, offset, stream)
}

func NewNotReadyError(stream string) error {
	return fmt.Errorf("%w: stream %q", ErrNotReady, stream)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsContractError(err error) bool {
	return errors.Is(err, ErrNotInitialized) ||
		errors.Is(err, ErrAlreadyBound) ||
		errors.Is(err, ErrSeedCollision) ||
		errors.Is(err, ErrNotReady) ||
		errors.Is(err, ErrLocked)
}

func IsDataError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrNotFound)
}
