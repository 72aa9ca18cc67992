// Package errors defines the engine's error taxonomy and the mapping from
// storage/context errors into it. Services return these typed errors so the
// transport layer can translate them uniformly and callers know whether a
// retry is safe.
package errors

import (
	"errors"
	"fmt"
)

// Sentinels for the five error kinds. Match with errors.Is.
var (
	// ErrValidation: malformed input, rejected before any write.
	ErrValidation = errors.New("validation error")

	// ErrConflict: a uniqueness invariant would be violated by a
	// non-idempotent path. Signals a bug; logged loudly, nothing retained.
	ErrConflict = errors.New("conflict error")

	// ErrTransientStore: network/timeout/store-unavailable. The whole
	// operation is safe to retry; idempotent writes converge.
	ErrTransientStore = errors.New("transient store error")

	// ErrPermission: caller lacks rights for a privileged path.
	ErrPermission = errors.New("permission error")

	// ErrNotFound: referenced record absent. Read paths treat this as "the
	// relationship ended", not a fatal condition.
	ErrNotFound = errors.New("not found")
)

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func Transient(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTransientStore, fmt.Sprintf(format, args...))
}

func Permission(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPermission, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
func IsTransient(err error) bool  { return errors.Is(err, ErrTransientStore) }
func IsPermission(err error) bool { return errors.Is(err, ErrPermission) }
func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
