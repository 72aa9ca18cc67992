package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Map converts repo/infra errors into the engine taxonomy.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrTransientStore),
		errors.Is(err, ErrPermission),
		errors.Is(err, ErrNotFound):
		// already typed
		return err

	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("record not found")

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Conflict("duplicate key: %v", err)

	case errors.Is(err, context.DeadlineExceeded):
		return Transient("request timed out")

	case errors.Is(err, context.Canceled):
		return Transient("request was canceled")

	default:
		// anything else coming off the store is assumed retryable
		return Transient("%v", err)
	}
}

// HTTPStatus maps a typed engine error to an HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrTransientStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
