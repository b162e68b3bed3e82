package errx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// IngestionErrorMessage prefixes file processing failures.
	IngestionErrorMessage = "failed to process file"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapRedis maps Redis errors to AppError with appropriate status codes.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}
	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapOracle marks a model call failure (unreachable backend or malformed
// response). message is shown to the user, e.g. "Failed to refine query.".
func WrapOracle(message string, err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, message)
}

// Validation rejects a request before any state is touched.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadRequest, err.Error())
}

// Conflict rejects a request because the session is busy or in the wrong phase.
func Conflict(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusConflict, err.Error())
}

// Ingestion reports a failure to process one file of an ingestion batch.
func Ingestion(file string, err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusUnprocessableEntity, fmt.Sprintf("%s %s", IngestionErrorMessage, file))
}

// SafeMessage returns the user-facing message of the first AppError in the
// chain, or err.Error() when there is none.
func SafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}

// StatusOf returns the HTTP status carried by err, defaulting to 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
