package assessment

import "errors"

type ErrorCode string

const (
	ErrorInvalid            ErrorCode = "invalid"
	ErrorNotFound           ErrorCode = "not_found"
	ErrorAlreadyCompleted   ErrorCode = "already_completed"
	ErrorStorageUnavailable ErrorCode = "storage_unavailable"
)

// Error carries a stable code alongside a human-readable message so the HTTP
// boundary can translate it without string matching.
type Error struct {
	Code    ErrorCode
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.cause }

func NewValidationError(msg string) error {
	return &Error{Code: ErrorInvalid, Message: msg}
}

func NewNotFoundError(msg string) error {
	return &Error{Code: ErrorNotFound, Message: msg}
}

func NewAlreadyCompletedError(msg string) error {
	return &Error{Code: ErrorAlreadyCompleted, Message: msg}
}

// NewStorageError wraps a collaborator failure. The operation committed no
// partial state, so callers may retry it whole.
func NewStorageError(msg string, cause error) error {
	return &Error{Code: ErrorStorageUnavailable, Message: msg, cause: cause}
}

// AsError extracts a coded error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
