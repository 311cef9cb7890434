package core

import "github.com/pkg/errors"

// FieldError ties a validation failure to a single request field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a bad-request failure the API reports as a 400:
// either a lone message (Err) or per-field details (Fields).
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown marks an error the app cannot recover from; catching one
// tells the server to stop taking traffic.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

// IsShutdown checks whether err (or its cause) requires a graceful shutdown.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
