// Package apperr defines the failure taxonomy shared by the client core.
package apperr

import "errors"

// Sentinel failure kinds. Callers classify with errors.Is; the user-facing
// message travels alongside in a Failure.
var (
	ErrAuthentication   = errors.New("authentication failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrTransport        = errors.New("transport failure")
	ErrBackend          = errors.New("backend failure")
	ErrBusy             = errors.New("operation already in progress")
)

// Failure pairs a sentinel kind with a human-readable message. Error()
// returns the message verbatim so the presentation layer can display it
// without unwrapping.
type Failure struct {
	Kind    error
	Message string
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Kind }

// New builds a Failure of the given kind.
func New(kind error, message string) error {
	return &Failure{Kind: kind, Message: message}
}
