package executor

import (
	"fmt"
	"github.com/pkg/errors"
)

var (
	ErrTargetNotFound   = errors.New("target not found")
	ErrMalformedRequest = errors.New("malformed request")
	ErrUnauthorized     = errors.New("unauthorized")
)

// ExitError carries the non-zero exit code of a remote process.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("remote command exited with code %d", e.Code)
}

// requestError classifies a failure reported while establishing a session
// without hiding its cause.
type requestError struct {
	kind  error
	cause error
}

func classify(kind, cause error) error {
	return &requestError{kind: kind, cause: cause}
}

func (e *requestError) Error() string {
	return fmt.Sprintf("%v: %v", e.kind, e.cause)
}

func (e *requestError) Is(target error) bool {
	return target == e.kind
}

func (e *requestError) Unwrap() error {
	return e.cause
}
