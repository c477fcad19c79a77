package application

import "errors"

// Every error returned by Service wraps exactly one of these.
var (
	ErrValidation          = errors.New("validation failed")
	ErrDuplicateIdentity   = errors.New("identity already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMissingToken        = errors.New("missing token")
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("identity not found")
	ErrInternal            = errors.New("internal error")
)

// internalError keeps the cause for logs while matching ErrInternal.
type internalError struct {
	op    string
	cause error
}

func (e *internalError) Error() string { return e.op + ": " + e.cause.Error() }

func (e *internalError) Is(target error) bool { return target == ErrInternal }

func (e *internalError) Unwrap() error { return e.cause }

func wrapInternal(op string, err error) error {
	return &internalError{op: op, cause: err}
}
