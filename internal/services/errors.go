package services

import "errors"

// Error taxonomy shared by all services. Handlers map these to HTTP status
// codes with errors.Is; the concrete error text is the user-facing message.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// taggedError pairs a taxonomy sentinel with a user-facing message. The
// message is what Error() returns; the sentinel is reachable via errors.Is.
type taggedError struct {
	tag error
	msg string
}

func (e *taggedError) Error() string { return e.msg }
func (e *taggedError) Unwrap() error { return e.tag }

func tagged(tag error, msg string) error {
	return &taggedError{tag: tag, msg: msg}
}
