package service

import "errors"

// Kind classifies a service failure. The HTTP layer maps each kind to a
// status code; nothing below the handler knows about HTTP.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthenticated
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is the structured failure returned by every AuthService operation.
// Message is safe to show to clients except for KindInternal, whose message
// is replaced by a generic one at the boundary. Err keeps the cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of err. Errors that did not come from this package
// are internal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

var (
	// errStaleRefresh is the cause recorded when a validly signed refresh
	// token is no longer the one stored for the user.
	errStaleRefresh = errors.New("refresh token superseded or cleared")
	// errNoToken is the cause recorded when a request carries no token at all.
	errNoToken = errors.New("no token presented")
)

func badRequest(msg string) error { return &Error{Kind: KindBadRequest, Message: msg} }

func unauthenticated(msg string, cause error) error {
	return &Error{Kind: KindUnauthenticated, Message: msg, Err: cause}
}

func notFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

func conflict(msg string) error { return &Error{Kind: KindConflict, Message: msg} }

func internal(msg string, cause error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: cause}
}
