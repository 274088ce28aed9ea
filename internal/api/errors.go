package api

import "errors"

// Kind classifies a normalized backend failure. Screen code branches on
// kinds, never on raw transport errors or status codes.
type Kind int

const (
	KindUnknown Kind = iota
	KindNetworkUnavailable
	KindTimeout
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidation
	KindServer
)

// Error is a normalized backend failure. Message is already localized and
// safe to show to the user.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == k
}
