package connector

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindUnknown is reported by KindOf for errors that did not come from this package
	KindUnknown Kind = iota
	InvalidArgument
	PreconditionFailed
	UpstreamFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case PreconditionFailed:
		return "PreconditionFailed"
	case UpstreamFailure:
		return "UpstreamFailure"
	default:
		return "Unknown"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	// Err is the upstream cause, passed through untouched
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Err.Error())
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrPreconditionFailed) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

var (
	ErrInvalidArgument    = &Error{Kind: InvalidArgument}
	ErrPreconditionFailed = &Error{Kind: PreconditionFailed}
	ErrUpstreamFailure    = &Error{Kind: UpstreamFailure}

	ErrProjectNotBound = &Error{Kind: PreconditionFailed, Msg: "project must be bound first"}
	ErrDatasetNotBound = &Error{Kind: PreconditionFailed, Msg: "dataset must be bound before table"}
	ErrTableNotBound   = &Error{Kind: PreconditionFailed, Msg: "no table bound"}
	ErrMissingTerm     = &Error{Kind: InvalidArgument, Msg: "missing search term"}
	ErrInvalidLimit    = &Error{Kind: InvalidArgument, Msg: "limit must be at least 1"}
)

func invalidArgument(format string, args ...any) *Error {
	return &Error{Kind: InvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func upstreamFailure(msg string, err error) *Error {
	return &Error{Kind: UpstreamFailure, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
