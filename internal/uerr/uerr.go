package uerr

import "errors"

// Kind is a stable identifier for an update failure class.
// It is a string newtype, comparable, allocation-free, and implements error.
type Kind string

func (k Kind) Error() string { return string(k) }

// Canonical kinds (short, stable).
const (
	NetworkUnavailable Kind = "network_unavailable"
	TransportError     Kind = "transport_error"
	ParseError         Kind = "parse_error"
	AssetNotFound      Kind = "asset_not_found"
	WriteError         Kind = "write_error"
	IncompleteDownload Kind = "incomplete_download"
	FinalizeError      Kind = "finalize_error"
	Cancelled          Kind = "cancelled"
	Timeout            Kind = "timeout"

	Unknown Kind = "unknown" // generic fallback
)

// E carries a kind plus the operation and cause for context.
type E struct {
	K   Kind
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.K)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }

func (e *E) Kind() Kind { return e.K }

// Is lets errors.Is match an *E against its bare Kind.
func (e *E) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.K
}

// New builds an error of the given kind with a human-readable message.
func New(k Kind, op, msg string) *E {
	return &E{K: k, Op: op, Msg: msg}
}

// Wrap builds an error of the given kind around a cause.
func Wrap(k Kind, op string, err error) *E {
	return &E{K: k, Op: op, Err: err}
}

// Of extracts a Kind from an error, defaulting to Unknown.
func Of(err error) Kind {
	if err == nil {
		return Unknown
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	var e *E
	if errors.As(err, &e) {
		return e.K
	}
	return Unknown
}
