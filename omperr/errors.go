package omperr

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
)

// Kind represents the class of an OMP session error
type Kind int

const (
	// KindConnection is a TCP connect or TLS handshake failure
	KindConnection Kind = iota
	// KindAuthentication indicates the server rejected an <authenticate> request
	KindAuthentication
	// KindProtocolFraming indicates no complete XML document could be read
	KindProtocolFraming
	// KindCommand is a command dispatch failure (missing credentials,
	// or an I/O failure while sending the request)
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindAuthentication:
		return "authentication"
	case KindProtocolFraming:
		return "protocol-framing"
	case KindCommand:
		return "command"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k *Kind) UnmarshalText(b []byte) error {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "connection":
		*k = KindConnection
	case "authentication":
		*k = KindAuthentication
	case "protocol-framing":
		*k = KindProtocolFraming
	case "command":
		*k = KindCommand
	default:
		return errors.New("unknown value")
	}
	return nil
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Sentinel errors, one per Kind, for use with errors.Is.
var (
	ErrConnection      = &Error{Kind: KindConnection}
	ErrAuthentication  = &Error{Kind: KindAuthentication}
	ErrProtocolFraming = &Error{Kind: KindProtocolFraming}
	ErrCommand         = &Error{Kind: KindCommand}
)

// Error is an OMP session error.
//
// Op names the session operation which failed (e.g., "dial", "authenticate",
// "execute"), while Err holds the underlying cause, if any.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Status  *StatusError
	Err     error
}

func (e *Error) Error() string {
	s := e.Kind.String() + " error"
	if e.Op != "" {
		s += " op:" + e.Op
	}
	if e.Message != "" {
		s += " " + e.Message
	}
	if e.Status != nil {
		s += " " + e.Status.Error()
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	if e.Status != nil && e.Err == nil {
		return e.Status
	}
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
// An *Error target with an Op set must also match e's Op.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// StatusError represents a failure reported by the server through the
// status and status_text attributes of a response root element.
type StatusError struct {
	XMLName xml.Name `xml:"status" json:"-"`
	Status  string   `xml:"status,attr" json:"status"`
	Text    string   `xml:"status_text,attr,omitempty" json:"status_text,omitempty"`
}

func (e *StatusError) Error() string {
	if e.Text == "" {
		return "status:" + e.Status
	}
	return "status:" + e.Status + " " + e.Text
}

// KindOf returns the Kind of the first *Error found in err's chain.
// ok is false if err holds no *Error.
func KindOf(err error) (k Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return k, false
}

func newError(k Kind, op string, err error, opts []Option) *Error {
	e := &Error{Kind: k, Op: op, Err: err}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func ConnectionError(op string, err error, opts ...Option) *Error {
	return newError(KindConnection, op, err, opts)
}

func AuthenticationError(op string, err error, opts ...Option) *Error {
	return newError(KindAuthentication, op, err, opts)
}

func ProtocolFramingError(op string, err error, opts ...Option) *Error {
	return newError(KindProtocolFraming, op, err, opts)
}

func CommandError(op string, err error, opts ...Option) *Error {
	return newError(KindCommand, op, err, opts)
}
