package omperr

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	for _, tc := range []struct {
		err   *Error
		error string
		is    error
	}{
		{
			err:   ConnectionError("dial", io.ErrClosedPipe),
			error: "connection error op:dial: io: read/write on closed pipe",
			is:    ErrConnection,
		},
		{
			err:   AuthenticationError("authenticate", nil, WithStatus("400", "Authentication failed")),
			error: "authentication error op:authenticate status:400 Authentication failed",
			is:    ErrAuthentication,
		},
		{
			err:   ProtocolFramingError("read", io.EOF, WithMessage("stream closed before a complete document")),
			error: "protocol-framing error op:read stream closed before a complete document: EOF",
			is:    ErrProtocolFraming,
		},
		{
			err:   CommandError("execute", nil, WithMessage("missing credentials")),
			error: "command error op:execute missing credentials",
			is:    ErrCommand,
		},
	} {
		t.Run(tc.error, func(t *testing.T) {
			check := assert.New(t)
			check.Equal(tc.error, tc.err.Error())
			check.ErrorIs(tc.err, tc.is)
			wrapped := fmt.Errorf("outer: %w", tc.err)
			check.ErrorIs(wrapped, tc.is)
			k, ok := KindOf(wrapped)
			check.True(ok)
			check.Equal(tc.err.Kind, k)
			for _, other := range []error{ErrConnection, ErrAuthentication, ErrProtocolFraming, ErrCommand} {
				if other != tc.is {
					check.NotErrorIs(tc.err, other)
				}
			}
		})
	}
}

func TestErrorIsOp(t *testing.T) {
	a := assert.New(t)
	err := ConnectionError("handshake", io.ErrUnexpectedEOF)
	a.ErrorIs(err, &Error{Kind: KindConnection, Op: "handshake"})
	a.NotErrorIs(err, &Error{Kind: KindConnection, Op: "dial"})
	a.ErrorIs(err, io.ErrUnexpectedEOF)
}

func TestErrorUnwrapStatus(t *testing.T) {
	a := assert.New(t)
	err := AuthenticationError("authenticate", nil, WithStatus("400", "bad"))
	var se *StatusError
	if a.True(errors.As(err, &se)) {
		a.Equal("400", se.Status)
		a.Equal("bad", se.Text)
	}
	_, ok := KindOf(io.EOF)
	a.False(ok)
}

func TestStatusErrorMarshal(t *testing.T) {
	check := assert.New(t)
	se := &StatusError{Status: "400", Text: "Bogus command name"}
	bXML, err := xml.Marshal(se)
	check.NoError(err)
	check.Equal(`<status status="400" status_text="Bogus command name"></status>`, string(bXML))
	bJSON, err := json.Marshal(se)
	check.NoError(err)
	check.Equal(`{"status":"400","status_text":"Bogus command name"}`, string(bJSON))
	check.Equal("status:404", (&StatusError{Status: "404"}).Error())
}

func TestKindText(t *testing.T) {
	for _, k := range []Kind{KindConnection, KindAuthentication, KindProtocolFraming, KindCommand} {
		t.Run(k.String(), func(t *testing.T) {
			a := assert.New(t)
			b, err := k.MarshalText()
			a.NoError(err)
			var got Kind
			a.NoError(got.UnmarshalText(b))
			a.Equal(k, got)
		})
	}
	var k Kind
	assert.Error(t, k.UnmarshalText([]byte("bogus")))
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
