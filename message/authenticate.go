package message

import (
	"bytes"
	"encoding/xml"

	"github.com/pkg/errors"
)

const (
	authPrefix   = "<authenticate><credentials><username>"
	authMiddle   = "</username><password>"
	authSuffix   = "</password></credentials></authenticate>"
	authOverhead = len(authPrefix) + len(authMiddle) + len(authSuffix)
	// maxEscape is the longest replacement xml.EscapeText writes per input byte
	maxEscape = len("&#x9;")
)

// Authenticate returns the <authenticate> request for the given credentials.
//
// The password is a byte slice so callers holding it in a buffer they
// later zero need not create an immutable string copy.
func Authenticate(username string, password []byte) Request {
	return &authRequest{username: username, password: password}
}

type authRequest struct {
	username string
	password []byte
}

// Bytes encodes the request into a buffer sized so that it never grows;
// the returned slice is then the only copy of the encoded password and
// may be zeroed by the caller once written.
func (r *authRequest) Bytes() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, authOverhead+maxEscape*(len(r.username)+len(r.password))))
	buf.WriteString(authPrefix)
	if err := xml.EscapeText(buf, []byte(r.username)); err != nil {
		return nil, errors.WithStack(err)
	}
	buf.WriteString(authMiddle)
	if err := xml.EscapeText(buf, r.password); err != nil {
		return nil, errors.WithStack(err)
	}
	buf.WriteString(authSuffix)
	return buf.Bytes(), nil
}

func encodeTokens(tokens ...xml.Token) ([]byte, error) {
	buf := &bytes.Buffer{}
	xe := xml.NewEncoder(buf)
	for _, tok := range tokens {
		if err := xe.EncodeToken(tok); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	if err := xe.Flush(); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}
