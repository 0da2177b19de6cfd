package framing

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

// State is the outcome of a Framer scan
type State int

const (
	// Incomplete indicates the buffer holds a prefix of a document;
	// more input is needed.
	Incomplete State = iota
	// Complete indicates the buffer starts with a complete document
	Complete
	// Malformed indicates the buffer can never become a valid document
	Malformed
)

func (s State) String() string {
	switch s {
	case Incomplete:
		return "incomplete"
	case Complete:
		return "complete"
	case Malformed:
		return "malformed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the result of a Framer scan.
//
// Document is only set for the Complete state and Err only
// for the Malformed state.
type Result struct {
	State    State
	Document []byte
	Err      error
}

// Framer is an incremental XML document framer.
//
// Input is added with Feed. Scan tracks element nesting across calls,
// and only decodes the buffer from its start when the new input may
// have closed the root element, or when the buffer has doubled in size
// since it was last decoded. The zero value is ready to use. A Framer
// is not safe for concurrent use.
type Framer struct {
	buf []byte
	lex lexer
	// decoded is the buffer length at the last full decode
	decoded int
	// passes counts full decodes of the buffer
	passes int
}

// Feed appends b to the framer's buffer
func (f *Framer) Feed(b []byte) { f.buf = append(f.buf, b...) }

// Buffered returns the number of bytes held by the framer
func (f *Framer) Buffered() int { return len(f.buf) }

// Reset discards all buffered input
func (f *Framer) Reset() {
	f.buf = nil
	f.rewind()
}

func (f *Framer) rewind() {
	f.lex = lexer{}
	f.decoded = 0
}

// Scan attempts to frame a document at the start of the buffer.
//
// On Complete, the document is removed from the buffer. Any bytes
// following the document's root element end tag remain buffered. A
// leading UTF-8 byte order mark is consumed but not returned as part
// of the document.
func (f *Framer) Scan() Result {
	closing := f.lex.scan(f.buf)
	if !closing && !f.lex.inexact && f.decoded > 0 && len(f.buf) < 2*f.decoded {
		return Result{State: Incomplete}
	}
	f.decoded = len(f.buf)
	f.passes++

	end, err := documentEnd(f.buf)
	switch {
	case err != nil:
		return Result{State: Malformed, Err: err}
	case end == 0:
		return Result{State: Incomplete}
	}
	start := 0
	if bytes.HasPrefix(f.buf, byteOrderMark) {
		start = len(byteOrderMark)
	}
	doc := make([]byte, end-start)
	copy(doc, f.buf[start:end])
	f.buf = f.buf[end:]
	if len(f.buf) == 0 {
		f.buf = nil
	}
	f.rewind()
	return Result{State: Complete, Document: doc}
}

// Remaining returns the bytes buffered after the last complete document
func (f *Framer) Remaining() []byte { return f.buf }

var byteOrderMark = []byte("\xef\xbb\xbf")

// documentEnd returns the offset just past the root element's end tag
// of the document at the start of b, or 0 if b holds an incomplete
// document. A non-nil error is returned if b is malformed.
func documentEnd(b []byte) (int, error) {
	in := b[:runeBoundary(b)]
	bom := 0
	if bytes.HasPrefix(in, byteOrderMark) {
		bom = len(byteOrderMark)
		in = in[bom:]
	}
	if len(bytes.TrimSpace(in)) == 0 {
		return 0, nil
	}
	var converted bool
	d := xml.NewDecoder(bytes.NewReader(in))
	d.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		converted = true
		return charset.NewReaderLabel(label, input)
	}
	var depth int
	for {
		tok, err := d.Token()
		if err != nil {
			if truncated(err) {
				return 0, nil
			}
			return 0, errors.WithStack(err)
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth--; depth == 0 {
				if converted {
					// offsets no longer refer to b; claim all input
					return bom + len(in), nil
				}
				return bom + int(d.InputOffset()), nil
			}
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(tok)) > 0 {
				return 0, errors.Errorf("character data %q outside of root element", bytes.TrimSpace(tok))
			}
		}
	}
}

// truncated reports whether a decoder error was caused by the input
// ending early rather than by a syntax error.
func truncated(err error) bool {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return true
	}
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return strings.HasPrefix(se.Msg, "unexpected EOF")
	}
	return false
}

// runeBoundary returns the length of b excluding any trailing
// incomplete UTF-8 sequence.
func runeBoundary(b []byte) int {
	for i := len(b) - 1; i >= 0 && i > len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return i
			}
			break
		}
	}
	return len(b)
}
