package framing

import (
	"bytes"
	"io"

	"github.com/andaru/omp/omperr"
	"github.com/antchfx/xmlquery"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// DefaultChunkSize is the default size of each read from the transport
const DefaultChunkSize = 2048

// Reader reads OMP messages from a transport stream.
//
// Reader is not safe for concurrent use.
type Reader struct {
	// R is the transport stream to read from
	R io.Reader
	// ChunkSize is the maximum number of bytes requested by each
	// call to R.Read. DefaultChunkSize is used if zero.
	ChunkSize int

	framer Framer
	chunk  []byte
}

// ReaderOption is a constructor option for a Reader
type ReaderOption func(*Reader)

// WithChunkSize sets the Reader's chunk size. Values lower than 1 are ignored.
func WithChunkSize(size int) ReaderOption {
	return func(r *Reader) {
		if size > 0 {
			r.ChunkSize = size
		}
	}
}

// NewReader returns a new Reader reading from src, configured by opts
func NewReader(src io.Reader, opts ...ReaderOption) *Reader {
	r := &Reader{R: src, ChunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadMessage reads and returns the next XML document from the stream.
//
// The stream is read in chunks and the accumulated input scanned after
// each read, until a document is complete. Input following the document
// is kept for the next call. Errors returned are:
//
//   - omperr.ProtocolFramingError if the stream ends (io.EOF,
//     io.ErrUnexpectedEOF or a zero length read) before a document is
//     complete, or if the input is not well-formed XML.
//   - the underlying read error, for any other read failure.
func (r *Reader) ReadMessage() (*xmlquery.Node, error) {
	if r.framer.Buffered() > 0 {
		if doc, done, err := r.scan(); done {
			return doc, err
		}
	}
	if size := r.chunkSize(); len(r.chunk) != size {
		r.chunk = make([]byte, size)
	}
	for reads := 1; ; reads++ {
		n, err := r.R.Read(r.chunk)
		if n > 0 {
			r.framer.Feed(r.chunk[:n])
			if doc, done, serr := r.scan(); done {
				glog.V(2).Infof("framing: message complete after %d read(s)", reads)
				return doc, serr
			}
		}
		switch {
		case err == io.EOF, err == io.ErrUnexpectedEOF, err == nil && n == 0:
			return nil, omperr.ProtocolFramingError("read", io.ErrUnexpectedEOF,
				omperr.WithMessage("stream closed before a complete document was read"))
		case err != nil:
			return nil, errors.WithStack(err)
		}
	}
}

// scan scans the framer's buffer, returning done if no more input
// should be read.
func (r *Reader) scan() (doc *xmlquery.Node, done bool, err error) {
	res := r.framer.Scan()
	switch res.State {
	case Complete:
		if doc, err = xmlquery.Parse(bytes.NewReader(res.Document)); err != nil {
			err = omperr.ProtocolFramingError("parse", errors.WithStack(err))
		}
		return doc, true, err
	case Malformed:
		r.framer.Reset()
		return nil, true, omperr.ProtocolFramingError("read", res.Err, omperr.WithMessage("malformed XML document"))
	}
	return nil, false, nil
}

func (r *Reader) chunkSize() int {
	if r.ChunkSize > 0 {
		return r.ChunkSize
	}
	return DefaultChunkSize
}

// ReadMessage reads a single XML document from r using a new Reader.
// Any input read beyond the document is discarded.
func ReadMessage(r io.Reader, opts ...ReaderOption) (*xmlquery.Node, error) {
	return NewReader(r, opts...).ReadMessage()
}
