package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"io"
	"sync/atomic"
	"time"
)

// Conn is an established OMP transport connection.
//
// Writes are buffered until Flush. Conn is not safe for concurrent use,
// except that Close may be called at any time.
type Conn struct {
	tc        *tls.Conn
	w         *bufio.Writer
	ioTimeout time.Duration
	closed    atomic.Bool
}

const writerBufsize = 4096

var blank [writerBufsize]byte

func newConn(tc *tls.Conn, ioTimeout time.Duration) *Conn {
	return &Conn{tc: tc, w: bufio.NewWriterSize(tc, writerBufsize), ioTimeout: ioTimeout}
}

// Read reads from the connection, implementing io.Reader
func (c *Conn) Read(b []byte) (int, error) {
	if c.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return c.tc.Read(b)
}

// Write writes b to the connection's buffer, implementing io.Writer
func (c *Conn) Write(b []byte) (int, error) {
	if c.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return c.w.Write(b)
}

// Flush writes any buffered data to the connection
func (c *Conn) Flush() error {
	if c.closed.Load() {
		return io.ErrClosedPipe
	}
	return c.w.Flush()
}

// Scrub overwrites the connection's write buffer with zeros. Data
// written since the last Flush is discarded.
func (c *Conn) Scrub() {
	c.w.Reset(c.tc)
	_, _ = c.w.Write(blank[:c.w.Available()])
	c.w.Reset(c.tc)
}

// Readable returns true if the connection has not been closed
func (c *Conn) Readable() bool { return !c.closed.Load() }

// ConnectionState returns the connection's TLS state
func (c *Conn) ConnectionState() tls.ConnectionState { return c.tc.ConnectionState() }

// Begin prepares the connection for an operation bounded by ctx.
//
// It sets the connection deadline to the earlier of ctx's deadline and
// the configured I/O timeout, and arranges for the connection to be
// closed if ctx is done before the returned end function is called.
func (c *Conn) Begin(ctx context.Context) (end func()) {
	var deadline time.Time
	if c.ioTimeout > 0 {
		deadline = time.Now().Add(c.ioTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	_ = c.tc.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	return func() {
		stop()
		_ = c.tc.SetDeadline(time.Time{})
	}
}

// Close closes the connection. Buffered data is discarded.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.tc.Close()
}
