package session

import (
	"fmt"

	"github.com/andaru/omp/transport"
	"github.com/golang/glog"
)

// State is a Connection's (present) state.
type State int

const (
	// StateDisconnected is the initial connection state, indicating
	// no transport is open.
	StateDisconnected State = iota
	// StateConnected is set once the TLS handshake completes
	StateConnected
	// StateAuthenticated is set after the server accepts an
	// <authenticate> request on the connection.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Connection is a Session's transport connection and its state.
// The zero value is a disconnected Connection.
type Connection struct {
	conn  *transport.Conn
	state State
}

// State returns the connection's state
func (c *Connection) State() State { return c.state }

// live returns true if the connection holds a readable transport
func (c *Connection) live() bool { return c.conn != nil && c.conn.Readable() }

// connected installs conn as the connection's transport, discarding any prior one
func (c *Connection) connected(conn *transport.Conn) {
	c.discard()
	c.conn = conn
	c.state = StateConnected
}

// authenticated marks a live connection as authenticated
func (c *Connection) authenticated() {
	if c.conn != nil {
		c.state = StateAuthenticated
	}
}

// discard closes and releases any transport
func (c *Connection) discard() {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			glog.V(1).Infof("session: close: %v", err)
		}
		glog.V(1).Info("session: connection discarded")
	}
	c.conn = nil
	c.state = StateDisconnected
}
