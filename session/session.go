package session

import (
	"context"
	"sync"
	"time"

	"github.com/andaru/omp/framing"
	"github.com/andaru/omp/message"
	"github.com/andaru/omp/omperr"
	"github.com/andaru/omp/transport"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Config is the Session configuration
type Config struct {
	// Transport is the server address and TLS configuration
	Transport transport.Config
	// Username and Password, if Username is set, are stored as the
	// Session's credentials without contacting the server.
	Username string
	Password string
}

// Option is a Session option
type Option func(*Session)

// WithDialer sets the network dialer used to reach the server
func WithDialer(d transport.ContextDialer) Option {
	return func(s *Session) { s.dialer.Net = d }
}

// WithChunkSize sets the size of each read from the server
func WithChunkSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithMetrics records the session's operations in m
func WithMetrics(m *Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// Session is an OMP client session with a single server
type Session struct {
	id        string
	mu        sync.Mutex
	dialer    *transport.Dialer
	chunkSize int
	metrics   *Metrics
	conn      Connection
	creds     *credentials
}

// New returns a new disconnected Session for config cfg
func New(cfg Config, opts ...Option) *Session {
	s := &Session{
		id:        uuid.New().String(),
		dialer:    transport.NewDialer(cfg.Transport),
		chunkSize: framing.DefaultChunkSize,
	}
	if cfg.Username != "" {
		s.creds = newCredentials(cfg.Username, []byte(cfg.Password))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session's unique identifier, used in log messages
func (s *Session) ID() string { return s.id }

// State returns the state of the session's connection
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.State()
}

// Username returns the stored username, or the empty string if no
// credentials are stored.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return ""
	}
	return s.creds.username
}

// Connect ensures the session has a live connection, dialing the
// server if required. Errors are omperr.ConnectionError.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connect(ctx)
}

// Authenticate sends an <authenticate> request with the given
// credentials, connecting first if required.
//
// If the server responds with status "200" the credentials are stored,
// replacing any stored before, and the authenticate response is returned.
// Otherwise an omperr.AuthenticationError is returned, the connection is
// discarded and stored credentials are unchanged.
func (s *Session) Authenticate(ctx context.Context, username, password string) (*message.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creds := newCredentials(username, []byte(password))
	resp, err := s.authenticate(ctx, creds)
	if err != nil {
		creds.clear()
		return nil, err
	}
	s.creds.clear()
	s.creds = creds
	return resp, nil
}

// Execute sends the request req and returns the server's response.
//
// When requiresAuthentication is true, the stored credentials are sent
// in an <authenticate> exchange on the same connection before req. If
// no credentials are stored, an omperr.CommandError is returned without
// contacting the server.
//
// A response whose status is not "200" is returned without error; see
// message.Response.Err. Whatever the outcome, the connection is
// discarded before Execute returns.
func (s *Session) Execute(ctx context.Context, req message.Request, requiresAuthentication bool) (*message.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()
	resp, err := s.execute(ctx, req, requiresAuthentication)
	result := resultError
	if err == nil {
		result = resultOK
		if !resp.OK() {
			result = resultFailed
		}
	}
	s.metrics.recordCommand(result, start)
	return resp, err
}

func (s *Session) execute(ctx context.Context, req message.Request, requiresAuthentication bool) (*message.Response, error) {
	if req == nil {
		return nil, omperr.CommandError("execute", nil, omperr.WithMessage("nil request"))
	}
	if requiresAuthentication && s.creds == nil {
		return nil, omperr.CommandError("execute", nil, omperr.WithMessage("no credentials stored"))
	}
	defer s.conn.discard()

	if requiresAuthentication {
		if _, err := s.authenticate(ctx, s.creds); err != nil {
			return nil, err
		}
	}
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	return s.roundTrip(ctx, "execute", req)
}

// ClearCredentials zeroes and forgets any stored credentials
func (s *Session) ClearCredentials() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.clear()
	s.creds = nil
}

// Close discards the session's connection and clears its credentials.
// The session may be used again after Close.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.discard()
	s.creds.clear()
	s.creds = nil
	return nil
}

func (s *Session) connect(ctx context.Context) error {
	if s.conn.live() {
		return nil
	}
	s.conn.discard()
	conn, err := s.dialer.Dial(ctx)
	s.metrics.recordConnect(err)
	if err != nil {
		glog.V(1).Infof("session %s: %v", s.id, err)
		return err
	}
	s.conn.connected(conn)
	return nil
}

// authenticate performs the <authenticate> exchange for creds on a live
// connection. It does not store creds.
func (s *Session) authenticate(ctx context.Context, creds *credentials) (*message.Response, error) {
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	resp, err := s.roundTrip(ctx, "authenticate", message.Authenticate(creds.username, creds.password))
	if err != nil {
		s.metrics.recordAuthenticate(resultError)
		return nil, err
	}
	if !resp.OK() {
		s.conn.discard()
		s.metrics.recordAuthenticate(resultRejected)
		glog.V(1).Infof("session %s: authentication of %q rejected: %s %s", s.id, creds.username, resp.Status(), resp.StatusText())
		return nil, omperr.AuthenticationError("authenticate", nil,
			omperr.WithMessage("authentication rejected"),
			omperr.WithStatus(resp.Status(), resp.StatusText()))
	}
	s.conn.authenticated()
	s.metrics.recordAuthenticate(resultAccepted)
	glog.V(1).Infof("session %s: authenticated as %q", s.id, creds.username)
	return resp, nil
}

// roundTrip writes req to the live connection and reads one response.
// The connection is discarded on any error.
func (s *Session) roundTrip(ctx context.Context, op string, req message.Request) (*message.Response, error) {
	b, err := req.Bytes()
	if err != nil {
		return nil, omperr.CommandError(op, err, omperr.WithMessage("bad request"))
	}
	conn := s.conn.conn
	end := conn.Begin(ctx)
	defer end()

	if _, err = conn.Write(b); err == nil {
		err = conn.Flush()
	}
	// requests may carry credentials; leave no copy once sent
	size := len(b)
	clear(b)
	conn.Scrub()
	if err != nil {
		s.conn.discard()
		return nil, omperr.CommandError(op, s.cause(ctx, err), omperr.WithMessage("write failed"))
	}

	doc, err := framing.NewReader(conn, framing.WithChunkSize(s.chunkSize)).ReadMessage()
	if err != nil {
		s.conn.discard()
		if _, ok := omperr.KindOf(err); ok && ctx.Err() == nil {
			return nil, err
		}
		return nil, omperr.CommandError(op, s.cause(ctx, err), omperr.WithMessage("read failed"))
	}
	resp, err := message.NewResponse(doc)
	if err != nil {
		s.conn.discard()
		return nil, err
	}
	glog.V(2).Infof("session %s: %s: sent %d bytes, received <%s> status %s", s.id, op, size, resp.Name(), resp.Status())
	return resp, nil
}

// cause returns ctx's error in place of err once ctx is done
func (s *Session) cause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.WithStack(ctxErr)
	}
	return errors.WithStack(err)
}
