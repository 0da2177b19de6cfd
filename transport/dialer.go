package transport

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"github.com/andaru/omp/omperr"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// DefaultPort is the OMP server's default TCP port
const DefaultPort = 9390

// Config contains transport configuration
type Config struct {
	// Host is the server host name or IP address
	Host string
	// Port is the server TCP port. DefaultPort is used if zero.
	Port int
	// ServerName is the server name used for TLS certificate verification
	// and SNI. Host is used if empty.
	ServerName string
	// Verify is the certificate verification policy. SystemRoots is used if nil.
	Verify Verifier
	// MinVersion is the minimum TLS version. tls.VersionTLS10 is used if zero.
	MinVersion uint16
	// ConnectTimeout bounds the TCP connect and TLS handshake. No
	// timeout applies if zero, other than the dial context's.
	ConnectTimeout time.Duration
	// IOTimeout bounds each request write and response read on a
	// connection. No timeout applies if zero.
	IOTimeout time.Duration
}

// Address returns the server's host:port address
func (c Config) Address() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// TLSConfig returns the client TLS configuration for c
func (c Config) TLSConfig() (*tls.Config, error) {
	cfg := &tls.Config{
		ServerName: c.ServerName,
		MinVersion: c.MinVersion,
	}
	if cfg.ServerName == "" {
		cfg.ServerName = c.Host
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS10
	}
	verify := c.Verify
	if verify == nil {
		verify = SystemRoots()
	}
	if err := verify.Configure(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ContextDialer opens network connections
type ContextDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Dialer opens OMP transport connections
type Dialer struct {
	Config Config
	// Net opens the TCP connection. A *net.Dialer is used if nil.
	Net ContextDialer
}

// NewDialer returns a new Dialer for config cfg
func NewDialer(cfg Config) *Dialer { return &Dialer{Config: cfg} }

// Dial connects to the server and performs the TLS handshake.
//
// All errors returned are omperr.ConnectionError, with Op set to "dial"
// for connection and configuration errors or "handshake" for TLS
// handshake failures.
func (d *Dialer) Dial(ctx context.Context) (*Conn, error) {
	if d.Config.Host == "" {
		return nil, omperr.ConnectionError("dial", errors.New("missing server host"))
	}
	tlsCfg, err := d.Config.TLSConfig()
	if err != nil {
		return nil, omperr.ConnectionError("dial", err, omperr.WithMessage("bad TLS configuration"))
	}
	if d.Config.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Config.ConnectTimeout)
		defer cancel()
	}
	netDialer := d.Net
	if netDialer == nil {
		netDialer = &net.Dialer{}
	}

	addr := d.Config.Address()
	raw, err := netDialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, omperr.ConnectionError("dial", errors.WithStack(err))
	}
	tc := tls.Client(raw, tlsCfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, omperr.ConnectionError("handshake", errors.WithStack(err))
	}
	cs := tc.ConnectionState()
	glog.V(1).Infof("transport: connected to %s (%s)", addr, tls.VersionName(cs.Version))
	return newConn(tc, d.Config.IOTimeout), nil
}
