package omptest

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/andaru/omp/framing"
	"github.com/andaru/omp/xmlutil"
	"github.com/antchfx/xmlquery"
)

// Handler returns the response document text for the request element req.
// Returning the empty string closes the connection without a response.
type Handler func(req *xmlquery.Node) string

// Server is a mock OMP scanner daemon listening on the loopback interface.
//
// Server also implements transport.ContextDialer: each DialContext call
// is counted and connects to the server, whatever address is requested.
type Server struct {
	Certificate tls.Certificate
	Handler     Handler

	l        net.Listener
	wg       sync.WaitGroup
	mu       sync.Mutex
	conns    map[net.Conn]bool
	closed   bool
	dials    []string
	reqs     []string
	fragment int
}

// NewServer starts a Server using handler, presenting a certificate for
// 127.0.0.1 and hosts. The server is closed by t's cleanup.
func NewServer(t testing.TB, handler Handler, hosts ...string) *Server {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := &Server{
		Certificate: NewCertificate(t, append([]string{"127.0.0.1"}, hosts...)...),
		Handler:     handler,
		l:           l,
		conns:       map[net.Conn]bool{},
	}
	s.wg.Add(1)
	go s.accept()
	t.Cleanup(s.Close)
	return s
}

// Host returns the listener's IP address
func (s *Server) Host() string { return s.l.Addr().(*net.TCPAddr).IP.String() }

// Port returns the listener's TCP port
func (s *Server) Port() int { return s.l.Addr().(*net.TCPAddr).Port }

// DialContext records the dial and connects to the server, implementing
// transport.ContextDialer.
func (s *Server) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	s.mu.Lock()
	s.dials = append(s.dials, address)
	s.mu.Unlock()
	d := &net.Dialer{}
	return d.DialContext(ctx, network, net.JoinHostPort(s.Host(), strconv.Itoa(s.Port())))
}

// SetFragment splits each subsequent response into writes of at most
// n bytes. Zero disables splitting.
func (s *Server) SetFragment(n int) {
	s.mu.Lock()
	s.fragment = n
	s.mu.Unlock()
}

// Dials returns the number of DialContext calls made
func (s *Server) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dials)
}

// DialAddresses returns the addresses passed to DialContext
func (s *Server) DialAddresses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.dials...)
}

// Requests returns the request element names received, in order
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.reqs...)
}

// Close stops the server, closing any open connections
func (s *Server) Close() {
	s.l.Close()
	s.mu.Lock()
	s.closed = true
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) accept() {
	defer s.wg.Done()
	for {
		c, err := s.l.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			c.Close()
			return
		}
		s.conns[c] = true
		s.wg.Add(1)
		s.mu.Unlock()
		go s.serve(c)
	}
}

func (s *Server) serve(c net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		c.Close()
	}()
	tc := tls.Server(c, &tls.Config{Certificates: []tls.Certificate{s.Certificate}})
	if err := tc.Handshake(); err != nil {
		return
	}
	r := framing.NewReader(tc)
	for {
		doc, err := r.ReadMessage()
		if err != nil {
			return
		}
		req := xmlutil.Root(doc)
		if req == nil {
			return
		}
		s.mu.Lock()
		s.reqs = append(s.reqs, req.Data)
		s.mu.Unlock()
		resp := s.Handler(req)
		if resp == "" {
			return
		}
		if err := s.write(tc, []byte(resp)); err != nil {
			return
		}
	}
}

func (s *Server) write(c net.Conn, b []byte) error {
	s.mu.Lock()
	size := s.fragment
	s.mu.Unlock()
	if size < 1 {
		size = len(b)
	}
	for len(b) > 0 {
		n := size
		if n > len(b) {
			n = len(b)
		}
		if _, err := c.Write(b[:n]); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// Scanner returns a Handler accepting the <authenticate> credentials in
// users (username to password) and answering other requests by element
// name from responses. Unknown commands receive a status 400 response.
func Scanner(users map[string]string, responses map[string]string) Handler {
	return func(req *xmlquery.Node) string {
		if req.Data == "authenticate" {
			var username, password string
			if creds := req.SelectElement("credentials"); creds != nil {
				if n := creds.SelectElement("username"); n != nil {
					username = n.InnerText()
				}
				if n := creds.SelectElement("password"); n != nil {
					password = n.InnerText()
				}
			}
			if want, ok := users[username]; ok && want == password {
				return `<authenticate_response status="200" status_text="OK"><role>Admin</role></authenticate_response>`
			}
			return `<authenticate_response status="400" status_text="Authentication failed"/>`
		}
		if resp, ok := responses[req.Data]; ok {
			return resp
		}
		return fmt.Sprintf(`<%s_response status="400" status_text="Bogus command name"/>`, req.Data)
	}
}
