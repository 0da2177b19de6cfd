/*
Package transport provides the OMP transport layer.

OMP runs over TLS protected TCP connections, by default to port 9390.
The Dialer opens a TCP connection to the configured server and performs
the TLS client handshake, verifying the server's certificate according
to the configured Verifier. The resulting Conn offers buffered writes,
explicit Flush, and per-operation I/O deadlines.

Certificate verification defaults to the system trust roots. Scanner
daemons commonly present self-signed certificates; use CertPool or
PinnedSHA256 to trust them. InsecureAcceptAny accepts any certificate
and must only be used where the network path is otherwise trusted.
*/
package transport
