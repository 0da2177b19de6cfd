/*
Package omp is a set of OMP (OpenVAS Management Protocol) client libraries.

OMP clients exchange standalone XML documents with a scanner daemon
over a TLS protected TCP stream. The stream carries no length prefix
and no end-of-message delimiter, so responses are framed by parsing:
a message ends where its root element closes.

The session sub-directory offers the Session type, which owns the
transport connection, performs the <authenticate> handshake and
executes arbitrary commands. The framing package performs incremental
message framing, the message package builds requests and inspects
responses, and the transport package dials TLS connections with an
explicit certificate verification policy. The config package loads
session configuration from TOML files.

Each command is executed on a fresh connection; the transport is
discarded after every response.
*/
package omp
