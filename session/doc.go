/*
Package session offers an OMP client Session implementation.

A Session owns the configuration for a single scanner daemon and at
most one live transport Connection. Sessions are created with New,
and used through three operations: Connect, Authenticate and Execute.

Connection lifecycle

A Connection is in one of three states. It starts StateDisconnected.
Connect (and any operation needing the transport) dials the server and
completes the TLS handshake, moving to StateConnected. A successful
Authenticate moves it to StateAuthenticated. Any transport error, a
rejected authentication, and the completion of every Execute call
return it to StateDisconnected: the transport is closed, and the next
operation dials again. Each command therefore runs on a connection of
its own.

Authentication

Authenticate sends the <authenticate> request and, if the server
responds with status "200", stores the credentials on the Session.
Commands executed with requiresAuthentication set always repeat the
<authenticate> exchange on their connection, using the stored
credentials, before sending the command itself. Credentials are held in
memory, in plain text, until Close or ClearCredentials zero them. Each
encoded request, and the transport's write buffer, is zeroed once the
request has been sent.

Metrics

Sessions created WithMetrics count connection attempts, authentications
and commands by result in Prometheus metrics, and observe command
latency. Log messages at glog verbosity 1 and 2 carry the session's ID.

Concurrency

Session methods may be called from multiple goroutines; operations are
serialized, each holding the Session for its full duration.
*/
package session
