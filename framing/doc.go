/*
Package framing offers message framing for OMP transport streams.

OMP messages are sent verbatim, with neither a length header nor an
end-of-message marker. A message ends where its XML document's root
element closes. The Framer type accumulates input and reports, after
each addition, whether the buffer holds an incomplete document, a
complete one, or data which can never become a valid document.

The Reader type reads a transport stream in fixed size chunks, scanning
after each read, and returns the first complete document as a parsed
*xmlquery.Node.
*/
package framing
