// Package message provides OMP request construction and response
// inspection.
//
// A Request is any value which can produce the bytes of a single XML
// document. Responses are parsed XML documents whose root element
// carries a status attribute, "200" denoting success.
package message
