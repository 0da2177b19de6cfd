package message

import (
	"github.com/andaru/omp/omperr"
	"github.com/andaru/omp/xmlutil"
	"github.com/antchfx/xmlquery"
	"github.com/pkg/errors"
)

// StatusOK is the response status value denoting success
const StatusOK = "200"

// Response is a parsed OMP response document
type Response struct {
	// Doc is the document node
	Doc *xmlquery.Node
	// Root is the document's root element
	Root *xmlquery.Node
}

// NewResponse returns the Response for the parsed document doc.
//
// An omperr.ProtocolFramingError is returned if doc has no root
// element, or if the root element carries no status attribute.
func NewResponse(doc *xmlquery.Node) (*Response, error) {
	if doc == nil {
		return nil, omperr.ProtocolFramingError("response", errors.New("nil document"))
	}
	root := xmlutil.Root(doc)
	if root == nil {
		return nil, omperr.ProtocolFramingError("response", nil, omperr.WithMessage("missing root element"))
	}
	if !xmlutil.HasAttr(root, "status") {
		return nil, omperr.ProtocolFramingError("response", nil,
			omperr.WithMessage("missing status attribute on <"+root.Data+">"))
	}
	return &Response{Doc: doc, Root: root}, nil
}

// Name returns the root element's local name, e.g. "get_version_response"
func (r *Response) Name() string { return r.Root.Data }

// Status returns the root element's status attribute
func (r *Response) Status() string { return r.Root.SelectAttr("status") }

// StatusText returns the root element's status_text attribute
func (r *Response) StatusText() string { return r.Root.SelectAttr("status_text") }

// OK returns true if the response status denotes success
func (r *Response) OK() bool { return r.Status() == StatusOK }

// Err returns a *omperr.StatusError if the response status denotes
// failure, or nil otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &omperr.StatusError{Status: r.Status(), Text: r.StatusText()}
}

// Query returns the first node matching the XPath expression expr,
// evaluated relative to the root element.
func (r *Response) Query(expr string) (*xmlquery.Node, error) {
	n, err := xmlquery.Query(r.Root, expr)
	return n, errors.WithStack(err)
}

// QueryAll returns all nodes matching the XPath expression expr,
// evaluated relative to the root element.
func (r *Response) QueryAll(expr string) ([]*xmlquery.Node, error) {
	ns, err := xmlquery.QueryAll(r.Root, expr)
	return ns, errors.WithStack(err)
}

// String returns the response document as XML text
func (r *Response) String() string { return r.Root.OutputXML(true) }
