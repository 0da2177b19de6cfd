package message

import (
	"encoding/xml"

	"github.com/andaru/omp/xmlutil"
	"github.com/antchfx/xmlquery"
	"github.com/pkg/errors"
)

// Request is an OMP request document
type Request interface {
	// Bytes returns the serialized XML document in a newly allocated
	// slice. Sessions zero the slice once it has been sent.
	Bytes() ([]byte, error)
}

// Raw is a request whose document text is supplied verbatim
type Raw string

// Bytes implements Request
func (r Raw) Bytes() ([]byte, error) {
	if r == "" {
		return nil, errors.New("empty request")
	}
	return []byte(r), nil
}

// Elem returns a request consisting of the single empty element
// name, e.g. Elem("get_version") for <get_version/>.
func Elem(name string, attrs ...xml.Attr) Request {
	return &elemRequest{se: xmlutil.Start(name, attrs...)}
}

type elemRequest struct{ se xml.StartElement }

func (r *elemRequest) Bytes() ([]byte, error) {
	if r.se.Name.Local == "" {
		return nil, errors.New("empty request element name")
	}
	return encodeTokens(r.se, r.se.End())
}

// Node returns a request serializing the element or document node n
func Node(n *xmlquery.Node) Request { return nodeRequest{n} }

type nodeRequest struct{ n *xmlquery.Node }

func (r nodeRequest) Bytes() ([]byte, error) {
	if r.n == nil {
		return nil, errors.New("nil request node")
	}
	if r.n.Type == xmlquery.DocumentNode {
		return []byte(r.n.OutputXML(false)), nil
	}
	return []byte(r.n.OutputXML(true)), nil
}

// Marshal returns a request serializing v with encoding/xml
func Marshal(v interface{}) Request { return marshalRequest{v} }

type marshalRequest struct{ v interface{} }

func (r marshalRequest) Bytes() ([]byte, error) {
	b, err := xml.Marshal(r.v)
	return b, errors.WithStack(err)
}
