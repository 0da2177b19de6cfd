package xmlutil

import (
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

var xpRoot = xpath.MustCompile(`/*`)

// Root returns the root element of the document node doc, or nil if
// it has none.
func Root(doc *xmlquery.Node) *xmlquery.Node {
	if doc == nil {
		return nil
	}
	return xmlquery.QuerySelector(doc, xpRoot)
}

// HasAttr returns true if the element n carries an attribute with the
// local name local, whatever its value.
func HasAttr(n *xmlquery.Node, local string) bool {
	if n == nil {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Name.Local == local {
			return true
		}
	}
	return false
}
