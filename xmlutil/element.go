// Package xmlutil contains XML helpers shared by the OMP packages.
package xmlutil

import "encoding/xml"

// Start returns the start element with local name local and attributes attrs.
// OMP documents carry no namespaces.
func Start(local string, attrs ...xml.Attr) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: local}, Attr: attrs}
}

// Attr returns the attribute name="value"
func Attr(name, value string) xml.Attr { return xml.Attr{Name: xml.Name{Local: name}, Value: value} }

// Attrs returns the attributes for alternating name and value pairs,
// e.g. Attrs("task_id", "t1", "details", "1"). A trailing name with no
// value is ignored.
func Attrs(pairs ...string) []xml.Attr {
	if len(pairs) < 2 {
		return nil
	}
	attrs := make([]xml.Attr, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		attrs = append(attrs, Attr(pairs[i], pairs[i+1]))
	}
	return attrs
}
