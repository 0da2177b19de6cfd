package xmlutil

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart(t *testing.T) {
	a := assert.New(t)
	a.Equal(xml.StartElement{Name: xml.Name{Local: "get_version"}}, Start("get_version"))
	se := Start("get_tasks", Attr("task_id", "t1"))
	a.Equal("get_tasks", se.Name.Local)
	a.Equal([]xml.Attr{{Name: xml.Name{Local: "task_id"}, Value: "t1"}}, se.Attr)
}

func TestAttrs(t *testing.T) {
	for _, tc := range []struct {
		name  string
		pairs []string
		want  []xml.Attr
	}{
		{name: "none"},
		{name: "name only", pairs: []string{"details"}},
		{name: "one", pairs: []string{"details", "1"}, want: []xml.Attr{Attr("details", "1")}},
		{
			name:  "trailing name",
			pairs: []string{"task_id", "t1", "details", "1", "sort"},
			want:  []xml.Attr{Attr("task_id", "t1"), Attr("details", "1")},
		},
	} {
		t.Run(tc.name, func(t *testing.T) { assert.New(t).Equal(tc.want, Attrs(tc.pairs...)) })
	}
}

func TestRoot(t *testing.T) {
	a := assert.New(t)
	doc, err := xmlquery.Parse(strings.NewReader(`<?xml version="1.0"?><!-- c --><get_version_response status="200"><version>6.0</version></get_version_response>`))
	require.NoError(t, err)
	root := Root(doc)
	if a.NotNil(root) {
		a.Equal("get_version_response", root.Data)
		a.True(HasAttr(root, "status"))
		a.False(HasAttr(root, "status_text"))
		a.False(HasAttr(root.SelectElement("version"), "status"))
	}
	a.Nil(Root(nil))
	a.Nil(Root(&xmlquery.Node{Type: xmlquery.DocumentNode}))
	a.False(HasAttr(nil, "status"))
}
