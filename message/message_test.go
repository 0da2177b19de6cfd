package message

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/andaru/omp/omperr"
	"github.com/andaru/omp/xmlutil"
	"github.com/antchfx/xmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestBytes(t *testing.T) {
	type getTasks struct {
		XMLName xml.Name `xml:"get_tasks"`
		TaskID  string   `xml:"task_id,attr,omitempty"`
	}
	doc, err := xmlquery.Parse(strings.NewReader(`<create_target><name>t</name><hosts>10.0.0.1</hosts></create_target>`))
	require.NoError(t, err)

	for _, tc := range []struct {
		name    string
		req     Request
		want    string
		wantErr bool
	}{
		{name: "raw", req: Raw(`<get_version/>`), want: `<get_version/>`},
		{name: "raw empty", req: Raw(""), wantErr: true},
		{name: "elem", req: Elem("get_version"), want: `<get_version></get_version>`},
		{
			name: "elem attrs",
			req:  Elem("get_tasks", xmlutil.Attrs("task_id", "t&1", "details", "1")...),
			want: `<get_tasks task_id="t&amp;1" details="1"></get_tasks>`,
		},
		{name: "elem empty", req: Elem(""), wantErr: true},
		{name: "marshal", req: Marshal(getTasks{TaskID: "42"}), want: `<get_tasks task_id="42"></get_tasks>`},
		{name: "marshal error", req: Marshal(make(chan int)), wantErr: true},
		{name: "document node", req: Node(doc), want: `<create_target><name>t</name><hosts>10.0.0.1</hosts></create_target>`},
		{name: "element node", req: Node(doc.SelectElement("create_target").SelectElement("hosts")), want: `<hosts>10.0.0.1</hosts>`},
		{name: "nil node", req: Node(nil), wantErr: true},
		{
			name: "authenticate",
			req:  Authenticate("admin", []byte("admin")),
			want: `<authenticate><credentials><username>admin</username><password>admin</password></credentials></authenticate>`,
		},
		{
			name: "authenticate escaped",
			req:  Authenticate("a<b", []byte(`p&"w`)),
			want: `<authenticate><credentials><username>a&lt;b</username><password>p&amp;&#34;w</password></credentials></authenticate>`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)
			b, err := tc.req.Bytes()
			if tc.wantErr {
				a.Error(err)
				return
			}
			a.NoError(err)
			a.Equal(tc.want, string(b))
		})
	}
}

func TestAuthenticateSingleBuffer(t *testing.T) {
	for _, password := range []string{"", "secret", strings.Repeat(`"`, 4096), "\t\n\r&<>'"} {
		a := assert.New(t)
		b, err := Authenticate("admin", []byte(password)).Bytes()
		a.NoError(err)
		// the buffer never regrew, so no partial copies were left behind
		a.Equal(authOverhead+maxEscape*(len("admin")+len(password)), cap(b))
		doc, err := xmlquery.Parse(bytes.NewReader(b))
		if a.NoError(err) {
			a.Equal(password, xmlquery.FindOne(doc, "//password").InnerText())
		}
	}
}

func parseResponse(t *testing.T, s string) (*Response, error) {
	doc, err := xmlquery.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return NewResponse(doc)
}

func TestResponse(t *testing.T) {
	for _, tc := range []struct {
		input      string
		name       string
		status     string
		statusText string
		ok         bool
	}{
		{
			input:      `<authenticate_response status="200" status_text="OK"/>`,
			name:       "authenticate_response",
			status:     "200",
			statusText: "OK",
			ok:         true,
		},
		{
			input:      `<?xml version="1.0"?><!-- c --><authenticate_response status="400" status_text="Authentication failed"/>`,
			name:       "authenticate_response",
			status:     "400",
			statusText: "Authentication failed",
		},
		{
			input:  `<get_version_response status="200"><version>6.0</version></get_version_response>`,
			name:   "get_version_response",
			status: "200",
			ok:     true,
		},
	} {
		t.Run(tc.input, func(t *testing.T) {
			a := assert.New(t)
			resp, err := parseResponse(t, tc.input)
			require.NoError(t, err)
			a.Equal(tc.name, resp.Name())
			a.Equal(tc.status, resp.Status())
			a.Equal(tc.statusText, resp.StatusText())
			a.Equal(tc.ok, resp.OK())
			if tc.ok {
				a.NoError(resp.Err())
			} else {
				var se *omperr.StatusError
				if a.ErrorAs(resp.Err(), &se) {
					a.Equal(tc.status, se.Status)
					a.Equal(tc.statusText, se.Text)
				}
			}
		})
	}
}

func TestResponseMissingStatus(t *testing.T) {
	a := assert.New(t)
	_, err := parseResponse(t, `<get_version_response><version>6.0</version></get_version_response>`)
	a.ErrorIs(err, omperr.ErrProtocolFraming)
	_, err = NewResponse(nil)
	a.ErrorIs(err, omperr.ErrProtocolFraming)
	_, err = NewResponse(&xmlquery.Node{Type: xmlquery.DocumentNode})
	a.ErrorIs(err, omperr.ErrProtocolFraming)
}

func TestResponseQuery(t *testing.T) {
	a := assert.New(t)
	resp, err := parseResponse(t, `<get_tasks_response status="200"><task id="1"><name>a</name></task><task id="2"><name>b</name></task></get_tasks_response>`)
	require.NoError(t, err)

	n, err := resp.Query("task[@id='2']/name")
	a.NoError(err)
	if a.NotNil(n) {
		a.Equal("b", n.InnerText())
	}
	ns, err := resp.QueryAll("task")
	a.NoError(err)
	a.Len(ns, 2)
	_, err = resp.Query("task[")
	a.Error(err)
	a.Contains(resp.String(), `<get_tasks_response status="200">`)
}
