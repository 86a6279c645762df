package render

import (
	"bytes"
	"io"

	"github.com/valyala/quicktemplate"
)

var voidElements = map[string]bool{
	"area": true, "br": true, "col": true, "embed": true, "hr": true, "img": true,
	"input": true, "link": true, "meta": true, "source": true, "track": true, "wbr": true,
}

// errWriter remembers the first write error, quicktemplate writers drop
// them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

// WriteMarkup serializes n as HTML. Text and attribute values are escaped.
func (n *Node) WriteMarkup(w io.Writer) error {
	ew := &errWriter{w: w}
	qw := quicktemplate.AcquireWriter(ew)
	streamNode(qw, n)
	quicktemplate.ReleaseWriter(qw)
	return ew.err
}

// Markup returns the HTML of n.
func (n *Node) Markup() string {
	var buf bytes.Buffer
	n.WriteMarkup(&buf)
	return buf.String()
}

// InnerMarkup returns the HTML of the children of n.
func (n *Node) InnerMarkup() string {
	var buf bytes.Buffer
	qw := quicktemplate.AcquireWriter(&buf)
	for _, c := range n.children {
		streamNode(qw, c)
	}
	quicktemplate.ReleaseWriter(qw)
	return buf.String()
}

func streamNode(qw *quicktemplate.Writer, n *Node) {
	switch n.Type {
	case TextNode:
		qw.E().S(n.Data)
	case CommentNode:
		qw.N().S("<!--")
		qw.N().S(n.Data)
		qw.N().S("-->")
	case FragmentNode:
		for _, c := range n.children {
			streamNode(qw, c)
		}
	case ElementNode:
		qw.N().S("<")
		qw.N().S(n.Tag)
		if len(n.classes) > 0 {
			streamAttr(qw, "class", n.GetProperty("className").(string))
		}
		if len(n.style) > 0 {
			streamAttr(qw, "style", n.styleText())
		}
		for _, a := range n.attrs {
			streamAttr(qw, a.Name, a.Value)
		}
		qw.N().S(">")
		if voidElements[n.Tag] {
			return
		}
		for _, c := range n.children {
			streamNode(qw, c)
		}
		qw.N().S("</")
		qw.N().S(n.Tag)
		qw.N().S(">")
	}
}

func streamAttr(qw *quicktemplate.Writer, name, value string) {
	qw.N().S(" ")
	qw.N().S(name)
	if value == "" {
		return
	}
	qw.N().S(`="`)
	qw.E().S(value)
	qw.N().S(`"`)
}
