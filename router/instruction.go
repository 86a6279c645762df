package router

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/valyala/quicktemplate"
)

// Param is one parameter of a segment. Positional parameters have an
// empty Key.
type Param struct {
	Key   string
	Value string
}

// ViewportInstruction asks for Component, with Params, in the viewport
// named Viewport (any viewport when empty), with Children loaded inside it.
type ViewportInstruction struct {
	Component string
	Params    []Param
	Viewport  string
	Children  []*ViewportInstruction
}

// Clone copies the instruction and its subtree.
func (vi *ViewportInstruction) Clone() *ViewportInstruction {
	c := &ViewportInstruction{
		Component: vi.Component,
		Params:    slices.Clone(vi.Params),
		Viewport:  vi.Viewport,
	}
	for _, ch := range vi.Children {
		c.Children = append(c.Children, ch.Clone())
	}
	return c
}

func (vi *ViewportInstruction) Equals(o *ViewportInstruction) bool {
	if vi.Component != o.Component || vi.Viewport != o.Viewport || !slices.Equal(vi.Params, o.Params) {
		return false
	}
	return slices.EqualFunc(vi.Children, o.Children, (*ViewportInstruction).Equals)
}

func (vi *ViewportInstruction) String() string {
	var buf bytes.Buffer
	qw := quicktemplate.AcquireWriter(&buf)
	streamInstruction(qw, vi)
	quicktemplate.ReleaseWriter(qw)
	return buf.String()
}

// ViewportInstructionTree is a parsed navigation: the top level
// instructions plus the query and fragment shared by all of them.
type ViewportInstructionTree struct {
	Children []*ViewportInstruction
	Query    url.Values
	Fragment string
}

func (t *ViewportInstructionTree) Clone() *ViewportInstructionTree {
	c := &ViewportInstructionTree{Fragment: t.Fragment}
	if t.Query != nil {
		c.Query = url.Values{}
		for k, vs := range t.Query {
			c.Query[k] = slices.Clone(vs)
		}
	}
	for _, ch := range t.Children {
		c.Children = append(c.Children, ch.Clone())
	}
	return c
}

// Equals compares component, viewport, params and children in order, the
// query and the fragment.
func (t *ViewportInstructionTree) Equals(o *ViewportInstructionTree) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Fragment != o.Fragment || !queryEqual(t.Query, o.Query) {
		return false
	}
	return slices.EqualFunc(t.Children, o.Children, (*ViewportInstruction).Equals)
}

func queryEqual(a, b url.Values) bool {
	if len(a) != len(b) {
		return false
	}
	for k, vs := range a {
		if !slices.Equal(vs, b[k]) {
			return false
		}
	}
	return true
}

// String serializes the tree into its URL form.
func (t *ViewportInstructionTree) String() string {
	var buf bytes.Buffer
	t.WriteURL(&buf)
	return buf.String()
}

// Fingerprint hashes the URL form.
func (t *ViewportInstructionTree) Fingerprint() uint64 {
	return xxhash.Sum64String(t.String())
}

// WriteURL streams the URL form of t to w.
func (t *ViewportInstructionTree) WriteURL(w io.Writer) {
	qw := quicktemplate.AcquireWriter(w)
	defer quicktemplate.ReleaseWriter(qw)
	streamSiblings(qw, t.Children)
	if len(t.Query) > 0 {
		keys := make([]string, 0, len(t.Query))
		for k := range t.Query {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		sep := "?"
		for _, k := range keys {
			for _, v := range t.Query[k] {
				qw.N().S(sep)
				qw.N().U(k)
				qw.N().S("=")
				qw.N().U(v)
				sep = "&"
			}
		}
	}
	if t.Fragment != "" {
		qw.N().S("#")
		qw.N().S(escapeToken(t.Fragment))
	}
}

func streamSiblings(qw *quicktemplate.Writer, vis []*ViewportInstruction) {
	for i, vi := range vis {
		if i > 0 {
			qw.N().S("+")
		}
		streamInstruction(qw, vi)
	}
}

func streamInstruction(qw *quicktemplate.Writer, vi *ViewportInstruction) {
	w := qw.N()
	w.S(escapeToken(vi.Component))
	if len(vi.Params) > 0 {
		w.S("(")
		for i, p := range vi.Params {
			if i > 0 {
				w.S(",")
			}
			if p.Key != "" {
				w.S(escapeToken(p.Key))
				w.S("=")
			}
			w.S(escapeToken(p.Value))
		}
		w.S(")")
	}
	if vi.Viewport != "" {
		w.S("@")
		w.S(escapeToken(vi.Viewport))
	}
	switch len(vi.Children) {
	case 0:
	case 1:
		w.S("/")
		streamInstruction(qw, vi.Children[0])
	default:
		w.S("/(")
		streamSiblings(qw, vi.Children)
		w.S(")")
	}
}

const hexUpper = "0123456789ABCDEF"

// escapeToken percent-encodes everything but unreserved characters, so
// the separators of the instruction grammar never appear inside a token.
// Spaces become %20; '+' separates siblings.
func escapeToken(s string) string {
	clean := true
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexUpper[c>>4])
		b.WriteByte(hexUpper[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '-' || c == '_' || c == '.' || c == '~' || c == ':' || c == '*'
}

// ParseInstructions parses the URL form
//
//	seg(p1,k=v)@viewport/child+sibling?key=value#fragment
//
// where '/' nests, '+' joins siblings and a parenthesized group after '/'
// gives a segment several children: a/(b+c).
func ParseInstructions(s string) (*ViewportInstructionTree, error) {
	t := &ViewportInstructionTree{}
	path := s
	if i := strings.IndexByte(path, '#'); i >= 0 {
		frag, err := url.PathUnescape(path[i+1:])
		if err != nil {
			return nil, &URLParseError{Input: s, Pos: i + 1, Msg: err.Error()}
		}
		t.Fragment = frag
		path = path[:i]
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		q, err := url.ParseQuery(path[i+1:])
		if err != nil {
			return nil, &URLParseError{Input: s, Pos: i + 1, Msg: err.Error()}
		}
		if len(q) > 0 {
			t.Query = q
		}
		path = path[:i]
	}
	p := &urlParser{input: s, src: path}
	p.consume('/')
	if p.done() {
		return t, nil
	}
	children, err := p.composite()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.errorf("unexpected %q", rune(p.src[p.pos]))
	}
	t.Children = children
	return t, nil
}

type urlParser struct {
	input string
	src   string
	pos   int
}

func (p *urlParser) done() bool { return p.pos >= len(p.src) }

func (p *urlParser) peek() byte {
	if p.done() {
		return 0
	}
	return p.src[p.pos]
}

func (p *urlParser) consume(c byte) bool {
	if p.peek() == c && !p.done() {
		p.pos++
		return true
	}
	return false
}

func (p *urlParser) errorf(format string, args ...any) error {
	return &URLParseError{Input: p.input, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *urlParser) composite() ([]*ViewportInstruction, error) {
	var out []*ViewportInstruction
	for {
		part, err := p.scoped()
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
		if !p.consume('+') {
			return out, nil
		}
	}
}

func (p *urlParser) scoped() ([]*ViewportInstruction, error) {
	if p.consume('(') {
		group, err := p.composite()
		if err != nil {
			return nil, err
		}
		if !p.consume(')') {
			return nil, p.errorf("expected ')'")
		}
		return group, nil
	}
	vi, err := p.segment()
	if err != nil {
		return nil, err
	}
	if p.consume('/') {
		children, err := p.scoped()
		if err != nil {
			return nil, err
		}
		vi.Children = children
	}
	return []*ViewportInstruction{vi}, nil
}

func (p *urlParser) segment() (*ViewportInstruction, error) {
	name, err := p.token()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, p.errorf("expected a component")
	}
	vi := &ViewportInstruction{Component: name}
	if p.consume('(') {
		for {
			v, err := p.token()
			if err != nil {
				return nil, err
			}
			param := Param{Value: v}
			if p.consume('=') {
				if param.Value, err = p.token(); err != nil {
					return nil, err
				}
				param.Key = v
			}
			vi.Params = append(vi.Params, param)
			if p.consume(',') {
				continue
			}
			if !p.consume(')') {
				return nil, p.errorf("expected ')' after parameters")
			}
			break
		}
	}
	if p.consume('@') {
		if vi.Viewport, err = p.token(); err != nil {
			return nil, err
		}
		if vi.Viewport == "" {
			return nil, p.errorf("expected a viewport name")
		}
	}
	return vi, nil
}

func (p *urlParser) token() (string, error) {
	start := p.pos
	for !p.done() && !strings.ContainsRune("/+()@,=", rune(p.src[p.pos])) {
		p.pos++
	}
	raw := p.src[start:p.pos]
	v, err := url.PathUnescape(raw)
	if err != nil {
		return "", &URLParseError{Input: p.input, Pos: start, Msg: err.Error()}
	}
	return v, nil
}
