// Package render drives a headless node tree from compiled instructions.
//
// A Definition pairs a template tree with one row of instructions per
// marked target. The Renderer turns each instruction into bindings and
// child controllers; Controllers bind, attach, detach and unbind the
// resulting views.
package render

import (
	"slices"
	"strings"

	"github.com/delaneyj/viewparty/expression"
)

type NodeType uint8

const (
	ElementNode NodeType = iota + 1
	TextNode
	CommentNode
	FragmentNode
)

func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case FragmentNode:
		return "fragment"
	}
	return "unknown"
}

// Attr is a name/value pair kept in insertion order.
type Attr struct {
	Name  string
	Value string
}

// Node is an element, text, comment or fragment in the headless tree.
type Node struct {
	Type NodeType
	Tag  string
	// Data is the content of text and comment nodes.
	Data string

	parent    *Node
	children  []*Node
	attrs     []Attr
	classes   []string
	style     []Attr
	props     map[string]any
	listeners map[string][]*eventListener
}

// NewElement returns an element with the given attributes, passed as
// name/value pairs.
func NewElement(tag string, attrs ...string) *Node {
	n := &Node{Type: ElementNode, Tag: strings.ToLower(tag)}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.SetAttr(attrs[i], attrs[i+1])
	}
	return n
}

func NewText(s string) *Node {
	return &Node{Type: TextNode, Data: s}
}

func NewComment(s string) *Node {
	return &Node{Type: CommentNode, Data: s}
}

func NewFragment(children ...*Node) *Node {
	f := &Node{Type: FragmentNode}
	f.Append(children...)
	return f
}

func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

func (n *Node) FirstChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

func (n *Node) NextSibling() *Node {
	if n.parent == nil {
		return nil
	}
	i := n.parent.indexOf(n)
	if i+1 >= len(n.parent.children) {
		return nil
	}
	return n.parent.children[i+1]
}

func (n *Node) indexOf(child *Node) int {
	return slices.Index(n.children, child)
}

// Append adds children at the end. Fragments are flattened.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		n.InsertBefore(c, nil)
	}
	return n
}

// InsertBefore moves child in front of ref, or to the end when ref is nil.
// Inserting a fragment moves its children.
func (n *Node) InsertBefore(child, ref *Node) {
	if child.Type == FragmentNode {
		for _, c := range child.Children() {
			n.InsertBefore(c, ref)
		}
		return
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = n
	if ref == nil || ref.parent != n {
		n.children = append(n.children, child)
		return
	}
	n.children = slices.Insert(n.children, n.indexOf(ref), child)
}

// ReplaceWith puts r where n is.
func (n *Node) ReplaceWith(r *Node) {
	p := n.parent
	if p == nil {
		return
	}
	p.InsertBefore(r, n)
	p.RemoveChild(n)
}

func (n *Node) RemoveChild(child *Node) bool {
	i := n.indexOf(child)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
	return true
}

// Remove detaches n from its parent.
func (n *Node) Remove() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// Root returns the topmost ancestor of n.
func (n *Node) Root() *Node {
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for ; other != nil; other = other.parent {
		if other == n {
			return true
		}
	}
	return false
}

// Clone copies n. Listeners are never copied.
func (n *Node) Clone(deep bool) *Node {
	c := &Node{
		Type:    n.Type,
		Tag:     n.Tag,
		Data:    n.Data,
		attrs:   slices.Clone(n.attrs),
		classes: slices.Clone(n.classes),
		style:   slices.Clone(n.style),
	}
	if len(n.props) > 0 {
		c.props = make(map[string]any, len(n.props))
		for k, v := range n.props {
			c.props[k] = v
		}
	}
	if deep {
		for _, ch := range n.children {
			cc := ch.Clone(true)
			cc.parent = c
			c.children = append(c.children, cc)
		}
	}
	return c
}

// Walk visits n and its descendants in document order until fn returns
// false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children() {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Query returns the first descendant element with the given tag.
func (n *Node) Query(tag string) *Node {
	var found *Node
	for _, c := range n.children {
		c.Walk(func(d *Node) bool {
			if d.Type == ElementNode && d.Tag == tag {
				found = d
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// QueryAll returns every descendant element with the given tag.
func (n *Node) QueryAll(tag string) []*Node {
	var found []*Node
	for _, c := range n.children {
		c.Walk(func(d *Node) bool {
			if d.Type == ElementNode && d.Tag == tag {
				found = append(found, d)
			}
			return true
		})
	}
	return found
}

// Attr returns the value of an attribute. Class and style are serialized
// from their dedicated lists.
func (n *Node) Attr(name string) (string, bool) {
	switch name {
	case "class":
		return strings.Join(n.classes, " "), len(n.classes) > 0
	case "style":
		return n.styleText(), len(n.style) > 0
	}
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *Node) SetAttr(name, value string) {
	switch name {
	case "class":
		n.classes = n.classes[:0]
		n.AddClass(strings.Fields(value)...)
		return
	case "style":
		n.style = n.style[:0]
		for _, decl := range strings.Split(value, ";") {
			k, v, ok := strings.Cut(decl, ":")
			if ok {
				n.SetStyle(strings.TrimSpace(k), strings.TrimSpace(v))
			}
		}
		return
	}
	for i, a := range n.attrs {
		if a.Name == name {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Name: name, Value: value})
}

func (n *Node) RemoveAttr(name string) {
	switch name {
	case "class":
		n.classes = nil
	case "style":
		n.style = nil
	}
	n.attrs = slices.DeleteFunc(n.attrs, func(a Attr) bool { return a.Name == name })
}

func (n *Node) HasAttr(name string) bool {
	_, ok := n.Attr(name)
	return ok
}

func (n *Node) Classes() []string { return slices.Clone(n.classes) }

func (n *Node) HasClass(c string) bool { return slices.Contains(n.classes, c) }

func (n *Node) AddClass(classes ...string) {
	for _, c := range classes {
		if c != "" && !n.HasClass(c) {
			n.classes = append(n.classes, c)
		}
	}
}

func (n *Node) RemoveClass(classes ...string) {
	n.classes = slices.DeleteFunc(n.classes, func(c string) bool {
		return slices.Contains(classes, c)
	})
}

func (n *Node) StyleProperty(name string) string {
	for _, d := range n.style {
		if d.Name == name {
			return d.Value
		}
	}
	return ""
}

// SetStyle sets a style property. An empty value removes it.
func (n *Node) SetStyle(name, value string) {
	if value == "" {
		n.style = slices.DeleteFunc(n.style, func(a Attr) bool { return a.Name == name })
		return
	}
	for i, d := range n.style {
		if d.Name == name {
			n.style[i].Value = value
			return
		}
	}
	n.style = append(n.style, Attr{Name: name, Value: value})
}

func (n *Node) styleText() string {
	var sb strings.Builder
	for i, d := range n.style {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(d.Name)
		sb.WriteString(": ")
		sb.WriteString(d.Value)
		sb.WriteByte(';')
	}
	return sb.String()
}

// Style returns the style declaration of n as a property host, so a
// binding can target a single style property.
func (n *Node) Style() *Style {
	return &Style{node: n}
}

// Style exposes the style properties of a node.
type Style struct {
	node *Node
}

func (s *Style) GetProperty(key string) any {
	return s.node.StyleProperty(key)
}

func (s *Style) SetProperty(key string, v any) error {
	s.node.SetStyle(key, expression.ToString(v))
	return nil
}

// TextContent concatenates the text of n and its descendants.
func (n *Node) TextContent() string {
	switch n.Type {
	case TextNode:
		return n.Data
	case CommentNode:
		return ""
	}
	var sb strings.Builder
	n.Walk(func(d *Node) bool {
		if d.Type == TextNode {
			sb.WriteString(d.Data)
		}
		return true
	})
	return sb.String()
}

// SetTextContent replaces the content of n with a single text node.
func (n *Node) SetTextContent(s string) {
	switch n.Type {
	case TextNode, CommentNode:
		n.Data = s
		return
	}
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
	if s != "" {
		n.Append(NewText(s))
	}
}

func (n *Node) isFormControl() bool {
	return n.Type == ElementNode && (n.Tag == "input" || n.Tag == "textarea" || n.Tag == "select")
}

// GetProperty reads a node property. Form controls read an empty value
// and an unchecked state by default.
func (n *Node) GetProperty(key string) any {
	switch key {
	case "textContent":
		return n.TextContent()
	case "className":
		return strings.Join(n.classes, " ")
	case "tagName":
		if n.Type == ElementNode {
			return n.Tag
		}
		return nil
	}
	if v, ok := n.props[key]; ok {
		return v
	}
	switch {
	case key == "value" && n.isFormControl():
		return ""
	case key == "checked" && n.Type == ElementNode && n.Tag == "input":
		return false
	}
	return nil
}

func (n *Node) SetProperty(key string, v any) error {
	switch key {
	case "textContent":
		n.SetTextContent(expression.ToString(v))
		return nil
	case "className":
		n.SetAttr("class", expression.ToString(v))
		return nil
	case "value":
		if n.isFormControl() {
			v = expression.ToString(v)
		}
	case "checked":
		v = expression.Truthy(v)
	}
	if n.props == nil {
		n.props = map[string]any{}
	}
	n.props[key] = v
	return nil
}

// DefaultsToTwoWay reports the properties a user edits directly.
func (n *Node) DefaultsToTwoWay(key string) bool {
	switch key {
	case "value":
		return n.isFormControl()
	case "checked":
		return n.Type == ElementNode && n.Tag == "input"
	}
	return false
}
