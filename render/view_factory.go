package render

import (
	"fmt"
)

// ViewFactory creates views of one definition. The target paths are
// computed once per definition.
type ViewFactory struct {
	Definition  *Definition
	renderer    *Renderer
	fingerprint uint64
	paths       [][]int
	cache       []*Controller
	// CacheSize is how many released views are kept for reuse.
	CacheSize int
}

func newViewFactory(r *Renderer, def *Definition, fp uint64) (*ViewFactory, error) {
	f := &ViewFactory{Definition: def, renderer: r, fingerprint: fp}
	if def.Template != nil {
		f.paths = targetPaths(wrap(def.Template))
	}
	if len(f.paths) != len(def.Instructions) {
		return nil, fmt.Errorf("%w: %s has %d targets, %d rows", ErrTargetMismatch, def.Name, len(f.paths), len(def.Instructions))
	}
	return f, nil
}

func (f *ViewFactory) Fingerprint() uint64 { return f.fingerprint }

func wrap(n *Node) *Node {
	if n.Type == FragmentNode {
		return n
	}
	return &Node{Type: FragmentNode, children: []*Node{n}}
}

// Create returns a new unbound view whose resources resolve from
// container, reusing a released one when the cache holds any.
func (f *ViewFactory) Create(container Container) (*Controller, error) {
	if n := len(f.cache); n > 0 {
		v := f.cache[n-1]
		f.cache = f.cache[:n-1]
		return v, nil
	}
	c := newController(ViewKind, f.Definition.Name, nil)
	c.Factory = f
	c.container = container
	frag, err := f.render(c)
	if err != nil {
		return nil, err
	}
	c.fragment = frag
	c.nodes = frag.Children()
	return c, nil
}

// Release returns an unbound, detached view to the cache. It reports
// whether the view was kept.
func (f *ViewFactory) Release(v *Controller) bool {
	if v.bound || v.attached || len(f.cache) >= f.CacheSize {
		return false
	}
	f.cache = append(f.cache, v)
	return true
}

// render clones the template into a fragment and renders its targets
// into c.
func (f *ViewFactory) render(c *Controller) (*Node, error) {
	frag := NewFragment()
	if f.Definition.Template == nil {
		return frag, nil
	}
	tpl := wrap(f.Definition.Template)
	for _, ch := range tpl.children {
		frag.Append(ch.Clone(true))
	}
	targets := make([]*Node, len(f.paths))
	for i, p := range f.paths {
		targets[i] = resolvePath(frag, p)
	}
	for _, t := range targets {
		if t.Type == ElementNode {
			t.RemoveAttr(TargetAttr)
		}
	}
	if err := f.renderer.Render(c, targets, f.Definition.Instructions); err != nil {
		return nil, err
	}
	return frag, nil
}
