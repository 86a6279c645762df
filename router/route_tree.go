package router

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// RouteNode is a recognized route in a RouteTree: which component is
// loaded, where, and with what parameters.
type RouteNode struct {
	// Path is the part of the URL the node consumed.
	Path      string
	Component string
	Params    map[string]string
	Query     url.Values
	Fragment  string
	Viewport  string
	Title     string
	Data      map[string]any
	Config    *RouteConfig
	Children  []*RouteNode

	context  *RouteContext
	tree     *RouteTree
	segments []*ViewportInstruction
	residue  []*ViewportInstruction
	version  int
}

// Context returns the route context of the component of the node.
func (n *RouteNode) Context() *RouteContext { return n.context }
func (n *RouteNode) Tree() *RouteTree       { return n.tree }
func (n *RouteNode) Version() int           { return n.version }

func (n *RouteNode) AppendChild(c *RouteNode) {
	c.tree = n.tree
	n.Children = append(n.Children, c)
}

func (n *RouteNode) ClearChildren() { n.Children = nil }

func (n *RouteNode) clone(tree *RouteTree) *RouteNode {
	c := &RouteNode{
		Path:      n.Path,
		Component: n.Component,
		Params:    maps.Clone(n.Params),
		Query:     n.Query,
		Fragment:  n.Fragment,
		Viewport:  n.Viewport,
		Title:     n.Title,
		Data:      n.Data,
		Config:    n.Config,
		context:   n.context,
		tree:      tree,
		segments:  n.segments,
		residue:   slices.Clone(n.residue),
		version:   n.version + 1,
	}
	for _, ch := range n.Children {
		c.Children = append(c.Children, ch.clone(tree))
	}
	return c
}

// sameTarget reports whether next loads the same component with the same
// parameters.
func (n *RouteNode) sameTarget(next *RouteNode) bool {
	return n.Component == next.Component && maps.Equal(n.Params, next.Params)
}

func (n *RouteNode) String() string {
	var b strings.Builder
	b.WriteString("RN(")
	if n.Component == "" {
		b.WriteString("<root>")
	} else {
		b.WriteString(n.Component)
	}
	if n.Path != "" {
		fmt.Fprintf(&b, " path=%q", n.Path)
	}
	if n.Viewport != "" {
		fmt.Fprintf(&b, " @%s", n.Viewport)
	}
	b.WriteString(")")
	return b.String()
}

// finalInstructions rebuilds the instructions the node was recognized
// from, with the children that were eventually loaded in it.
func (n *RouteNode) finalInstructions() []*ViewportInstruction {
	var kids []*ViewportInstruction
	for _, c := range n.Children {
		kids = append(kids, c.finalInstructions()...)
	}
	if len(n.segments) == 0 {
		return kids
	}
	var head, cur *ViewportInstruction
	for _, s := range n.segments {
		vi := &ViewportInstruction{Component: s.Component, Params: slices.Clone(s.Params), Viewport: s.Viewport}
		if head == nil {
			head = vi
		} else {
			cur.Children = []*ViewportInstruction{vi}
		}
		cur = vi
	}
	cur.Children = kids
	return []*ViewportInstruction{head}
}

// processResidue turns the instructions left over after recognition into
// child nodes, then fills idle viewports with their defaults.
func (n *RouteNode) processResidue() error {
	residue := n.residue
	n.residue = nil
	for _, vi := range residue {
		if err := createAndAppendNodes(n, vi, "", 0); err != nil {
			return err
		}
	}
	return appendDefaults(n)
}

// RouteTree is the state of every viewport after a navigation.
type RouteTree struct {
	Root     *RouteNode
	Query    url.Values
	Fragment string
	Options  NavigationOptions
	version  int
}

func newRouteTree(ctx *RouteContext) *RouteTree {
	t := &RouteTree{}
	t.Root = &RouteNode{context: ctx, tree: t}
	return t
}

func (t *RouteTree) Version() int { return t.version }

// Clone copies the tree and every node, one version further.
func (t *RouteTree) Clone() *RouteTree {
	c := &RouteTree{Query: t.Query, Fragment: t.Fragment, Options: t.Options, version: t.version + 1}
	c.Root = t.Root.clone(c)
	return c
}

// FinalInstructions returns the instruction tree the route tree was built
// from, as it ended up being loaded.
func (t *RouteTree) FinalInstructions() *ViewportInstructionTree {
	return &ViewportInstructionTree{
		Children: t.Root.finalInstructions(),
		Query:    t.Query,
		Fragment: t.Fragment,
	}
}

func (t *RouteTree) String() string {
	var b strings.Builder
	var walk func(n *RouteNode, depth int)
	walk = func(n *RouteNode, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(n.String())
		b.WriteByte('\n')
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(t.Root, 0)
	return b.String()
}

// updateRouteTree rebuilds the children of the root of rt from vit.
func updateRouteTree(rt *RouteTree, vit *ViewportInstructionTree, opts NavigationOptions) error {
	rt.Options = opts
	rt.Query = vit.Query
	rt.Fragment = vit.Fragment
	root := rt.Root
	root.Query = vit.Query
	root.Fragment = vit.Fragment
	root.ClearChildren()
	for _, vi := range vit.Children {
		if err := createAndAppendNodes(root, vi, "", 0); err != nil {
			return err
		}
	}
	return appendDefaults(root)
}

// appendDefaults loads the default component of every viewport of the
// context of n that nothing was scheduled into.
func appendDefaults(n *RouteNode) error {
	ctx := n.context
	for _, vpa := range ctx.availableViewportAgents() {
		component := vpa.Viewport.Default
		if component == "" && !ctx.rec.hasEmptyRoute() {
			continue
		}
		vi := &ViewportInstruction{Component: component}
		if err := createAndAppendNodes(n, vi, vpa.Viewport.Name, 0); err != nil {
			return err
		}
	}
	return nil
}

const maxRouteRedirects = 16

// createAndAppendNodes recognizes vi, and the chain of single children
// below it, against the routes of the context of n. What the route does
// not consume stays as residue of the new node.
func createAndAppendNodes(n *RouteNode, vi *ViewportInstruction, viewport string, redirects int) error {
	ctx := n.context
	chain := []*ViewportInstruction{vi}
	var segs []string
	if vi.Component != "" {
		segs = append(segs, vi.Component)
		for cur := vi; len(cur.Children) == 1 && cur.Children[0].Component != ""; cur = cur.Children[0] {
			chain = append(chain, cur.Children[0])
			segs = append(segs, cur.Children[0].Component)
		}
	}
	explicit := 0
	for _, c := range chain {
		explicit += len(c.Params)
	}
	rr, ok := ctx.rec.recognize(segs, explicit)
	if !ok || rr.Consumed == 0 && len(segs) > 0 {
		return fmt.Errorf("%w: %q at %s", ErrUnknownRoute, strings.Join(segs, "/"), ctx)
	}
	consumed := chain[:rr.Consumed]
	var residue []*ViewportInstruction
	if rr.Consumed < len(segs) {
		residue = []*ViewportInstruction{chain[rr.Consumed]}
	} else {
		residue = chain[len(chain)-1].Children
	}

	params := maps.Clone(rr.Params)
	pos := 0
	for _, c := range consumed {
		for _, p := range c.Params {
			if p.Key != "" {
				params[p.Key] = p.Value
				continue
			}
			for pos < len(rr.names) && params[rr.names[pos]] != "" {
				pos++
			}
			if pos < len(rr.names) {
				params[rr.names[pos]] = p.Value
				pos++
			}
		}
	}

	cfg := rr.Config
	if cfg.Redirect != "" {
		if redirects >= maxRouteRedirects {
			return fmt.Errorf("%w: %s", ErrRedirectLoop, cfg.Redirect)
		}
		target := cfg.Redirect
		for k, v := range params {
			target = strings.ReplaceAll(target, ":"+k, escapeToken(v))
		}
		rt, err := ParseInstructions(target)
		if err != nil {
			return err
		}
		for i, rvi := range rt.Children {
			if i == len(rt.Children)-1 {
				leaf := rvi
				for len(leaf.Children) > 0 {
					leaf = leaf.Children[len(leaf.Children)-1]
				}
				leaf.Children = append(leaf.Children, residue...)
			}
			if err := createAndAppendNodes(n, rvi, viewport, redirects+1); err != nil {
				return err
			}
		}
		return nil
	}

	vp := viewport
	if vp == "" {
		for _, c := range consumed {
			if c.Viewport != "" {
				vp = c.Viewport
				break
			}
		}
	}
	if vp == "" {
		vp = chain[0].Viewport
	}
	if vp == "" {
		vp = cfg.Viewport
	}
	vpa, err := ctx.resolveViewportAgent(ViewportRequest{ViewportName: vp, ComponentName: cfg.Component})
	if err != nil {
		return err
	}
	childCtx := ctx.router.routeContextFor(vpa, cfg, ctx)
	var pathSegs []string
	for _, c := range consumed {
		pathSegs = append(pathSegs, c.Component)
	}
	segments := make([]*ViewportInstruction, len(consumed))
	for i, c := range consumed {
		segments[i] = &ViewportInstruction{Component: c.Component, Params: c.Params, Viewport: c.Viewport}
	}
	rn := &RouteNode{
		Path:      strings.Join(pathSegs, "/"),
		Component: cfg.Component,
		Params:    params,
		Query:     n.tree.Query,
		Fragment:  n.tree.Fragment,
		Viewport:  vpa.Viewport.Name,
		Title:     cfg.Title,
		Data:      cfg.Data,
		Config:    cfg,
		context:   childCtx,
		segments:  segments,
		residue:   slices.Clone(residue),
	}
	n.AppendChild(rn)
	return vpa.scheduleUpdate(n.tree.Options, rn)
}

// mergeDistinct merges the nodes of two trees so that every viewport
// agent appears once, keeping next nodes in order next to the previous
// node of the same agent.
func mergeDistinct(prev, next []*RouteNode) []*RouteNode {
	seen := mapset.NewThreadUnsafeSet[*ViewportAgent]()
	pending := slices.Clone(next)
	var out []*RouteNode
	add := func(n *RouteNode) {
		if seen.Add(n.context.vpa) {
			out = append(out, n)
		}
	}
	for _, p := range prev {
		vpa := p.context.vpa
		if seen.Contains(vpa) {
			continue
		}
		i := slices.IndexFunc(pending, func(n *RouteNode) bool { return n.context.vpa == vpa })
		if i < 0 {
			add(p)
			continue
		}
		for _, n := range pending[:i+1] {
			add(n)
		}
		pending = pending[i+1:]
	}
	for _, n := range pending {
		add(n)
	}
	return out
}
