package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// TargetAttr marks an element that receives a row of instructions.
const TargetAttr = "au"

// Marker is the comment that stands in for a text binding or marks where a
// template controller renders its views.
const Marker = "au"

// Definition is a compiled template: a node tree and one row of
// instructions per target, in document order.
type Definition struct {
	Name         string
	Template     *Node
	Instructions [][]Instruction
}

// Target marks an element as an instruction target and returns it.
func Target(n *Node) *Node {
	n.SetAttr(TargetAttr, "")
	return n
}

// NewMarker returns a marker comment.
func NewMarker() *Node {
	return NewComment(Marker)
}

func isTarget(n *Node) bool {
	switch n.Type {
	case ElementNode:
		return n.HasAttr(TargetAttr)
	case CommentNode:
		return n.Data == Marker
	}
	return false
}

// targetPaths lists the child index path of every target below root.
func targetPaths(root *Node) [][]int {
	var paths [][]int
	var walk func(n *Node, path []int)
	walk = func(n *Node, path []int) {
		for i, c := range n.children {
			p := append(append([]int(nil), path...), i)
			if isTarget(c) {
				paths = append(paths, p)
			}
			walk(c, p)
		}
	}
	walk(root, nil)
	return paths
}

func resolvePath(root *Node, path []int) *Node {
	n := root
	for _, i := range path {
		n = n.children[i]
	}
	return n
}

// Fingerprint hashes the template and instructions of d. Definitions with
// equal fingerprints render the same views.
func (d *Definition) Fingerprint() uint64 {
	h := xxhash.New()
	d.writeTo(h)
	return h.Sum64()
}

func (d *Definition) writeTo(w io.Writer) {
	io.WriteString(w, d.Name)
	io.WriteString(w, "\x00")
	if d.Template != nil {
		d.Template.WriteMarkup(w)
	}
	for i, row := range d.Instructions {
		io.WriteString(w, "\x00"+strconv.Itoa(i))
		writeInstructions(w, row)
	}
}

func writeInstructions(w io.Writer, row []Instruction) {
	for _, ins := range row {
		io.WriteString(w, "\x01")
		switch x := ins.(type) {
		case HydrateElementInstruction:
			fmt.Fprintf(w, "%s:%s", x.Type(), x.Res)
			writeInstructions(w, x.Instructions)
		case HydrateAttributeInstruction:
			fmt.Fprintf(w, "%s:%s", x.Type(), x.Res)
			writeInstructions(w, x.Instructions)
		case HydrateTemplateControllerInstruction:
			fmt.Fprintf(w, "%s:%s", x.Type(), x.Res)
			if x.Def != nil {
				x.Def.writeTo(w)
			}
			writeInstructions(w, x.Instructions)
		default:
			fmt.Fprintf(w, "%s%+v", ins.Type(), ins)
		}
	}
}
