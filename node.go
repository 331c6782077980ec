package canopy

import "sync/atomic"

// nodeIDCounter is shared by every Manager and by user code building nodes on
// other goroutines.
var nodeIDCounter atomic.Uint32

func nextNodeID() uint32 {
	return nodeIDCounter.Add(1)
}

// Node is a retained visual element: layer containers, window panels and
// background deniers are all nodes. Children inherit their parent's offset,
// scale and alpha. Nodes with a positive Width and Height draw as a tinted
// rectangle (see Draw).
//
// Node implements Surface, so a panel can animate a node directly.
type Node struct {
	// Identity
	ID   uint32
	Name string

	// Hierarchy
	Parent   *Node
	children []*Node

	// Transform (local)
	X, Y   float64
	ScaleX float64
	ScaleY float64

	// Appearance
	Width, Height float64
	Color         Color
	Alpha         float64
	Visible       bool

	// Ordering among siblings; higher draws later.
	ZIndex int

	UserData any
}

// NewNode creates a visible node with unit scale and full alpha.
func NewNode(name string) *Node {
	return &Node{
		ID:      nextNodeID(),
		Name:    name,
		ScaleX:  1,
		ScaleY:  1,
		Alpha:   1,
		Color:   ColorWhite,
		Visible: true,
	}
}

// NewRect creates a node that draws as a w×h rectangle of the given color.
func NewRect(name string, w, h float64, c Color) *Node {
	n := NewNode(name)
	n.Width, n.Height = w, h
	n.Color = c
	return n
}

// --- Surface ---

// Opacity returns the node's local alpha.
func (n *Node) Opacity() float64 { return n.Alpha }

// SetOpacity sets the node's local alpha.
func (n *Node) SetOpacity(a float64) { n.Alpha = a }

// Offset returns the node's local position.
func (n *Node) Offset() Vec2 { return Vec2{n.X, n.Y} }

// SetOffset sets the node's local position.
func (n *Node) SetOffset(v Vec2) { n.X, n.Y = v.X, v.Y }

// Scale returns the node's horizontal scale. SetScale keeps both axes equal.
func (n *Node) Scale() float64 { return n.ScaleX }

// SetScale sets a uniform scale.
func (n *Node) SetScale(s float64) { n.ScaleX, n.ScaleY = s, s }

// Active reports whether the node is visible.
func (n *Node) Active() bool { return n.Visible }

// SetActive shows or hides the node and its subtree.
func (n *Node) SetActive(v bool) { n.Visible = v }

// --- Tree manipulation ---

// AddChild appends child to this node's children, removing it from its
// previous parent first. Panics if child is nil or an ancestor of n.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		panic("canopy: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("canopy: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = n
	n.children = append(n.children, child)
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("canopy: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	child.Parent = nil
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildIndex returns the index of child among n's children, or -1.
func (n *Node) ChildIndex(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// SetChildIndex moves child to a new index among its siblings.
func (n *Node) SetChildIndex(child *Node, index int) {
	if child.Parent != n {
		panic("canopy: child's parent is not this node")
	}
	if index < 0 || index >= len(n.children) {
		panic("canopy: child index out of range")
	}
	oldIndex := n.ChildIndex(child)
	if oldIndex == index {
		return
	}
	// Shift elements to fill the gap and open the target slot.
	if oldIndex < index {
		copy(n.children[oldIndex:], n.children[oldIndex+1:index+1])
	} else {
		copy(n.children[index+1:], n.children[index:oldIndex])
	}
	n.children[index] = child
}

// BringToFront moves child to the end of the child list so it draws last
// among siblings with the same ZIndex.
func (n *Node) BringToFront(child *Node) {
	n.SetChildIndex(child, len(n.children)-1)
}

// isAncestor reports whether candidate is an ancestor of node (or node itself).
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}
