// SPDX-License-Identifier: Unlicense OR MIT

package brh

import (
	"fmt"
	"image"

	"github.com/ey6es/phantasml-sub002/pbrrn"
)

// Node is one PBRRN instance in a binary reinforcement hierarchy, with 0 or
// 2 children. A non-root node exchanges fixed-width bit strips with its
// parent on every step (spec §4.8). children hold a non-owning back
// reference to their parent (spec §9: "no cyclic references... children
// hold a non-owning back-reference to the parent") — parent is used only
// to read/write edge strips, never retained as a strong ownership cycle
// since Go's garbage collector handles the cycle fine regardless, and
// Dispose walks down from the root, never up.
type Node struct {
	engine   *pbrrn.Engine
	parent   *Node
	children [2]*Node

	level      Level
	childIndex int // which of parent's two children this node is; 0 for root
}

// newNode constructs one node at depth, validating its edge-strip geometry
// against parent before allocating (spec §4.8's construction-time
// rejection), then recurses into its two children if depth is not the
// deepest level.
func newNode(levels []Level, depth int, parent *Node, childIndex int) (*Node, error) {
	level := levels[depth]
	if parent != nil {
		if err := validateGeometry(parent.engine, level); err != nil {
			return nil, err
		}
	}
	engine, err := pbrrn.New(level.Options)
	if err != nil {
		return nil, fmt.Errorf("brh: level %d: %w", depth, err)
	}
	n := &Node{engine: engine, parent: parent, level: level, childIndex: childIndex}

	if depth+1 < len(levels) {
		for i := 0; i < 2; i++ {
			child, err := newNode(levels, depth+1, n, i)
			if err != nil {
				n.Dispose()
				return nil, err
			}
			n.children[i] = child
		}
	}
	return n, nil
}

// validateGeometry checks that parent and the prospective child are large
// enough to hold the edge strips level describes, without the two
// children's strip regions on parent overlapping each other.
func validateGeometry(parent *pbrrn.Engine, level Level) error {
	if il := 2 * level.ParentInputBits; il > 0 {
		if parent.Height() < 2*il {
			return fmt.Errorf("%w: parent height %d too small for input strip length %d (both children)", ErrGeometryTooSmall, parent.Height(), il)
		}
		if level.Options.Width < il {
			return fmt.Errorf("%w: child width %d too small for input strip length %d", ErrGeometryTooSmall, level.Options.Width, il)
		}
	}
	if ol := 2 * level.ParentOutputBits; ol > 0 {
		if parent.Height() < 2*ol {
			return fmt.Errorf("%w: parent height %d too small for output strip length %d (both children)", ErrGeometryTooSmall, parent.Height(), ol)
		}
		if level.Options.Width < ol {
			return fmt.Errorf("%w: child width %d too small for output strip length %d", ErrGeometryTooSmall, level.Options.Width, ol)
		}
	}
	return nil
}

// parentColumnRect is the 1-wide column on the parent's right edge that
// feeds a child's input strip: length 2*parentInputBits, at y=0 for child 0
// or y=H-length for child 1 (spec §4.8).
func parentColumnRect(parent *pbrrn.Engine, length, childIndex int) image.Rectangle {
	x := parent.Width() - 1
	y0 := 0
	if childIndex == 1 {
		y0 = parent.Height() - length
	}
	return image.Rect(x, y0, x+1, y0+length)
}

// childTopStripRect is the horizontal strip centred on a child's top edge
// that receives parentColumnRect's values, index for index.
func childTopStripRect(child *pbrrn.Engine, length int) image.Rectangle {
	x0 := (child.Width() - length) / 2
	return image.Rect(x0, 0, x0+length, 1)
}

// childBottomStripRect is the horizontal strip centred on a child's bottom
// edge that is read and copied up into the parent's left-edge column.
func childBottomStripRect(child *pbrrn.Engine, length int) image.Rectangle {
	y := child.Height() - 1
	x0 := (child.Width() - length) / 2
	return image.Rect(x0, y, x0+length, y+1)
}

// parentLeftColumnRect is the column on the parent's left edge that
// receives a child's output strip, at matching y-positions to
// parentColumnRect.
func parentLeftColumnRect(parent *pbrrn.Engine, length, childIndex int) image.Rectangle {
	y0 := 0
	if childIndex == 1 {
		y0 = parent.Height() - length
	}
	return image.Rect(0, y0, 1, y0+length)
}

// pullFromParent copies the parent's right-edge column into this node's
// top-edge strip (spec §4.8 step 1). A no-op for the root.
func (n *Node) pullFromParent() error {
	if n.parent == nil || n.level.ParentInputBits == 0 {
		return nil
	}
	length := 2 * n.level.ParentInputBits
	src := parentColumnRect(n.parent.engine, length, n.childIndex)
	buf := make([]byte, length*4)
	if err := n.parent.engine.GetStates(src.Min.X, src.Min.Y, src.Dx(), src.Dy(), buf); err != nil {
		return fmt.Errorf("brh: pulling parent column: %w", err)
	}
	dst := childTopStripRect(n.engine, length)
	if err := n.engine.SetStates(dst.Min.X, dst.Min.Y, dst.Dx(), dst.Dy(), buf); err != nil {
		return fmt.Errorf("brh: writing input strip: %w", err)
	}
	return nil
}

// pushToParent copies this node's bottom-edge strip into the parent's
// left-edge column (spec §4.8 step 3). A no-op for the root.
func (n *Node) pushToParent() error {
	if n.parent == nil || n.level.ParentOutputBits == 0 {
		return nil
	}
	length := 2 * n.level.ParentOutputBits
	src := childBottomStripRect(n.engine, length)
	buf := make([]byte, length*4)
	if err := n.engine.GetStates(src.Min.X, src.Min.Y, src.Dx(), src.Dy(), buf); err != nil {
		return fmt.Errorf("brh: reading output strip: %w", err)
	}
	dst := parentLeftColumnRect(n.parent.engine, length, n.childIndex)
	if err := n.parent.engine.SetStates(dst.Min.X, dst.Min.Y, dst.Dx(), dst.Dy(), buf); err != nil {
		return fmt.Errorf("brh: writing parent column: %w", err)
	}
	return nil
}

// favouredChild reports which child (0 or 1) this node currently favours,
// read from its own central cell — the routing bit a parent uses to decide
// which subtree's behaviour to reinforce this step (spec §4.8 step 4).
func (n *Node) favouredChild() (int, error) {
	v, err := n.engine.GetState(n.engine.Width()/2, n.engine.Height()/2)
	if err != nil {
		return 0, err
	}
	if v {
		return 1, nil
	}
	return 0, nil
}

// step runs this node's own 4-step procedure (spec §4.8): pull from
// parent, step its model with reward, push to parent, then recursively
// step its children with differential reward.
func (n *Node) step(reward float32) error {
	if err := n.pullFromParent(); err != nil {
		return err
	}
	if err := n.engine.Step(reward); err != nil {
		return err
	}
	if err := n.pushToParent(); err != nil {
		return err
	}
	if n.children[0] == nil {
		return nil
	}
	favoured, err := n.favouredChild()
	if err != nil {
		return err
	}
	for i, child := range n.children {
		r := float32(0)
		if i == favoured {
			r = 1
		}
		if err := child.step(r); err != nil {
			return err
		}
	}
	return nil
}

// collect walks the subtree rooted at n, recording n at path and
// recursing into its children under path+"0"/path+"1".
func (n *Node) collect(path string, out map[string]*Node) {
	out[path] = n
	for i, c := range n.children {
		if c != nil {
			c.collect(path+string(rune('0'+i)), out)
		}
	}
}

// Dispose releases this node's engine and recurses depth-first into its
// children before releasing itself (spec §4.8: "Dispose cascades
// depth-first").
func (n *Node) Dispose() {
	for _, c := range n.children {
		if c != nil {
			c.Dispose()
		}
	}
	if n.engine != nil {
		n.engine.Dispose()
		n.engine = nil
	}
}
