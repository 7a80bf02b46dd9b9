// SPDX-License-Identifier: Unlicense OR MIT

// Package brh implements the binary reinforcement hierarchy: a complete
// binary tree of pbrrn.Engine instances exchanging fixed bit strips between
// parent and child, with differential reward driving a "favoured" subtree
// toward the behaviour its parent currently prefers (spec §4.8).
package brh

import "github.com/ey6es/phantasml-sub002/pbrrn"

// Tree is a binary reinforcement hierarchy built from a per-level array of
// construction options (spec §4.8: "a complete binary tree built from an
// array modelOptions of per-level option records").
type Tree struct {
	root *Node
}

// New builds a complete binary tree of depth len(levels), one PBRRN per
// node, all nodes at the same depth sharing levels[depth]'s options. It
// fails if any node's edge-strip geometry cannot fit its dimensions.
func New(levels []Level) (*Tree, error) {
	if len(levels) == 0 {
		return nil, ErrNoLevels
	}
	root, err := newNode(levels, 0, nil, 0)
	if err != nil {
		return nil, err
	}
	return &Tree{root: root}, nil
}

// Step runs one step of the whole hierarchy: the root is stepped with
// reward, then recursively every node pulls from its parent, steps, pushes
// back, and steps its children with differential reward (spec §4.8).
func (t *Tree) Step(reward float32) error {
	return t.root.step(reward)
}

// Root returns the tree's root node, mainly for tests and debug tooling
// that want to inspect a specific node's engine.
func (t *Tree) Root() *Node { return t.root }

// NodesByPath returns every node in the tree keyed by its path from the
// root: "" for the root, then one "0" or "1" digit per generation (e.g.
// "01" is the root's second child's first child). Used by callers that
// want a stable, human-readable handle on a node without threading *Node
// pointers through their own config.
func (t *Tree) NodesByPath() map[string]*Node {
	out := make(map[string]*Node)
	t.root.collect("", out)
	return out
}

// Engine returns a node's underlying PBRRN engine.
func (n *Node) Engine() *pbrrn.Engine { return n.engine }

// Children returns a node's two children, or (nil, nil) for a leaf.
func (n *Node) Children() (*Node, *Node) { return n.children[0], n.children[1] }

// Dispose releases every node in the tree, depth-first from the root.
func (t *Tree) Dispose() {
	if t.root != nil {
		t.root.Dispose()
	}
}
