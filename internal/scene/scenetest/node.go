package scenetest

import (
	"image/color"
	"slices"

	"github.com/spacehole-rogue/starview/internal/geom"
	"github.com/spacehole-rogue/starview/internal/scene"
)

var _ scene.Container = (*Node)(nil)

// Node records one scene node. Every Node can hold children so the fake
// needs a single type.
type Node struct {
	b           *Backend
	kind        Kind
	pos         geom.Point
	visible     bool
	interactive bool
	destroyed   bool
	parent      *Node
	children    []*Node

	figure     scene.Figure
	label      string
	labelColor color.RGBA
	texture    *Texture
}

func (n *Node) SetPosition(p geom.Point) {
	n.b.mu.Lock()
	n.pos = p
	n.b.mu.Unlock()
}

func (n *Node) Position() geom.Point {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	return n.pos
}

func (n *Node) SetVisible(v bool) {
	n.b.mu.Lock()
	n.visible = v
	n.b.mu.Unlock()
}

func (n *Node) Visible() bool {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	return n.visible
}

func (n *Node) SetInteractive(v bool) {
	n.b.mu.Lock()
	n.interactive = v
	n.b.mu.Unlock()
}

func (n *Node) Interactive() bool {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	return n.interactive
}

func (n *Node) Destroy() {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	n.destroyLocked()
}

func (n *Node) destroyLocked() {
	if n.destroyed {
		return
	}
	n.destroyed = true
	n.detachLocked()
	for _, c := range n.children {
		c.parent = nil
		c.destroyLocked()
	}
	n.children = nil
}

func (n *Node) detachLocked() {
	if n.parent == nil {
		return
	}
	p := n.parent
	p.children = slices.DeleteFunc(p.children, func(c *Node) bool { return c == n })
	n.parent = nil
}

func (n *Node) AddChild(child scene.Node) {
	c, ok := child.(*Node)
	if !ok || c == nil {
		return
	}
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	if n.destroyed || c.destroyed {
		return
	}
	c.detachLocked()
	c.parent = n
	n.children = append(n.children, c)
}

func (n *Node) RemoveChild(child scene.Node) {
	c, ok := child.(*Node)
	if !ok {
		return
	}
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	if c.parent == n {
		c.detachLocked()
	}
}

func (n *Node) RemoveChildren() {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	children := n.children
	n.children = nil
	for _, c := range children {
		c.parent = nil
		c.destroyLocked()
	}
}

func (n *Node) Children() []scene.Node {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	out := make([]scene.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// Kind returns what the node is.
func (n *Node) Kind() Kind { return n.kind }

// Figure returns the figure of a shape node.
func (n *Node) Figure() scene.Figure { return n.figure }

// Label returns the text of a label node.
func (n *Node) Label() string { return n.label }

// Texture returns the stamp a sprite draws.
func (n *Node) Texture() *Texture { return n.texture }

// Destroyed reports whether Destroy ran.
func (n *Node) Destroyed() bool {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	return n.destroyed
}

// Shown reports whether the node and all its ancestors are visible.
func (n *Node) Shown() bool {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	for p := n; p != nil; p = p.parent {
		if !p.visible {
			return false
		}
	}
	return !n.destroyed
}

// Attached reports whether the node is reachable from the root.
func (n *Node) Attached() bool {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	for p := n; p != nil; p = p.parent {
		if p == n.b.root {
			return true
		}
	}
	return false
}
