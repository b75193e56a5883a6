// Package canvas implements the binary tree of rectangular viewports bound
// to ptys: split/reshape/balance/prune/swap/focus/find-by-coordinate.
// Grounded on original_source/smtx-main.c (reshape, balance, prune,
// find_window, mov, resize) and original_source/action.c (create, swap,
// scrolln/scrollh).
package canvas

import (
	"math"

	"smtx/internal/ptyproc"
)

// Point is a (row, column) pair, the Go port of original_source/smtx.h's
// `struct point`.
type Point struct{ Y, X int }

// Canvas is one node of the binary split tree: either a leaf bound to a
// pty, or an internal node whose two children share its rectangle.
// Typ selects which child is the "full" dimension: 0 means C[0] spans the
// full width (a horizontal split), 1 means C[1] spans the full height (a
// vertical split) -- matching smtx.h's comment on `struct canvas.typ`.
type Canvas struct {
	Origin Point
	Extent Point // size actually occupied, minus title line
	Typ    int

	Offset Point // scroll offset into the pty's pad
	Pty    *ptyproc.Pty

	Parent *Canvas
	C      [2]*Canvas

	SplitPoint [2]float64

	ManualScroll bool
	Title        string

	// HasDiv/DivX/DivTop/DivHeight describe the one-column vertical divider
	// Reshape reserves to this node's right when it has a second child --
	// render-only bookkeeping surfaced here since Reshape already computes
	// the gap column and height while laying out the tree (original_source's
	// wdiv pad, sized the same way in reshape()).
	HasDiv              bool
	DivX, DivTop, DivHeight int

	// NoPrune marks a canvas whose pty exit should surface as a status
	// message rather than prune the node from the tree -- original_source's
	// n->no_prune, used by the test harness pty, kept here as the supplemented
	// distinction between an ordinary pane and a monitor pane (SPEC_FULL.md).
	NoPrune bool
}

// NewCanvas allocates a leaf bound to p, with identity split points (the
// default for a canvas with no children yet), matching newcanvas().
func NewCanvas(p *ptyproc.Pty) *Canvas {
	return &Canvas{
		Pty:        p,
		SplitPoint: [2]float64{1.0, 1.0},
	}
}

// Tree owns the whole canvas forest plus the cursor-like state that used to
// live in smtx-main.c's file-scope globals (root, focused, view_root,
// display_level) -- consolidated per SPEC_FULL.md's "Global mutable state"
// note into one struct passed by reference instead of package globals.
type Tree struct {
	Root         *Canvas
	Focused      *Canvas
	ViewRoot     *Canvas
	DisplayLevel uint // UINT_MAX sentinel = unbounded: use math.MaxUint32
}

const UnboundedDisplayLevel = math.MaxUint32

// NewTree starts a tree with a single canvas bound to p.
func NewTree(p *ptyproc.Pty) *Tree {
	root := NewCanvas(p)
	t := &Tree{Root: root, Focused: root, ViewRoot: root, DisplayLevel: UnboundedDisplayLevel}
	return t
}

// Balance distributes 1/k split fractions along a chain of same-typ
// descendants, starting from n and walking up, the Go port of balance().
func Balance(n *Canvas) *Canvas {
	if n == nil {
		return nil
	}
	dir := n.Typ
	for n.C[dir] != nil {
		n = n.C[dir]
	}
	count := 1
	last := n
	for cur := n; cur != nil; cur = cur.Parent {
		cur.SplitPoint[dir] = 1.0 / float64(count)
		count++
		last = cur
		if cur.Parent != nil && cur.Parent.C[dir] != cur {
			break
		}
		if cur.Typ != dir {
			break
		}
	}
	return last
}

// Create splits the last canvas in the chain rooted at n in direction dir
// (0 = below/horizontal "c", 1 = right/vertical "C"), matching action.c's
// create() loop that always extends the last window of a chain, repeated
// `count` times for a numeric-prefix multi-split.
func Create(n *Canvas, tree *Tree, dir int, count int, p *ptyproc.Pty) *Canvas {
	if count < 1 {
		count = 1
	}
	for n != nil && n.C[dir] != nil {
		n = n.C[dir]
	}
	var v *Canvas
	for ; count > 0; count-- {
		v = NewCanvas(p)
		v.Typ = dir
		v.Parent = n
		if n != nil {
			n.C[dir] = v
		} else {
			tree.Root = v
		}
		n = v
	}
	if v != nil {
		Balance(v)
	}
	return v
}

// Contains reports whether (y, x) falls within n's rectangle, inclusive of
// its far edge -- matching contains()'s `<=` bounds (the one-cell title/
// divider border belongs to the canvas it's attached to).
func Contains(n *Canvas, y, x int) bool {
	if n == nil {
		return false
	}
	return y >= n.Origin.Y && y <= n.Origin.Y+n.Extent.Y &&
		x >= n.Origin.X && x <= n.Origin.X+n.Extent.X
}

// FindWindow finds the leaf or subtree containing (y, x), depth-first
// pre-order, matching find_window(): a node "contains" the point by
// rectangle OR by recursing into whichever child does.
func FindWindow(n *Canvas, y, x int) *Canvas {
	if n == nil {
		return nil
	}
	if Contains(n, y, x) {
		return n
	}
	if r := FindWindow(n.C[0], y, x); r != nil {
		return r
	}
	return FindWindow(n.C[1], y, x)
}

// Reshape recomputes every node's rectangle top-down, starting at root and
// covering a (h, w) screen. level starts at 1 to match reshape_root's call;
// nodes at or beyond tree.DisplayLevel collapse to showing their full
// rectangle with no further split (the "v" view-count command).
func Reshape(n *Canvas, y, x, h, w int, level uint, tree *Tree, onResize func(*Canvas, bool)) {
	if n == nil {
		return
	}
	n.Origin = Point{Y: y, X: x}
	h1, w1 := h, w
	if level < tree.DisplayLevel {
		h1 = int(float64(h) * n.SplitPoint[0])
		w1 = int(float64(w) * n.SplitPoint[1])
	}
	haveDiv := h > 0 && w > 0 && n.C[1] != nil && level < tree.DisplayLevel
	n.HasDiv = haveDiv
	if haveDiv {
		n.DivX, n.DivTop, n.DivHeight = x+w1, y, h
	}

	if level < tree.DisplayLevel {
		div := 0
		if haveDiv {
			div = 1
		}
		c0w, c1h := w, h
		if n.Typ != 0 {
			c0w = w1
		} else {
			c1h = h1
		}
		Reshape(n.C[0], y+h1, x, h-h1, c0w, level+1, tree, onResize)
		Reshape(n.C[1], y, x+w1+div, c1h, w-w1-div, level+1, tree, onResize)
	}
	changed := n.Extent.Y != h1-1
	n.Extent.Y = h1 - 1
	n.Extent.X = w1
	if n.Pty != nil && onResize != nil {
		onResize(n, changed)
	}
}

// ReshapeRoot re-derives every canvas's rectangle from a fresh top-down pass
// over the whole tree, the Go port of reshape_root(): always level 1.
func ReshapeRoot(tree *Tree, rows, cols int, onResize func(*Canvas, bool)) {
	Reshape(tree.Root, 0, 0, rows, cols, 1, tree, onResize)
}

// Prune splices x out of the tree, handling the four cases from prune():
// both children survive by collapsing x's "other" child up; one child
// survives by replacing x; no children means just clearing the parent slot.
// Returns the node that should receive focus afterward.
func Prune(tree *Tree, x *Canvas) *Canvas {
	if x == nil {
		return nil
	}
	p := x.Parent
	d := x.Typ
	n := x.C[d]
	o := x.C[1-d]

	var replacement *Canvas
	deleted := true

	switch {
	case o != nil && o.C[d] != nil:
		x.SplitPoint[1-d] = 0.0
		x.Pty = nil
		deleted = false
		replacement = o
	case o != nil:
		o.Typ = d
		o.Parent = p
		if p != nil {
			p.C[d] = o
		} else {
			tree.Root = o
		}
		o.C[d] = n
		if n != nil {
			n.Parent = o
		}
		o.Origin = x.Origin
		o.SplitPoint[d] = x.SplitPoint[d]
		replacement = o
	case n != nil:
		n.Parent = p
		n.Origin = x.Origin
		if p != nil {
			p.C[d] = n
		} else {
			tree.Root = n
		}
		replacement = n
	case p != nil:
		p.SplitPoint[d] = 1.0
		p.C[d] = nil
		replacement = p
	default:
		tree.Root = nil
	}

	if tree.Focused == x {
		switch {
		case o != nil:
			tree.Focused = o
		case n != nil:
			tree.Focused = n
		default:
			tree.Focused = p
		}
	}
	if tree.ViewRoot == x && deleted {
		switch {
		case o != nil:
			tree.ViewRoot = o
		case n != nil:
			tree.ViewRoot = n
		default:
			tree.ViewRoot = p
		}
	}
	return replacement
}

// Swap exchanges the ptys bound to a and b, the Go port of action.c's
// swap() -- used by the `attach <id>` command family to move a running
// program to a different pane without restarting it.
func Swap(a, b *Canvas) {
	if a == nil || b == nil {
		return
	}
	a.Pty, b.Pty = b.Pty, a.Pty
}

// Mov walks count windows in direction dir (j/k/h/l) from n using
// find_window against the anchor edge of the starting canvas, the Go port
// of mov(). Returns the canvas to focus.
func Mov(viewRoot, n *Canvas, dir byte, count int) *Canvas {
	if count < 1 {
		count = 1
	}
	startX := n.Origin.X
	startY := n.Origin.Y + n.Extent.Y
	t := n
	for ; t != nil && count > 0; count-- {
		var next *Canvas
		switch dir {
		case 'k':
			next = FindWindow(viewRoot, t.Origin.Y-1, startX)
		case 'j':
			next = FindWindow(viewRoot, t.Origin.Y+t.Extent.Y+1, startX)
		case 'l':
			next = FindWindow(viewRoot, startY, t.Origin.X+t.Extent.X+1)
		case 'h':
			next = FindWindow(viewRoot, startY, t.Origin.X-1)
		}
		if next == nil {
			break
		}
		t = next
		n = t
	}
	return n
}

// Resize adjusts the split fraction of the nearest ancestor (starting from
// focused) that owns a child in dimension typ, matching resize(): J/K grow
// or shrink a horizontal divider (typ 0, against Extent.Y), H/L a vertical
// one (typ 1, against Extent.X); 'J'/'L' grow, 'K'/'H' shrink. s -- the size
// resize() scales against -- is read from the originally focused canvas
// before walking up, exactly as `s = n->extent.{x,y} + 1` runs before the
// `while(n->c[typ]==NULL) n = n->parent` loop reassigns n.
func Resize(focused *Canvas, key byte, count int) {
	typ := 1
	if key == 'J' || key == 'K' {
		typ = 0
	}
	dir := -1.0
	if key == 'J' || key == 'L' {
		dir = 1.0
	}
	if count < 1 {
		count = 1
	}
	s := focused.Extent.X + 1
	if typ == 0 {
		s = focused.Extent.Y + 1
	}
	n := focused
	for n != nil && n.C[typ] == nil {
		n = n.Parent
	}
	if n == nil || n.C[typ] == nil || s < 1 {
		return
	}
	split := n.SplitPoint[typ]
	if split == 0 {
		return
	}
	full := float64(s) / split
	newVal := float64(s) + float64(count)*dir
	if newVal > 0 {
		n.SplitPoint[typ] = clamp01(newVal / full)
	} else {
		n.SplitPoint[typ] = 0
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// ScrollH adjusts horizontal scroll offset by `count` columns (or a full
// page when count < 0, the "-1" numeric-prefix sentinel), matching
// scrollh().
func ScrollH(n *Canvas, padCols int, forward bool, count int) {
	if n == nil || n.Pty == nil {
		return
	}
	if count < 0 {
		count = n.Extent.X - 1
	}
	if !forward {
		count = -count
	}
	n.Offset.X += count
	if n.Offset.X < 0 {
		n.Offset.X = 0
	} else if max := padCols - n.Extent.X; n.Offset.X > max {
		n.Offset.X = max
	}
	n.ManualScroll = n.Offset.X != 0
}

// ScrollN adjusts vertical scroll offset by `count` rows within [0, tos],
// matching scrolln().
func ScrollN(n *Canvas, tos int, forward bool, count int) {
	if n == nil || n.Pty == nil {
		return
	}
	if count < 0 {
		count = n.Extent.Y - 1
	}
	if !forward {
		count = -count
	}
	n.Offset.Y += count
	if n.Offset.Y < 0 {
		n.Offset.Y = 0
	}
	if n.Offset.Y > tos {
		n.Offset.Y = tos
	}
}

// ScrollBottom resets a canvas's vertical offset to its pty's current top
// of screen, matching scrollbottom() -- called whenever passthrough input
// reaches a pane, so scrollback doesn't linger once the user starts typing.
func ScrollBottom(n *Canvas, tos int) {
	if n != nil && n.Pty != nil {
		n.Offset.Y = tos
	}
}
