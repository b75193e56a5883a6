package canvas

import (
	"fmt"
	"testing"

	"smtx/internal/ptyproc"
)

func TestBalanceDistributesEqualFractions(t *testing.T) {
	root := NewCanvas(nil)
	v1 := NewCanvas(nil)
	v1.Typ = 0
	v1.Parent = root
	root.C[0] = v1
	v2 := NewCanvas(nil)
	v2.Typ = 0
	v2.Parent = v1
	v1.C[0] = v2
	v3 := NewCanvas(nil)
	v3.Typ = 0
	v3.Parent = v2
	v2.C[0] = v3

	Balance(v3)

	if v3.SplitPoint[0] != 1.0 {
		t.Fatalf("deepest split = %v, want 1.0", v3.SplitPoint[0])
	}
	if v2.SplitPoint[0] != 0.5 {
		t.Fatalf("v2 split = %v, want 0.5", v2.SplitPoint[0])
	}
	if got, want := v1.SplitPoint[0], 1.0/3.0; got != want {
		t.Fatalf("v1 split = %v, want %v", got, want)
	}
}

func TestContainsInclusiveOfFarEdge(t *testing.T) {
	n := &Canvas{Origin: Point{Y: 2, X: 3}, Extent: Point{Y: 5, X: 10}}
	if !Contains(n, 2, 3) {
		t.Fatal("origin should be contained")
	}
	if !Contains(n, 7, 13) {
		t.Fatal("far edge (inclusive) should be contained")
	}
	if Contains(n, 8, 13) {
		t.Fatal("one past far edge should not be contained")
	}
}

func TestFindWindowDepthFirst(t *testing.T) {
	root := &Canvas{Origin: Point{0, 0}, Extent: Point{10, 40}}
	left := &Canvas{Origin: Point{0, 0}, Extent: Point{10, 19}, Parent: root}
	right := &Canvas{Origin: Point{0, 20}, Extent: Point{10, 19}, Parent: root}
	root.C[0] = left
	root.C[1] = right

	if got := FindWindow(root, 5, 5); got != root {
		// root itself contains every point in its own rectangle first.
		t.Fatalf("expected root to match before children, got %+v", got)
	}
	if got := FindWindow(left, 5, 5); got != left {
		t.Fatalf("expected left leaf, got %+v", got)
	}
	if got := FindWindow(root, 5, 25); got != root {
		t.Fatalf("point inside root's own rect returns root")
	}
}

func TestPruneWithNoSiblingCollapsesToParent(t *testing.T) {
	tree := &Tree{}
	root := NewCanvas(nil)
	child := NewCanvas(nil)
	child.Typ = 0
	child.Parent = root
	root.C[0] = child
	tree.Root = root
	tree.Focused = child

	Prune(tree, child)

	if root.C[0] != nil {
		t.Fatalf("expected child slot cleared, got %+v", root.C[0])
	}
	if root.SplitPoint[0] != 1.0 {
		t.Fatalf("expected split point reset to 1.0, got %v", root.SplitPoint[0])
	}
	if tree.Focused != root {
		t.Fatalf("expected focus to move to parent, got %+v", tree.Focused)
	}
}

func TestPruneWithOnlySiblingPromotesIt(t *testing.T) {
	tree := &Tree{}
	root := NewCanvas(nil)
	x := NewCanvas(nil) // the node being pruned, typ 0 -> x.C[0] is "n", x.C[1] is "o"
	x.Typ = 0
	x.Parent = root
	root.C[0] = x
	sibling := NewCanvas(nil) // o = x.C[1]
	sibling.Parent = x
	x.C[1] = sibling
	tree.Root = root
	tree.Focused = x

	Prune(tree, x)

	if root.C[0] != sibling {
		t.Fatalf("expected sibling promoted into parent's slot, got %+v", root.C[0])
	}
	if sibling.Parent != root {
		t.Fatalf("expected sibling's parent updated to root")
	}
	if tree.Focused != sibling {
		t.Fatalf("expected focus to move to promoted sibling")
	}
}

func TestReshapeSplitsRectangleByFraction(t *testing.T) {
	tree := &Tree{DisplayLevel: UnboundedDisplayLevel}
	root := NewCanvas(nil)
	root.Typ = 0
	root.SplitPoint = [2]float64{0.5, 1.0}
	child := NewCanvas(nil)
	child.Typ = 0
	child.Parent = root
	root.C[0] = child

	tree.Root = root
	Reshape(root, 0, 0, 20, 80, 1, tree, nil)

	if root.Extent.Y != 9 { // h1=10, extent.y = h1-1
		t.Fatalf("root.Extent.Y = %d, want 9", root.Extent.Y)
	}
	if child.Origin.Y != 10 {
		t.Fatalf("child.Origin.Y = %d, want 10", child.Origin.Y)
	}
	if child.Extent.Y != 9 { // remaining 10 rows, no further split -> extent.y = h-1
		t.Fatalf("child.Extent.Y = %d, want 9", child.Extent.Y)
	}
}

func TestMovNavigatesByAdjacency(t *testing.T) {
	// Two side-by-side leaves spanning a 10x40 viewport.
	root := &Canvas{Origin: Point{0, 0}, Extent: Point{10, 40}}
	left := &Canvas{Origin: Point{0, 0}, Extent: Point{10, 19}, Parent: root}
	right := &Canvas{Origin: Point{0, 20}, Extent: Point{10, 19}, Parent: root}
	root.C[0] = left
	root.C[1] = right

	got := Mov(root, left, 'l', 1)
	if got != root {
		// find_window from just past left's right edge lands on root itself
		// (root's rectangle spans the whole viewport and is matched first).
		t.Fatalf("expected root (outer rect matches first), got %+v", got)
	}
}

// describeLayout mirrors test-describe.c's describe_layout: a pre-order
// dump of extent/origin, "*" marking the focused node, entries joined by
// "; ".
func describeLayout(n *Canvas, focused *Canvas) string {
	star := ""
	if n == focused {
		star = "*"
	}
	s := fmt.Sprintf("%s%dx%d@%d,%d", star, n.Extent.Y, n.Extent.X, n.Origin.Y, n.Origin.X)
	for _, c := range n.C {
		if c != nil {
			s += "; " + describeLayout(c, focused)
		}
	}
	return s
}

// TestSplitAndNavigateLayout runs the split/navigate scenario "c c c C C j
// k h l" from a single canvas under a 23x80 viewport: three horizontal
// splits chain below the root, two vertical splits chain to the right of
// whichever canvas is focused when struck, each create() leaves its new
// canvas focused (mirroring bindings.c's pairing of create with mov --
// the next split always extends the pane the user is looking at), and the
// trailing j/k/h/l walk navigates back to the canvas adjacent to the last
// created one without touching the tree shape.
func TestSplitAndNavigateLayout(t *testing.T) {
	tree := NewTree(nil)

	for _, dir := range []int{0, 0, 0, 1, 1} {
		v := Create(tree.Focused, tree, dir, 1, nil)
		tree.Focused = v
	}
	ReshapeRoot(tree, 23, 80, nil)

	for _, key := range []byte{'j', 'k', 'h', 'l'} {
		tree.Focused = Mov(tree.Root, tree.Focused, key, 1)
	}

	got := describeLayout(tree.Root, tree.Focused)
	want := "4x80@0,0; 5x80@5,0; *5x80@11,0; 5x26@17,0; 5x26@17,27; 5x26@17,54"
	if got != want {
		t.Fatalf("layout = %q, want %q", got, want)
	}
}

func TestScrollHClampsToPadWidth(t *testing.T) {
	n := &Canvas{Pty: &ptyproc.Pty{}, Extent: Point{Y: 10, X: 20}}
	ScrollH(n, 50, true, 100)
	if n.Offset.X != 30 {
		t.Fatalf("offset.x = %d, want clamped to 30 (50-20)", n.Offset.X)
	}
	ScrollH(n, 50, false, 1000)
	if n.Offset.X != 0 {
		t.Fatalf("offset.x = %d, want clamped to 0", n.Offset.X)
	}
}

func TestResizeGrowsHorizontalSplitOnJ(t *testing.T) {
	root := &Canvas{SplitPoint: [2]float64{0.5, 1.0}}
	child := &Canvas{Parent: root, Extent: Point{Y: 9, X: 40}}
	root.C[0] = child
	root.Extent = Point{Y: 19, X: 40}

	Resize(child, 'J', 2)
	if root.SplitPoint[0] <= 0.5 {
		t.Fatalf("SplitPoint[0] = %v, want > 0.5 after growing with J", root.SplitPoint[0])
	}
}

func TestResizeShrinksHorizontalSplitOnK(t *testing.T) {
	root := &Canvas{SplitPoint: [2]float64{0.5, 1.0}}
	child := &Canvas{Parent: root, Extent: Point{Y: 9, X: 40}}
	root.C[0] = child

	Resize(child, 'K', 2)
	if root.SplitPoint[0] >= 0.5 {
		t.Fatalf("SplitPoint[0] = %v, want < 0.5 after shrinking with K", root.SplitPoint[0])
	}
}

func TestResizeAdjustsVerticalSplitOnHAndL(t *testing.T) {
	root := &Canvas{SplitPoint: [2]float64{1.0, 0.5}}
	child := &Canvas{Parent: root, Extent: Point{Y: 19, X: 19}}
	root.C[1] = child

	Resize(child, 'L', 3)
	grown := root.SplitPoint[1]
	if grown <= 0.5 {
		t.Fatalf("SplitPoint[1] = %v, want > 0.5 after growing with L", grown)
	}

	root.SplitPoint[1] = 0.5
	Resize(child, 'H', 3)
	if root.SplitPoint[1] >= 0.5 {
		t.Fatalf("SplitPoint[1] = %v, want < 0.5 after shrinking with H", root.SplitPoint[1])
	}
}

func TestResizeWalksUpToFindOwningAncestor(t *testing.T) {
	root := &Canvas{SplitPoint: [2]float64{1.0, 0.4}}
	mid := &Canvas{Parent: root, Extent: Point{Y: 19, X: 23}}
	root.C[1] = mid
	leaf := &Canvas{Parent: mid, Extent: Point{Y: 19, X: 23}}

	Resize(leaf, 'L', 2)
	if root.SplitPoint[1] <= 0.4 {
		t.Fatalf("expected the walk-up to find root's typ-1 child and grow its split, got %v", root.SplitPoint[1])
	}
}
