package render

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"smtx/internal/canvas"
	"smtx/internal/ptyproc"
)

func testPty(t *testing.T, rows, cols int) *ptyproc.Pty {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	p, err := ptyproc.Start("/bin/sh", rows, cols, 0)
	if err != nil {
		t.Fatalf("start pty: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestFlushPaintsContentAndPositionsCursor(t *testing.T) {
	p := testPty(t, 3, 10)
	p.Emu.Screen().Grid[0][0].Ch = 'x'
	p.Emu.Screen().Cursor.Y = 0
	p.Emu.Screen().Cursor.X = 1

	tree := canvas.NewTree(p)
	canvas.ReshapeRoot(tree, 4, 10, nil)

	var buf bytes.Buffer
	r := NewRenderer(&buf, termenv.Ascii)
	r.Resize(4, 10)
	r.Flush(tree, false, "")

	out := buf.String()
	if !strings.Contains(out, "x") {
		t.Fatalf("expected content cell to be painted, got %q", out)
	}
	if !strings.Contains(out, "\033[1;2H") {
		t.Fatalf("expected cursor positioned at row 1 col 2, got %q", out)
	}
}

func TestFlushSecondPassOnlyRepaintsChangedCells(t *testing.T) {
	p := testPty(t, 3, 10)
	tree := canvas.NewTree(p)
	canvas.ReshapeRoot(tree, 4, 10, nil)

	var buf bytes.Buffer
	r := NewRenderer(&buf, termenv.Ascii)
	r.Resize(4, 10)
	r.Flush(tree, false, "")
	fullRepaintLen := buf.Len()

	buf.Reset()
	r.Flush(tree, false, "")
	if buf.Len() >= fullRepaintLen {
		t.Fatalf("expected repeat flush of unchanged frame to emit far less than the first repaint (%d), got %d", fullRepaintLen, buf.Len())
	}

	p.Emu.Screen().Grid[0][0].Ch = 'y'
	buf.Reset()
	r.Flush(tree, false, "")
	if !strings.Contains(buf.String(), "y") {
		t.Fatalf("expected changed cell to repaint, got %q", buf.String())
	}
}

func TestFlushDrawsErrorLineOnBottomRow(t *testing.T) {
	p := testPty(t, 3, 10)
	tree := canvas.NewTree(p)
	canvas.ReshapeRoot(tree, 4, 10, nil)

	var buf bytes.Buffer
	r := NewRenderer(&buf, termenv.Ascii)
	r.Resize(4, 10)
	r.Flush(tree, false, "boom")

	out := buf.String()
	if !strings.Contains(out, "\033[4;1H") {
		t.Fatalf("expected error line at row 4, got %q", out)
	}
	if !strings.Contains(out, "boom") {
		t.Fatalf("expected error text in output, got %q", out)
	}
}

func TestFlushDrawsDividerForTwoPaneSplit(t *testing.T) {
	p1 := testPty(t, 3, 10)
	tree := canvas.NewTree(p1)
	p2 := testPty(t, 3, 10)
	canvas.Create(tree.Root, tree, 1, 1, p2)
	canvas.ReshapeRoot(tree, 4, 21, nil)

	if !tree.Root.HasDiv {
		t.Fatalf("expected root to have a divider after a vertical split")
	}

	var buf bytes.Buffer
	r := NewRenderer(&buf, termenv.Ascii)
	r.Resize(4, 21)
	r.Flush(tree, false, "")

	if !strings.Contains(buf.String(), "│") {
		t.Fatalf("expected divider glyph in output, got %q", buf.String())
	}
}
