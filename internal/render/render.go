package render

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"smtx/internal/canvas"
	termmodel "smtx/internal/term"
)

// frameCell is one cell of the full-terminal composite frame, the unit the
// damage diff compares against the previous flush.
type frameCell struct {
	ch  rune
	sgr string
}

// Renderer owns the real terminal's raw-mode state and the previous frame,
// diffing each Flush against it so only changed cells are re-emitted --
// the "damage-based flush" section 4.7 calls out, grounded on
// internal/session/client/render.go's direct-ANSI-write strategy (there the
// teacher re-renders whole lines per frame; here we go one step further and
// diff per cell, since nothing in the corpus already does per-cell damage
// tracking for us to imitate more directly).
type Renderer struct {
	Out     io.Writer
	Palette Palette

	rows, cols int
	prev       [][]frameCell
	prevSGR    string
}

// NewRenderer builds a Renderer writing to out using the given color
// profile (normally the one detected for stdout at startup; a forced TERM
// does not change it).
func NewRenderer(out io.Writer, profile termenv.Profile) *Renderer {
	return &Renderer{Out: out, Palette: NewPalette(profile)}
}

// EnableRawMode puts fd (normally os.Stdin's descriptor) into raw mode and
// returns a restore func, the Go port of the teacher's term.MakeRaw/
// term.Restore pairing around the main event loop.
func EnableRawMode(fd int) (restore func() error, err error) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enable raw mode: %w", err)
	}
	return func() error { return term.Restore(fd, state) }, nil
}

// Size queries the controlling terminal's current size, the Go analogue of
// ncurses' LINES/COLS globals at startup and after SIGWINCH.
func Size(f *os.File) (rows, cols int, err error) {
	cols, rows, err = term.GetSize(int(f.Fd()))
	return rows, cols, err
}

// Resize reallocates the previous-frame buffer; the next Flush repaints
// every cell since there is no valid damage baseline across a resize.
func (r *Renderer) Resize(rows, cols int) {
	r.rows, r.cols = rows, cols
	r.prev = make([][]frameCell, rows)
	for y := range r.prev {
		r.prev[y] = make([]frameCell, cols)
		for x := range r.prev[y] {
			r.prev[y][x] = frameCell{ch: 0}
		}
	}
}

// Flush paints the canvas tree plus the error buffer's status line and
// repositions the real cursor, diffing against the previous frame so only
// changed cells hit the wire.
func (r *Renderer) Flush(tree *canvas.Tree, commandMode bool, errMsg string) {
	if r.rows == 0 || r.cols == 0 {
		return
	}
	frame := make([][]frameCell, r.rows)
	for y := range frame {
		frame[y] = make([]frameCell, r.cols)
	}
	r.paint(frame, tree.Root, tree.Focused, commandMode)
	if errMsg != "" {
		r.paintErr(frame, errMsg)
	}

	var out []byte
	cur := r.prevSGR
	for y := 0; y < r.rows; y++ {
		for x := 0; x < r.cols; x++ {
			c := frame[y][x]
			if c == r.prev[y][x] {
				continue
			}
			out = append(out, []byte(fmt.Sprintf("\033[%d;%dH", y+1, x+1))...)
			if c.sgr != cur {
				out = append(out, []byte(c.sgr)...)
				cur = c.sgr
			}
			ch := c.ch
			if ch == 0 {
				ch = ' '
			}
			out = append(out, []byte(string(ch))...)
			r.prev[y][x] = c
		}
	}
	r.prevSGR = cur

	if tree.Focused != nil {
		cy, cx := r.cursorPos(tree.Focused)
		out = append(out, []byte(fmt.Sprintf("\033[%d;%dH", cy+1, cx+1))...)
		if tree.Focused.Pty != nil && !commandMode && tree.Focused.Pty.Emu.Screen().Visible {
			out = append(out, []byte("\033[?25h")...)
		} else {
			out = append(out, []byte("\033[?25l")...)
		}
	}
	if len(out) > 0 {
		r.Out.Write(out)
	}
}

// cursorPos mirrors fixcursor(): the cursor sits at the focused canvas's
// pty cursor position, clamped into the canvas's visible window.
func (r *Renderer) cursorPos(f *canvas.Canvas) (int, int) {
	if f.Pty == nil {
		return f.Origin.Y, f.Origin.X
	}
	s := f.Pty.Emu.Screen()
	y := s.Cursor.Y
	if y < s.Tos {
		y = s.Tos
	}
	if max := s.Tos + f.Extent.Y; y > max {
		y = max
	}
	return f.Origin.Y + (y - f.Offset.Y), f.Origin.X + (s.Cursor.X - f.Offset.X)
}

// paint recursively paints n's own content/title/divider (when it owns a
// pty) and then both children, matching draw()'s "draw both children, then
// this node's own chrome" structure.
func (r *Renderer) paint(frame [][]frameCell, n, focused *canvas.Canvas, commandMode bool) {
	if n == nil {
		return
	}
	r.paint(frame, n.C[0], focused, commandMode)
	r.paint(frame, n.C[1], focused, commandMode)

	rev := commandMode && n == focused
	if n.HasDiv {
		r.paintDivider(frame, n, rev)
	}
	if n.Pty != nil {
		r.paintTitle(frame, n, rev)
		r.paintContent(frame, n)
	}
}

func (r *Renderer) paintDivider(frame [][]frameCell, n *canvas.Canvas, rev bool) {
	sgr := reverseVideo
	if !rev {
		sgr = "\033[0m"
	}
	for y := n.DivTop; y < n.DivTop+n.DivHeight && y < r.rows; y++ {
		if y < 0 || n.DivX < 0 || n.DivX >= r.cols {
			continue
		}
		frame[y][n.DivX] = frameCell{ch: '│', sgr: sgr}
	}
}

func (r *Renderer) paintTitle(frame [][]frameCell, n *canvas.Canvas, rev bool) {
	y := n.Origin.Y + n.Extent.Y
	if y < 0 || y >= r.rows {
		return
	}
	sgr := "\033[0m"
	if rev {
		sgr = reverseVideo
	}
	title := n.Title
	if t := n.Pty.Emu.Title; t != "" && !n.Pty.Exited {
		title = t
	}
	text := fmt.Sprintf("%d %d-%d/%d %s", n.Pty.ID, n.Offset.X+1, n.Offset.X+n.Extent.X, n.Pty.Cols, title)
	for i := 0; i < n.Extent.X; i++ {
		x := n.Origin.X + i
		if x < 0 || x >= r.cols {
			continue
		}
		ch := '─'
		if i < len(text) {
			ch = rune(text[i])
		}
		frame[y][x] = frameCell{ch: ch, sgr: sgr}
	}
}

func (r *Renderer) paintContent(frame [][]frameCell, n *canvas.Canvas) {
	s := n.Pty.Emu.Screen()
	for row := 0; row < n.Extent.Y; row++ {
		y := n.Origin.Y + row
		if y < 0 || y >= r.rows {
			continue
		}
		srcY := n.Offset.Y + row
		var line termmodel.Row
		if srcY >= 0 && srcY < len(s.Grid) {
			line = s.Grid[srcY]
		}
		for col := 0; col < n.Extent.X; col++ {
			x := n.Origin.X + col
			if x < 0 || x >= r.cols {
				continue
			}
			srcX := n.Offset.X + col
			var cell termmodel.Cell
			if srcX >= 0 && srcX < len(line) {
				cell = line[srcX]
			} else {
				cell = termmodel.Blank(termmodel.DefaultColor, termmodel.DefaultColor, 0)
			}
			ch := cell.Ch
			if cell.Continuation || ch == 0 {
				ch = ' '
			}
			frame[y][x] = frameCell{ch: ch, sgr: r.Palette.SGR(cell)}
		}
	}
}

func (r *Renderer) paintErr(frame [][]frameCell, msg string) {
	y := r.rows - 1
	if y < 0 {
		return
	}
	for x := 0; x < r.cols; x++ {
		ch := ' '
		if x < len(msg) {
			ch = rune(msg[x])
		}
		frame[y][x] = frameCell{ch: ch, sgr: reverseVideo}
	}
}
