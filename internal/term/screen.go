package term

// Cursor is a screen's cursor position plus the pending-wrap flag, the Go
// analogue of original_source/smtx.h's embedded `struct screen` cursor
// fields (c.y, c.x, c.xenl).
type Cursor struct {
	Y, X int
	// Xenl is "xenl" in the original: the cursor sits one column past the
	// last printable column and the next printable character wraps first.
	Xenl bool
}

// ScrollRegion is the active DECSTBM top/bottom scroll margin, in absolute
// row coordinates (including scrollback).
type ScrollRegion struct {
	Top, Bot int
}

// SavedCursor captures the state restored by RC (ESC 8 / CSI u), matching
// save_cursor/restore_cursor in handler.c.
type SavedCursor struct {
	Valid      bool
	Cursor     Cursor
	Fg, Bg     int
	Attrs      Attr
	G          [4]Charset
	GCIndex    int
	GSIndex    int
}

// Screen is one of a pty's two buffers (primary or alternate), a cell grid
// with a scrollback pad and the cursor/attribute state that travels with it.
// Grounded on original_source/smtx.h's `struct screen` plus the subset of
// `struct pty` that is duplicated per-buffer there (repc, charsets, modes):
// this Go port keeps per-buffer state that belongs to the buffer and lifts
// pty-wide state (tab stops, line/column count) up to Pty.
type Screen struct {
	Rows, Cols int

	// Grid holds every row ever produced, Rows..Rows+scrollback deep.
	// Tos is the index of the row currently at the top of the visible
	// viewport, the Go analogue of ncurses' pad `tos` (top-of-screen).
	Grid []Row
	Tos  int
	MaxY int

	Cursor  Cursor
	Saved   SavedCursor
	Scroll  ScrollRegion
	Visible bool
	Insert  bool

	Fg, Bg int
	Attrs  Attr

	// G0-G3 designated charsets (SCS), GC the currently invoked set, GS
	// the set GC reverts to after each printed character. SO/SI set both.
	G       [4]Charset
	gcIndex int
	gsIndex int

	RepeatChar rune
}

// Row is one line of cells; it grows lazily to Cols width as cells are
// written, mirroring a curses pad line.
type Row []Cell

// NewScreen allocates a screen sized rows x cols with `scrollback` extra
// rows of history, all filled with the default blank cell.
func NewScreen(rows, cols, scrollback int) *Screen {
	s := &Screen{
		Rows: rows,
		Cols: cols,
		Fg:   DefaultColor,
		Bg:   DefaultColor,
	}
	s.G[0] = USASCII
	s.G[1] = Graphics
	s.G[2] = USASCII
	s.G[3] = Graphics
	s.gcIndex, s.gsIndex = 0, 0
	s.Visible = true
	s.Scroll = ScrollRegion{Top: 0, Bot: rows - 1}
	total := rows + scrollback
	if total < rows {
		total = rows
	}
	s.Grid = make([]Row, total)
	for i := range s.Grid {
		s.Grid[i] = s.blankRow()
	}
	return s
}

func (s *Screen) blankRow() Row {
	r := make(Row, s.Cols)
	for i := range r {
		r[i] = Blank(s.Fg, s.Bg, 0)
	}
	return r
}

// GC returns the currently invoked charset (G0-G3, after any shift).
func (s *Screen) GC() *Charset { return &s.G[s.gcIndex] }

// row returns the absolute row at grid index y, growing the grid if the
// cursor has scrolled past previously-allocated history -- mirroring the
// pad's lazy growth in ncurses.
func (s *Screen) row(y int) Row {
	if y < 0 {
		y = 0
	}
	if y >= len(s.Grid) {
		grow := make([]Row, y-len(s.Grid)+1)
		for i := range grow {
			grow[i] = s.blankRow()
		}
		s.Grid = append(s.Grid, grow...)
	}
	return s.Grid[y]
}

// ScrollUp shifts the scroll region [top,bot] up by n lines, discarding the
// top n and inserting n blank lines at the bottom -- the Go equivalent of
// ncurses' wscrl(win, n) called throughout handler.c (newline, ri, idl, su).
func (s *Screen) ScrollUp(top, bot, n int) {
	if n <= 0 || top > bot {
		return
	}
	for i := 0; i < n; i++ {
		copy(s.Grid[top:bot], s.Grid[top+1:bot+1])
		s.Grid[bot] = s.blankRow()
	}
}

// ScrollDown shifts the scroll region [top,bot] down by n lines (SD / `CSI T`
// and reverse-index `ri` at the top margin).
func (s *Screen) ScrollDown(top, bot, n int) {
	if n <= 0 || top > bot {
		return
	}
	for i := 0; i < n; i++ {
		copy(s.Grid[top+1:bot+1], s.Grid[top:bot])
		s.Grid[top] = s.blankRow()
	}
}

// ClampCursor enforces the same clamp handler.c applies at the end of every
// tput call: `c.x = MAX(0, MIN(c.x, cols-1)); c.y = MAX(0, MIN(c.y, tos+bot-1))`.
func (s *Screen) ClampCursor() {
	if s.Cursor.X < 0 {
		s.Cursor.X = 0
	}
	if s.Cursor.X > s.Cols-1 {
		s.Cursor.X = s.Cols - 1
	}
	if s.Cursor.Y < 0 {
		s.Cursor.Y = 0
	}
	if s.Cursor.Y > s.Scroll.Bot {
		s.Cursor.Y = s.Scroll.Bot
	}
	if s.Cursor.Y > s.MaxY {
		s.MaxY = s.Cursor.Y
	}
	newTos := s.MaxY - s.Rows + 1
	if newTos > s.Tos {
		s.Tos = newTos
	}
	if s.Tos < 0 {
		s.Tos = 0
	}
	s.row(s.Tos + s.Rows - 1)
}
