package term

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Attr is a bitmask of SGR text attributes, mirroring handler.c's attrs[]
// table (A_BOLD, A_DIM, A_ITALIC, A_UNDERLINE, A_BLINK, A_REVERSE, A_INVIS).
type Attr uint16

const (
	AttrBold Attr = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
	AttrInvisible
)

// DefaultColor is the sentinel for "no color set" (ncurses' COLOR_PAIR(0) /
// SGR 39/49 default fg/bg), matching handler.c's reset_sgr using pair 0.
const DefaultColor = -1

// Cell is one attributed grid position: a single print-width unit. Wide
// (double-width) runes occupy two adjacent Cells, the second a zero-width
// continuation, matching the c.x += wcwidth(w) bookkeeping in print_char.
type Cell struct {
	Ch         rune
	Width      int
	Fg, Bg     int
	Attrs      Attr
	Continuation bool
}

// Blank returns the screen's current erase cell: a space carrying the
// active background/attributes, as written by handler.c's wbkgrndset calls
// in reset_sgr/ed/el.
func Blank(fg, bg int, attrs Attr) Cell {
	return Cell{Ch: ' ', Width: 1, Fg: fg, Bg: bg, Attrs: attrs}
}

// RuneWidth reports the terminal display width of w, the Go equivalent of
// handler.c's libc wcwidth() calls in print_char/rep. Combining marks and
// other zero-width runes report 0, matching the `wcwidth(w) > 0` guard that
// keeps handler.c from advancing the cursor or storing a repeat glyph for
// them.
func RuneWidth(w rune) int {
	return runewidth.RuneWidth(w)
}

// IsCombining reports whether w is a zero-width grapheme extender (a
// combining mark, variation selector, or similar) that should merge onto
// the previously printed cell rather than consume a new column. Uses
// uniseg's grapheme-cluster-aware width rather than RuneWidth's per-rune
// table, since the clusters that matter here (combining diacritics,
// variation selectors) are exactly what grapheme segmentation is for.
func IsCombining(w rune) bool {
	return uniseg.StringWidth(string(w)) == 0
}
