// Package term implements the virtual screen and VT opcode dispatcher: the
// Go port of original_source/handler.c's `tput` switch plus the screen/cell
// model from original_source/smtx.h, driven by events from
// smtx/internal/vtparser.
package term

import (
	"strconv"
	"strings"

	"smtx/internal/vtparser"
)

// Emulator owns a pty's primary and alternate screens, its tab stops, and
// the modes that are pty-wide rather than per-screen (DECOM, DECAWM, LNM,
// numeric keypad), and dispatches parser events against whichever screen is
// currently active. One Emulator per pty, matching original_source/smtx.h's
// `struct pty` embedding two `struct screen`.
type Emulator struct {
	Primary *Screen
	Alt     *Screen
	active  *Screen

	Tabs    []bool
	Tabstop int

	Decom  bool
	Decawm bool
	Lnm    bool
	Pnm    bool

	// Title is the pty's status line, set by OSC 0/1/2, the Go analogue
	// of handler.c's handle_osc writing into p->status.
	Title string

	// Write sends bytes back to the pty's master fd (used for DA/DSR-style
	// acknowledgements, e.g. ack/CSI 6n), mirroring handler.c's
	// rewrite(p->fd, ...) calls.
	Write func([]byte)

	// Bell is invoked on BEL (0x07), the Go analogue of curses' beep().
	Bell func()
}

// NewEmulator builds an emulator for a pty of the given size, with the
// requested scrollback depth on the primary screen only -- the alternate
// screen never keeps scrollback, matching full-screen apps' expectation
// that switching back to the primary buffer restores exactly what was
// there.
func NewEmulator(rows, cols, scrollback, tabstop int) *Emulator {
	e := &Emulator{
		Primary: NewScreen(rows, cols, scrollback),
		Alt:     NewScreen(rows, cols, 0),
		Decawm:  true,
		Pnm:     true,
		Tabstop: tabstop,
	}
	e.active = e.Primary
	e.resetTabs(cols)
	return e
}

func (e *Emulator) resetTabs(cols int) {
	e.Tabs = make([]bool, cols)
	for i := 0; i < cols; i += e.Tabstop {
		e.Tabs[i] = true
	}
}

// Screen returns the currently active buffer (primary or alternate).
func (e *Emulator) Screen() *Screen { return e.active }

// Handle processes one parser event. It is meant to be passed directly as a
// vtparser.Handler (possibly wrapped to also feed an optional plain-text
// history writer).
func (e *Emulator) Handle(kind vtparser.EventKind, final, inter rune, argv []int, osc []rune) {
	switch kind {
	case vtparser.Control:
		e.control(final)
	case vtparser.Escape:
		e.escape(final, inter)
	case vtparser.CSI:
		e.csi(final, inter, argv)
	case vtparser.OSC:
		e.osc(osc)
	case vtparser.Print:
		e.printRune(final)
	}
	e.active.ClampCursor()
}

// arg0 returns argv[0], or def when argv is empty or argv[0] is 0. Callers
// use def 0 and def 1 to get the two halves of handler.c's `int p0[] =
// {argc ? *arg : 0, argc ? *arg : 1}` pair.
func arg0(argv []int, def int) int {
	if len(argv) == 0 || argv[0] == 0 {
		return def
	}
	return argv[0]
}

func argAt(argv []int, i, def int) int {
	if i >= len(argv) {
		return def
	}
	return argv[i]
}

func (e *Emulator) control(w rune) {
	s := e.active
	switch w {
	case 0x05: // ENQ
		if e.Write != nil {
			e.Write([]byte{0x06})
		}
	case 0x07: // BEL
		if e.Bell != nil {
			e.Bell()
		}
	case 0x08: // BS
		s.Cursor.Xenl = false
		s.Cursor.X -= 1
	case 0x09: // TAB
		e.advanceTab(1)
	case 0x0a, 0x0b, 0x0c: // LF, VT, FF
		e.newline(e.Lnm)
	case 0x0d: // CR
		s.Cursor.Xenl = false
		s.Cursor.X = 0
	case 0x0e: // SO -- invoke G1
		s.gcIndex, s.gsIndex = 1, 1
	case 0x0f: // SI -- invoke G0
		s.gcIndex, s.gsIndex = 0, 0
	}
}

func (e *Emulator) escape(final, inter rune) {
	s := e.active
	switch {
	case inter == '(' || inter == ')' || inter == '*' || inter == '+':
		if cs, ok := bySCSFinal(final); ok {
			idx := map[rune]int{'(': 0, ')': 1, '*': 2, '+': 3}[inter]
			s.G[idx] = cs
		}
		return
	case inter == '#':
		if final == '8' { // DECALN
			e.fillE()
		}
		return
	}
	switch final {
	case '7': // DECSC
		e.saveCursor()
	case '8': // DECRC
		e.restoreCursor()
	case 'D': // IND
		e.newline(false)
	case 'E': // NEL
		e.newline(true)
	case 'H': // HTS
		if s.Cursor.X >= 0 && s.Cursor.X < len(e.Tabs) {
			e.Tabs[s.Cursor.X] = true
		}
	case 'M': // RI
		e.reverseIndex()
	case 'N', 'O', '}', '|': // SS2/SS3/LS2R/LS3R
		s.gcIndex = s.gcIndex // no distinct G2/G3 invocation modeled; no-op beyond SCS
	case 'c': // RIS
		e.fullReset()
	case 'p': // DECSET/DECRST 6 (origin-style legacy "vis" escape)
	case '=': // DECKPAM
		e.Pnm = true
	case '>': // DECKPNM
		e.Pnm = false
	}
}

func (e *Emulator) csi(final, inter rune, argv []int) {
	s := e.active
	p0 := arg0(argv, 0)
	p1 := arg0(argv, 1)
	tos := s.Tos
	y := s.Cursor.Y - tos
	bot := s.Scroll.Bot - tos + 1
	top := s.Scroll.Top - tos
	if top < 0 {
		top = 0
	}
	dtop := tos
	if e.Decom {
		dtop += top
	}
	_ = y

	switch final {
	case 'A': // CUU
		s.Cursor.Y -= p1
	case 'B': // CUD
		s.Cursor.Y += p1
	case 'C': // CUF
		s.Cursor.X += p1
	case 'D': // CUB
		s.Cursor.Xenl = false
		s.Cursor.X -= p1
	case 'E': // CNL
		s.Cursor.Y = min(tos+bot-1, s.Cursor.Y+p1)
		s.Cursor.X = 0
	case 'F': // CPL
		s.Cursor.Y = max(tos+top, s.Cursor.Y-p1)
		s.Cursor.X = 0
	case 'G', '`': // HPA
		s.Cursor.X = p1 - 1
	case 'H', 'f': // CUP / HVP
		s.Cursor.Xenl = false
		s.Cursor.Y = dtop + p0 - 1
		s.Cursor.X = argAt(argv, 1, 1) - 1
	case 'I': // CHT
		e.advanceTab(p1)
	case 'J': // ED
		e.eraseDisplay(p0)
	case 'K': // EL
		e.eraseLine(p0)
	case 'L': // IL
		e.insertDeleteLines(p1, true)
	case 'M': // DL
		e.insertDeleteLines(p1, false)
	case 'P': // DCH
		e.deleteChars(p1)
	case 'S': // SU (scroll up)
		s.ScrollUp(s.Scroll.Top, s.Scroll.Bot, p1)
	case 'T', '^': // SD (scroll down)
		s.ScrollDown(s.Scroll.Top, s.Scroll.Bot, p1)
	case 'X': // ECH
		e.eraseChars(p1)
	case 'Z': // CBT
		e.advanceTab(-p1)
	case '@': // ICH
		e.insertChars(p1)
	case 'a': // HPR
		s.Cursor.X += p1
	case 'b': // REP
		if RuneWidth(s.RepeatChar) > 0 {
			for i := 0; i < p1; i++ {
				e.printRune(s.RepeatChar)
			}
		}
	case 'd': // VPA
		s.Cursor.Y = max(tos+top, tos+p1-1)
	case 'e': // VPR
		s.Cursor.Y = max(tos+top, p1+s.Cursor.Y)
	case 'g': // TBC
		switch p0 {
		case 0:
			if s.Cursor.X >= 0 && s.Cursor.X < len(e.Tabs) {
				e.Tabs[s.Cursor.X] = false
			}
		case 3:
			for i := range e.Tabs {
				e.Tabs[i] = false
			}
		}
	case 'h', 'l': // SM / RM
		e.mode(argv, final == 'h')
	case 'm': // SGR
		e.sgr(argv)
	case 'r': // DECSTBM
		bot2 := argAt(argv, 1, s.Rows)
		s.Scroll.Top = tos + p0 - 1
		s.Scroll.Bot = tos + bot2 - 1
		s.Cursor.Y = dtop
		s.Cursor.X = 0
		s.Cursor.Xenl = false
	case 's': // SC
		e.saveCursor()
	case 'u': // RC
		if inter == '#' {
			e.fillE()
		}
		e.restoreCursor()
	case 'n': // DSR
		if p0 == 6 && e.Write != nil {
			resp := []byte("\x1b[" + itoa(s.Cursor.Y-tos+1) + ";" + itoa(s.Cursor.X+1) + "R")
			e.Write(resp)
		}
	}
}

func itoa(n int) string { return strconv.Itoa(n) }

func (e *Emulator) fillE() {
	s := e.active
	for r := 0; r < s.Rows; r++ {
		row := s.row(s.Tos + r)
		for c := 0; c < s.Cols && c < len(row); c++ {
			row[c] = Cell{Ch: 'E', Width: 1, Fg: s.Fg, Bg: s.Bg}
		}
	}
}

func (e *Emulator) mode(argv []int, set bool) {
	s := e.active
	tos := s.Tos
	top := s.Scroll.Top - tos
	if top < 0 {
		top = 0
	}
	dtop := tos
	if e.Decom {
		dtop += top
	}
	for _, a := range argv {
		switch a {
		case 1:
			e.Pnm = set
		case 4:
			s.Insert = set
		case 6:
			e.Decom = set
			s.Cursor.X = 0
			s.Cursor.Xenl = false
			s.Cursor.Y = dtop
		case 7:
			e.Decawm = set
		case 20:
			e.Lnm = set
		case 25:
			s.Visible = set
		case 47, 1047:
			e.swapScreen(set)
		case 1048:
			if set {
				e.saveCursor()
			} else {
				e.restoreCursor()
			}
		case 1049:
			// Cursor save/restore is tied to the primary screen across an
			// alt-screen toggle: save before switching away from it, and
			// restore only after switching back to it.
			if set {
				e.saveCursor()
				e.swapScreen(true)
			} else {
				e.swapScreen(false)
				e.restoreCursor()
			}
		}
	}
}

func (e *Emulator) swapScreen(toAlt bool) {
	target := e.Primary
	if toAlt {
		target = e.Alt
	}
	if toAlt && e.active == e.Primary {
		target.Cursor = Cursor{}
		for i := range target.Grid {
			target.Grid[i] = target.blankRow()
		}
	}
	e.active = target
}

var colorTable = [8]int{0, 1, 2, 3, 4, 5, 6, 7}

func (e *Emulator) sgr(argv []int) {
	s := e.active
	if len(argv) == 0 {
		e.resetSGR()
		return
	}
	for i := 0; i < len(argv); i++ {
		a := argv[i]
		switch {
		case a == 0:
			e.resetSGR()
		case a >= 1 && a <= 5, a == 7, a == 8:
			s.Attrs |= sgrAttr(a)
		case a == 22:
			s.Attrs &^= AttrBold | AttrDim
		case a == 23:
			s.Attrs &^= AttrItalic
		case a == 24:
			s.Attrs &^= AttrUnderline
		case a == 25:
			s.Attrs &^= AttrBlink
		case a == 27:
			s.Attrs &^= AttrReverse
		case a >= 30 && a <= 37:
			s.Fg = colorTable[a-30]
		case a >= 40 && a <= 47:
			s.Bg = colorTable[a-40]
		case a == 38 || a == 48:
			if i+2 < len(argv) && argv[i+1] == 5 {
				if a == 38 {
					s.Fg = argv[i+2]
				} else {
					s.Bg = argv[i+2]
				}
			}
			i += 2
		case a == 39:
			s.Fg = DefaultColor
		case a == 49:
			s.Bg = DefaultColor
		case a >= 90 && a <= 97:
			s.Fg = 8 + (a - 90)
		case a >= 100 && a <= 107:
			s.Bg = 8 + (a - 100)
		}
	}
}

func sgrAttr(a int) Attr {
	switch a {
	case 1:
		return AttrBold
	case 2:
		return AttrDim
	case 3:
		return AttrItalic
	case 4:
		return AttrUnderline
	case 5:
		return AttrBlink
	case 7:
		return AttrReverse
	case 8:
		return AttrInvisible
	}
	return 0
}

func (e *Emulator) resetSGR() {
	s := e.active
	s.Fg, s.Bg = DefaultColor, DefaultColor
	s.Attrs = 0
}

func (e *Emulator) saveCursor() {
	s := e.active
	s.Saved = SavedCursor{
		Valid: true, Cursor: s.Cursor, Fg: s.Fg, Bg: s.Bg,
		Attrs: s.Attrs, G: s.G, GCIndex: s.gcIndex, GSIndex: s.gsIndex,
	}
}

func (e *Emulator) restoreCursor() {
	s := e.active
	if !s.Saved.Valid {
		return
	}
	s.Cursor = s.Saved.Cursor
	s.Fg, s.Bg, s.Attrs = s.Saved.Fg, s.Saved.Bg, s.Saved.Attrs
	s.G = s.Saved.G
	s.gcIndex, s.gsIndex = s.Saved.GCIndex, s.Saved.GSIndex
}

func (e *Emulator) reverseIndex() {
	s := e.active
	tos := s.Tos
	top := s.Scroll.Top - tos
	if top < 0 {
		top = 0
	}
	if s.Cursor.Y-tos == top {
		t := s.Scroll.Top
		if t < tos {
			t = tos
		}
		s.ScrollDown(t, s.Scroll.Bot, 1)
	} else {
		s.Cursor.Y = max(tos, s.Cursor.Y-1)
	}
}

func (e *Emulator) newline(cr bool) {
	s := e.active
	if cr {
		s.Cursor.Xenl = false
		s.Cursor.X = 0
	}
	if s.Cursor.Y == s.Scroll.Bot {
		s.ScrollUp(s.Scroll.Top, s.Scroll.Bot, 1)
	} else {
		s.Cursor.Y++
	}
}

func (e *Emulator) advanceTab(count int) {
	s := e.active
	dir := 1
	if count < 0 {
		dir = -1
		count = -count
	}
	for ; count > 0; count-- {
		s.Cursor.X += dir
		for s.Cursor.X > 0 && s.Cursor.X < len(e.Tabs)-1 && !e.Tabs[s.Cursor.X] {
			s.Cursor.X += dir
		}
	}
}

func (e *Emulator) eraseDisplay(mode int) {
	s := e.active
	tos := s.Tos
	switch mode {
	case 0:
		e.clearLineFrom(s.Cursor.Y, s.Cursor.X, s.Cols)
		e.clearRows(s.Cursor.Y+1, tos+s.Rows-1)
	case 1:
		for i := tos; i < s.Cursor.Y; i++ {
			e.clearLineFrom(i, 0, s.Cols)
		}
		e.clearLineFrom(s.Cursor.Y, 0, s.Cursor.X+1)
	case 2, 3:
		e.clearRows(tos, tos+s.Rows-1)
	}
}

func (e *Emulator) eraseLine(mode int) {
	s := e.active
	switch mode {
	case 0:
		e.clearLineFrom(s.Cursor.Y, s.Cursor.X, s.Cols)
	case 1:
		e.clearLineFrom(s.Cursor.Y, 0, s.Cursor.X+1)
	case 2:
		e.clearLineFrom(s.Cursor.Y, 0, s.Cols)
	}
}

func (e *Emulator) clearLineFrom(y, from, to int) {
	s := e.active
	row := s.row(y)
	blank := Blank(s.Fg, s.Bg, 0)
	for c := from; c < to && c < len(row); c++ {
		row[c] = blank
	}
}

func (e *Emulator) clearRows(from, to int) {
	for y := from; y <= to; y++ {
		e.clearLineFrom(y, 0, e.active.Cols)
	}
}

func (e *Emulator) insertDeleteLines(n int, insert bool) {
	s := e.active
	if n <= 0 {
		return
	}
	if insert {
		s.ScrollDown(s.Cursor.Y, s.Scroll.Bot, n)
	} else {
		s.ScrollUp(s.Cursor.Y, s.Scroll.Bot, n)
	}
	s.Cursor.X = 0
}

func (e *Emulator) insertChars(n int) {
	s := e.active
	row := s.row(s.Cursor.Y)
	blank := Blank(s.Fg, s.Bg, 0)
	for i := 0; i < n; i++ {
		if len(row) == 0 {
			break
		}
		copy(row[s.Cursor.X+1:], row[s.Cursor.X:len(row)-1])
		if s.Cursor.X < len(row) {
			row[s.Cursor.X] = blank
		}
	}
}

func (e *Emulator) deleteChars(n int) {
	s := e.active
	row := s.row(s.Cursor.Y)
	blank := Blank(s.Fg, s.Bg, 0)
	for i := 0; i < n; i++ {
		if len(row) == 0 {
			break
		}
		copy(row[s.Cursor.X:], row[s.Cursor.X+1:])
		row[len(row)-1] = blank
	}
}

func (e *Emulator) eraseChars(n int) {
	s := e.active
	row := s.row(s.Cursor.Y)
	blank := Blank(s.Fg, s.Bg, 0)
	for i := 0; i < n && s.Cursor.X+i < len(row); i++ {
		row[s.Cursor.X+i] = blank
	}
}

func (e *Emulator) printRune(w rune) {
	s := e.active
	s.RepeatChar = w
	if s.Insert {
		e.insertChars(1)
	}
	if s.Cursor.Xenl && e.Decawm {
		e.newline(true)
	}
	s.Cursor.Xenl = false
	w = s.GC().Translate(w)
	row := s.row(s.Cursor.Y)
	if IsCombining(w) {
		// Combining mark: merge onto the previous printed cell instead of
		// consuming a new column.
		if s.Cursor.X > 0 && s.Cursor.X-1 < len(row) {
			row[s.Cursor.X-1].Ch = w
		}
		s.gcIndex = s.gsIndex
		return
	}
	width := RuneWidth(w)
	if s.Cursor.X == s.Cols-width {
		s.Cursor.Xenl = true
	}
	x := s.Cursor.X
	if x >= 0 && x < len(row) {
		row[x] = Cell{Ch: w, Width: width, Fg: s.Fg, Bg: s.Bg, Attrs: s.Attrs}
		for k := 1; k < width && x+k < len(row); k++ {
			row[x+k] = Cell{Continuation: true, Width: 0, Fg: s.Fg, Bg: s.Bg, Attrs: s.Attrs}
		}
	}
	if !s.Cursor.Xenl {
		s.Cursor.X += width
	}
	s.gcIndex = s.gsIndex
}

func (e *Emulator) fullReset() {
	rows, cols := e.active.Rows, e.active.Cols
	scrollback := len(e.Primary.Grid) - e.Primary.Rows
	e.Primary = NewScreen(rows, cols, scrollback)
	e.Alt = NewScreen(rows, cols, 0)
	e.active = e.Primary
	e.Decom = false
	e.Decawm = true
	e.Lnm = false
	e.Pnm = true
	e.resetTabs(cols)
}

// osc handles an OSC payload, dispatching on the leading `<n>;` command
// number per handler.c's handle_osc. OSC 0/1/2 set the status/title string;
// every other command, including OSC 60/62, is ignored.
func (e *Emulator) osc(payload []rune) {
	s := string(payload)
	idx := strings.IndexByte(s, ';')
	numPart := s
	rest := ""
	if idx >= 0 {
		numPart = s[:idx]
		rest = s[idx+1:]
	}
	cmd, err := strconv.Atoi(numPart)
	if err != nil {
		return
	}
	switch cmd {
	case 0, 1, 2:
		e.Title = rest
	}
}
