// Package vtparser implements the ANSI/VT100 byte-stream state machine
// described by Paul Flo Williams' DEC ANSI parser state chart
// (https://vt100.net/emu/dec_ansi_parser): a deterministic, pushdown-free
// classifier that turns a raw multibyte byte stream into print, control,
// escape, CSI and OSC events.
package vtparser

import "unicode/utf8"

const (
	maxParams = 16
	maxParam  = 9999
	maxOSC    = 100
)

// EventKind identifies which callback table handled an event.
type EventKind int

const (
	Control EventKind = iota
	Escape
	CSI
	OSC
	Print
)

// Handler is invoked once per completed event. final is the byte that
// terminated the sequence (or the printable rune for Print events).
// inter is the single collected intermediate byte, or 0. argv holds the
// numeric CSI parameters (nil for non-CSI events). osc holds the
// accumulated OSC payload as runes (nil otherwise).
type Handler func(kind EventKind, final rune, inter rune, argv []int, osc []rune)

type state struct {
	name  string
	entry func(*Parser)
	act   [128]action
}

type action struct {
	cb   func(*Parser, rune)
	next *state
}

// Parser is a single VT byte-stream state machine instance. It is not
// goroutine-safe; one Parser per PTY stream.
type Parser struct {
	cur *state

	inter int
	narg  int
	args  [maxParams]int
	osc   []rune

	// pending holds bytes of an incomplete multibyte sequence carried
	// across Write calls, mirroring the C implementation's persistent
	// mbstate_t.
	pending [utf8.UTFMax]byte
	nPend   int

	Handle Handler
}

// New returns a Parser ready to accept bytes. h is invoked for each
// completed event; it may be nil, in which case bytes are consumed but no
// events are reported.
func New(h Handler) *Parser {
	p := &Parser{Handle: h}
	p.cur = &ground
	return p
}

func (p *Parser) reset() {
	p.inter = 0
	p.narg = 0
	for i := range p.args {
		p.args[i] = 0
	}
	p.osc = p.osc[:0]
}

// Write feeds n bytes of PTY output into the parser. An incomplete
// trailing multibyte sequence is buffered and completed by the next call.
func (p *Parser) Write(b []byte) {
	if p.nPend > 0 {
		b = append(append([]byte{}, p.pending[:p.nPend]...), b...)
		p.nPend = 0
	}
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			if !utf8.FullRune(b) && len(b) < utf8.UTFMax {
				// Incomplete sequence at the end of the buffer: carry it.
				p.nPend = copy(p.pending[:], b)
				return
			}
			// Genuinely invalid: emit replacement, skip one byte.
			p.handleRune(utf8.RuneError)
			b = b[1:]
			continue
		}
		p.handleRune(r)
		b = b[size:]
	}
}

func (p *Parser) handleRune(w rune) {
	if w < 0 || w > 127 {
		// High runes only ever reach ground-state print or OSC string
		// collection; they never drive state transitions.
		switch p.cur {
		case &ground:
			p.emit(Print, w, 0, nil, nil)
		case &oscString:
			collectosc(p, w)
		}
		return
	}
	a := p.cur.act[w]
	if a.cb != nil {
		a.cb(p, w)
		if a.next != nil {
			p.cur = a.next
			if p.cur.entry != nil {
				p.cur.entry(p)
			}
		}
	}
}

func (p *Parser) emit(kind EventKind, final rune, inter rune, argv []int, osc []rune) {
	if p.Handle != nil {
		p.Handle(kind, final, inter, argv, osc)
	}
}

func ignore(*Parser, rune) {}

func collect(p *Parser, w rune) {
	if p.inter == 0 {
		p.inter = int(w)
	}
}

func collectosc(p *Parser, w rune) {
	if len(p.osc) < maxOSC {
		p.osc = append(p.osc, w)
	}
}

func param(p *Parser, w rune) {
	if p.narg == 0 {
		p.narg = 1
	}
	idx := p.narg - 1
	if w == ';' {
		if p.narg < maxParams {
			p.args[p.narg] = 0
			p.narg++
		}
		return
	}
	if p.narg <= maxParams && p.args[idx] < maxParam {
		p.args[idx] = p.args[idx]*10 + int(w-'0')
	}
}

func docontrol(p *Parser, w rune) {
	p.emit(Control, w, rune(p.inter), nil, nil)
}

func doescape(p *Parser, w rune) {
	p.emit(Escape, w, rune(p.inter), nil, nil)
}

func docsi(p *Parser, w rune) {
	argv := make([]int, p.narg)
	copy(argv, p.args[:p.narg])
	p.emit(CSI, w, rune(p.inter), argv, nil)
}

func doprint(p *Parser, w rune) {
	p.emit(Print, w, rune(p.inter), nil, nil)
}

func doosc(p *Parser, w rune) {
	osc := append([]rune(nil), p.osc...)
	p.emit(OSC, w, rune(p.inter), nil, osc)
}

func resetEntry(p *Parser) { p.reset() }

var (
	ground              state
	escape              state
	escapeIntermediate  state
	csiEntry            state
	csiIgnore           state
	csiParam            state
	csiIntermediate     state
	oscString           state
)

func initRange(s *state, lo, hi rune, cb func(*Parser, rune), next *state) {
	for b := lo; b <= hi; b++ {
		s.act[b] = action{cb, next}
	}
}

func initAction(s *state, idx rune, cb func(*Parser, rune), next *state) {
	s.act[idx] = action{cb, next}
}

func initCommon(s *state) {
	initAction(s, 0x00, ignore, nil)
	initAction(s, 0x7f, ignore, nil)
	initAction(s, 0x18, docontrol, &ground)
	initAction(s, 0x1a, docontrol, &ground)
	initAction(s, 0x1b, ignore, &escape)
	initRange(s, 0x01, 0x17, docontrol, nil)
	initAction(s, 0x19, docontrol, nil)
	initRange(s, 0x1c, 0x1f, docontrol, nil)
}

func init() {
	ground.name = "ground"
	initCommon(&ground)
	initRange(&ground, 0x20, 0x7f, doprint, nil)

	escape.name = "escape"
	escape.entry = resetEntry
	initCommon(&escape)
	initAction(&escape, 0x21, ignore, &oscString)
	initAction(&escape, 0x6b, ignore, &oscString)
	initAction(&escape, 0x5d, ignore, &oscString)
	initAction(&escape, 0x5e, ignore, &oscString)
	initAction(&escape, 0x50, ignore, &oscString)
	initAction(&escape, 0x5f, ignore, &oscString)
	initRange(&escape, 0x20, 0x2f, collect, &escapeIntermediate)
	initRange(&escape, 0x30, 0x4f, doescape, &ground)
	initRange(&escape, 0x51, 0x57, doescape, &ground)
	initRange(&escape, 0x60, 0x7e, doescape, &ground)
	initRange(&escape, 0x59, 0x5a, doescape, &ground)
	initAction(&escape, 0x5b, ignore, &csiEntry)
	initAction(&escape, 0x5c, doescape, &ground)

	escapeIntermediate.name = "escape-intermediate"
	initCommon(&escapeIntermediate)
	initRange(&escapeIntermediate, 0x20, 0x2f, collect, nil)
	initRange(&escapeIntermediate, 0x30, 0x7e, doescape, &ground)

	csiEntry.name = "csi-entry"
	csiEntry.entry = resetEntry
	initCommon(&csiEntry)
	initRange(&csiEntry, 0x20, 0x2f, collect, &csiIntermediate)
	initRange(&csiEntry, 0x30, 0x39, param, &csiParam)
	initAction(&csiEntry, 0x3a, ignore, &csiIgnore)
	initAction(&csiEntry, 0x3b, param, &csiParam)
	initRange(&csiEntry, 0x3c, 0x3f, collect, &csiParam)
	initRange(&csiEntry, 0x40, 0x7e, docsi, &ground)

	csiIgnore.name = "csi-ignore"
	initCommon(&csiIgnore)
	initRange(&csiIgnore, 0x20, 0x3f, ignore, nil)
	initRange(&csiIgnore, 0x40, 0x7e, ignore, &ground)

	csiParam.name = "csi-param"
	initCommon(&csiParam)
	initRange(&csiParam, 0x20, 0x2f, collect, &csiIntermediate)
	initRange(&csiParam, 0x30, 0x39, param, nil)
	initAction(&csiParam, 0x3a, ignore, &csiIgnore)
	initAction(&csiParam, 0x3b, param, nil)
	initRange(&csiParam, 0x3c, 0x3f, ignore, &csiIgnore)
	initRange(&csiParam, 0x40, 0x7e, docsi, &ground)

	csiIntermediate.name = "csi-intermediate"
	initCommon(&csiIntermediate)
	initRange(&csiIntermediate, 0x20, 0x2f, collect, nil)
	initRange(&csiIntermediate, 0x30, 0x3f, ignore, &csiIgnore)
	initRange(&csiIntermediate, 0x40, 0x7e, docsi, &ground)

	oscString.name = "osc-string"
	oscString.entry = resetEntry
	initCommon(&oscString)
	initAction(&oscString, 0x07, doosc, &ground)
	initRange(&oscString, 0x20, 0x7f, collectosc, nil)
}
