// Package input decodes raw keyboard bytes into events and dispatches them
// through the three binding tables original_source's bindings.c and
// smtx-main.c's build_bindings populate: one for ordinary passthrough keys,
// one for command-mode keys (active after the command prefix key), and one
// for the "special" keys a real terminal reports as multi-byte escape
// sequences -- ncurses' KEY_* codes, decoded here by hand since Go has no
// curses layer doing it for us.
package input

// Code identifies a decoded special key: an arrow, a function key, or one
// of the editing keys (Home/End/PageUp/PageDown/Delete/Insert/BackTab).
// The Go analogue of ncurses' KEY_* constants, restricted to the subset
// original_source/bindings.c's code_keys table actually binds.
type Code int

const (
	CodeNone Code = iota
	CodeUp
	CodeDown
	CodeRight
	CodeLeft
	CodeHome
	CodeEnd
	CodePgUp
	CodePgDn
	CodeDelete
	CodeInsert
	CodeBackTab
	CodeEnter
	CodeF1
	CodeF2
	CodeF3
	CodeF4
	CodeF5
	CodeF6
	CodeF7
	CodeF8
	CodeF9
	CodeF10
	CodeF11
	CodeF12
	// CodeResize is never produced by the decoder. The app binds it to its
	// resize action, but SIGWINCH itself is handled by the app's event loop
	// directly rather than through this code.
	CodeResize
)

// Event is one decoded unit of input: either a plain rune (an ordinary key,
// including control characters below 0x20) or a Code identifying a special
// key recognized from an escape sequence.
type Event struct {
	Rune   rune
	Code   Code
	IsCode bool
}

// Decoder turns a stream of raw terminal bytes into Events, carrying any
// incomplete escape sequence across calls to Decode the way
// internal/overlay/input.go's PassthroughEsc buffer carries a partial
// sequence across reads.
type Decoder struct {
	pending []byte
}

// Decode appends b to any carried-over bytes and extracts as many complete
// Events as possible and returns them. All of b is always taken in; any
// incomplete trailing sequence is retained internally rather than handed
// back to the caller.
func (d *Decoder) Decode(b []byte) []Event {
	d.pending = append(d.pending, b...)
	var events []Event
	for len(d.pending) > 0 {
		n, ev, ok := decodeOne(d.pending)
		if !ok {
			// Incomplete sequence (or incomplete UTF-8); wait for more bytes.
			// A lone trailing ESC likewise stays pending until the next call
			// supplies more input.
			break
		}
		events = append(events, ev)
		d.pending = d.pending[n:]
	}
	return events
}

// decodeOne decodes a single Event from the front of b, returning the
// number of bytes consumed. ok is false when b is a prefix of a longer
// sequence and the caller should wait for more input.
func decodeOne(b []byte) (int, Event, bool) {
	if b[0] != 0x1b {
		return decodeRune(b)
	}
	if len(b) == 1 {
		return 0, Event{}, false
	}
	switch b[1] {
	case 'O':
		if len(b) < 3 {
			return 0, Event{}, false
		}
		if code, ok := ss3Code(b[2]); ok {
			return 3, Event{Code: code, IsCode: true}, true
		}
		return 3, Event{Rune: 0x1b, IsCode: false}, true
	case '[':
		return decodeCSIKey(b)
	default:
		// A bare ESC followed by something that isn't a recognized
		// introducer: surface ESC itself and let the rest decode on the
		// next call.
		return 1, Event{Rune: 0x1b, IsCode: false}, true
	}
}

func ss3Code(final byte) (Code, bool) {
	switch final {
	case 'A':
		return CodeUp, true
	case 'B':
		return CodeDown, true
	case 'C':
		return CodeRight, true
	case 'D':
		return CodeLeft, true
	case 'H':
		return CodeHome, true
	case 'F':
		return CodeEnd, true
	case 'P':
		return CodeF1, true
	case 'Q':
		return CodeF2, true
	case 'R':
		return CodeF3, true
	case 'S':
		return CodeF4, true
	}
	return CodeNone, false
}

// decodeCSIKey decodes ESC [ ... for the cursor and editing keys, both the
// bare-letter form (ESC [ A) and the numbered tilde form (ESC [ n ~) xterm
// and screen both emit.
func decodeCSIKey(b []byte) (int, Event, bool) {
	i := 2
	for i < len(b) && b[i] >= 0x30 && b[i] <= 0x3f {
		i++
	}
	if i >= len(b) {
		return 0, Event{}, false
	}
	final := b[i]
	if final != '~' {
		// Any byte in 0x40-0x7e terminates the sequence; an unrecognized
		// final still needs to be consumed so the decoder doesn't stall
		// waiting for bytes that will never arrive.
		code, _ := csiLetterCode(final)
		return i + 1, Event{Code: code, IsCode: true}, true
	}
	num := string(b[2:i])
	code, _ := csiTildeCode(num)
	return i + 1, Event{Code: code, IsCode: true}, true
}

func csiLetterCode(final byte) (Code, bool) {
	switch final {
	case 'A':
		return CodeUp, true
	case 'B':
		return CodeDown, true
	case 'C':
		return CodeRight, true
	case 'D':
		return CodeLeft, true
	case 'H':
		return CodeHome, true
	case 'F':
		return CodeEnd, true
	case 'Z':
		return CodeBackTab, true
	}
	return CodeNone, false
}

func csiTildeCode(num string) (Code, bool) {
	switch num {
	case "1":
		return CodeHome, true
	case "2":
		return CodeInsert, true
	case "3":
		return CodeDelete, true
	case "4":
		return CodeEnd, true
	case "5":
		return CodePgUp, true
	case "6":
		return CodePgDn, true
	case "15":
		return CodeF5, true
	case "17":
		return CodeF6, true
	case "18":
		return CodeF7, true
	case "19":
		return CodeF8, true
	case "20":
		return CodeF9, true
	case "21":
		return CodeF10, true
	case "23":
		return CodeF11, true
	case "24":
		return CodeF12, true
	}
	return CodeNone, false
}

// decodeRune decodes one UTF-8 rune (or a bare control byte) from the front
// of b. Carriage return is not turned into a Code: keypad Enter and the
// main Return key cannot be told apart on a real tty, so both surface as
// the '\r' rune and the key tables bind '\r' directly, as
// original_source's keys/cmd_keys do.
func decodeRune(b []byte) (int, Event, bool) {
	if b[0] < 0x80 {
		return 1, Event{Rune: rune(b[0])}, true
	}
	r, size := decodeUTF8(b)
	if size == 0 {
		return 0, Event{}, false
	}
	return size, Event{Rune: r}, true
}

// decodeUTF8 decodes one multi-byte rune from b, returning size 0 if b is a
// valid-so-far but incomplete prefix (the caller should wait for more
// bytes) rather than misreading a split multi-byte character as invalid.
func decodeUTF8(b []byte) (rune, int) {
	need := utf8SeqLen(b[0])
	if need == 0 {
		return 0xfffd, 1
	}
	if len(b) < need {
		return 0, 0
	}
	r := decodeRuneStrict(b[:need])
	return r, need
}

func utf8SeqLen(lead byte) int {
	switch {
	case lead&0xe0 == 0xc0:
		return 2
	case lead&0xf0 == 0xe0:
		return 3
	case lead&0xf8 == 0xf0:
		return 4
	}
	return 0
}

func decodeRuneStrict(b []byte) rune {
	var r rune
	switch len(b) {
	case 2:
		r = rune(b[0]&0x1f)<<6 | rune(b[1]&0x3f)
	case 3:
		r = rune(b[0]&0x0f)<<12 | rune(b[1]&0x3f)<<6 | rune(b[2]&0x3f)
	case 4:
		r = rune(b[0]&0x07)<<18 | rune(b[1]&0x3f)<<12 | rune(b[2]&0x3f)<<6 | rune(b[3]&0x3f)
	}
	return r
}
