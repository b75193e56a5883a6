package input

// Action is invoked with whatever static argument was bound to the key,
// e.g. "c"/"C" for create's split direction, "j"/"k"/"h"/"l" for mov, or a
// literal escape string to send for a code key. Grounded on
// original_source/smtx-main.c's unified `void act(struct canvas*, const
// char*)` signature: every handler takes an arg whether it uses it or not,
// so the binding table can stay one flat shape instead of bindings.c's
// tagged union of Action vs VoidAction.
type Action func(arg string)

// Handler pairs an Action with its bound argument, the Go port of
// original_source/smtx.h's `struct handler`.
type Handler struct {
	Act     Action
	Arg     string
	IsDigit bool // true only for the '0'-'9' handlers; see Dispatcher.Handle
}

// Mode selects which of the two 128-entry rune tables is active, mirroring
// smtx-main.c's `binding` pointer swapping between &keys and &cmd_keys.
type Mode int

const (
	ModeKeys Mode = iota
	ModeCommand
)

// Dispatcher holds the three binding tables plus the numeric-prefix and
// mode state that used to live in smtx-main.c's S struct (cmd_count,
// binding). One Dispatcher is built at startup from app-level action
// closures and then driven from the main event loop.
type Dispatcher struct {
	Keys     [128]Handler
	CmdKeys  [128]Handler
	CodeKeys map[Code]Handler

	Mode  Mode
	Count int // -1 sentinel: no numeric prefix typed yet, matches cmd_count==-1
}

// NewDispatcher returns a Dispatcher with empty tables and Count reset to
// its no-prefix sentinel. Callers populate Keys/CmdKeys/CodeKeys (normally
// internal/app's BuildBindings).
func NewDispatcher() *Dispatcher {
	return &Dispatcher{CodeKeys: make(map[Code]Handler), Count: -1}
}

// Bind installs h at rune k in the table selected by mode, the Go analogue
// of add_key(). k must be an ASCII byte (0-127); binding tables only ever
// cover that range per original_source/smtx.h's `struct handler keys[128]`.
func (d *Dispatcher) Bind(mode Mode, k byte, act Action, arg string) {
	h := Handler{Act: act, Arg: arg}
	if mode == ModeCommand {
		d.CmdKeys[k] = h
	} else {
		d.Keys[k] = h
	}
}

// BindDigit installs the digit accumulator action at k ('0'-'9') in
// command mode, marked IsDigit so Handle() knows not to reset Count after
// running it.
func (d *Dispatcher) BindDigit(k byte, act Action, arg string) {
	d.CmdKeys[k] = Handler{Act: act, Arg: arg, IsDigit: true}
}

// BindCode installs h for a decoded special key in the code_keys table.
func (d *Dispatcher) BindCode(c Code, act Action, arg string) {
	d.CodeKeys[c] = Handler{Act: act, Arg: arg}
}

// Handle looks up ev's handler and runs it, matching handlechar(): a rune
// event is dispatched through whichever of Keys/CmdKeys is active; a code
// event always goes through CodeKeys regardless of mode (code_keys has no
// command-mode counterpart in original_source either). The numeric prefix
// resets to its sentinel after every action except digit, so "3c" only
// applies to the create that follows it.
func (d *Dispatcher) Handle(ev Event, passthru func(Event)) {
	var h Handler
	found := false

	if ev.IsCode {
		if ev.Code != CodeNone {
			h, found = d.CodeKeys[ev.Code]
		}
	} else if ev.Rune >= 0 && ev.Rune < 128 {
		if d.Mode == ModeCommand {
			h = d.CmdKeys[ev.Rune]
		} else {
			h = d.Keys[ev.Rune]
		}
		found = h.Act != nil
	}

	if found && h.Act != nil {
		h.Act(h.Arg)
		if !h.IsDigit {
			d.Count = -1
		}
		return
	}

	if passthru != nil {
		passthru(ev)
	}
	d.Count = -1
}

// Digit accumulates a numeric prefix the way original_source/action.c's
// digit() does: base-10, starting over from 0 whenever Count is at its
// no-prefix sentinel.
func (d *Dispatcher) Digit(arg string) {
	base := d.Count
	if base < 0 {
		base = 0
	}
	d.Count = 10*base + int(arg[0]-'0')
}

// CountOrDefault returns the typed numeric prefix, or def if none was
// typed (Count still at its -1 sentinel) -- the `S.count == -1 ? x : S.count`
// pattern repeated throughout action.c (attach, new_tabstop, quit...).
func (d *Dispatcher) CountOrDefault(def int) int {
	if d.Count < 0 {
		return def
	}
	return d.Count
}

// CountOrAtLeastOne is the `cmd_count < 1 ? 1 : cmd_count` pattern mov(),
// resize(), and create() all use for a repeat count that must be positive.
func (d *Dispatcher) CountOrAtLeastOne() int {
	if d.Count < 1 {
		return 1
	}
	return d.Count
}

// Transition toggles between the ordinary and command binding tables,
// matching transition()'s swap of the `binding` pointer between &keys and
// &cmd_keys.
func (d *Dispatcher) Transition() {
	if d.Mode == ModeKeys {
		d.Mode = ModeCommand
	} else {
		d.Mode = ModeKeys
	}
}
