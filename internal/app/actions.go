package app

import (
	"syscall"

	"smtx/internal/canvas"
	"smtx/internal/input"
	"smtx/internal/ptyproc"
)

// BuildBindings wires a's action methods into a fresh Dispatcher, the Go
// port of build_bindings(): Keys only intercepts the command prefix, and
// everything else falls through to the focused pty; CmdKeys binds
// every section 6 command letter plus the digit accumulator; CodeKeys binds
// the special keys to their terminfo escape sequences.
func BuildBindings(a *App) *input.Dispatcher {
	d := input.NewDispatcher()

	d.Bind(input.ModeKeys, a.Opts.CommandKey, a.transition, "")

	d.Bind(input.ModeCommand, a.Opts.CommandKey, a.transition, "send")
	d.Bind(input.ModeCommand, '\r', a.transition, "")
	d.Bind(input.ModeCommand, 'c', a.create, "c")
	d.Bind(input.ModeCommand, 'C', a.create, "C")
	d.Bind(input.ModeCommand, 'j', a.mov, "j")
	d.Bind(input.ModeCommand, 'k', a.mov, "k")
	d.Bind(input.ModeCommand, 'h', a.mov, "h")
	d.Bind(input.ModeCommand, 'l', a.mov, "l")
	d.Bind(input.ModeCommand, 'J', a.resize, "J")
	d.Bind(input.ModeCommand, 'K', a.resize, "K")
	d.Bind(input.ModeCommand, 'H', a.resize, "H")
	d.Bind(input.ModeCommand, 'L', a.resize, "L")
	d.Bind(input.ModeCommand, '=', a.equalize, "")
	d.Bind(input.ModeCommand, '<', a.scrollH, "<")
	d.Bind(input.ModeCommand, '>', a.scrollH, ">")
	d.Bind(input.ModeCommand, 'b', a.scrollN, "b")
	d.Bind(input.ModeCommand, 'f', a.scrollN, "f")
	d.Bind(input.ModeCommand, 'x', a.prune, "")
	d.Bind(input.ModeCommand, 's', a.swap, "")
	d.Bind(input.ModeCommand, 'a', a.attach, "")
	d.Bind(input.ModeCommand, 't', a.newTabstop, "")
	d.Bind(input.ModeCommand, 'v', a.setViewDepth, "")
	d.Bind(input.ModeCommand, 'W', a.setWidth, "")
	d.Bind(input.ModeCommand, 'Z', a.setHistory, "")
	d.Bind(input.ModeCommand, 'q', a.quit, "")
	for c := byte('0'); c <= '9'; c++ {
		d.BindDigit(c, d.Digit, string(c))
	}

	d.BindCode(input.CodeResize, a.onResizeEvent, "")
	d.BindCode(input.CodeUp, a.send, "\033[A")
	d.BindCode(input.CodeDown, a.send, "\033[B")
	d.BindCode(input.CodeRight, a.send, "\033[C")
	d.BindCode(input.CodeLeft, a.send, "\033[D")
	d.BindCode(input.CodeHome, a.send, "\033[1~")
	d.BindCode(input.CodeEnd, a.send, "\033[4~")
	d.BindCode(input.CodePgUp, a.send, "\033[5~")
	d.BindCode(input.CodePgDn, a.send, "\033[6~")
	d.BindCode(input.CodeDelete, a.send, "\033[3~")
	d.BindCode(input.CodeInsert, a.send, "\033[2~")
	d.BindCode(input.CodeBackTab, a.send, "\033[Z")
	d.BindCode(input.CodeF1, a.send, "\033OP")
	d.BindCode(input.CodeF2, a.send, "\033OQ")
	d.BindCode(input.CodeF3, a.send, "\033OR")
	d.BindCode(input.CodeF4, a.send, "\033OS")
	d.BindCode(input.CodeF5, a.send, "\033[15~")
	d.BindCode(input.CodeF6, a.send, "\033[17~")
	d.BindCode(input.CodeF7, a.send, "\033[18~")
	d.BindCode(input.CodeF8, a.send, "\033[19~")
	d.BindCode(input.CodeF9, a.send, "\033[20~")
	d.BindCode(input.CodeF10, a.send, "\033[21~")
	d.BindCode(input.CodeF11, a.send, "\033[23~")
	d.BindCode(input.CodeF12, a.send, "\033[24~")

	return d
}

// send writes arg's bytes to the focused pty, the passthrough default
// handlechar() falls to when a key has no binding in the current table, and
// also the explicit action code_keys binds arrow/function keys to.
func (a *App) send(arg string) {
	f := a.Tree.Focused
	if f == nil || f.Pty == nil {
		return
	}
	if _, err := f.Pty.Write([]byte(arg)); err != nil {
		a.Err.Set(err, "write to pty %d", f.Pty.ID)
		return
	}
	canvas.ScrollBottom(f, f.Pty.Emu.Screen().Tos)
}

// transition implements transition(): toggling the dispatcher's mode,
// clearing any pending error, and scrolling the focused canvas to the
// bottom. When arg is "send" (the command key struck again while already in
// command mode) the literal key byte is written to the pty first, matching
// cmd_keys[ctl(commandKey)] being bound back to send() in the original
// table.
func (a *App) transition(arg string) {
	if arg == "send" {
		a.send(string(a.Opts.CommandKey))
	}
	a.Disp.Transition()
	a.Err.Clear()
	if f := a.Tree.Focused; f != nil && f.Pty != nil {
		canvas.ScrollBottom(f, f.Pty.Emu.Screen().Tos)
	}
}

// create splits the chain at the focused canvas, spawning one new shell pty
// per requested split. canvas.Create only threads a single pty through all
// `count` iterations, so each split is created with its own Create(..., 1,
// p) call here, exactly as newcanvas() in the original forks a fresh pty
// inside every iteration of create()'s own loop.
func (a *App) create(arg string) {
	dir := 0
	if arg == "C" {
		dir = 1
	}
	count := a.Disp.CountOrAtLeastOne()
	n := a.Tree.Focused
	var last *canvas.Canvas
	for i := 0; i < count; i++ {
		rows, cols := a.paneSize(n)
		p, err := a.spawnShell(rows, cols)
		if err != nil {
			a.Err.Set(err, "create pane")
			return
		}
		a.addPty(p)
		if a.redrawCh != nil {
			a.watchPty(p)
		}
		last = canvas.Create(n, a.Tree, dir, 1, p)
		last.Title = shellName()
		n = last
	}
	a.Reshape = true
	if last != nil {
		a.Tree.Focused = last
	}
}

// paneSize returns a reasonable initial size for a pane about to be created
// under n, falling back to the full terminal when n has no pty of its own
// yet (an internal node, or the very first pane).
func (a *App) paneSize(n *canvas.Canvas) (rows, cols int) {
	if n != nil && n.Pty != nil {
		return n.Extent.Y + 1, n.Extent.X
	}
	return a.Rows, a.Cols
}

// mov moves focus in the direction named by arg ('h'/'j'/'k'/'l'), the Go
// port of mov()'s action wrapper.
func (a *App) mov(arg string) {
	count := a.Disp.CountOrAtLeastOne()
	a.Tree.Focused = canvas.Mov(a.Tree.ViewRoot, a.Tree.Focused, arg[0], count)
}

// resize grows or shrinks the nearest ancestor split in the direction named
// by arg ('H'/'J'/'K'/'L').
func (a *App) resize(arg string) {
	count := a.Disp.CountOrAtLeastOne()
	canvas.Resize(a.Tree.Focused, arg[0], count)
	a.Reshape = true
}

// equalize rebalances the chain of same-typ ancestors of the focused
// canvas back to even fractions, the Go port of action.c's equalize()
// calling balance() on the focused node.
func (a *App) equalize(arg string) {
	canvas.Balance(a.Tree.Focused)
	a.Reshape = true
}

// scrollH scrolls the focused canvas's pad horizontally; arg is "<" or ">"
// for direction, matching scrollh()'s action wrapper.
func (a *App) scrollH(arg string) {
	f := a.Tree.Focused
	if f == nil || f.Pty == nil {
		return
	}
	count := a.Disp.CountOrDefault(-1)
	s := f.Pty.Emu.Screen()
	canvas.ScrollH(f, s.Cols, arg == ">", count)
}

// scrollN scrolls the focused canvas's pad vertically; arg is "b" (back,
// up) or "f" (forward, down), matching scrolln()'s action wrapper.
func (a *App) scrollN(arg string) {
	f := a.Tree.Focused
	if f == nil || f.Pty == nil {
		return
	}
	count := a.Disp.CountOrDefault(-1)
	s := f.Pty.Emu.Screen()
	canvas.ScrollN(f, s.Tos, arg == "f", count)
}

// prune removes the focused canvas from the tree, killing its pty, the Go
// port of action.c's prune() -- 'x' in command mode.
func (a *App) prune(arg string) {
	f := a.Tree.Focused
	if f == nil {
		return
	}
	if f.Pty != nil {
		a.killPty(f.Pty)
		a.removePty(f.Pty)
	}
	next := canvas.Prune(a.Tree, f)
	a.Tree.Focused = next
	a.Reshape = true
	if a.Tree.Root == nil {
		a.Quit = true
	}
}

// killPty signals and closes p, the Go port of free_proc's SIGHUP-via-
// close(p->pt)-then-free sequence: closing the pty master already delivers
// a hangup to the child's controlling terminal, so the explicit SIGHUP is
// belt and suspenders. Reaping happens in a background goroutine rather
// than wait_child()'s per-loop-iteration waitpid sweep, since ptyproc.Reap
// only polls ptys still tracked in a.Ptys -- once prune drops p from that
// list nothing would ever collect its exit status otherwise, leaving a
// zombie process behind.
func (a *App) killPty(p *ptyproc.Pty) {
	p.Signal(syscall.SIGHUP)
	p.Close()
	go p.Cmd.Wait()
}

// swap exchanges the focused canvas's pty with the one named by the typed
// numeric prefix, the Go port of swap() (`s<n>`).
func (a *App) swap(arg string) {
	id := a.Disp.CountOrDefault(-1)
	if id < 0 {
		a.Err.Set(nil, "swap requires an id")
		return
	}
	target := findCanvas(a.Tree.Root, id)
	if target == nil {
		a.Err.Set(nil, "no pty exists with id %d", id)
		return
	}
	canvas.Swap(a.Tree.Focused, target)
}

// attach moves the pty named by the typed numeric prefix into the focused
// canvas's slot by swapping it with the canvas currently showing it, so the
// focused canvas's previous pty moves to that canvas; nothing is killed. A
// pty that no canvas shows is left where it is. The Go port of action.c's
// attach() (`a<n>`).
func (a *App) attach(arg string) {
	id := a.Disp.CountOrDefault(-1)
	if id < 0 {
		a.Err.Set(nil, "attach requires an id")
		return
	}
	p := a.findPty(id)
	if p == nil {
		a.Err.Set(nil, "no pty exists with id %d", id)
		return
	}
	source := findCanvas(a.Tree.Root, id)
	if source == nil {
		return
	}
	canvas.Swap(a.Tree.Focused, source)
	a.Reshape = true
}

// newTabstop resets the focused pty's tab stops to every Nth column, N
// being the typed numeric prefix (default 8), the Go port of new_tabstop().
func (a *App) newTabstop(arg string) {
	f := a.Tree.Focused
	if f == nil || f.Pty == nil {
		return
	}
	n := a.Disp.CountOrDefault(8)
	if n < 1 {
		n = 1
	}
	e := f.Pty.Emu
	e.Tabstop = n
	for i := range e.Tabs {
		e.Tabs[i] = i%n == 0
	}
}

// setViewDepth caps how deep the tree is displayed (the "zoom" feature),
// the Go port of action.c's set_view_count() bound to 'v'. A typed prefix
// of 0 (or none) restores the unbounded display level.
func (a *App) setViewDepth(arg string) {
	n := a.Disp.CountOrDefault(0)
	if n <= 0 {
		a.Tree.DisplayLevel = canvas.UnboundedDisplayLevel
	} else {
		a.Tree.DisplayLevel = uint(n)
	}
	a.Reshape = true
}

// setWidth records the typed numeric prefix as Opts.Width, the Go port of
// set_width() bound to 'W'. Pty widths are taken from the pane extent when
// a pane is created or reshaped; Opts.Width does not change the width of
// any pty.
func (a *App) setWidth(arg string) {
	n := a.Disp.CountOrDefault(a.Opts.Width)
	if n < 1 {
		a.Err.Set(nil, "width must be positive")
		return
	}
	a.Opts.Width = n
}

// setHistory overrides the scrollback depth used for future panes, the Go
// port of set_history() bound to 'Z'. It does not retroactively resize
// existing ptys' scrollback buffers, matching the original's comment that
// history only takes effect for panes created after the change.
func (a *App) setHistory(arg string) {
	n := a.Disp.CountOrDefault(a.History)
	if n < 0 {
		a.Err.Set(nil, "history must be >= 0")
		return
	}
	a.History = n
}

// quit sends the typed numeric prefix as a signal (default SIGINT) to the
// focused pty's child, restricted to the same small set action.c's quit()
// allows; anything else is a per-operation failure recorded to the error
// buffer rather than a fatal error, matching "invalid signal for quit" in
// section 7's failure list. Bound to 'q', a letter section 6's table
// otherwise leaves unused.
func (a *App) quit(arg string) {
	f := a.Tree.Focused
	if f == nil || f.Pty == nil {
		return
	}
	sig := syscall.Signal(a.Disp.CountOrDefault(int(syscall.SIGINT)))
	switch sig {
	case syscall.SIGKILL, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGHUP, syscall.SIGUSR2, syscall.SIGINT:
		if err := f.Pty.Signal(sig); err != nil {
			a.Err.Set(err, "signal pty %d", f.Pty.ID)
		}
	default:
		a.Err.Set(nil, "invalid signal: %d", int(sig))
	}
}

// onResizeEvent re-derives the whole tree's layout from the current
// terminal size; it is the action bound to CodeResize. SIGWINCH itself is
// handled by Run's onResize, which does not go through this binding.
func (a *App) onResizeEvent(arg string) {
	canvas.ReshapeRoot(a.Tree, a.Rows, a.Cols, a.onPtyReshape)
}
