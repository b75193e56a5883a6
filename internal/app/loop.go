package app

import (
	"os"
	"os/signal"
	"syscall"

	"smtx/internal/canvas"
	"smtx/internal/input"
	"smtx/internal/ptyproc"
	"smtx/internal/render"
)

// Run drives the event loop: decode stdin into events, repaint whenever a
// pty produces output or the terminal is resized, and exit once the tree
// is empty or a fatal read error occurs. This replaces smtx-main.c's
// single-threaded main_loop/select(2) pair with one goroutine per input
// source feeding a shared channel, grounded on internal/session/session.go's
// chan-struct{}-plus-select idiom -- but section 5's ordering guarantee
// ("keyboard input is always processed before PTY reads in the same loop
// iteration") is preserved by giving the keyboard channel priority in the
// select below rather than leaving Go's random case choice to decide.
func Run(a *App, r *render.Renderer, in *os.File) error {
	redraw := make(chan struct{}, 1)
	a.redrawCh = redraw
	kbd := make(chan input.Event, 64)
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	defer signal.Stop(winch)

	readErr := make(chan error, 1)
	go readKeyboard(in, kbd, readErr)

	for _, p := range a.Ptys {
		a.watchPty(p)
	}

	a.flush(r)
	for !a.Quit {
		// Drain any already-buffered keystroke before considering any other
		// source, so a burst of typed input never waits behind a pty redraw
		// that became ready in the same instant.
		select {
		case ev := <-kbd:
			a.onKeyboard(ev, r)
			continue
		default:
		}

		select {
		case ev := <-kbd:
			a.onKeyboard(ev, r)
		case <-winch:
			a.onResize(r)
		case <-redraw:
			drainRedraw(redraw)
			a.Mu.Lock()
			a.reapExited()
			a.Mu.Unlock()
			a.flush(r)
		case err := <-readErr:
			a.Quit = true
			return err
		}
	}
	return nil
}

func (a *App) onKeyboard(ev input.Event, r *render.Renderer) {
	a.Mu.Lock()
	a.handleEvent(ev, r)
	a.reapExited()
	a.maybeReshape()
	a.Mu.Unlock()
	a.flush(r)
}

func (a *App) onResize(r *render.Renderer) {
	a.Mu.Lock()
	rows, cols, err := render.Size(os.Stdout)
	if err == nil {
		a.Rows, a.Cols = rows, cols
		r.Resize(rows, cols)
		canvas.ReshapeRoot(a.Tree, rows, cols, a.onPtyReshape)
	}
	a.Mu.Unlock()
	a.flush(r)
}

// handleEvent dispatches one decoded keyboard event through the binding
// table, the Go analogue of handlechar()'s single call into the active
// binding's action. The fallback for an unbound rune depends on which table
// missed: Keys (passthrough mode) falls through to send(), matching k1's
// default; CmdKeys (command mode) has no such default anywhere in ctl's 128
// entries -- bad_key()'s beep() is what every one of those unbound slots
// calls, so a rune left unhandled after the command prefix rings the bell
// on the real terminal instead of reaching the child.
func (a *App) handleEvent(ev input.Event, r *render.Renderer) {
	a.Disp.Handle(ev, func(ev input.Event) {
		if ev.IsCode {
			return
		}
		if a.Disp.Mode == input.ModeCommand {
			r.Out.Write([]byte("\a"))
			return
		}
		a.send(string(ev.Rune))
	})
}

// maybeReshape re-lays-out the tree once per loop iteration if an action
// flagged it dirty (create/prune/resize/equalize/set_view_count), mirroring
// main_loop's single reshape_root(NULL) call guarded by a dirty flag rather
// than reshaping unconditionally on every keystroke.
func (a *App) maybeReshape() {
	if !a.Reshape {
		return
	}
	a.Reshape = false
	canvas.ReshapeRoot(a.Tree, a.Rows, a.Cols, a.onPtyReshape)
}

// reapExited prunes any canvas whose pty has exited, the Go port of
// wait_child()'s pass over all procs called once per loop iteration; a
// canvas marked NoPrune surfaces the exit as a status message instead
// (the supplemented "monitor pane" behavior SPEC_FULL.md adds).
func (a *App) reapExited() {
	for _, p := range a.Ptys {
		if p.Exited || !p.Reap() {
			continue
		}
		n := findCanvas(a.Tree.Root, p.ID)
		if n == nil {
			continue
		}
		if n.NoPrune {
			n.Title = p.ExitStatus
			continue
		}
		a.removePty(p)
		next := canvas.Prune(a.Tree, n)
		if a.Tree.Focused == n {
			a.Tree.Focused = next
		}
		a.Reshape = true
		if a.Tree.Root == nil {
			a.Quit = true
		}
	}
}

func (a *App) flush(r *render.Renderer) {
	a.Mu.Lock()
	defer a.Mu.Unlock()
	r.Flush(a.Tree, a.Disp.Mode == input.ModeCommand, a.Err.Get())
}

// watchPty starts a goroutine pumping p's output into its emulator,
// signaling a.redrawCh after each chunk -- the per-pty equivalent of
// main_loop's FD_ISSET/read branch. Called once per pty at startup and
// again by create for every pty spawned after the loop is running.
func (a *App) watchPty(p *ptyproc.Pty) {
	go p.PipeOutput(func() {
		select {
		case a.redrawCh <- struct{}{}:
		default:
		}
	})
}

func drainRedraw(ch chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// readKeyboard decodes raw stdin bytes into input.Events and feeds them to
// out, the Go analogue of main_loop's read(STDIN_FILENO, ...) branch
// followed by a decode loop over the returned bytes.
func readKeyboard(in *os.File, out chan<- input.Event, errc chan<- error) {
	var dec input.Decoder
	buf := make([]byte, 4096)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			for _, ev := range dec.Decode(buf[:n]) {
				out <- ev
			}
		}
		if err != nil {
			errc <- err
			return
		}
	}
}
