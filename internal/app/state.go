// Package app ties together the canvas tree, the pty set, and the input
// dispatcher into the running multiplexer: the global state section 3
// describes, the action functions bound into the command table, and the
// event loop that drives them. Grounded on original_source/smtx-main.c's
// file-scope `struct S` and main_loop/handlechar, and action.c's action
// bodies, with internal/session/session.go's channel idiom replacing
// smtx-main.c's single-threaded select(2).
package app

import (
	"fmt"
	"os"
	"sync"

	"smtx/internal/canvas"
	"smtx/internal/config"
	"smtx/internal/errbuf"
	"smtx/internal/input"
	"smtx/internal/ptyproc"
)

// App consolidates the global state smtx-main.c keeps as file-scope
// globals (root, focused, view_root, display_level, cmd_count, binding,
// errmsg, the pty list) into one struct built at startup and closed over
// by every action, rather than package-level variables.
type App struct {
	Mu sync.Mutex

	Tree *canvas.Tree
	Disp *input.Dispatcher
	Err  errbuf.Buf
	Opts config.Options
	Caps Capabilities

	Ptys []*ptyproc.Pty

	History int

	Quit    bool
	Reshape bool

	Rows, Cols int

	// redrawCh receives a signal whenever a pty produces output; Run sets
	// this before starting any per-pty reader goroutines, and create uses
	// it to start the reader of each pty it spawns after startup.
	redrawCh chan struct{}
}

// Capabilities is the subset of internal/cmd's terminal probe the app layer
// needs to spawn ptys with the right TERM: the package avoids importing
// internal/cmd directly to keep the dependency direction (cmd depends on
// app, not the reverse) matching smtx-main.c's main() calling into action.c,
// never back.
type Capabilities struct {
	Term string
}

// New builds an App with a fresh tree rooted at an initial shell pane sized
// rows x cols, the Go equivalent of main()'s single `root = newcanvas()`
// call before entering main_loop.
func New(opts config.Options, caps Capabilities, rows, cols int) (*App, error) {
	a := &App{
		Opts:    opts,
		Caps:    caps,
		History: opts.Scrollback,
		Rows:    rows,
		Cols:    cols,
	}
	p, err := a.spawnShell(rows, cols)
	if err != nil {
		return nil, fmt.Errorf("spawn initial shell: %w", err)
	}
	a.Tree = canvas.NewTree(p)
	a.Tree.Root.Title = shellName()
	a.addPty(p)
	a.Disp = BuildBindings(a)
	canvas.ReshapeRoot(a.Tree, rows, cols, a.onPtyReshape)
	return a, nil
}

// shellName resolves $SHELL, falling back to /bin/sh the way getshell()
// falls back to the passwd entry and then /bin/sh -- os/user exposes no
// login-shell field, so the passwd step collapses into the same default.
func shellName() string {
	if s := os.Getenv("SHELL"); s != "" {
		return s
	}
	return "/bin/sh"
}

func (a *App) spawnShell(rows, cols int) (*ptyproc.Pty, error) {
	term := a.Caps.Term
	if a.Opts.ForceTerm != "" {
		term = a.Opts.ForceTerm
	}
	if term == "" {
		term = "screen-bce"
	}
	return ptyproc.StartEnv(shellName(), rows, cols, a.History, term)
}

func (a *App) addPty(p *ptyproc.Pty) {
	a.Ptys = append(a.Ptys, p)
}

func (a *App) removePty(p *ptyproc.Pty) {
	for i, q := range a.Ptys {
		if q == p {
			a.Ptys = append(a.Ptys[:i], a.Ptys[i+1:]...)
			return
		}
	}
}

// findPty returns the pty with the given id, the Go port of find_pty (a
// linear walk of the linked list of all ptys, matching section 3's "linked
// list of all PTYs" global).
func (a *App) findPty(id int) *ptyproc.Pty {
	for _, p := range a.Ptys {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// findCanvas returns the canvas bound to the pty with the given id,
// searching every node rather than just leaves since a pty can be attached
// anywhere in the tree, matching action.c's find_canvas.
func findCanvas(n *canvas.Canvas, id int) *canvas.Canvas {
	if n == nil {
		return nil
	}
	if n.Pty != nil && n.Pty.ID == id {
		return n
	}
	if r := findCanvas(n.C[0], id); r != nil {
		return r
	}
	return findCanvas(n.C[1], id)
}

// onPtyReshape is passed to canvas.Reshape/ReshapeRoot as the resize
// callback: it resizes the pty's winsize when its extent actually changed,
// and always scrolls the canvas to the bottom of its pty's current screen,
// matching reshape()'s `if (changed) reshape_window(n,"h"); scrollbottom(n);`
// pair.
func (a *App) onPtyReshape(n *canvas.Canvas, changed bool) {
	if n.Pty == nil {
		return
	}
	if changed {
		rows := n.Extent.Y + 1
		cols := n.Extent.X
		if rows > 0 && cols > 0 {
			n.Pty.Resize(rows, cols)
		}
	}
	canvas.ScrollBottom(n, n.Pty.Emu.Screen().Tos)
}
