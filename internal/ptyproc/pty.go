// Package ptyproc owns PTY lifecycle: spawning a shell child in a
// pseudoterminal, feeding its output through a VT emulator, resizing, and
// reaping its exit status. Grounded on
// internal/session/virtualterminal/vt.go's VT type (Go idiom for owning a
// PTY master + child process) and original_source/smtx-main.c's
// new_pty/reshape_window/wait_child (exact lifecycle semantics).
package ptyproc

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"smtx/internal/term"
	"smtx/internal/version"
	"smtx/internal/vtparser"
)

// ErrWriteTimeout is returned by Write when the pty's master fd does not
// accept the bytes within writeTimeout: a child that stops draining its pty
// (suspended, or just slow) must not be able to wedge the single event loop.
var ErrWriteTimeout = fmt.Errorf("pty write timed out")

// writeTimeout bounds how long Write blocks. spec.md's concurrency model
// assumes a write never blocks past EINTR/EAGAIN; Go's os.File has no
// portable non-blocking write mode to match that directly, so a timeout
// goroutine is the equivalent "never hang the loop" guarantee.
const writeTimeout = 500 * time.Millisecond

// nextID hands out the small stable integers original_source/smtx.h's
// `struct pty.id` uses for attach/swap targets -- a counter, not a UUID,
// since ids are typed by the user as a numeric prefix (section 6).
var (
	idMu  sync.Mutex
	nextN int
)

func allocID() int {
	idMu.Lock()
	defer idMu.Unlock()
	nextN++
	return nextN
}

// Pty owns one pseudoterminal: the child process, its master fd, the parser
// feeding it, and the emulator holding its primary/alternate screens.
type Pty struct {
	ID  int
	Cmd *exec.Cmd
	Ptm *os.File

	Emu    *term.Emulator
	Parser *vtparser.Parser

	Mu sync.Mutex

	Rows, Cols int

	Exited     bool
	ExitStatus string // "exited %d" / "signal %d", mirrors wait_child's title stamp
}

// Start forks shell as the pty's child, sized rows x cols, with `scrollback`
// lines of history on the primary screen. Mirrors new_pty: nonblocking
// reads aren't needed in Go (the reader runs in its own goroutine), but the
// tab stop initialization (extend_tabs(p, p->tabstop = 8)) carries over
// verbatim. TERM defaults to screen-256color-bce; use StartEnv when the
// caller has already probed the host's real capability.
func Start(shell string, rows, cols, scrollback int) (*Pty, error) {
	return StartEnv(shell, rows, cols, scrollback, "screen-256color-bce")
}

// StartEnv is Start with an explicit TERM value, letting the app layer pass
// the host-detected terminfo name (section 4.3's -t/-T flag, or a probed
// color profile) instead of the fixed default. It also stamps SMTX and
// SMTX_VERSION into the child's environment, mirroring new_pty's setenv
// calls so a shell running under the multiplexer can detect it.
func StartEnv(shell string, rows, cols, scrollback int, term_ string) (*Pty, error) {
	cmd := exec.Command(shell)
	id := allocID()
	cmd.Env = append(os.Environ(),
		"TERM="+term_,
		"SMTX="+strconv.Itoa(id),
		"SMTX_VERSION="+version.Version,
	)
	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		return nil, fmt.Errorf("forkpty: %w", err)
	}
	p := &Pty{
		ID:   id,
		Cmd:  cmd,
		Ptm:  ptm,
		Emu:  term.NewEmulator(rows, cols, scrollback, 8),
		Rows: rows,
		Cols: cols,
	}
	p.Emu.Write = func(b []byte) { p.Ptm.Write(b) }
	p.Parser = vtparser.New(p.Emu.Handle)
	return p, nil
}

// PipeOutput reads child output into the parser until EOF/error, invoking
// onData after each chunk so the caller can repaint. Grounded on VT's
// PipeOutput loop, trading its mutex-guarded single append for our
// parser's internal state plus the Pty-level Mu.
func (p *Pty) PipeOutput(onData func()) {
	buf := make([]byte, 4096)
	for {
		n, err := p.Ptm.Read(buf)
		if n > 0 {
			p.Mu.Lock()
			p.Parser.Write(buf[:n])
			p.Mu.Unlock()
			onData()
		}
		if err != nil {
			return
		}
	}
}

// Write sends bytes to the pty's master, the Go analogue of
// original_source/action.c's send()/rewrite(). Bounded by writeTimeout,
// mirroring the teacher's own write-with-timeout-via-goroutine idiom
// (internal/session/virtualterminal/vt.go's WritePTY) so a hung child can
// never block the caller indefinitely.
func (p *Pty) Write(b []byte) (int, error) {
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := p.Ptm.Write(b)
		ch <- result{n, err}
	}()
	timer := time.NewTimer(writeTimeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.n, r.err
	case <-timer.C:
		return 0, ErrWriteTimeout
	}
}

// Resize updates the pty's winsize and notifies the child via SIGWINCH (the
// kernel does this automatically through TIOCSWINSZ on Unix, mirroring
// reshape_window's ioctl+kill pair -- Go's pty.Setsize already issues the
// ioctl, which the kernel turns into SIGWINCH for us).
func (p *Pty) Resize(rows, cols int) {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	p.Rows, p.Cols = rows, cols
	p.Emu.Primary.Cols = cols
	p.Emu.Alt.Cols = cols
	p.Emu.Primary.Rows = rows
	p.Emu.Alt.Rows = rows
	growRows(p.Emu.Primary, rows, cols)
	growRows(p.Emu.Alt, rows, cols)
	p.Emu.Primary.Scroll.Bot = p.Emu.Primary.Tos + rows - 1
	p.Emu.Alt.Scroll.Bot = rows - 1
	if cols > len(p.Emu.Tabs) {
		p.Emu.Tabs = append(p.Emu.Tabs, make([]bool, cols-len(p.Emu.Tabs))...)
		for i := len(p.Emu.Tabs); i < cols; i++ {
			p.Emu.Tabs[i] = i%p.Emu.Tabstop == 0
		}
	}
	pty.Setsize(p.Ptm, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

func growRows(s *term.Screen, rows, cols int) {
	for i, row := range s.Grid {
		if len(row) < cols {
			grown := make(term.Row, cols)
			copy(grown, row)
			for j := len(row); j < cols; j++ {
				grown[j] = term.Blank(s.Fg, s.Bg, 0)
			}
			s.Grid[i] = grown
		} else {
			s.Grid[i] = row[:cols]
		}
	}
}

// Reap checks whether the child has exited (WNOHANG), recording its status
// string in ExitStatus and marking Exited, matching wait_child's title
// stamp ("exited %d" / "signal %d") without the `free_proc` teardown, which
// the canvas layer performs once it has spliced the pty out of the tree.
func (p *Pty) Reap() bool {
	if p.Exited {
		return true
	}
	var ws syscall.WaitStatus
	pid, err := syscall.Wait4(p.Cmd.Process.Pid, &ws, syscall.WNOHANG, nil)
	if err != nil || pid != p.Cmd.Process.Pid {
		return false
	}
	p.Exited = true
	switch {
	case ws.Exited():
		p.ExitStatus = fmt.Sprintf("exited %d", ws.ExitStatus())
	case ws.Signaled():
		p.ExitStatus = fmt.Sprintf("signal %d", int(ws.Signal()))
	default:
		p.ExitStatus = "stopped"
	}
	return true
}

// Close releases the pty's master fd.
func (p *Pty) Close() error {
	return p.Ptm.Close()
}

// Signal sends sig to the child process, the Go analogue of action.c's
// quit() calling kill(p->pid, s).
func (p *Pty) Signal(sig syscall.Signal) error {
	if p.Cmd.Process == nil {
		return nil
	}
	return p.Cmd.Process.Signal(sig)
}
