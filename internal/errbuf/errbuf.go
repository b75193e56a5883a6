// Package errbuf implements the single on-screen error message buffer
// described in section 7: per-operation failures (attach/swap/reshape/...)
// don't return up the call stack, they land here and are drawn in reverse
// video on the last screen row until the next mode transition clears them.
// Grounded on original_source/smtx-main.c's set_errmsg()/errmsg array.
package errbuf

import (
	"fmt"
	"sync"
)

// Buf holds at most one pending error message, guarded by its own mutex
// since it's written from action handlers and read from the render loop.
type Buf struct {
	mu  sync.Mutex
	msg string
}

// Set formats and records a message, the Go port of set_errmsg: when err is
// non-nil its text is appended after a colon, mirroring set_errmsg's
// `strerror(errno)` suffix.
func (b *Buf) Set(err error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err)
	}
	b.mu.Lock()
	b.msg = msg
	b.mu.Unlock()
}

// Get returns the current message, or "" if none is pending.
func (b *Buf) Get() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.msg
}

// Clear removes any pending message, matching `errmsg[0] = 0` in
// transition(); the app calls it on every mode transition.
func (b *Buf) Clear() {
	b.mu.Lock()
	b.msg = ""
	b.mu.Unlock()
}
