package app

import (
	"os"
	"testing"
	"time"

	"smtx/internal/canvas"
	"smtx/internal/config"
	"smtx/internal/input"
)

func testApp(t *testing.T) *App {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	a, err := New(config.Default(), Capabilities{Term: "screen-bce"}, 24, 80)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNewStartsWithOneFocusedPane(t *testing.T) {
	a := testApp(t)
	if a.Tree.Root != a.Tree.Focused {
		t.Fatalf("expected the single initial pane to be both root and focused")
	}
	if len(a.Ptys) != 1 {
		t.Fatalf("len(Ptys) = %d, want 1", len(a.Ptys))
	}
}

func TestTransitionTogglesModeAndClearsError(t *testing.T) {
	a := testApp(t)
	a.Err.Set(nil, "boom")

	a.transition("")
	if a.Disp.Mode != input.ModeCommand {
		t.Fatalf("expected command mode after one transition")
	}
	if a.Err.Get() != "" {
		t.Fatalf("expected error cleared on transition, got %q", a.Err.Get())
	}

	a.transition("")
	if a.Disp.Mode != input.ModeKeys {
		t.Fatalf("expected keys mode after second transition")
	}
}

func TestBuildBindingsDispatchesCommandPrefixAndLetter(t *testing.T) {
	a := testApp(t)
	a.Disp.Handle(input.Event{Rune: rune(a.Opts.CommandKey)}, nil)
	if a.Disp.Mode != input.ModeCommand {
		t.Fatalf("expected command prefix to enter command mode")
	}

	a.Disp.Handle(input.Event{Rune: 'C'}, nil)
	if a.Tree.Root.C[1] == nil {
		t.Fatalf("expected 'C' to vertically split the root")
	}
	if a.Disp.Mode != input.ModeCommand {
		t.Fatalf("expected command mode to persist across commands until Enter")
	}

	a.Disp.Handle(input.Event{Rune: '\r'}, nil)
	if a.Disp.Mode != input.ModeKeys {
		t.Fatalf("expected Enter to leave command mode")
	}
}

func TestCreateSplitsFocusedAndSpawnsNewShell(t *testing.T) {
	a := testApp(t)
	before := len(a.Ptys)

	a.create("c")

	if a.Tree.Root.C[0] == nil {
		t.Fatalf("expected create to split the root horizontally")
	}
	if len(a.Ptys) != before+1 {
		t.Fatalf("len(Ptys) = %d, want %d", len(a.Ptys), before+1)
	}
	if a.Tree.Focused != a.Tree.Root.C[0] {
		t.Fatalf("expected focus to move to the newly created pane")
	}
	if !a.Reshape {
		t.Fatalf("expected create to flag a pending reshape")
	}
}

func TestCreateWithCountSpawnsOnePtyPerSplit(t *testing.T) {
	a := testApp(t)
	before := len(a.Ptys)
	a.Disp.Count = 3

	a.create("c")

	if len(a.Ptys) != before+3 {
		t.Fatalf("len(Ptys) = %d, want %d", len(a.Ptys), before+3)
	}
}

func TestMovReturnsFocusedWhenNoAdjacentWindow(t *testing.T) {
	a := testApp(t)
	got := a.Tree.Focused
	a.mov("h")
	if a.Tree.Focused != got {
		t.Fatalf("expected focus unchanged with only one pane")
	}
}

func TestPruneQuitsWhenLastPaneCloses(t *testing.T) {
	a := testApp(t)

	a.prune("")

	if !a.Quit {
		t.Fatalf("expected pruning the only pane to set Quit")
	}
	if a.Tree.Root != nil {
		t.Fatalf("expected an empty tree after pruning the last pane")
	}
	if len(a.Ptys) != 0 {
		t.Fatalf("expected the pty to be removed from Ptys, got %d", len(a.Ptys))
	}
}

func TestSwapWithNoPrefixSetsError(t *testing.T) {
	a := testApp(t)
	a.swap("")
	if a.Err.Get() == "" {
		t.Fatalf("expected an error when swap is invoked without a numeric prefix")
	}
}

func TestSwapWithUnknownIdSetsError(t *testing.T) {
	a := testApp(t)
	a.Disp.Count = 999
	a.swap("")
	if a.Err.Get() == "" {
		t.Fatalf("expected an error for an id with no matching pty")
	}
}

func TestSetWidthRejectsNonPositive(t *testing.T) {
	a := testApp(t)
	a.Disp.Count = 0
	a.setWidth("")
	if a.Err.Get() == "" {
		t.Fatalf("expected an error for a non-positive width")
	}
}

func TestSetWidthUpdatesDefaultForFuturePanes(t *testing.T) {
	a := testApp(t)
	a.Disp.Count = 132
	a.setWidth("")
	if a.Opts.Width != 132 {
		t.Fatalf("Opts.Width = %d, want 132", a.Opts.Width)
	}
}

func TestSetHistoryRejectsNegative(t *testing.T) {
	a := testApp(t)
	a.Disp.Count = -5
	a.setHistory("")
	if a.Err.Get() == "" {
		t.Fatalf("expected an error for negative history")
	}
}

func TestNewTabstopResetsTabs(t *testing.T) {
	a := testApp(t)
	a.Disp.Count = 4
	a.newTabstop("")
	e := a.Tree.Focused.Pty.Emu
	if e.Tabstop != 4 {
		t.Fatalf("Tabstop = %d, want 4", e.Tabstop)
	}
	if !e.Tabs[0] || e.Tabs[1] {
		t.Fatalf("expected tabs at every 4th column, got %v", e.Tabs[:5])
	}
}

func TestSetViewDepthRestoresUnboundedOnZero(t *testing.T) {
	a := testApp(t)
	a.Disp.Count = 1
	a.setViewDepth("")
	if a.Tree.DisplayLevel != 1 {
		t.Fatalf("DisplayLevel = %d, want 1", a.Tree.DisplayLevel)
	}
	a.Disp.Count = 0
	a.setViewDepth("")
	if a.Tree.DisplayLevel != canvas.UnboundedDisplayLevel {
		t.Fatalf("expected DisplayLevel reset to unbounded")
	}
}

func TestQuitSignalsFocusedPtyOnly(t *testing.T) {
	a := testApp(t)
	a.create("c")
	other := a.Tree.Root.Pty

	done := make(chan struct{})
	go func() {
		other.Cmd.Wait()
		close(done)
	}()

	a.Tree.Focused = a.Tree.Root.C[0]
	a.quit("")

	select {
	case <-done:
		t.Fatalf("expected quit to leave the unfocused pane's shell running")
	case <-time.After(100 * time.Millisecond):
	}
}
