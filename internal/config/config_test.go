package config

import "testing"

func TestDefaultMatchesSectionSixDefaults(t *testing.T) {
	o := Default()
	if o.Scrollback != 1024 {
		t.Errorf("Scrollback = %d, want 1024", o.Scrollback)
	}
	if o.Width != 80 {
		t.Errorf("Width = %d, want 80", o.Width)
	}
	if o.CommandKey != DefaultCommandKey {
		t.Errorf("CommandKey = %d, want %d", o.CommandKey, DefaultCommandKey)
	}
}

func TestCtrlKeyMasksToControlCode(t *testing.T) {
	if got := CtrlKey('a'); got != 1 {
		t.Errorf("CtrlKey('a') = %d, want 1", got)
	}
	if got := CtrlKey('g'); got != 7 {
		t.Errorf("CtrlKey('g') = %d, want 7", got)
	}
}

func TestValidateRejectsNonPositiveWidth(t *testing.T) {
	o := Default()
	o.Width = 0
	if err := o.Validate(); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestValidateRejectsNegativeScrollback(t *testing.T) {
	o := Default()
	o.Scrollback = -1
	if err := o.Validate(); err == nil {
		t.Fatal("expected error for negative scrollback")
	}
}

func TestValidateRejectsHugeScrollback(t *testing.T) {
	o := Default()
	o.Scrollback = 2_000_000
	if err := o.Validate(); err == nil {
		t.Fatal("expected error for oversized scrollback")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
