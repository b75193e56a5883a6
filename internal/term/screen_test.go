package term

import "testing"

func TestNewScreenAllocatesScrollback(t *testing.T) {
	s := NewScreen(5, 10, 20)
	if len(s.Grid) != 25 {
		t.Fatalf("grid depth = %d, want 25", len(s.Grid))
	}
	for _, row := range s.Grid {
		if len(row) != 10 {
			t.Fatalf("row width = %d, want 10", len(row))
		}
	}
}

func TestScrollUpDiscardsTopRow(t *testing.T) {
	s := NewScreen(3, 5, 0)
	s.Grid[0][0].Ch = 'a'
	s.Grid[1][0].Ch = 'b'
	s.Grid[2][0].Ch = 'c'
	s.ScrollUp(0, 2, 1)
	if s.Grid[0][0].Ch != 'b' || s.Grid[1][0].Ch != 'c' {
		t.Fatalf("rows after scroll: %q %q", s.Grid[0][0].Ch, s.Grid[1][0].Ch)
	}
	if s.Grid[2][0].Ch != ' ' {
		t.Fatalf("bottom row not cleared: %q", s.Grid[2][0].Ch)
	}
}

func TestScrollDownInsertsBlankAtTop(t *testing.T) {
	s := NewScreen(3, 5, 0)
	s.Grid[0][0].Ch = 'a'
	s.Grid[1][0].Ch = 'b'
	s.ScrollDown(0, 2, 1)
	if s.Grid[0][0].Ch != ' ' {
		t.Fatalf("top row not blanked: %q", s.Grid[0][0].Ch)
	}
	if s.Grid[1][0].Ch != 'a' {
		t.Fatalf("row 1 = %q, want 'a'", s.Grid[1][0].Ch)
	}
}

func TestGraphicsCharsetTranslatesLineDrawing(t *testing.T) {
	var cs Charset = Graphics
	if got := cs.Translate('q'); got != 0x2500 {
		t.Fatalf("q -> %U, want horizontal line", got)
	}
	if got := cs.Translate('Z'); got != 'Z' {
		t.Fatalf("unmapped byte should pass through, got %q", got)
	}
}

func TestRuneWidthWide(t *testing.T) {
	if RuneWidth('中') != 2 {
		t.Fatalf("expected wide CJK rune to report width 2")
	}
	if RuneWidth('a') != 1 {
		t.Fatalf("expected ascii rune to report width 1")
	}
}

func TestIsCombiningDetectsCombiningMark(t *testing.T) {
	if !IsCombining('́') { // combining acute accent
		t.Fatal("expected combining acute accent to report as combining")
	}
	if IsCombining('a') {
		t.Fatal("expected plain ascii rune to not be combining")
	}
	if IsCombining('中') {
		t.Fatal("expected wide CJK rune to not be combining")
	}
}
