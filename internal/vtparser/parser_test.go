package vtparser

import (
	"reflect"
	"testing"
)

type event struct {
	kind  EventKind
	final rune
	inter rune
	argv  []int
	osc   string
}

func collectEvents(t *testing.T, chunks ...[]byte) []event {
	t.Helper()
	var got []event
	p := New(func(kind EventKind, final, inter rune, argv []int, osc []rune) {
		got = append(got, event{kind, final, inter, argv, string(osc)})
	})
	for _, c := range chunks {
		p.Write(c)
	}
	return got
}

func TestPrintASCII(t *testing.T) {
	got := collectEvents(t, []byte("hi"))
	want := []event{
		{Print, 'h', 0, nil, ""},
		{Print, 'i', 0, nil, ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestCSIWithParams(t *testing.T) {
	got := collectEvents(t, []byte("\x1b[31;42mX"))
	want := []event{
		{CSI, 'm', 0, []int{31, 42}, ""},
		{Print, 'X', 0, nil, ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestCSIDefaultParam(t *testing.T) {
	got := collectEvents(t, []byte("\x1b[m"))
	want := []event{{CSI, 'm', 0, []int{}, ""}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestOSCStringTerminatedByBEL(t *testing.T) {
	got := collectEvents(t, []byte("\x1b]2;title\x07"))
	want := []event{{OSC, 0x07, 0, nil, "2;title"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestEscapeWithIntermediate(t *testing.T) {
	// SCS: designate G0 as US-ASCII -- ESC ( B
	got := collectEvents(t, []byte("\x1b(B"))
	want := []event{{Escape, 'B', '(', nil, ""}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestControlMidCSIDoesNotAbortSequence(t *testing.T) {
	// A C0 control byte (other than CAN/SUB/ESC) fires immediately but
	// does not change parser state, so the CSI sequence still completes.
	got := collectEvents(t, []byte("\x1b[1\x0d;2m"))
	want := []event{
		{Control, 0x0d, 0, nil, ""},
		{CSI, 'm', 0, []int{1, 2}, ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestCANAbortsToGround(t *testing.T) {
	got := collectEvents(t, []byte("\x1b[31\x18m"))
	want := []event{
		{Control, 0x18, 0, nil, ""},
		{Print, 'm', 0, nil, ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestInvalidCSIParamByteFallsToIgnore(t *testing.T) {
	// ':' (0x3a) in csi-param drops to csi-ignore, swallowing the rest of
	// the sequence until a final byte in 0x40-0x7e.
	got := collectEvents(t, []byte("\x1b[1:2mX"))
	want := []event{{Print, 'X', 0, nil, ""}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestUTF8WideCharPrint(t *testing.T) {
	got := collectEvents(t, []byte("a\xe4\xb8\xadb")) // a, 中, b
	want := []event{
		{Print, 'a', 0, nil, ""},
		{Print, '中', 0, nil, ""},
		{Print, 'b', 0, nil, ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestInvalidUTF8EmitsReplacementAndResyncs(t *testing.T) {
	got := collectEvents(t, []byte{0x61, 0xff, 0x62}) // a, bad byte, b
	want := []event{
		{Print, 'a', 0, nil, ""},
		{Print, '�', 0, nil, ""},
		{Print, 'b', 0, nil, ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

// Parser idempotence: splitting a byte sequence across Write calls,
// including mid-multibyte-character and mid-escape-sequence, must produce
// the same event trace as a single Write.
func TestSplitAcrossWritesMatchesWhole(t *testing.T) {
	whole := []byte("x\x1b[31;42my\xe4\xb8\xadz\x1b[m")
	full := collectEvents(t, whole)
	for split := 1; split < len(whole); split++ {
		got := collectEvents(t, whole[:split], whole[split:])
		if !reflect.DeepEqual(got, full) {
			t.Fatalf("split at %d: got %+v want %+v", split, got, full)
		}
	}
}

func TestMalformedOSCTruncatesAtMaxLen(t *testing.T) {
	payload := make([]byte, 0, 200)
	for i := 0; i < 150; i++ {
		payload = append(payload, 'a')
	}
	seq := append([]byte("\x1b]"), payload...)
	seq = append(seq, 0x07)
	got := collectEvents(t, seq)
	if len(got) != 1 || got[0].kind != OSC {
		t.Fatalf("expected a single OSC event, got %+v", got)
	}
	if len(got[0].osc) != maxOSC {
		t.Fatalf("expected osc truncated to %d runes, got %d", maxOSC, len(got[0].osc))
	}
}
