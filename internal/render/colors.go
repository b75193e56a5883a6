// Package render flushes the canvas tree to the real controlling terminal:
// raw mode, a damage-based cell diff, ANSI cursor addressing, and SGR color
// translation. Grounded on the teacher's own direct-ANSI-write render
// strategy in internal/session/client/render.go (no curses/termbox binding
// there either) and internal/cmd/term_colors.go for capability probing.
package render

import (
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"smtx/internal/term"
)

// xterm256 is the standard 256-color xterm palette: 16 system colors, a
// 6x6x6 color cube, and a 24-step grayscale ramp. Indices into Cell.Fg/Bg
// beyond 15 address this table; the system 16 are listed explicitly since
// they aren't a regular cube/ramp.
var xterm256 = buildXterm256()

func buildXterm256() [256][3]uint8 {
	var t [256][3]uint8
	system := [16][3]uint8{
		{0, 0, 0}, {205, 0, 0}, {0, 205, 0}, {205, 205, 0},
		{0, 0, 238}, {205, 0, 205}, {0, 205, 205}, {229, 229, 229},
		{127, 127, 127}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
		{92, 92, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
	}
	for i, c := range system {
		t[i] = c
	}
	levels := [6]uint8{0, 95, 135, 175, 215, 255}
	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				t[i] = [3]uint8{levels[r], levels[g], levels[b]}
				i++
			}
		}
	}
	for step := 0; step < 24; step++ {
		v := uint8(8 + step*10)
		t[232+step] = [3]uint8{v, v, v}
	}
	return t
}

// Palette translates the Cell.Fg/Bg int encoding (term.DefaultColor, 0-15
// system, 16-255 indexed) into an SGR fragment honoring the detected
// terminal profile, downgrading 256-color/true-color requests to whatever
// the host actually supports the way termenv.Profile.Color does.
type Palette struct {
	Profile termenv.Profile
}

// NewPalette builds a Palette for the given capability profile, normally
// the one detected for stdout at startup.
func NewPalette(p termenv.Profile) Palette {
	return Palette{Profile: p}
}

// hex renders xterm256[n] through go-colorful so it can be handed to
// termenv as a #rrggbb string -- the 256-index -> RGB -> capped-profile
// pipeline DESIGN.md commits this package to.
func hex(n int) string {
	if n < 0 || n > 255 {
		n = 0
	}
	c := xterm256[n]
	rgb := colorful.Color{R: float64(c[0]) / 255, G: float64(c[1]) / 255, B: float64(c[2]) / 255}
	return rgb.Hex()
}

func (p Palette) color(n int) termenv.Color {
	return p.Profile.Color(hex(n))
}

// SGR builds the full attribute+color escape sequence for one cell,
// resetting first so no state bleeds in from a differently-styled
// neighbor -- a defensive "\033[0m then re-apply" pattern.
func (p Palette) SGR(c term.Cell) string {
	seq := "\033[0m"
	if c.Attrs&term.AttrBold != 0 {
		seq += "\033[1m"
	}
	if c.Attrs&term.AttrDim != 0 {
		seq += "\033[2m"
	}
	if c.Attrs&term.AttrItalic != 0 {
		seq += "\033[3m"
	}
	if c.Attrs&term.AttrUnderline != 0 {
		seq += "\033[4m"
	}
	if c.Attrs&term.AttrBlink != 0 {
		seq += "\033[5m"
	}
	if c.Attrs&term.AttrReverse != 0 {
		seq += "\033[7m"
	}
	if c.Attrs&term.AttrInvisible != 0 {
		seq += "\033[8m"
	}
	if c.Fg != term.DefaultColor {
		seq += p.color(c.Fg).Sequence(false)
	}
	if c.Bg != term.DefaultColor {
		seq += p.color(c.Bg).Sequence(true)
	}
	return seq
}

// reverseVideo is the fixed escape used for chrome the emulator has no
// opinion about -- title bars and dividers -- matching draw_title's
// A_REVERSE toggling independent of any pty's own SGR state.
const reverseVideo = "\033[7m"
