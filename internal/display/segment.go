// Package display converts decoded bus values into six seven-segment digits.
// Everything here is pure except the Multiplexer, whose only state is the
// page being shown and its toggle counter.
package display

// DigitCode selects the glyph for one digit position.
type DigitCode uint8

// Codes above 9 are labels and blanking. Codes 0xC-0xE and anything above 0xF
// are undefined and render blank.
const (
	LabelH DigitCode = 0xA
	LabelM DigitCode = 0xB
	Blank  DigitCode = 0xF
)

// Pattern is a 7-bit active-low segment pattern: bit 0 drives segment a,
// bit 6 drives segment g. A cleared bit lights the segment.
type Pattern uint8

// PatternOff has every segment dark.
const PatternOff Pattern = 0x7F

var glyphs = map[DigitCode]Pattern{
	0:      0x40,
	1:      0x79,
	2:      0x24,
	3:      0x30,
	4:      0x19,
	5:      0x12,
	6:      0x02,
	7:      0x78,
	8:      0x00,
	9:      0x10,
	LabelH: 0x09, // b c e f g
	LabelM: 0x48, // a b c e f
	Blank:  PatternOff,
}

// Segments returns the pattern for a digit code. Unknown codes are blank.
func Segments(c DigitCode) Pattern {
	if p, ok := glyphs[c]; ok {
		return p
	}
	return PatternOff
}

// Lit reports whether segment s (0 = a … 6 = g) is lit.
func (p Pattern) Lit(s int) bool {
	return p&(1<<uint(s)) == 0
}
