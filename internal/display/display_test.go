package display

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sweeney/greenhouse-bridge/internal/bus"
	"github.com/sweeney/greenhouse-bridge/internal/reset"
)

func TestToBCD(t *testing.T) {
	tests := []struct {
		in   uint
		want BCD
	}{
		{47, BCD{4, 7}},
		{63, BCD{6, 3}},
		{0, BCD{0, 0}},
		{9, BCD{0, 9}},
		{10, BCD{1, 0}},
		{255, BCD{9, 5}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToBCD(tt.in), "ToBCD(%d)", tt.in)
	}
}

func TestMoistureDigit(t *testing.T) {
	for m := uint(0); m <= 7; m++ {
		assert.Equal(t, DigitCode(m), MoistureDigit(m))
	}
	assert.Equal(t, DigitCode(9), MoistureDigit(12))
}

func TestSegmentsDecimalGlyphs(t *testing.T) {
	assert.Equal(t, Pattern(0x00), Segments(8), "8 lights every segment")
	for s := 0; s < 7; s++ {
		assert.True(t, Segments(8).Lit(s))
	}
	assert.False(t, Segments(0).Lit(6), "0 has no middle bar")
	assert.False(t, Segments(1).Lit(0), "1 has no top bar")
	assert.True(t, Segments(1).Lit(1))
	assert.True(t, Segments(1).Lit(2))
}

func TestSegmentsBlankAndUndefined(t *testing.T) {
	assert.Equal(t, PatternOff, Segments(Blank))
	for c := 0xC; c <= 0xFF; c++ {
		if DigitCode(c) == Blank {
			continue
		}
		assert.Equal(t, PatternOff, Segments(DigitCode(c)), "code %#x", c)
	}
}

func TestSegmentsLabels(t *testing.T) {
	h := Segments(LabelH)
	assert.False(t, h.Lit(0), "H has no top bar")
	assert.False(t, h.Lit(3), "H has no bottom bar")
	assert.True(t, h.Lit(6), "H has a middle bar")
	assert.NotEqual(t, h, Segments(LabelM))
}

func TestPatternsFitSevenBits(t *testing.T) {
	for c := 0; c < 16; c++ {
		assert.LessOrEqual(t, Segments(DigitCode(c)), PatternOff)
	}
}

func TestMultiplexerStartsOnHumidity(t *testing.T) {
	m := NewMultiplexer(4, nil)
	assert.Equal(t, ShowingHumidity, m.Page())
}

func TestMultiplexerTogglesAfterInterval(t *testing.T) {
	m := NewMultiplexer(4, nil)
	for i := 1; i < 4; i++ {
		assert.Equal(t, ShowingHumidity, m.Clock(), "tick %d", i)
	}
	assert.Equal(t, ShowingMoisture, m.Clock(), "tick 4")
	for i := 1; i < 4; i++ {
		assert.Equal(t, ShowingMoisture, m.Clock())
	}
	assert.Equal(t, ShowingHumidity, m.Clock(), "back after a second interval")
}

func TestMultiplexerReset(t *testing.T) {
	var rst reset.Line
	m := NewMultiplexer(3, &rst)
	m.Clock()
	m.Clock()
	m.Clock()
	assert.Equal(t, ShowingMoisture, m.Page())

	rst.Assert()
	assert.Equal(t, ShowingHumidity, m.Clock(), "reset restores humidity and clears counter")
	assert.Equal(t, ShowingHumidity, m.Clock())
	assert.Equal(t, ShowingMoisture, m.Clock())
}

func TestMultiplexerZeroInterval(t *testing.T) {
	m := NewMultiplexer(0, nil)
	assert.Equal(t, ShowingMoisture, m.Clock())
	assert.Equal(t, ShowingHumidity, m.Clock())
}

func TestComposeHumiditySlots(t *testing.T) {
	codes := Compose(ShowingHumidity, bus.Decoded{Humidity: 47, Moisture: 5})
	want := [Digits]DigitCode{7, 4, Blank, Blank, Blank, LabelH}
	assert.Equal(t, want, codes)
}

func TestComposeMoistureReusesOnesSlot(t *testing.T) {
	codes := Compose(ShowingMoisture, bus.Decoded{Humidity: 47, Moisture: 5})
	want := [Digits]DigitCode{5, Blank, Blank, Blank, Blank, LabelM}
	assert.Equal(t, want, codes)
	assert.Equal(t, DigitCode(5), codes[SlotOnes])
	assert.Equal(t, Blank, codes[SlotTens])
}

func TestRenderPatterns(t *testing.T) {
	f := Render(ShowingHumidity, bus.Decoded{Humidity: 8, Moisture: 1})
	assert.Equal(t, Segments(8), f.Patterns[SlotOnes])
	assert.Equal(t, Segments(0), f.Patterns[SlotTens])
	assert.Equal(t, Segments(LabelH), f.Patterns[SlotLabel])
	for _, i := range []int{2, 3, 4} {
		assert.Equal(t, PatternOff, f.Patterns[i])
	}
	assert.Equal(t, "H   08", f.String())

	f = Render(ShowingMoisture, bus.Decoded{Humidity: 8, Moisture: 3})
	assert.Equal(t, "M    3", f.String())
}
