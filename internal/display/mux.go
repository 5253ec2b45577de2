package display

import (
	"github.com/sweeney/greenhouse-bridge/internal/bus"
	"github.com/sweeney/greenhouse-bridge/internal/reset"
)

// Page is the quantity currently shown.
type Page string

const (
	ShowingHumidity Page = "HUMIDITY"
	ShowingMoisture Page = "MOISTURE"
)

// Digits is the number of digit positions driven.
const Digits = 6

// Slot assignment, index 0 is the rightmost digit. Moisture is shown in the
// humidity ones position rather than a slot of its own.
const (
	SlotOnes  = 0
	SlotTens  = 1
	SlotLabel = 5
)

// Frame is the full output for one consumer tick.
type Frame struct {
	Page     Page
	Value    bus.Decoded
	Codes    [Digits]DigitCode
	Patterns [Digits]Pattern
}

// Multiplexer alternates between the humidity and moisture pages on a fixed
// tick count.
type Multiplexer struct {
	toggleTicks uint64
	count       uint64
	page        Page
	watch       reset.Watch
}

// NewMultiplexer returns a multiplexer showing humidity with a zero counter.
// The page toggles every toggleTicks calls to Clock; zero is treated as one.
func NewMultiplexer(toggleTicks uint64, rst *reset.Line) *Multiplexer {
	if toggleTicks == 0 {
		toggleTicks = 1
	}
	return &Multiplexer{
		toggleTicks: toggleTicks,
		page:        ShowingHumidity,
		watch:       rst.Watch(),
	}
}

// Clock advances the counter by one tick and returns the page in effect after
// the tick.
func (m *Multiplexer) Clock() Page {
	if m.watch.Pending() {
		m.Reset()
	}
	m.count++
	if m.count >= m.toggleTicks {
		m.count = 0
		if m.page == ShowingHumidity {
			m.page = ShowingMoisture
		} else {
			m.page = ShowingHumidity
		}
	}
	return m.page
}

// Page returns the current page.
func (m *Multiplexer) Page() Page {
	return m.page
}

// Reset returns to the humidity page with a zero counter.
func (m *Multiplexer) Reset() {
	m.page = ShowingHumidity
	m.count = 0
}

// Compose lays out the digit codes for a page.
func Compose(page Page, v bus.Decoded) [Digits]DigitCode {
	var codes [Digits]DigitCode
	for i := range codes {
		codes[i] = Blank
	}
	switch page {
	case ShowingMoisture:
		codes[SlotLabel] = LabelM
		codes[SlotOnes] = MoistureDigit(v.Moisture)
	default:
		bcd := ToBCD(v.Humidity)
		codes[SlotLabel] = LabelH
		codes[SlotTens] = bcd.Tens
		codes[SlotOnes] = bcd.Ones
	}
	return codes
}

// Render builds a frame for a page and value.
func Render(page Page, v bus.Decoded) Frame {
	f := Frame{Page: page, Value: v, Codes: Compose(page, v)}
	for i, c := range f.Codes {
		f.Patterns[i] = Segments(c)
	}
	return f
}

// String renders the frame as text, leftmost digit first, for logs and the
// status page.
func (f Frame) String() string {
	b := make([]byte, Digits)
	for i := 0; i < Digits; i++ {
		b[i] = f.Codes[Digits-1-i].Rune()
	}
	return string(b)
}

// Rune returns a printable character for a code.
func (c DigitCode) Rune() byte {
	switch {
	case c <= 9:
		return '0' + byte(c)
	case c == LabelH:
		return 'H'
	case c == LabelM:
		return 'M'
	default:
		return ' '
	}
}
