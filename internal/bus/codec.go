package bus

import "github.com/sweeney/greenhouse-bridge/internal/reset"

// Decoded is the pair of field values recovered from a word.
type Decoded struct {
	Humidity uint // 0-63
	Moisture uint // 0-7
}

// Encode packs humidity and a moisture level into a word. Out-of-range values
// clamp to the field maximum; they never wrap.
func Encode(humidity, moisture uint) Word {
	return Layout.Humidity.pack(humidity) | Layout.Moisture.pack(moisture)
}

// Decode splits a word into its fields. No range check is done here; Encode
// already clamped at the source.
func Decode(w Word) Decoded {
	return Decoded{
		Humidity: Layout.Humidity.extract(w),
		Moisture: Layout.Moisture.extract(w),
	}
}

// QuantizeMoisture maps a raw 16-bit moisture reading onto the moisture field.
func QuantizeMoisture(raw uint16) uint {
	return uint(raw) >> (16 - Layout.Moisture.Width)
}

// ClampHumidity converts a humidity percentage to a field value, treating
// negative input as zero. Values above the field maximum are clamped by
// Encode.
func ClampHumidity(pct int) uint {
	if pct < 0 {
		return 0
	}
	return uint(pct)
}

// Writer drives the bus from the producer side.
type Writer interface {
	// Write replaces the word on the bus. The full word must become visible
	// at once; readers never see a partial update.
	Write(w Word) error
}

// Encoder owns the word on the bus. Only the producer calls it.
type Encoder struct {
	out   Writer
	watch reset.Watch
	last  Word
}

// NewEncoder creates an encoder driving out.
func NewEncoder(out Writer, rst *reset.Line) *Encoder {
	return &Encoder{out: out, watch: rst.Watch()}
}

// Publish encodes the fields and writes the word. On a pending reset the bus
// is first driven to zero. The word stays on the bus until the next Publish.
func (e *Encoder) Publish(humidity, moisture uint) (Word, error) {
	if e.watch.Pending() {
		e.last = 0
		if err := e.out.Write(0); err != nil {
			return 0, err
		}
	}
	w := Encode(humidity, moisture)
	if err := e.out.Write(w); err != nil {
		return e.last, err
	}
	e.last = w
	return w, nil
}

// Last returns the most recent word successfully written.
func (e *Encoder) Last() Word {
	return e.last
}
