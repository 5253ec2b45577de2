package sensor

import (
	"errors"

	"github.com/sweeney/greenhouse-bridge/internal/logic"
)

// Sample is one scripted read: either a reading or an error.
type Sample struct {
	Reading logic.Reading
	Err     error
}

// FakeReader is a test double that returns scripted readings.
type FakeReader struct {
	// Samples contains scripted results. Each call to Read consumes the next
	// sample; once exhausted the last sample repeats.
	Samples []Sample
	index   int
	// Closed tracks if Close was called
	Closed bool
	// ReadError, if set, is returned by Read regardless of Samples.
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Readings is a shorthand for scripting successful reads only.
func Readings(rs ...logic.Reading) []Sample {
	out := make([]Sample, len(rs))
	for i, r := range rs {
		out[i] = Sample{Reading: r}
	}
	return out
}

// Read returns the next scripted sample.
func (f *FakeReader) Read() (logic.Reading, error) {
	if f.ReadError != nil {
		return logic.Reading{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return logic.Reading{}, errors.New("no samples configured")
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s.Reading, s.Err
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds to the first sample.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}
