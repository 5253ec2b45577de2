package bus

import "sync/atomic"

// Sampler reads the bus from the consumer side. It is polled once per
// consumer tick; there is no strobe.
type Sampler interface {
	Sample() (Word, error)
}

// Wire is an in-process bus: a single slot replaced atomically by the
// producer and polled by the consumer. It implements both Writer and Sampler.
type Wire struct {
	v atomic.Uint32
}

// NewWire returns a wire driven low.
func NewWire() *Wire {
	return &Wire{}
}

// Write replaces the word on the wire. Bits above Width are dropped.
func (w *Wire) Write(word Word) error {
	w.v.Store(uint32(word & Mask))
	return nil
}

// Sample returns the word currently on the wire.
func (w *Wire) Sample() (Word, error) {
	return Word(w.v.Load()), nil
}
