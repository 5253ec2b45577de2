// Package receiver runs the display side of the bus: it samples the bus on
// every consumer tick, synchronizes and decodes the word, and renders the six
// digit frame.
package receiver

import (
	"context"
	"log"
	"time"

	"github.com/sweeney/greenhouse-bridge/internal/bus"
	"github.com/sweeney/greenhouse-bridge/internal/display"
	"github.com/sweeney/greenhouse-bridge/internal/reset"
)

// Config sets the receiver pipeline.
type Config struct {
	// SyncStages is the synchronizer depth (minimum 2).
	SyncStages int
	// StableSamples is how many consecutive equal synchronized samples are
	// needed before a word is accepted. 0 or 1 disables the filter.
	StableSamples int
	// ToggleTicks is the number of ticks each page stays on the display.
	ToggleTicks uint64
}

// Sink receives frames. It is called from the receiver goroutine.
type Sink func(display.Frame)

// Receiver owns every register downstream of the bus.
type Receiver struct {
	in     bus.Sampler
	sync   *bus.Synchronizer
	stable *bus.Stabilizer
	mux    *display.Multiplexer
	watch  reset.Watch

	lastSample  bus.Word
	value       bus.Decoded
	frame       display.Frame
	ticks       uint64
	sampleFails uint64
}

// New creates a receiver sampling in.
func New(in bus.Sampler, cfg Config, rst *reset.Line) *Receiver {
	r := &Receiver{
		in:     in,
		sync:   bus.NewSynchronizer(cfg.SyncStages, rst),
		stable: bus.NewStabilizer(cfg.StableSamples, rst),
		mux:    display.NewMultiplexer(cfg.ToggleTicks, rst),
		watch:  rst.Watch(),
	}
	r.frame = display.Render(r.mux.Page(), r.value)
	return r
}

// Tick performs one consumer clock edge and returns the resulting frame.
// A failed bus sample repeats the previous sample so a read error never
// reaches the display as a zero word.
func (r *Receiver) Tick() display.Frame {
	if r.watch.Pending() {
		r.lastSample = 0
		r.value = bus.Decoded{}
	}
	r.ticks++

	sample, err := r.in.Sample()
	if err != nil {
		r.sampleFails++
		sample = r.lastSample
	}
	r.lastSample = sample

	synced := r.sync.Clock(sample)
	accepted := r.stable.Clock(synced)
	r.value = bus.Decode(accepted)
	page := r.mux.Clock()

	r.frame = display.Render(page, r.value)
	return r.frame
}

// Frame returns the frame from the last tick.
func (r *Receiver) Frame() display.Frame {
	return r.frame
}

// Value returns the decoded value from the last tick.
func (r *Receiver) Value() bus.Decoded {
	return r.value
}

// Stats returns the tick count and the number of failed bus samples.
func (r *Receiver) Stats() (ticks, sampleFails uint64) {
	return r.ticks, r.sampleFails
}

// Run ticks the receiver on every value from tick until ctx is done. sink,
// if non-nil, is called with each frame that differs from the previous one.
func (r *Receiver) Run(ctx context.Context, tick <-chan time.Time, sink Sink) error {
	prev := r.frame
	if sink != nil {
		sink(prev)
	}
	for {
		select {
		case <-ctx.Done():
			ticks, fails := r.Stats()
			log.Printf("receiver: stopped after %d ticks (%d failed samples)", ticks, fails)
			return nil
		case <-tick:
			f := r.Tick()
			if sink != nil && f != prev {
				sink(f)
			}
			prev = f
		}
	}
}
