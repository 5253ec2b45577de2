//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/greenhouse-bridge/internal/bus"
	"github.com/sweeney/greenhouse-bridge/internal/logic"
)

// RealActuators drives the pump and fan relays through the Linux GPIO
// character device. Both outputs are requested low (off).
type RealActuators struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
}

// NewRealActuators requests the pump and fan lines as outputs, initially off.
func NewRealActuators(chipName string, pinPump, pinFan int) (*RealActuators, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	lines, err := chip.RequestLines([]int{pinPump, pinFan}, gpiocdev.AsOutput(0, 0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request actuator pins %d,%d: %w", pinPump, pinFan, err)
	}
	return &RealActuators{chip: chip, lines: lines}, nil
}

// Apply sets both outputs in one request.
func (a *RealActuators) Apply(cmd logic.Command) error {
	if err := a.lines.SetValues(commandLevels(cmd)); err != nil {
		return fmt.Errorf("set actuator pins: %w", err)
	}
	return nil
}

// Close drives both outputs off, then returns the lines to inputs with
// pull-down (matching Pi boot defaults) so the relays stay released across
// a restart.
func (a *RealActuators) Close() error {
	var errs []error
	if a.lines != nil {
		if err := a.lines.SetValues([]int{0, 0}); err != nil {
			errs = append(errs, fmt.Errorf("release actuators: %w", err))
		}
		if err := a.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure actuator pins: %w", err))
		}
		if err := a.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close actuator pins: %w", err))
		}
	}
	if a.chip != nil {
		if err := a.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// BusWriter drives the parallel bus from the sensing host. All lines are set
// by a single ioctl, so a receiver never sees a partially updated word
// beyond the electrical skew its synchronizer absorbs.
type BusWriter struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
}

// NewBusWriter requests the bus pins (bit 0 first) as outputs driven low.
func NewBusWriter(chipName string, pins []int) (*BusWriter, error) {
	if len(pins) != bus.Width {
		return nil, fmt.Errorf("bus needs %d pins, got %d", bus.Width, len(pins))
	}
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	lines, err := chip.RequestLines(pins, gpiocdev.AsOutput(make([]int, len(pins))...))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request bus pins %v: %w", pins, err)
	}
	return &BusWriter{chip: chip, lines: lines}, nil
}

// Write drives the word onto the bus.
func (w *BusWriter) Write(word bus.Word) error {
	if err := w.lines.SetValues(word.Levels()); err != nil {
		return fmt.Errorf("set bus pins: %w", err)
	}
	return nil
}

// Close releases the bus lines.
func (w *BusWriter) Close() error {
	return closeLines(w.chip, w.lines)
}

// BusReader samples the parallel bus on the display host.
type BusReader struct {
	chip   *gpiocdev.Chip
	lines  *gpiocdev.Lines
	levels []int
}

// NewBusReader requests the bus pins (bit 0 first) as inputs with pull-down,
// so a disconnected bus reads as zero.
func NewBusReader(chipName string, pins []int) (*BusReader, error) {
	if len(pins) != bus.Width {
		return nil, fmt.Errorf("bus needs %d pins, got %d", bus.Width, len(pins))
	}
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	lines, err := chip.RequestLines(pins, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request bus pins %v: %w", pins, err)
	}
	return &BusReader{chip: chip, lines: lines, levels: make([]int, len(pins))}, nil
}

// Sample reads every bus line in one request.
func (r *BusReader) Sample() (bus.Word, error) {
	if err := r.lines.Values(r.levels); err != nil {
		return 0, fmt.Errorf("read bus pins: %w", err)
	}
	return bus.FromLevels(r.levels), nil
}

// Close releases the bus lines.
func (r *BusReader) Close() error {
	return closeLines(r.chip, r.lines)
}

func closeLines(chip *gpiocdev.Chip, lines *gpiocdev.Lines) error {
	var errs []error
	if lines != nil {
		if err := lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure bus pins: %w", err))
		}
		if err := lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close bus pins: %w", err))
		}
	}
	if chip != nil {
		if err := chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
