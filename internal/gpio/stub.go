//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/greenhouse-bridge/internal/bus"
	"github.com/sweeney/greenhouse-bridge/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealActuators is not available on non-Linux platforms.
type RealActuators struct{}

// NewRealActuators returns an error on non-Linux platforms.
func NewRealActuators(chipName string, pinPump, pinFan int) (*RealActuators, error) {
	return nil, errUnsupported
}

// Apply is not implemented on non-Linux platforms.
func (a *RealActuators) Apply(cmd logic.Command) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (a *RealActuators) Close() error {
	return nil
}

// BusWriter is not available on non-Linux platforms.
type BusWriter struct{}

// NewBusWriter returns an error on non-Linux platforms.
func NewBusWriter(chipName string, pins []int) (*BusWriter, error) {
	return nil, errUnsupported
}

// Write is not implemented on non-Linux platforms.
func (w *BusWriter) Write(word bus.Word) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (w *BusWriter) Close() error {
	return nil
}

// BusReader is not available on non-Linux platforms.
type BusReader struct{}

// NewBusReader returns an error on non-Linux platforms.
func NewBusReader(chipName string, pins []int) (*BusReader, error) {
	return nil, errUnsupported
}

// Sample is not implemented on non-Linux platforms.
func (r *BusReader) Sample() (bus.Word, error) {
	return 0, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *BusReader) Close() error {
	return nil
}
