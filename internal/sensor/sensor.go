// Package sensor reads soil moisture and air humidity from external probes.
// Real readers talk Modbus or a serial line protocol; the fake reader replays
// scripted readings for tests.
package sensor

import (
	"errors"

	"github.com/sweeney/greenhouse-bridge/internal/logic"
)

// Reader reads one sample from the sensors.
type Reader interface {
	// Read returns the current reading. A failed read returns an error and
	// never a zero Reading standing in for a measurement.
	Read() (logic.Reading, error)

	// Close releases the underlying transport.
	Close() error
}

// ErrNoReading is returned when the probe answered but had nothing to report,
// e.g. a humidity sensor that timed out on the microcontroller side.
var ErrNoReading = errors.New("sensor: no reading")
