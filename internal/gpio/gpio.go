// Package gpio drives the actuator outputs and the parallel bus lines.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"github.com/sweeney/greenhouse-bridge/internal/logic"
)

// Actuators applies actuator commands to the outputs.
type Actuators interface {
	// Apply drives the pump and fan outputs to match cmd.
	Apply(cmd logic.Command) error

	// Close turns the outputs off and releases GPIO resources.
	Close() error
}

// Default pin definitions (BCM numbering).
const (
	DefaultChip    = "gpiochip0"
	DefaultPinPump = 17
	DefaultPinFan  = 27
)

// DefaultBusPins lists the bus lines, bit 0 first.
var DefaultBusPins = []int{5, 6, 12, 13, 16, 19, 20, 21, 26}

// commandLevels returns the output levels for the pump and fan lines.
func commandLevels(cmd logic.Command) []int {
	levels := []int{0, 0}
	if cmd.PumpOn {
		levels[0] = 1
	}
	if cmd.FanOn {
		levels[1] = 1
	}
	return levels
}
