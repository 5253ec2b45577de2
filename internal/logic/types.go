// Package logic contains the pure threshold control logic for the sensing side.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State represents the logical state of an actuator.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// EventType represents an actuator transition.
type EventType string

const (
	EventPumpOn  EventType = "PUMP_ON"
	EventPumpOff EventType = "PUMP_OFF"
	EventFanOn   EventType = "FAN_ON"
	EventFanOff  EventType = "FAN_OFF"
)

// Event represents an actuator transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Pump      State
	Fan       State
	Reading   Reading
}

// Reading is one sample from the sensors.
type Reading struct {
	Moisture    uint16  // raw probe scale, 0-65535
	Humidity    int     // percent, 0-100
	Temperature float64 // degrees C, informational only
}

// Input represents a single successful sensor read.
type Input struct {
	Reading Reading
	Time    time.Time
}

// Command is the actuator output derived from the latest reading.
type Command struct {
	PumpOn bool
	FanOn  bool
}

// PumpState returns the pump as a State.
func (c Command) PumpState() State {
	return boolToState(c.PumpOn)
}

// FanState returns the fan as a State.
func (c Command) FanState() State {
	return boolToState(c.FanOn)
}

// Thresholds configures the two hysteresis bands. Moisture values are on the
// raw probe scale; humidity values are percent.
type Thresholds struct {
	// Pump turns on below MoistureLow and off above MoistureLow+MoistureMargin.
	MoistureLow    uint16
	MoistureMargin uint16
	// Fan turns on above HumidityHigh and off below HumidityHigh-HumidityMargin.
	HumidityHigh   int
	HumidityMargin int
}

// DefaultThresholds returns the factory thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MoistureLow:    20000,
		MoistureMargin: 2000,
		HumidityHigh:   70,
		HumidityMargin: 5,
	}
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	PumpOn       int
	PumpOff      int
	FanOn        int
	FanOff       int
	ReadFailures int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

func boolToState(b bool) State {
	if b {
		return StateOn
	}
	return StateOff
}
