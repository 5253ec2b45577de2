// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/greenhouse-bridge/internal/bus"
	"github.com/sweeney/greenhouse-bridge/internal/logic"
)

// Topic is the MQTT topic for actuator transition events.
const Topic = "greenhouse/bridge/events"

// TopicTelemetry is the MQTT topic for per-period readings.
const TopicTelemetry = "greenhouse/bridge/telemetry"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "greenhouse/bridge/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an actuator event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishTelemetry sends the reading, command and bus word for one
	// producer period.
	PublishTelemetry(t Telemetry) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "RESET"
	Reason     string // e.g., "SIGTERM", "SIGINT", "SIGHUP"
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Telemetry is one producer period: what was read, what was commanded, and
// what went on the bus.
type Telemetry struct {
	Timestamp time.Time
	Reading   logic.Reading
	Command   logic.Command
	Word      bus.Word
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Greenhouse GreenhousePayload `json:"greenhouse"`
}

// GreenhousePayload contains the actuator event details.
type GreenhousePayload struct {
	Timestamp string        `json:"timestamp"`
	Event     string        `json:"event"`
	Pump      ActuatorState `json:"pump"`
	Fan       ActuatorState `json:"fan"`
	Moisture  uint16        `json:"moisture"`
	Humidity  int           `json:"humidity"`
}

// ActuatorState represents a single actuator's state.
type ActuatorState struct {
	State string `json:"state"`
}

// FormatPayload creates the JSON payload for an actuator event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Greenhouse: GreenhousePayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Pump:      ActuatorState{State: string(event.Pump)},
			Fan:       ActuatorState{State: string(event.Fan)},
			Moisture:  event.Reading.Moisture,
			Humidity:  event.Reading.Humidity,
		},
	}
	return json.Marshal(payload)
}

// TelemetryPayload is the JSON envelope for telemetry.
type TelemetryPayload struct {
	Telemetry TelemetryInner `json:"telemetry"`
}

// TelemetryInner contains one producer period.
type TelemetryInner struct {
	Timestamp     string  `json:"timestamp"`
	Moisture      uint16  `json:"moisture"`
	MoistureLevel uint    `json:"moisture_level"`
	Humidity      int     `json:"humidity"`
	Temperature   float64 `json:"temperature"`
	Pump          string  `json:"pump"`
	Fan           string  `json:"fan"`
	BusWord       uint16  `json:"bus_word"`
}

// FormatTelemetry creates the JSON payload for telemetry.
func FormatTelemetry(t Telemetry) ([]byte, error) {
	return json.Marshal(TelemetryPayload{
		Telemetry: TelemetryInner{
			Timestamp:     t.Timestamp.UTC().Format(time.RFC3339),
			Moisture:      t.Reading.Moisture,
			MoistureLevel: bus.Decode(t.Word).Moisture,
			Humidity:      t.Reading.Humidity,
			Temperature:   t.Reading.Temperature,
			Pump:          string(t.Command.PumpState()),
			Fan:           string(t.Command.FanState()),
			BusWord:       uint16(t.Word),
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// willPayload is the retained last-will message published by the broker when
// the connection drops without a clean disconnect.
func willPayload() []byte {
	data, _ := json.Marshal(SystemPayload{System: SystemPayloadInner{Event: "OFFLINE", Reason: "LWT"}})
	return data
}
