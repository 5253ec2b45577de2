package mqtt

import (
	"log"

	"github.com/sweeney/greenhouse-bridge/internal/logic"
)

// LogPublisher writes what would be published to the log instead of a
// broker. Used when MQTT is disabled.
type LogPublisher struct{}

// Publish logs an actuator event.
func (LogPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	log.Printf("mqtt(off): %s %s", Topic, payload)
	return nil
}

// PublishTelemetry discards telemetry; it arrives every period and would
// drown the log.
func (LogPublisher) PublishTelemetry(Telemetry) error {
	return nil
}

// PublishSystem logs a system event.
func (LogPublisher) PublishSystem(event SystemEvent) error {
	log.Printf("mqtt(off): %s %s %s", TopicSystem, event.Event, event.Reason)
	return nil
}

// Close does nothing.
func (LogPublisher) Close() error { return nil }

// IsConnected always reports false.
func (LogPublisher) IsConnected() bool { return false }
