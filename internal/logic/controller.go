package logic

import (
	"time"

	"github.com/sweeney/greenhouse-bridge/internal/reset"
)

// Controller applies the hysteresis thresholds to each reading and owns the
// current actuator command.
type Controller struct {
	thresholds    Thresholds
	cmd           Command
	last          Reading
	ready         bool
	lastFailure   time.Time
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
	watch         reset.Watch
}

// NewController creates a controller with both actuators off.
// The startTime is used for calculating uptime in heartbeat events.
func NewController(th Thresholds, startTime time.Time, rst *reset.Line) *Controller {
	return &Controller{
		thresholds:    th,
		startTime:     startTime,
		lastHeartbeat: startTime,
		watch:         rst.Watch(),
	}
}

// Process applies one reading and returns an event for every actuator that
// changed. Pump events come before fan events when both change.
func (c *Controller) Process(input Input) []Event {
	c.checkReset()

	prev := c.cmd
	r := input.Reading
	th := c.thresholds

	if !c.cmd.PumpOn && r.Moisture < th.MoistureLow {
		c.cmd.PumpOn = true
	} else if c.cmd.PumpOn && uint32(r.Moisture) > uint32(th.MoistureLow)+uint32(th.MoistureMargin) {
		c.cmd.PumpOn = false
	}

	if !c.cmd.FanOn && r.Humidity > th.HumidityHigh {
		c.cmd.FanOn = true
	} else if c.cmd.FanOn && r.Humidity < th.HumidityHigh-th.HumidityMargin {
		c.cmd.FanOn = false
	}

	c.last = r
	c.ready = true

	var events []Event
	if prev.PumpOn != c.cmd.PumpOn {
		typ := EventPumpOff
		if c.cmd.PumpOn {
			typ = EventPumpOn
			c.eventCounts.PumpOn++
		} else {
			c.eventCounts.PumpOff++
		}
		events = append(events, c.event(typ, input))
	}
	if prev.FanOn != c.cmd.FanOn {
		typ := EventFanOff
		if c.cmd.FanOn {
			typ = EventFanOn
			c.eventCounts.FanOn++
		} else {
			c.eventCounts.FanOff++
		}
		events = append(events, c.event(typ, input))
	}
	return events
}

// Fail records a sensor read failure. The command is left exactly as it was.
func (c *Controller) Fail(now time.Time) {
	c.checkReset()
	c.eventCounts.ReadFailures++
	c.lastFailure = now
}

func (c *Controller) event(typ EventType, input Input) Event {
	return Event{
		Timestamp: input.Time,
		Type:      typ,
		Pump:      c.cmd.PumpState(),
		Fan:       c.cmd.FanState(),
		Reading:   input.Reading,
	}
}

// checkReset turns both actuators off and forgets the last reading when the
// reset line was asserted. Event counts survive a reset.
func (c *Controller) checkReset() {
	if c.watch.Pending() {
		c.cmd = Command{}
		c.last = Reading{}
		c.ready = false
	}
}

// Command returns the current actuator command.
func (c *Controller) Command() Command {
	return c.cmd
}

// LastReading returns the last reading applied and whether there is one.
func (c *Controller) LastReading() (Reading, bool) {
	return c.last, c.ready
}

// IsReady returns whether a valid reading has been applied since start or
// the last reset.
func (c *Controller) IsReady() bool {
	return c.ready
}

// LastFailure returns the time of the most recent read failure.
func (c *Controller) LastFailure() time.Time {
	return c.lastFailure
}

// EventCountsSnapshot returns a copy of the event counters.
func (c *Controller) EventCountsSnapshot() EventCounts {
	return c.eventCounts
}

// Thresholds returns the configured bands.
func (c *Controller) Thresholds() Thresholds {
	return c.thresholds
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if no reading has been applied yet,
// if the interval has not elapsed, or if interval is <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !c.ready {
		return nil
	}

	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}

	c.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.eventCounts,
	}
}
