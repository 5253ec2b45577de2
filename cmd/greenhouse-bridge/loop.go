package main

import (
	"context"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/greenhouse-bridge/internal/bus"
	"github.com/sweeney/greenhouse-bridge/internal/gpio"
	"github.com/sweeney/greenhouse-bridge/internal/history"
	"github.com/sweeney/greenhouse-bridge/internal/logic"
	"github.com/sweeney/greenhouse-bridge/internal/mqtt"
	"github.com/sweeney/greenhouse-bridge/internal/reset"
	"github.com/sweeney/greenhouse-bridge/internal/sensor"
	"github.com/sweeney/greenhouse-bridge/internal/status"
)

// historyWriter is the write side of the history store.
type historyWriter interface {
	Append(ctx context.Context, r history.Record) error
}

const historyTimeout = 2 * time.Second

// loopDeps is everything the producer loop touches. sensor, actuators and
// encoder are nil on a display-only node; history and tracker may be nil.
type loopDeps struct {
	sensor     sensor.Reader
	actuators  gpio.Actuators
	encoder    *bus.Encoder
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	history    historyWriter
	tracker    *status.Tracker
	reset      *reset.Line
	thresholds logic.Thresholds
	heartbeat  time.Duration
	now        func() time.Time
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	case syscall.SIGHUP:
		return "SIGHUP"
	}
	return "UNKNOWN"
}

// runLoop runs one producer period per tick until SIGINT or SIGTERM.
// SIGHUP asserts the reset line and keeps running.
func runLoop(d loopDeps, tick <-chan time.Time, sig <-chan os.Signal) error {
	ctrl := logic.NewController(d.thresholds, d.now(), d.reset)

	for {
		select {
		case s := <-sig:
			name := signalName(s)
			if s == syscall.SIGHUP {
				log.Printf("received %v, asserting reset", s)
				d.resetOutputs(ctrl)
				d.publishSystem("RESET", name, false)
				continue
			}

			log.Printf("received %v, shutting down", s)
			if d.actuators != nil {
				if err := d.actuators.Apply(logic.Command{}); err != nil {
					log.Printf("actuator shutdown error: %v", err)
				}
			}
			d.publishSystem("SHUTDOWN", name, true)
			return nil

		case <-tick:
			d.period(ctrl, d.now())
		}
	}
}

// period performs one sensor read and everything that follows from it.
func (d loopDeps) period(ctrl *logic.Controller, t time.Time) {
	rec := history.Record{Timestamp: t}

	reading, err := d.sensor.Read()
	if err != nil {
		// The command and the bus word stay as they were.
		log.Printf("sensor read error: %v", err)
		ctrl.Fail(t)
		if d.tracker != nil {
			d.tracker.SetLastFailure(t)
		}
	} else {
		rec.ReadOK = true
		rec.Reading = reading
		for _, event := range ctrl.Process(logic.Input{Reading: reading, Time: t}) {
			log.Printf("event: %s (pump=%s fan=%s moisture=%d humidity=%d)",
				event.Type, event.Pump, event.Fan, reading.Moisture, reading.Humidity)
			if err := d.publisher.Publish(event); err != nil {
				log.Printf("publish error: %v", err)
			}
		}
	}

	cmd := ctrl.Command()
	rec.Command = cmd
	if d.actuators != nil {
		if err := d.actuators.Apply(cmd); err != nil {
			log.Printf("actuator error: %v", err)
		}
	}

	if d.encoder != nil {
		if rec.ReadOK {
			if _, err := d.encoder.Publish(bus.ClampHumidity(reading.Humidity), bus.QuantizeMoisture(reading.Moisture)); err != nil {
				log.Printf("bus write error: %v", err)
			}
		}
		rec.BusWord = uint16(d.encoder.Last())
	}

	if rec.ReadOK {
		tel := mqtt.Telemetry{Timestamp: t, Reading: reading, Command: cmd, Word: bus.Word(rec.BusWord)}
		if err := d.publisher.PublishTelemetry(tel); err != nil {
			log.Printf("telemetry publish error: %v", err)
		}
	}

	if d.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		if err := d.history.Append(ctx, rec); err != nil {
			log.Printf("history error: %v", err)
		}
		cancel()
	}

	if d.tracker != nil {
		last, ready := ctrl.LastReading()
		d.tracker.Update(cmd, ready, last, ctrl.EventCountsSnapshot())
		d.tracker.SetBusWord(bus.Word(rec.BusWord))
		if d.mqttStatus != nil {
			d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
		}
	}

	if hb := ctrl.CheckHeartbeat(t, d.heartbeat); hb != nil {
		log.Printf("heartbeat: uptime=%v pump_on=%d pump_off=%d fan_on=%d fan_off=%d read_failures=%d",
			hb.Uptime, hb.Counts.PumpOn, hb.Counts.PumpOff, hb.Counts.FanOn, hb.Counts.FanOff, hb.Counts.ReadFailures)
		if d.tracker != nil {
			// Refresh network info for heartbeat
			if net := readNetworkInfo(); net != nil {
				d.tracker.SetNetwork(net)
			}
		}
		d.publishSystemAt(hb.Timestamp, "HEARTBEAT", "", false)
	}
}

// resetOutputs asserts the reset line and drives the producer outputs to
// their reset values at once rather than waiting for the next period.
func (d loopDeps) resetOutputs(ctrl *logic.Controller) {
	d.reset.Assert()
	if d.actuators != nil {
		if err := d.actuators.Apply(logic.Command{}); err != nil {
			log.Printf("actuator error: %v", err)
		}
	}
	if d.encoder != nil {
		if _, err := d.encoder.Publish(0, 0); err != nil {
			log.Printf("bus write error: %v", err)
		}
	}
	if d.tracker != nil {
		d.tracker.Update(logic.Command{}, false, logic.Reading{}, ctrl.EventCountsSnapshot())
		d.tracker.SetBusWord(0)
	}
}

func (d loopDeps) publishSystem(event, reason string, retained bool) {
	d.publishSystemAt(d.now(), event, reason, retained)
}

func (d loopDeps) publishSystemAt(t time.Time, event, reason string, retained bool) {
	se := mqtt.SystemEvent{
		Timestamp: t,
		Event:     event,
		Reason:    reason,
		Retained:  retained,
	}
	if d.tracker != nil {
		if d.mqttStatus != nil {
			d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
		}
		se.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), event, reason)
	}
	if err := d.publisher.PublishSystem(se); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
	} else {
		log.Printf("published %s event", event)
	}
}
