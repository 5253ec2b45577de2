package logic

import (
	"testing"
	"time"

	"github.com/sweeney/greenhouse-bridge/internal/reset"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestController() *Controller {
	return NewController(DefaultThresholds(), t0, nil)
}

func moisture(m uint16) Input {
	return Input{Reading: Reading{Moisture: m, Humidity: 50}, Time: t0}
}

func humidity(h int) Input {
	return Input{Reading: Reading{Moisture: 30000, Humidity: h}, Time: t0}
}

func TestNewController(t *testing.T) {
	c := newTestController()
	if c.Command() != (Command{}) {
		t.Errorf("expected both actuators off, got %+v", c.Command())
	}
	if c.IsReady() {
		t.Error("new controller should not be ready")
	}
	if !c.lastHeartbeat.Equal(t0) {
		t.Errorf("expected lastHeartbeat %v, got %v", t0, c.lastHeartbeat)
	}
}

func TestPumpScenarioStaysOnThroughDeadZone(t *testing.T) {
	c := newTestController()

	readings := []uint16{25000, 15000, 19000, 22000, 22001}
	want := []bool{false, true, true, true, false}

	for i, m := range readings {
		c.Process(moisture(m))
		if got := c.Command().PumpOn; got != want[i] {
			t.Errorf("reading %d (moisture=%d): pump got %v, want %v", i, m, got, want[i])
		}
	}
}

func TestPumpNoChatterAtBoundary(t *testing.T) {
	c := newTestController()
	c.Process(moisture(19999))
	if !c.Command().PumpOn {
		t.Fatal("pump should turn on just below the low threshold")
	}

	// Noise around the threshold and across the dead zone.
	for i, m := range []uint16{20000, 20001, 19998, 21500, 22000, 20500} {
		events := c.Process(moisture(m))
		if len(events) != 0 {
			t.Errorf("sample %d (moisture=%d): expected no events, got %v", i, m, events)
		}
		if !c.Command().PumpOn {
			t.Errorf("sample %d (moisture=%d): pump turned off inside dead zone", i, m)
		}
	}
}

func TestPumpDoesNotTurnOnAtThreshold(t *testing.T) {
	c := newTestController()
	c.Process(moisture(20000))
	if c.Command().PumpOn {
		t.Error("pump should stay off at exactly the low threshold")
	}
}

func TestFanHysteresis(t *testing.T) {
	c := newTestController()

	steps := []struct {
		humidity int
		want     bool
	}{
		{60, false},
		{70, false}, // not above threshold
		{71, true},
		{68, true},
		{65, true}, // not below threshold - margin
		{64, false},
		{69, false},
	}
	for i, s := range steps {
		c.Process(humidity(s.humidity))
		if got := c.Command().FanOn; got != s.want {
			t.Errorf("step %d (humidity=%d): fan got %v, want %v", i, s.humidity, got, s.want)
		}
	}
}

func TestEventsEmittedOnTransitions(t *testing.T) {
	c := newTestController()

	in := Input{Reading: Reading{Moisture: 10000, Humidity: 90}, Time: t0.Add(2 * time.Second)}
	events := c.Process(in)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventPumpOn {
		t.Errorf("event 0: expected PUMP_ON, got %s", events[0].Type)
	}
	if events[1].Type != EventFanOn {
		t.Errorf("event 1: expected FAN_ON, got %s", events[1].Type)
	}
	for i, e := range events {
		if e.Pump != StateOn || e.Fan != StateOn {
			t.Errorf("event %d: expected pump=ON fan=ON, got pump=%s fan=%s", i, e.Pump, e.Fan)
		}
		if !e.Timestamp.Equal(in.Time) {
			t.Errorf("event %d: unexpected timestamp %v", i, e.Timestamp)
		}
		if e.Reading != in.Reading {
			t.Errorf("event %d: reading got %+v, want %+v", i, e.Reading, in.Reading)
		}
	}

	events = c.Process(Input{Reading: Reading{Moisture: 40000, Humidity: 40}, Time: t0.Add(4 * time.Second)})
	if len(events) != 2 || events[0].Type != EventPumpOff || events[1].Type != EventFanOff {
		t.Fatalf("expected PUMP_OFF then FAN_OFF, got %+v", events)
	}

	counts := c.EventCountsSnapshot()
	if counts.PumpOn != 1 || counts.PumpOff != 1 || counts.FanOn != 1 || counts.FanOff != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}

func TestNoEventsForStableReadings(t *testing.T) {
	c := newTestController()
	for i := 0; i < 10; i++ {
		if events := c.Process(moisture(30000)); len(events) != 0 {
			t.Errorf("iteration %d: expected no events, got %d", i, len(events))
		}
	}
}

func TestReadFailureHoldsCommand(t *testing.T) {
	c := newTestController()
	c.Process(Input{Reading: Reading{Moisture: 10000, Humidity: 90}, Time: t0})
	before := c.Command()

	c.Fail(t0.Add(2 * time.Second))
	c.Fail(t0.Add(4 * time.Second))

	if c.Command() != before {
		t.Errorf("command changed on read failure: got %+v, want %+v", c.Command(), before)
	}
	if got := c.EventCountsSnapshot().ReadFailures; got != 2 {
		t.Errorf("ReadFailures: got %d, want 2", got)
	}
	if !c.LastFailure().Equal(t0.Add(4 * time.Second)) {
		t.Errorf("LastFailure: got %v", c.LastFailure())
	}
	if r, ok := c.LastReading(); !ok || r.Moisture != 10000 {
		t.Errorf("last reading should survive failures, got %+v ok=%v", r, ok)
	}
}

func TestReadFailureBeforeFirstReadingKeepsOff(t *testing.T) {
	c := newTestController()
	c.Fail(t0)
	if c.Command() != (Command{}) {
		t.Errorf("expected actuators off, got %+v", c.Command())
	}
	if c.IsReady() {
		t.Error("failure must not make the controller ready")
	}
}

func TestResetClearsCommand(t *testing.T) {
	var rst reset.Line
	c := NewController(DefaultThresholds(), t0, &rst)
	c.Process(Input{Reading: Reading{Moisture: 10000, Humidity: 90}, Time: t0})

	rst.Assert()
	// A reading inside both dead zones: from reset (off) it must stay off.
	events := c.Process(Input{Reading: Reading{Moisture: 21000, Humidity: 68}, Time: t0.Add(time.Second)})
	if len(events) != 0 {
		t.Errorf("expected no events after reset, got %+v", events)
	}
	if c.Command() != (Command{}) {
		t.Errorf("expected actuators off after reset, got %+v", c.Command())
	}
	if got := c.EventCountsSnapshot().PumpOn; got != 1 {
		t.Errorf("counts should survive reset, PumpOn=%d", got)
	}
}

func TestCheckHeartbeat(t *testing.T) {
	c := newTestController()
	interval := 15 * time.Minute

	if hb := c.CheckHeartbeat(t0.Add(time.Hour), interval); hb != nil {
		t.Error("expected no heartbeat before first reading")
	}

	c.Process(moisture(30000))

	if hb := c.CheckHeartbeat(t0.Add(10*time.Minute), interval); hb != nil {
		t.Error("expected no heartbeat before interval")
	}
	hb := c.CheckHeartbeat(t0.Add(15*time.Minute), interval)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", hb.Uptime)
	}
	if hb := c.CheckHeartbeat(t0.Add(20*time.Minute), interval); hb != nil {
		t.Error("expected no heartbeat until next interval")
	}
	if hb := c.CheckHeartbeat(t0.Add(time.Hour), 0); hb != nil {
		t.Error("interval 0 disables heartbeat")
	}
}

func TestCommandStates(t *testing.T) {
	cmd := Command{PumpOn: true}
	if cmd.PumpState() != StateOn || cmd.FanState() != StateOff {
		t.Errorf("got pump=%s fan=%s", cmd.PumpState(), cmd.FanState())
	}
}
