// Package status provides a thread-safe status tracker for the greenhouse-bridge
// daemon. It is written by the control loop and the receiver goroutine and
// read by HTTP handlers and MQTT heartbeats.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/greenhouse-bridge/internal/bus"
	"github.com/sweeney/greenhouse-bridge/internal/display"
	"github.com/sweeney/greenhouse-bridge/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PeriodMs    int64
	ClockMs     int64
	HeartbeatMs int64
	Broker      string
	HTTPPort    string
	SensorKind  string
	BusMode     string
	Thresholds  logic.Thresholds
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Pump          logic.State
	Fan           logic.State
	Ready         bool
	Reading       logic.Reading
	Counts        logic.EventCounts
	LastFailure   time.Time
	BusWord       bus.Word
	Frame         display.Frame
	HaveFrame     bool
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the outcome of one producer period.
func (t *Tracker) Update(cmd logic.Command, ready bool, reading logic.Reading, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Pump = cmd.PumpState()
	t.snap.Fan = cmd.FanState()
	t.snap.Ready = ready
	t.snap.Reading = reading
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetLastFailure records when the sensor last failed to produce a reading.
func (t *Tracker) SetLastFailure(at time.Time) {
	t.mu.Lock()
	t.snap.LastFailure = at
	t.mu.Unlock()
}

// SetBusWord records the word most recently driven onto the bus.
func (t *Tracker) SetBusWord(w bus.Word) {
	t.mu.Lock()
	t.snap.BusWord = w
	t.mu.Unlock()
}

// SetFrame records the frame the receiver is currently showing.
// Called from the receiver goroutine.
func (t *Tracker) SetFrame(f display.Frame) {
	t.mu.Lock()
	t.snap.Frame = f
	t.snap.HaveFrame = true
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
