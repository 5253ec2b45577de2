package status

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/greenhouse-bridge/internal/display"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Pump          string       `json:"pump"`
	Fan           string       `json:"fan"`
	Ready         bool         `json:"ready"`
	Reading       *ReadingJSON `json:"reading,omitempty"`
	LastFailure   string       `json:"last_read_failure,omitempty"`
	Bus           BusJSON      `json:"bus"`
	Display       *DisplayJSON `json:"display,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// ReadingJSON is the last good sensor reading.
type ReadingJSON struct {
	Moisture    uint16  `json:"moisture"`
	Humidity    int     `json:"humidity"`
	Temperature float64 `json:"temperature"`
}

// BusJSON is the word most recently driven onto the bus.
type BusJSON struct {
	Word string `json:"word"`
	Bits string `json:"bits"`
}

// DisplayJSON is the frame the receiver is showing. Codes and segments are
// indexed by slot, slot 0 being the rightmost digit.
type DisplayJSON struct {
	Page     string `json:"page"`
	Text     string `json:"text"`
	Humidity uint   `json:"humidity"`
	Moisture uint   `json:"moisture_level"`
	Codes    []int  `json:"codes"`
	Segments []int  `json:"segments"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	PumpOn       int `json:"pump_on"`
	PumpOff      int `json:"pump_off"`
	FanOn        int `json:"fan_on"`
	FanOff       int `json:"fan_off"`
	ReadFailures int `json:"read_failures"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PeriodMs       int64  `json:"period_ms"`
	ClockMs        int64  `json:"clock_ms"`
	HeartbeatMs    int64  `json:"heartbeat_ms"`
	Broker         string `json:"broker"`
	HTTPPort       string `json:"http_port"`
	SensorKind     string `json:"sensor"`
	BusMode        string `json:"bus_mode"`
	MoistureLow    uint16 `json:"moisture_low"`
	MoistureMargin uint16 `json:"moisture_margin"`
	HumidityHigh   int    `json:"humidity_high"`
	HumidityMargin int    `json:"humidity_margin"`
}

func stateOrUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Pump:  stateOrUnknown(string(snap.Pump)),
		Fan:   stateOrUnknown(string(snap.Fan)),
		Ready: snap.Ready,
		Bus: BusJSON{
			Word: fmt.Sprintf("0x%03X", uint16(snap.BusWord)),
			Bits: fmt.Sprintf("%09b", uint16(snap.BusWord)),
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			PumpOn:       snap.Counts.PumpOn,
			PumpOff:      snap.Counts.PumpOff,
			FanOn:        snap.Counts.FanOn,
			FanOff:       snap.Counts.FanOff,
			ReadFailures: snap.Counts.ReadFailures,
		},
		Config: ConfigJSON{
			PeriodMs:       snap.Config.PeriodMs,
			ClockMs:        snap.Config.ClockMs,
			HeartbeatMs:    snap.Config.HeartbeatMs,
			Broker:         snap.Config.Broker,
			HTTPPort:       snap.Config.HTTPPort,
			SensorKind:     snap.Config.SensorKind,
			BusMode:        snap.Config.BusMode,
			MoistureLow:    snap.Config.Thresholds.MoistureLow,
			MoistureMargin: snap.Config.Thresholds.MoistureMargin,
			HumidityHigh:   snap.Config.Thresholds.HumidityHigh,
			HumidityMargin: snap.Config.Thresholds.HumidityMargin,
		},
	}
	if snap.Ready {
		inner.Reading = &ReadingJSON{
			Moisture:    snap.Reading.Moisture,
			Humidity:    snap.Reading.Humidity,
			Temperature: snap.Reading.Temperature,
		}
	}
	if !snap.LastFailure.IsZero() {
		inner.LastFailure = snap.LastFailure.UTC().Format(time.RFC3339)
	}
	if snap.HaveFrame {
		inner.Display = buildDisplay(snap.Frame)
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

func buildDisplay(f display.Frame) *DisplayJSON {
	d := &DisplayJSON{
		Page:     string(f.Page),
		Text:     f.String(),
		Humidity: f.Value.Humidity,
		Moisture: f.Value.Moisture,
		Codes:    make([]int, display.Digits),
		Segments: make([]int, display.Digits),
	}
	for i := 0; i < display.Digits; i++ {
		d.Codes[i] = int(f.Codes[i])
		d.Segments[i] = int(f.Patterns[i])
	}
	return d
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatDisplayJSON returns just the receiver frame, for the virtual display
// which polls far more often than the status page.
func FormatDisplayJSON(snap Snapshot) []byte {
	var d *DisplayJSON
	if snap.HaveFrame {
		d = buildDisplay(snap.Frame)
	}
	data, _ := json.Marshal(struct {
		Display *DisplayJSON `json:"display"`
	}{d})
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
