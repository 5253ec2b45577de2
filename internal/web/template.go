package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/greenhouse-bridge/internal/display"
	"github.com/sweeney/greenhouse-bridge/internal/status"
)

// digitView is one digit of the virtual display, leftmost first.
type digitView struct {
	Slot int
	Lit  [7]bool
}

// segmentNames maps segment index to the CSS class placing it.
var segmentNames = [7]string{"a", "b", "c", "d", "e", "f", "g"}

func digitViews(f display.Frame) []digitView {
	out := make([]digitView, 0, display.Digits)
	for slot := display.Digits - 1; slot >= 0; slot-- {
		v := digitView{Slot: slot}
		for s := range v.Lit {
			v.Lit[s] = f.Patterns[slot].Lit(s)
		}
		out = append(out, v)
	}
	return out
}

// blankFrame is shown before the receiver has produced its first frame.
func blankFrame() display.Frame {
	var f display.Frame
	for i := range f.Patterns {
		f.Codes[i] = display.Blank
		f.Patterns[i] = display.PatternOff
	}
	return f
}

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"stateClass": func(s string) string {
		switch s {
		case "ON":
			return "on"
		case "OFF":
			return "off"
		}
		return "unknown"
	},
	"segName": func(i int) string { return segmentNames[i] },
	"word":    func(w uint16) string { return fmt.Sprintf("0x%03X (%09b)", w, w) },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Greenhouse Bridge</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.panel { background: #111; padding: 12px; display: inline-flex; gap: 10px; border-radius: 4px; }
.digit { position: relative; width: 28px; height: 50px; }
.seg { position: absolute; background: #300; border-radius: 2px; }
.seg.lit { background: #f22; }
.seg.a, .seg.d, .seg.g { left: 4px; width: 20px; height: 4px; }
.seg.b, .seg.c, .seg.e, .seg.f { width: 4px; height: 20px; }
.seg.a { top: 0; } .seg.g { top: 23px; } .seg.d { top: 46px; }
.seg.b { right: 0; top: 3px; } .seg.c { right: 0; top: 27px; }
.seg.f { left: 0; top: 3px; } .seg.e { left: 0; top: 27px; }
</style>
</head>
<body>
<h1>Greenhouse Bridge</h1>

<h2>Display</h2>
<div class="panel" id="panel">
{{range .Digits}}<div class="digit" data-slot="{{.Slot}}">{{range $i, $on := .Lit}}<span class="seg {{segName $i}}{{if $on}} lit{{end}}"></span>{{end}}</div>
{{end}}</div>
<p id="display-text">{{if .HaveFrame}}{{.Frame.Page}}{{else}}waiting for receiver{{end}}</p>

<h2>Actuators</h2>
<table>
<tr><th>Pump</th><td class="{{stateClass (stateOrUnknown (printf "%s" .Pump))}}">{{stateOrUnknown (printf "%s" .Pump)}}</td></tr>
<tr><th>Fan</th><td class="{{stateClass (stateOrUnknown (printf "%s" .Fan))}}">{{stateOrUnknown (printf "%s" .Fan)}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Sensors</h2>
<table>
{{if .Ready}}<tr><th>Soil moisture</th><td>{{.Reading.Moisture}}</td></tr>
<tr><th>Humidity</th><td>{{.Reading.Humidity}}%</td></tr>
<tr><th>Temperature</th><td>{{printf "%.1f" .Reading.Temperature}} &deg;C</td></tr>
{{else}}<tr><th>Reading</th><td class="unknown">none yet</td></tr>
{{end}}{{if not .LastFailure.IsZero}}<tr><th>Last read failure</th><td>{{.LastFailure.UTC.Format "2006-01-02 15:04:05"}}</td></tr>
{{end}}<tr><th>Bus word</th><td>{{word .Word}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Pump ON</th><td>{{.Counts.PumpOn}}</td></tr>
<tr><th>Pump OFF</th><td>{{.Counts.PumpOff}}</td></tr>
<tr><th>Fan ON</th><td>{{.Counts.FanOn}}</td></tr>
<tr><th>Fan OFF</th><td>{{.Counts.FanOff}}</td></tr>
<tr><th>Read failures</th><td>{{.Counts.ReadFailures}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02 15:04:05 UTC"}}</td></tr>
<tr><th>Sensor</th><td>{{.Config.SensorKind}} every {{.Config.PeriodMs}}ms</td></tr>
<tr><th>Bus</th><td>{{.Config.BusMode}}, receiver clock {{.Config.ClockMs}}ms</td></tr>
<tr><th>Moisture band</th><td>on &lt; {{.Config.Thresholds.MoistureLow}}, off &gt; {{.Config.Thresholds.MoistureLow}} + {{.Config.Thresholds.MoistureMargin}}</td></tr>
<tr><th>Humidity band</th><td>on &gt; {{.Config.Thresholds.HumidityHigh}}, off &lt; {{.Config.Thresholds.HumidityHigh}} - {{.Config.Thresholds.HumidityMargin}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/display.json">display</a> | <a href="/history.json">history</a></p>
<script>
(function() {
  var digits = document.querySelectorAll("#panel .digit");
  var text = document.getElementById("display-text");
  function poll() {
    fetch("/display.json").then(function(r) { return r.json(); }).then(function(msg) {
      if (!msg.display) return;
      digits.forEach(function(d) {
        var pattern = msg.display.segments[+d.dataset.slot];
        d.querySelectorAll(".seg").forEach(function(s, i) {
          s.classList.toggle("lit", (pattern & (1 << i)) === 0);
        });
      });
      text.textContent = msg.display.page;
    }).catch(function() {});
  }
  setInterval(poll, 250);
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	frame := snap.Frame
	if !snap.HaveFrame {
		frame = blankFrame()
	}
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Digits []digitView
		Word   uint16
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Digits:   digitViews(frame),
		Word:     uint16(snap.BusWord),
	}
	indexTmpl.Execute(w, data)
}
