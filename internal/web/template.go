package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/dcf77-emitter/internal/emitter"
	"github.com/sweeney/dcf77-emitter/internal/status"
)

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
	"stateClass": func(s emitter.State) string {
		switch s {
		case emitter.Transmitting:
			return "on"
		case emitter.WaitingForMinuteEdge:
			return "waiting"
		default:
			return "off"
		}
	},
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>DCF77 Emitter</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.waiting { color: orange; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.fault { color: red; }
.bits { word-break: break-all; font-size: 0.9em; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>DCF77 Emitter{{if .Live}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Transmission</h2>
<table>
<tr><th>State</th><td id="state" class="{{stateClass .State}}">{{.State}}</td></tr>
<tr><th>Frame</th><td id="frame">{{if .Transmitting}}{{.Frame}}{{else}}-{{end}}</td></tr>
<tr><th>DST announce</th><td id="dst-announce">{{if .Transmitting}}{{if .Frame.DSTAnnounce}}yes{{else}}no{{end}}{{else}}-{{end}}</td></tr>
<tr><th>Bits</th><td id="bits" class="bits">{{if .Transmitting}}{{.Bits}}{{else}}-{{end}}</td></tr>
</table>

<h2>Sync</h2>
<table>
<tr><th>Switch</th><td class="{{if .SyncOn}}on{{else}}off{{end}}">{{onOff .SyncOn}}</td></tr>
<tr><th>Clock</th><td class="{{if .ClockSynced}}connected{{else}}disconnected{{end}}">{{if .ClockSynced}}synchronized{{else}}not synchronized{{end}}</td></tr>
<tr><th>Zone</th><td>{{.Config.Zone}}</td></tr>
</table>

<h2>Faults</h2>
<table>
<tr><th>Last</th><td id="last-fault" class="fault">{{with .LastFault}}{{.Kind}}: {{.Message}} ({{.At.UTC.Format "2006-01-02T15:04:05Z"}}){{else}}none{{end}}</td></tr>
<tr><th>Unsynchronized</th><td>{{.Counts.Unsynchronized}}</td></tr>
<tr><th>Tick overruns</th><td>{{.Counts.Overruns}}</td></tr>
<tr><th>Clock stalls</th><td>{{.Counts.Stalls}}</td></tr>
<tr><th>Invalid frames</th><td>{{.Counts.InvalidFrames}}</td></tr>
<tr><th>Pin write errors</th><td>{{.Counts.PinWrites}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Topic prefix</th><td>{{.Config.Prefix}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Frames sent</th><td>{{.Counts.Frames}}</td></tr>
<tr><th>Pins</th><td>antenna {{.Config.AntennaPin}}, LED {{.Config.LEDPin}}</td></tr>
<tr><th>Switch</th><td>{{.Config.SwitchMode}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Stale after</th><td>{{.Config.StaleAfterMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{if .Live}}
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var stateEl = document.getElementById("state");
  var frameEl = document.getElementById("frame");
  var announceEl = document.getElementById("dst-announce");
  var bitsEl = document.getElementById("bits");
  var faultEl = document.getElementById("last-fault");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function setState(state) {
    stateEl.textContent = state;
    stateEl.className = state === "TRANSMITTING" ? "on" : state === "WAITING_FOR_MINUTE_EDGE" ? "waiting" : "off";
    if (state !== "TRANSMITTING") {
      frameEl.textContent = "-";
      announceEl.textContent = "-";
      bitsEl.textContent = "-";
    }
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");

    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("pending", "reconnecting");
      setTimeout(connect, 5000);
    };
    ws.onerror = function() { setDot("err", "error"); };

    ws.onmessage = function(ev) {
      try {
        var msg = JSON.parse(ev.data);
        if (msg.type === "state_changed") {
          setState(msg.data.state);
        } else if (msg.type === "frame") {
          frameEl.textContent = msg.data.time;
          announceEl.textContent = msg.data.dst_announce ? "yes" : "no";
          bitsEl.textContent = msg.data.bits;
        } else if (msg.type === "fault") {
          faultEl.textContent = msg.data.kind + ": " + msg.data.message + " (" + msg.timestamp + ")";
        } else if (msg.type === "status") {
          setState(msg.data.state);
        }
      } catch (e) {}
    };
  }

  connect();
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, live bool) error {
	// Snapshot has Uptime() and Transmitting() methods but the template
	// needs plain fields.
	data := struct {
		status.Snapshot
		Uptime       time.Duration
		Transmitting bool
		Live         bool
	}{
		Snapshot:     snap,
		Uptime:       snap.Uptime(),
		Transmitting: snap.Transmitting(),
		Live:         live,
	}
	return indexTmpl.Execute(w, data)
}
