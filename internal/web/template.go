package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/wakelight/internal/status"
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
	"remaining": func(p *int) string {
		if p == nil {
			return "-"
		}
		if *p < 0 {
			return "overdue"
		}
		return fmt.Sprintf("%dh %02dm", *p/60, *p%60)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="30">
<title>Wakelight</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.disabled { color: #888; }
img.stream { width: 100%; background: #222; min-height: 120px; }
</style>
</head>
<body>
<h1>Wakelight</h1>

<h2>Alarm</h2>
<table>
<tr><th>State</th><td id="alarm-state">{{.State}}</td></tr>
{{if .Alarm.Active}}<tr><th>Alarm</th><td>{{.Alarm.AlarmTime}}</td></tr>
<tr><th>Remaining</th><td>{{remaining .Alarm.MinutesRemaining}}</td></tr>
{{if .Alarm.Image}}<tr><th>Hand</th><td><a href="/images/{{.Alarm.Image}}">{{.Alarm.Image}}</a></td></tr>{{end}}
{{else if .Session.AlarmSet}}<tr><th>Alarm</th><td>{{.Session.AlarmTime}} (waiting for hand)</td></tr>
{{end}}<tr><th>Light</th><td class="{{if .LightOn}}on{{else}}off{{end}}">{{if .LightOn}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Button presses</th><td>{{.ButtonPresses}}</td></tr>
</table>

<h2>Camera</h2>
<img class="stream" src="/api/video-stream" alt="camera">

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th>{{if .Config.Broker}}<td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}} ({{.Config.Broker}})</td>{{else}}<td class="disabled">disabled</td>{{end}}</tr>
<tr><th>NATS</th>{{if .Config.NATSURL}}<td class="{{if .NATSConnected}}connected{{else}}disconnected{{end}}">{{if .NATSConnected}}connected{{else}}disconnected{{end}} ({{.Config.NATSURL}})</td>{{else}}<td class="disabled">disabled</td>{{end}}</tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
<tr><th>Data</th><td>{{.Config.DataDir}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/api/historial">History</a> · <a href="/metrics">Metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		State  string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		State:    status.StateName(snap),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("http: render status page: %v", err)
	}
}
