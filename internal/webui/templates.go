package webui

import (
	"html/template"
	"time"
)

// Templates contains all HTML templates for the web UI
var Templates = template.Must(template.New("").Funcs(template.FuncMap{
	"levelClass": func(level string) string {
		switch level {
		case "error", "fatal":
			return "log-error"
		case "warn":
			return "log-warn"
		case "debug":
			return "log-debug"
		default:
			return "log-info"
		}
	},
	"clock": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("15:04:05")
	},
}).Parse(`
{{define "base"}}
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Dashboard alerts</title>
    <style>
        :root {
            --bg-primary: #0d1117;
            --bg-secondary: #161b22;
            --border-color: #30363d;
            --text-primary: #e6edf3;
            --text-secondary: #8b949e;
            --accent-green: #3fb950;
            --accent-red: #f85149;
            --accent-yellow: #d29922;
            --accent-blue: #58a6ff;
        }
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            line-height: 1.6;
            padding: 2rem;
        }
        h1 { font-size: 1.4rem; margin-bottom: 1rem; }
        h2 { font-size: 1.1rem; margin: 1.5rem 0 0.5rem; color: var(--text-secondary); }
        .banner {
            border: 1px solid var(--accent-red);
            background: rgba(248, 81, 73, 0.1);
            padding: 0.75rem 1rem;
            border-radius: 6px;
            margin-bottom: 1rem;
        }
        .toast {
            border-left: 4px solid var(--accent-blue);
            background: var(--bg-secondary);
            padding: 0.5rem 1rem;
            margin-bottom: 0.5rem;
            border-radius: 4px;
        }
        .toast.error { border-color: var(--accent-red); }
        .toast.warning { border-color: var(--accent-yellow); }
        .toast.success { border-color: var(--accent-green); }
        .meta { color: var(--text-secondary); font-size: 0.8rem; }
        .btn { color: var(--accent-blue); margin-left: 0.5rem; }
        table { width: 100%; border-collapse: collapse; font-size: 0.85rem; }
        td, th { text-align: left; padding: 0.25rem 0.5rem; border-bottom: 1px solid var(--border-color); }
        .logs { font-family: monospace; font-size: 0.8rem; }
        .log-error { color: var(--accent-red); }
        .log-warn { color: var(--accent-yellow); }
        .log-debug { color: var(--text-secondary); }
    </style>
</head>
<body>
    <h1>Dashboard alerts</h1>
    {{if .Halted}}<div class="banner">Server reported unreachable. Further error alerts are silenced for this session; request notices still show.</div>{{end}}
    <div class="meta">uptime {{.Uptime}} · {{.Total}} shown · version {{.Version}} ({{.Commit}})</div>

    <h2>Recent alerts</h2>
    {{range .Alerts}}
    <div class="toast {{.Severity}}">
        {{.Text}}
        {{range .Actions}}<a class="btn" href="{{.Href}}">{{.Label}}</a>{{end}}
        <div class="meta">{{clock .CreatedAt}} · {{if .Category}}{{.Category}}{{else}}request{{end}}{{if .Retry}} · retry #{{.Retry}}{{end}}</div>
    </div>
    {{else}}
    <div class="meta">No alerts.</div>
    {{end}}

    <h2>Policy state</h2>
    <table>
        <tr><th>Category</th><th>Rule</th><th>Occurrences</th><th>Last fired</th></tr>
        {{range .Policy}}
        <tr><td>{{.Category}}</td><td>{{.Rule}}</td><td>{{.Occurrences}}</td><td>{{clock .LastFired}}</td></tr>
        {{end}}
    </table>

    <h2>Logs</h2>
    <div class="logs">
        {{range .Logs}}<div class="{{levelClass .Level}}">{{clock .Timestamp}} {{.Message}}</div>{{end}}
    </div>
</body>
</html>
{{end}}
`))
