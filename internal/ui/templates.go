package ui

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/me/schedsim/pkg/model"
)

var ganttPalette = []string{"#6366F1", "#F59E0B", "#10B981", "#EC4899", "#0EA5E9", "#84CC16", "#EF4444"}

// ganttBar is one execution slice positioned as a percentage of the chart.
type ganttBar struct {
	Start, Finish int
	Left, Width   float64
	Color         string
}

type ganttRow struct {
	Label string
	Bars  []ganttBar
}

type ganttChart struct {
	Origin, End int
	Rows        []ganttRow
}

type processKey struct {
	name           string
	arrival, burst int
}

// ganttBars lays out one row per process; names may repeat, so rows are
// keyed by name, arrival and burst.
func ganttBars(records []model.ExecutionRecord) ganttChart {
	if len(records) == 0 {
		return ganttChart{}
	}
	chart := ganttChart{Origin: records[0].Start, End: records[0].Finish}
	for _, rec := range records {
		chart.Origin = min(chart.Origin, rec.Start)
		chart.End = max(chart.End, rec.Finish)
	}
	span := float64(chart.End - chart.Origin)

	index := map[processKey]int{}
	seen := map[string]int{}
	for _, rec := range records {
		key := processKey{rec.Name, rec.Arrival, rec.Burst}
		i, ok := index[key]
		if !ok {
			seen[rec.Name]++
			label := rec.Name
			if seen[rec.Name] > 1 {
				label = fmt.Sprintf("%s (%d)", rec.Name, seen[rec.Name])
			}
			i = len(chart.Rows)
			index[key] = i
			chart.Rows = append(chart.Rows, ganttRow{Label: label})
		}
		chart.Rows[i].Bars = append(chart.Rows[i].Bars, ganttBar{
			Start:  rec.Start,
			Finish: rec.Finish,
			Left:   100 * float64(rec.Start-chart.Origin) / span,
			Width:  100 * float64(rec.Duration()) / span,
			Color:  ganttPalette[i%len(ganttPalette)],
		})
	}
	return chart
}

// Template functions available in all templates.
var templateFuncs = template.FuncMap{
	"add": func(a, b int) int {
		return a + b
	},
	"optional": func(v *int) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprint(*v)
	},
	"fixed": func(f float64) string {
		return fmt.Sprintf("%.2f", f)
	},
	"percent": func(f float64) string {
		return fmt.Sprintf("%.1f%%", f*100)
	},
	"join": strings.Join,
	"barStyle": func(b ganttBar) template.CSS {
		return template.CSS(fmt.Sprintf("left:%.3f%%;width:%.3f%%;background:%s", b.Left, b.Width, b.Color))
	},
}

// renderTemplate renders the named page inside the layout.
func renderTemplate(w io.Writer, name string, data map[string]any) error {
	content, ok := templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}

	tmpl, err := template.New("layout").Funcs(templateFuncs).Parse(templates["layout"])
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}
	if _, err := tmpl.New("content").Parse(content); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return tmpl.Execute(w, data)
}

var templates = map[string]string{
	"layout": `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-50 min-h-screen">
    <nav class="bg-white shadow-sm border-b">
        <div class="max-w-6xl mx-auto px-4 h-14 flex items-center">
            <a href="/" class="text-xl font-bold text-indigo-600">SchedSim</a>
            <span class="ml-4 text-sm text-gray-500">CPU scheduling simulator</span>
        </div>
    </nav>
    <main class="max-w-6xl mx-auto py-6 px-4">
        {{template "content" .}}
    </main>
</body>
</html>`,

	"dashboard": `{{define "content"}}
{{if .Error}}
<div id="error" class="mb-6 rounded-md bg-red-50 p-4 text-sm text-red-700">{{.Error}}</div>
{{end}}
<div class="grid grid-cols-1 gap-6 md:grid-cols-3">
    <form action="/ui/processes" method="POST" class="bg-white shadow rounded-lg p-5 space-y-3">
        <h2 class="text-lg font-medium text-gray-900">Add process</h2>
        <input name="name" placeholder="Name" required class="w-full border rounded px-3 py-2 text-sm">
        <input name="arrival" type="number" min="0" placeholder="Arrival" required class="w-full border rounded px-3 py-2 text-sm">
        <input name="burst" type="number" min="1" placeholder="Burst" required class="w-full border rounded px-3 py-2 text-sm">
        <input name="priority" type="number" placeholder="Priority (optional)" class="w-full border rounded px-3 py-2 text-sm">
        <button type="submit" class="w-full bg-indigo-600 text-white rounded py-2 text-sm font-medium hover:bg-indigo-700">Add</button>
    </form>

    <div class="md:col-span-2 bg-white shadow rounded-lg p-5">
        <div class="flex items-center justify-between mb-3">
            <h2 class="text-lg font-medium text-gray-900">Processes</h2>
            <form action="/ui/reset" method="POST">
                <button type="submit" class="text-sm text-red-600 hover:text-red-800">Reset</button>
            </form>
        </div>
        {{if .Processes}}
        <table id="processes" class="min-w-full text-sm">
            <thead><tr class="text-left text-gray-500"><th class="py-1">#</th><th>Name</th><th>Arrival</th><th>Burst</th><th>Priority</th></tr></thead>
            <tbody>
            {{range $i, $p := .Processes}}
            <tr class="border-t"><td class="py-1">{{add $i 1}}</td><td>{{$p.Name}}</td><td>{{$p.Arrival}}</td><td>{{$p.Burst}}</td><td>{{$p.Priority}}</td></tr>
            {{end}}
            </tbody>
        </table>
        {{else}}
        <p class="text-sm text-gray-500">No processes registered.</p>
        {{end}}

        <form action="/ui/run" method="GET" class="mt-5 flex items-end gap-3">
            <label class="text-sm text-gray-700">Algorithm
                <select name="algorithm" class="block border rounded px-3 py-2">
                    {{range .Algorithms}}<option value="{{.ID}}" title="{{.Description}}">{{.Name}}</option>{{end}}
                </select>
            </label>
            <label class="text-sm text-gray-700">Quantum
                <input name="quantum" type="number" min="1" value="{{.Quantum}}" class="block w-24 border rounded px-3 py-2">
            </label>
            <button type="submit" class="bg-indigo-600 text-white rounded px-4 py-2 text-sm font-medium hover:bg-indigo-700">Run</button>
        </form>
    </div>
</div>
<p class="mt-6 text-xs text-gray-400">Up {{.Uptime}}</p>
{{end}}`,

	"result": `{{define "content"}}
{{with .Result}}
<div class="mb-6 flex items-center justify-between">
    <h1 class="text-2xl font-semibold text-gray-900">{{.Algorithm}}{{if .Quantum}} <span class="text-gray-500 text-lg">(quantum {{.Quantum}})</span>{{end}}</h1>
    <a href="/" class="text-sm text-indigo-600 hover:text-indigo-800">Back</a>
</div>
{{end}}

{{if not .Result.Execution}}
<p class="text-sm text-gray-500">No processes to schedule.</p>
{{else}}
<div class="bg-white shadow rounded-lg p-5 mb-6">
    <div class="flex items-center justify-between mb-3">
        <h2 class="text-lg font-medium text-gray-900">Gantt</h2>
        <div id="replay-controls" class="text-sm" data-stream="{{.StreamURL}}">
            <span id="replay-status" class="text-gray-500 mr-3"></span>
            <button id="replay" type="button" class="text-indigo-600 hover:text-indigo-800">Replay</button>
            <button id="cancel" type="button" class="ml-2 text-gray-500 hover:text-gray-700">Cancel</button>
        </div>
    </div>
    {{range .Gantt.Rows}}
    <div class="flex items-center mb-1">
        <div class="w-24 text-sm text-gray-700">{{.Label}}</div>
        <div class="relative flex-1 h-6 bg-gray-100 rounded">
            {{range .Bars}}<div class="gantt-bar absolute h-6 rounded text-xs text-white text-center leading-6" style="{{barStyle .}}" title="{{.Start}}-{{.Finish}}"></div>{{end}}
        </div>
    </div>
    {{end}}
    <div class="flex justify-between text-xs text-gray-500 ml-24"><span>t={{.Gantt.Origin}}</span><span>t={{.Gantt.End}}</span></div>
</div>

<div class="grid grid-cols-1 gap-6 md:grid-cols-2">
    <div class="bg-white shadow rounded-lg p-5">
        <h2 class="text-lg font-medium text-gray-900 mb-3">Execution</h2>
        <table id="execution" class="min-w-full text-sm">
            <thead><tr class="text-left text-gray-500"><th class="py-1">Process</th><th>Start</th><th>Finish</th><th>Remaining</th><th>Waiting</th><th>Turnaround</th></tr></thead>
            <tbody>
            {{range .Result.Execution}}
            <tr class="border-t"><td class="py-1">{{.Name}}</td><td>{{.Start}}</td><td>{{.Finish}}</td><td>{{.Remaining}}</td><td>{{optional .Waiting}}</td><td>{{optional .Turnaround}}</td></tr>
            {{end}}
            </tbody>
        </table>
    </div>
    <div class="bg-white shadow rounded-lg p-5">
        <h2 class="text-lg font-medium text-gray-900 mb-3">Ready queue</h2>
        <table id="queue" class="min-w-full text-sm">
            <thead><tr class="text-left text-gray-500"><th class="py-1">Time</th><th>Executing</th><th>Queue</th></tr></thead>
            <tbody>
            {{range .Result.QueueHistory}}
            <tr class="border-t"><td class="py-1">{{.Time}}</td><td>{{if .IsIdle}}(idle){{else}}{{.Executing}}{{end}}</td><td>{{join .Queue " "}}</td></tr>
            {{end}}
            </tbody>
        </table>
    </div>
</div>

{{with .Result.Summary}}
<div id="summary" class="bg-white shadow rounded-lg p-5 mt-6 grid grid-cols-2 md:grid-cols-4 gap-4 text-sm">
    <div><div class="text-gray-500">Avg waiting</div><div class="text-lg">{{fixed .AvgWaiting}}</div></div>
    <div><div class="text-gray-500">Avg turnaround</div><div class="text-lg">{{fixed .AvgTurnaround}}</div></div>
    <div><div class="text-gray-500">Avg response</div><div class="text-lg">{{fixed .AvgResponse}}</div></div>
    <div><div class="text-gray-500">CPU utilization</div><div class="text-lg">{{percent .CPUUtilization}}</div></div>
    <div><div class="text-gray-500">Total time</div><div class="text-lg">{{.TotalTime}}</div></div>
    <div><div class="text-gray-500">Idle time</div><div class="text-lg">{{.IdleTime}}</div></div>
    <div><div class="text-gray-500">Context switches</div><div class="text-lg">{{.ContextSwitches}}</div></div>
    <div><div class="text-gray-500">Processes</div><div class="text-lg">{{.Processes}}</div></div>
</div>
{{end}}

<script>
(function () {
    const streamURL = document.getElementById("replay-controls").dataset.stream;
    const rows = document.querySelectorAll("#execution tbody tr");
    const status = document.getElementById("replay-status");
    let source = null;

    function stop(message) {
        if (source) { source.close(); source = null; }
        status.textContent = message;
    }

    document.getElementById("replay").addEventListener("click", function () {
        stop("");
        rows.forEach(function (r) { r.classList.remove("bg-indigo-50"); });
        source = new EventSource(streamURL);
        source.addEventListener("slice", function (e) {
            const s = JSON.parse(e.data);
            rows.forEach(function (r, i) { r.classList.toggle("bg-indigo-50", i === s.index); });
            status.textContent = "Running " + s.record.name + " (" + s.record.start + "-" + s.record.finish + ")";
        });
        source.addEventListener("complete", function () { stop("Completed"); });
        source.addEventListener("error", function () { stop("Stopped"); });
    });
    document.getElementById("cancel").addEventListener("click", function () { stop("Cancelled"); });
})();
</script>
{{end}}
{{end}}`,

	"error": `{{define "content"}}
<div class="rounded-md bg-red-50 p-6">
    <h1 class="text-lg font-medium text-red-800">Error</h1>
    <p id="message" class="mt-2 text-sm text-red-700">{{.Message}}</p>
    <a href="/" class="mt-4 inline-block text-sm text-indigo-600 hover:text-indigo-800">Back</a>
</div>
{{end}}`,
}
