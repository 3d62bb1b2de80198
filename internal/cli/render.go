package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/me/schedsim/pkg/model"
)

var (
	accent = lipgloss.Color("#FF5F87")
	muted  = lipgloss.Color("#666666")

	titleStyle  = lipgloss.NewStyle().Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(muted)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	ganttPalette = []lipgloss.Color{"#5FAFFF", "#FFAF5F", "#87D787", "#D787D7", "#FFD75F", "#5FD7D7", "#FF8787"}
)

// maxGanttWidth caps the chart width in cells; longer timelines are scaled.
const maxGanttWidth = 60

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

// renderProcesses prints the registered processes.
func renderProcesses(w io.Writer, processes []model.Process) {
	if len(processes) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No processes registered."))
		return
	}
	t := newTable("#", "NAME", "ARRIVAL", "BURST", "PRIORITY")
	for i, p := range processes {
		t.Row(strconv.Itoa(i+1), p.Name, strconv.Itoa(p.Arrival), strconv.Itoa(p.Burst), strconv.Itoa(p.Priority))
	}
	fmt.Fprintln(w, t.Render())
}

func resultTitle(res *model.Result) string {
	title := "Algorithm: " + string(res.Algorithm)
	if res.Quantum > 0 {
		title += fmt.Sprintf(" (quantum %d)", res.Quantum)
	}
	return title
}

// renderResult prints the execution table, Gantt chart, queue history and summary.
func renderResult(w io.Writer, res *model.Result) {
	fmt.Fprintln(w, accentStyle.Render(resultTitle(res)))
	if len(res.Execution) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No processes to schedule."))
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Execution"))
	t := newTable("PROCESS", "START", "FINISH", "REMAINING", "WAITING", "TURNAROUND")
	for _, rec := range res.Execution {
		t.Row(rec.Name,
			strconv.Itoa(rec.Start),
			strconv.Itoa(rec.Finish),
			strconv.Itoa(rec.Remaining),
			optionalInt(rec.Waiting),
			optionalInt(rec.Turnaround),
		)
	}
	fmt.Fprintln(w, t.Render())

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Gantt"))
	fmt.Fprintln(w, renderGantt(res.Execution))

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Ready queue"))
	renderQueueHistory(w, res.QueueHistory)

	fmt.Fprintln(w)
	renderSummary(w, res.Summary)
}

func renderQueueHistory(w io.Writer, history []model.QueueSnapshot) {
	t := newTable("TIME", "EXECUTING", "QUEUE")
	for _, snap := range history {
		executing := snap.Executing
		if snap.IsIdle() {
			executing = "(idle)"
		}
		queue := strings.Join(snap.Queue, " ")
		if queue == "" {
			queue = "-"
		}
		t.Row(strconv.Itoa(snap.Time), executing, queue)
	}
	fmt.Fprintln(w, t.Render())
}

func renderSummary(w io.Writer, s model.Summary) {
	line := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render(fmt.Sprintf("%-18s", label)), value)
	}
	fmt.Fprintln(w, titleStyle.Render("Summary"))
	line("processes", strconv.Itoa(s.Processes))
	line("total time", strconv.Itoa(s.TotalTime))
	line("idle time", strconv.Itoa(s.IdleTime))
	line("avg waiting", fmt.Sprintf("%.2f", s.AvgWaiting))
	line("avg turnaround", fmt.Sprintf("%.2f", s.AvgTurnaround))
	line("avg response", fmt.Sprintf("%.2f", s.AvgResponse))
	line("cpu utilization", fmt.Sprintf("%.1f%%", s.CPUUtilization*100))
	line("throughput", fmt.Sprintf("%.3f/tick", s.Throughput))
	line("context switches", strconv.Itoa(s.ContextSwitches))
}

// renderComparison prints one summary row per result.
func renderComparison(w io.Writer, results []*model.Result) {
	t := newTable("ALGORITHM", "AVG WAIT", "AVG TURNAROUND", "AVG RESPONSE", "CPU %", "SWITCHES", "TOTAL")
	for _, res := range results {
		s := res.Summary
		name := string(res.Algorithm)
		if res.Quantum > 0 {
			name += fmt.Sprintf(" (q=%d)", res.Quantum)
		}
		t.Row(name,
			fmt.Sprintf("%.2f", s.AvgWaiting),
			fmt.Sprintf("%.2f", s.AvgTurnaround),
			fmt.Sprintf("%.2f", s.AvgResponse),
			fmt.Sprintf("%.1f", s.CPUUtilization*100),
			strconv.Itoa(s.ContextSwitches),
			strconv.Itoa(s.TotalTime),
		)
	}
	fmt.Fprintln(w, t.Render())
}

type ganttRow struct {
	label string
	busy  []bool
}

// processKey identifies a process in a timeline; names alone may repeat.
type processKey struct {
	name           string
	arrival, burst int
}

// renderGantt draws one row per process with a cell per tick, or per group
// of ticks when the timeline is wider than maxGanttWidth.
func renderGantt(records []model.ExecutionRecord) string {
	if len(records) == 0 {
		return ""
	}
	origin, end := records[0].Start, records[0].Finish
	for _, rec := range records {
		origin = min(origin, rec.Start)
		end = max(end, rec.Finish)
	}
	span := end - origin
	scale := (span + maxGanttWidth - 1) / maxGanttWidth
	cells := (span + scale - 1) / scale

	var rows []*ganttRow
	index := map[processKey]*ganttRow{}
	seen := map[string]int{}
	for _, rec := range records {
		key := processKey{rec.Name, rec.Arrival, rec.Burst}
		row, ok := index[key]
		if !ok {
			seen[rec.Name]++
			label := rec.Name
			if seen[rec.Name] > 1 {
				label = fmt.Sprintf("%s(%d)", rec.Name, seen[rec.Name])
			}
			row = &ganttRow{label: label, busy: make([]bool, cells)}
			index[key] = row
			rows = append(rows, row)
		}
		for tick := rec.Start; tick < rec.Finish; tick++ {
			row.busy[(tick-origin)/scale] = true
		}
	}

	width := 0
	for _, row := range rows {
		width = max(width, lipgloss.Width(row.label))
	}

	var b strings.Builder
	for i, row := range rows {
		style := lipgloss.NewStyle().Foreground(ganttPalette[i%len(ganttPalette)])
		var bar strings.Builder
		for _, on := range row.busy {
			if on {
				bar.WriteString("█")
			} else {
				bar.WriteString("·")
			}
		}
		fmt.Fprintf(&b, "%-*s │%s\n", width, row.label, style.Render(bar.String()))
	}
	fmt.Fprintf(&b, "%*s └%s\n", width, "", strings.Repeat("─", cells))

	axis := fmt.Sprintf("t=%d", origin)
	last := fmt.Sprintf("t=%d", end)
	if gap := cells - len(axis) - len(last); gap > 0 {
		axis += strings.Repeat(" ", gap) + last
	} else {
		axis += " " + last
	}
	fmt.Fprintf(&b, "%*s  %s", width, "", axis)
	if scale > 1 {
		fmt.Fprintf(&b, "  %s", mutedStyle.Render(fmt.Sprintf("(1 cell = %d ticks)", scale)))
	}
	return b.String()
}
