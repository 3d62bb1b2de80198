// Package export writes simulation results to Excel workbooks and reads the
// execution sheet back.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/me/schedsim/pkg/model"
)

// Sheet names used in exported workbooks.
const (
	SheetExecution = "Execution"
	SheetQueue     = "Queue History"
	SheetSummary   = "Summary"
)

var executionHeader = []any{
	"Process", "Arrival", "Burst", "Start", "Finish", "Remaining", "Final", "Waiting", "Turnaround",
}

// WriteResult writes res as a workbook with execution, queue history and
// summary sheets.
func WriteResult(w io.Writer, res *model.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetExecution); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeExecution(f, bold, res.Execution); err != nil {
		return err
	}
	if err := writeQueue(f, bold, res.QueueHistory); err != nil {
		return err
	}
	if err := writeSummaries(f, bold, []*model.Result{res}); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteComparison writes one summary row per result.
func WriteComparison(w io.Writer, results []*model.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := writeSummaries(f, bold, results); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeExecution(f *excelize.File, header int, records []model.ExecutionRecord) error {
	rows := make([][]any, 0, len(records)+1)
	rows = append(rows, executionHeader)
	for _, rec := range records {
		rows = append(rows, []any{
			rec.Name, rec.Arrival, rec.Burst, rec.Start, rec.Finish, rec.Remaining,
			rec.Final, optional(rec.Waiting), optional(rec.Turnaround),
		})
	}
	return writeRows(f, SheetExecution, header, rows)
}

func writeQueue(f *excelize.File, header int, history []model.QueueSnapshot) error {
	if _, err := f.NewSheet(SheetQueue); err != nil {
		return fmt.Errorf("create sheet %q: %w", SheetQueue, err)
	}
	rows := make([][]any, 0, len(history)+1)
	rows = append(rows, []any{"Time", "Executing", "Ready Queue"})
	for _, snap := range history {
		executing := snap.Executing
		if snap.IsIdle() {
			executing = "(idle)"
		}
		rows = append(rows, []any{snap.Time, executing, strings.Join(snap.Queue, ", ")})
	}
	return writeRows(f, SheetQueue, header, rows)
}

func writeSummaries(f *excelize.File, header int, results []*model.Result) error {
	if idx, _ := f.GetSheetIndex(SheetSummary); idx < 0 {
		if _, err := f.NewSheet(SheetSummary); err != nil {
			return fmt.Errorf("create sheet %q: %w", SheetSummary, err)
		}
	}
	rows := [][]any{{
		"Algorithm", "Quantum", "Processes", "Total Time", "Idle Time",
		"Avg Waiting", "Avg Turnaround", "Avg Response",
		"CPU Utilization", "Throughput", "Context Switches",
	}}
	for _, res := range results {
		s := res.Summary
		rows = append(rows, []any{
			string(res.Algorithm), res.Quantum, s.Processes, s.TotalTime, s.IdleTime,
			s.AvgWaiting, s.AvgTurnaround, s.AvgResponse,
			s.CPUUtilization, s.Throughput, s.ContextSwitches,
		})
	}
	return writeRows(f, SheetSummary, header, rows)
}

func writeRows(f *excelize.File, sheet string, header int, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
			return fmt.Errorf("style %s header: %w", sheet, err)
		}
	}
	return nil
}

func optional(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// ReadExecution reads the execution sheet of a workbook written by
// WriteResult.
func ReadExecution(r io.Reader) ([]model.ExecutionRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetExecution)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", SheetExecution, err)
	}
	records := []model.ExecutionRecord{}
	if len(rows) == 0 {
		return records, nil
	}

	for n, row := range rows[1:] {
		line := n + 2
		cells := make([]string, len(executionHeader))
		copy(cells, row)

		ints := make([]int, 5)
		for i := range ints {
			v, err := strconv.Atoi(cells[i+1])
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %q is not an integer", line, executionHeader[i+1], cells[i+1])
			}
			ints[i] = v
		}
		rec := model.ExecutionRecord{
			Name:      cells[0],
			Arrival:   ints[0],
			Burst:     ints[1],
			Start:     ints[2],
			Finish:    ints[3],
			Remaining: ints[4],
			Final:     strings.EqualFold(cells[6], "true") || cells[6] == "1",
		}
		if rec.Waiting, err = optionalInt(cells[7]); err != nil {
			return nil, fmt.Errorf("row %d waiting: %w", line, err)
		}
		if rec.Turnaround, err = optionalInt(cells[8]); err != nil {
			return nil, fmt.Errorf("row %d turnaround: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
