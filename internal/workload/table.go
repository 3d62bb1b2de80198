package workload

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/me/schedsim/pkg/model"
)

// Column headers understood in tabular workloads, lower-cased.
var columnAliases = map[string]string{
	"name":         "name",
	"process":      "name",
	"pid":          "name",
	"arrival":      "arrival",
	"arrival_time": "arrival",
	"arrival time": "arrival",
	"burst":        "burst",
	"burst_time":   "burst",
	"burst time":   "burst",
	"priority":     "priority",
}

func parseCSV(r io.Reader) (*Workload, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return parseRows(rows)
}

func parseXLSX(r io.Reader) (*Workload, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("xlsx workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return parseRows(rows)
}

// parseRows turns a header row plus data rows into a workload. Blank rows
// are skipped; cells that are not integers produce field errors naming the
// 1-based row.
func parseRows(rows [][]string) (*Workload, error) {
	wl := &Workload{Processes: []model.Process{}}
	if len(rows) == 0 {
		return wl, nil
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		if key, ok := columnAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, dup := cols[key]; !dup {
				cols[key] = i
			}
		}
	}
	var missing []string
	for _, required := range []string{"name", "arrival", "burst"} {
		if _, ok := cols[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header row lacks column(s): %s", strings.Join(missing, ", "))
	}

	var details []model.FieldError
	for n, row := range rows[1:] {
		if blank(row) {
			continue
		}
		line := n + 2
		cell := func(key string) string {
			i, ok := cols[key]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		number := func(key string, optional bool) int {
			s := cell(key)
			if s == "" && optional {
				return 0
			}
			v, err := strconv.Atoi(s)
			if err != nil {
				details = append(details, model.FieldError{
					Field:   fmt.Sprintf("row %d.%s", line, key),
					Message: fmt.Sprintf("%q is not an integer", s),
				})
			}
			return v
		}

		wl.Processes = append(wl.Processes, model.Process{
			Name:     cell("name"),
			Arrival:  number("arrival", false),
			Burst:    number("burst", false),
			Priority: number("priority", true),
		})
	}
	if len(details) > 0 {
		return nil, &model.ValidationError{Message: "invalid workload table", Details: details}
	}
	return wl, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func writeCSV(out io.Writer, processes []model.Process) error {
	cw := csv.NewWriter(out)
	if err := cw.Write([]string{"name", "arrival", "burst", "priority"}); err != nil {
		return err
	}
	for _, p := range processes {
		err := cw.Write([]string{
			p.Name,
			strconv.Itoa(p.Arrival),
			strconv.Itoa(p.Burst),
			strconv.Itoa(p.Priority),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
