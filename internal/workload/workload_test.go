package workload

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/me/schedsim/pkg/model"
)

var sample = []model.Process{
	{Name: "P1", Arrival: 0, Burst: 5},
	{Name: "P2", Arrival: 1, Burst: 3, Priority: 1},
}

func TestParse_YAMLDocument(t *testing.T) {
	src := `
algorithm: rr
quantum: 3
processes:
  - {name: P1, arrival: 0, burst: 5}
  - {name: P2, arrival: 1, burst: 3, priority: 1}
`
	wl, err := Parse(strings.NewReader(src), FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if wl.Algorithm != "rr" || wl.Quantum != 3 {
		t.Errorf("defaults = %q/%d", wl.Algorithm, wl.Quantum)
	}
	if !reflect.DeepEqual(wl.Processes, sample) {
		t.Errorf("processes = %+v", wl.Processes)
	}
}

func TestParse_YAMLList(t *testing.T) {
	src := "- name: P1\n  arrival: 0\n  burst: 5\n- name: P2\n  arrival: 1\n  burst: 3\n  priority: 1\n"
	wl, err := Parse(strings.NewReader(src), FormatYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(wl.Processes, sample) {
		t.Errorf("processes = %+v", wl.Processes)
	}
}

func TestParse_JSON(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"list", `[{"name":"P1","arrival":0,"burst":5},{"name":"P2","arrival":1,"burst":3,"priority":1}]`},
		{"document", `{"algorithm":"SJF","processes":[{"name":"P1","arrival":0,"burst":5},{"name":"P2","arrival":1,"burst":3,"priority":1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wl, err := Parse(strings.NewReader(tt.src), FormatJSON)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if !reflect.DeepEqual(wl.Processes, sample) {
				t.Errorf("processes = %+v", wl.Processes)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, f := range []Format{FormatYAML, FormatJSON, FormatCSV} {
		wl, err := Parse(strings.NewReader(""), f)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if wl.Processes == nil || len(wl.Processes) != 0 {
			t.Errorf("%s: processes = %#v", f, wl.Processes)
		}
	}
}

func TestParse_CSV(t *testing.T) {
	src := "Process, Arrival Time, Burst Time, Priority\nP1,0,5,\n\nP2,1,3,1\n"
	wl, err := Parse(strings.NewReader(src), FormatCSV)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(wl.Processes, sample) {
		t.Errorf("processes = %+v", wl.Processes)
	}
}

func TestParse_CSVErrors(t *testing.T) {
	_, err := Parse(strings.NewReader("name,arrival\nP1,0\n"), FormatCSV)
	if err == nil || !strings.Contains(err.Error(), "burst") {
		t.Errorf("missing column: err = %v", err)
	}

	_, err = Parse(strings.NewReader("name,arrival,burst\nP1,zero,5\n"), FormatCSV)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("bad integer: err = %v, want ValidationError", err)
	}
	if verr.Details[0].Field != "row 2.arrival" {
		t.Errorf("field = %q", verr.Details[0].Field)
	}
}

func TestParse_ValidatesProcesses(t *testing.T) {
	_, err := Parse(strings.NewReader(`[{"name":"A","arrival":0,"burst":0}]`), FormatJSON)
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Details[0].Field != "processes[0].burst" {
		t.Errorf("field = %q", verr.Details[0].Field)
	}

	_, err = Parse(strings.NewReader(`{"algorithm":"LOTTERY","processes":[]}`), FormatJSON)
	if !errors.As(err, &verr) || verr.Details[0].Field != "algorithm" {
		t.Errorf("unknown algorithm: err = %v", err)
	}
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"name", "arrival", "burst", "priority"},
		{"P1", 0, 5, nil},
		{"P2", 1, 3, 1},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	wl, err := Parse(buf, FormatXLSX)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(wl.Processes, sample) {
		t.Errorf("processes = %+v", wl.Processes)
	}
}

func TestWrite_ThenParse(t *testing.T) {
	in := &Workload{Algorithm: "RR", Quantum: 2, Processes: sample}
	for _, f := range []Format{FormatYAML, FormatJSON, FormatCSV} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, f, in); err != nil {
				t.Fatalf("Write: %v", err)
			}
			out, err := Parse(&buf, f)
			if err != nil {
				t.Fatalf("Parse: %v\n%s", err, buf.String())
			}
			if !reflect.DeepEqual(out.Processes, sample) {
				t.Errorf("processes = %+v", out.Processes)
			}
		})
	}

	if err := Write(&bytes.Buffer{}, FormatXLSX, in); err == nil {
		t.Error("Write xlsx: expected error")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "w.yml")
	os.WriteFile(path, []byte("- {name: A, arrival: 0, burst: 1}\n"), 0o644)

	wl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(wl.Processes) != 1 {
		t.Errorf("processes = %+v", wl.Processes)
	}

	if _, err := Load(filepath.Join(dir, "w.txt")); err == nil {
		t.Error("Load .txt: expected error")
	}
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Load missing: expected error")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.yaml": FormatYAML,
		"a.YML":  FormatYAML,
		"a.json": FormatJSON,
		"a.csv":  FormatCSV,
		"a.xlsx": FormatXLSX,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Errorf("FormatFromPath(%q) = %q, %v", path, got, err)
		}
	}
}
