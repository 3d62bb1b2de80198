// Package workload reads and writes process sets stored in files so that
// simulations can run without a service.
//
// YAML and JSON files hold either a bare list of processes or a document
// with optional algorithm and quantum defaults:
//
//	algorithm: RR
//	quantum: 2
//	processes:
//	  - {name: P1, arrival: 0, burst: 5}
//	  - {name: P2, arrival: 1, burst: 3, priority: 1}
//
// CSV files and the first sheet of XLSX workbooks carry a header row naming
// the name, arrival and burst columns, plus an optional priority column.
package workload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/me/schedsim/pkg/model"
)

// Format identifies a workload file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Workload is a named set of processes with optional run defaults.
type Workload struct {
	Algorithm string          `yaml:"algorithm,omitempty" json:"algorithm,omitempty"`
	Quantum   int             `yaml:"quantum,omitempty" json:"quantum,omitempty"`
	Processes []model.Process `yaml:"processes" json:"processes"`
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported workload file %q (want .yaml, .yml, .json, .csv or .xlsx)", path)
	}
}

// Load reads and validates the workload at path.
func Load(path string) (*Workload, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workload: %w", err)
	}
	defer f.Close()

	wl, err := Parse(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wl, nil
}

// Parse decodes a workload from r and validates every process.
func Parse(r io.Reader, format Format) (*Workload, error) {
	var (
		wl  *Workload
		err error
	)
	switch format {
	case FormatYAML:
		wl, err = parseYAML(r)
	case FormatJSON:
		wl, err = parseJSON(r)
	case FormatCSV:
		wl, err = parseCSV(r)
	case FormatXLSX:
		wl, err = parseXLSX(r)
	default:
		return nil, fmt.Errorf("unsupported workload format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if wl.Processes == nil {
		wl.Processes = []model.Process{}
	}
	if err := wl.Validate(); err != nil {
		return nil, err
	}
	return wl, nil
}

// Validate checks every process and the optional algorithm default.
func (w *Workload) Validate() error {
	var details []model.FieldError
	if w.Algorithm != "" {
		if _, err := model.ParseAlgorithm(w.Algorithm); err != nil {
			details = append(details, model.FieldError{Field: "algorithm", Message: err.Error()})
		}
	}
	if w.Quantum < 0 {
		details = append(details, model.FieldError{Field: "quantum", Message: "must be >= 0"})
	}
	for i, p := range w.Processes {
		err := p.Validate()
		if err == nil {
			continue
		}
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		for _, d := range verr.Details {
			details = append(details, model.FieldError{
				Field:   fmt.Sprintf("processes[%d].%s", i, d.Field),
				Message: d.Message,
			})
		}
	}
	if len(details) > 0 {
		return &model.ValidationError{Message: "invalid workload", Details: details}
	}
	return nil
}

func parseYAML(r io.Reader) (*Workload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read yaml: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	wl := &Workload{}
	if len(node.Content) == 0 {
		return wl, nil
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		err = node.Content[0].Decode(&wl.Processes)
	} else {
		err = node.Content[0].Decode(wl)
	}
	if err != nil {
		return nil, fmt.Errorf("decode yaml workload: %w", err)
	}
	return wl, nil
}

func parseJSON(r io.Reader) (*Workload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	data = bytes.TrimSpace(data)

	wl := &Workload{}
	if len(data) == 0 {
		return wl, nil
	}
	if data[0] == '[' {
		err = json.Unmarshal(data, &wl.Processes)
	} else {
		err = json.Unmarshal(data, wl)
	}
	if err != nil {
		return nil, fmt.Errorf("parse json workload: %w", err)
	}
	return wl, nil
}

// Write encodes w in format. XLSX output is produced by the export package.
func Write(out io.Writer, format Format, w *Workload) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(w); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(w)
	case FormatCSV:
		return writeCSV(out, w.Processes)
	default:
		return fmt.Errorf("cannot write workload as %q", format)
	}
}
