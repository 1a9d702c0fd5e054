package core

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportFormat selects the serialisation used by ExportData.
type ExportFormat string

// Supported export formats.
const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// isoMillis matches the millisecond ISO-8601 timestamps used in CSV rows.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// ParseExportFormat validates a format name. An empty name selects JSON.
func ParseExportFormat(name string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(name))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", name)
	}
}

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Extension returns the file extension of the format without the dot.
func (f ExportFormat) Extension() string {
	if f == "" {
		return string(FormatJSON)
	}
	return string(f)
}

// WorkerExport is the subset of the repository owned by one worker.
type WorkerExport struct {
	Households   []Household   `json:"households"`
	Mothers      []Mother      `json:"mothers"`
	Children     []Child       `json:"children"`
	Hazards      []Hazard      `json:"hazards"`
	DiseaseCases []DiseaseCase `json:"diseaseCases"`
	ExportedAt   time.Time     `json:"exportedAt"`
	ExportedBy   string        `json:"exportedBy"`
}

// WorkerData collects the records owned by workerID: its households, the
// mothers and children of those households, and the hazards and disease cases
// it reported.
func (s *Service) WorkerData(workerID string) WorkerExport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owned := s.state.householdsOwnedBy(workerID)
	out := WorkerExport{
		Households:   make([]Household, 0),
		Mothers:      make([]Mother, 0),
		Children:     make([]Child, 0),
		Hazards:      make([]Hazard, 0),
		DiseaseCases: make([]DiseaseCase, 0),
		ExportedAt:   s.now(),
		ExportedBy:   workerID,
	}
	for _, h := range s.state.households {
		if _, ok := owned[h.ID]; ok {
			out.Households = append(out.Households, cloneHousehold(h))
		}
	}
	for _, m := range s.state.mothers {
		if _, ok := owned[m.HouseholdID]; ok {
			out.Mothers = append(out.Mothers, cloneMother(m))
		}
	}
	for _, c := range s.state.children {
		if _, ok := owned[c.HouseholdID]; ok {
			out.Children = append(out.Children, cloneChild(c))
		}
	}
	for _, h := range s.state.hazards {
		if h.ReportedBy == workerID {
			out.Hazards = append(out.Hazards, cloneHazard(h))
		}
	}
	for _, c := range s.state.cases {
		if c.ReportedBy == workerID {
			out.DiseaseCases = append(out.DiseaseCases, cloneDiseaseCase(c))
		}
	}
	return out
}

// ExportData serialises the worker's records in the requested format. JSON is
// the full-fidelity dump; CSV and XLSX carry the Type, ID, Name, Status, Date
// projection of households, mothers and children.
func (s *Service) ExportData(workerID string, format ExportFormat) ([]byte, error) {
	data := s.WorkerData(workerID)
	switch format {
	case "", FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json export: %w", err)
		}
		return out, nil
	case FormatCSV:
		return encodeCSV(summaryRows(data))
	case FormatXLSX:
		return encodeXLSX(data)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

var summaryHeader = []string{"Type", "ID", "Name", "Status", "Date"}

func householdRows(hs []Household) [][]string {
	rows := make([][]string, 0, len(hs))
	for _, h := range hs {
		rows = append(rows, []string{"Household", h.HouseholdID, h.HeadOfHousehold.Name, string(h.Status), h.RegisteredAt.UTC().Format(isoMillis)})
	}
	return rows
}

func motherRows(ms []Mother) [][]string {
	rows := make([][]string, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, []string{"Mother", m.MotherID, m.Name, string(m.Status), m.RegisteredAt.UTC().Format(isoMillis)})
	}
	return rows
}

func childRows(cs []Child) [][]string {
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{"Child", c.ChildID, c.Name, string(c.Status), c.RegisteredAt.UTC().Format(isoMillis)})
	}
	return rows
}

func summaryRows(data WorkerExport) [][]string {
	rows := [][]string{summaryHeader}
	rows = append(rows, householdRows(data.Households)...)
	rows = append(rows, motherRows(data.Mothers)...)
	rows = append(rows, childRows(data.Children)...)
	return rows
}

func encodeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("encode csv export: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func encodeXLSX(data WorkerExport) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheets := []struct {
		name string
		rows [][]string
	}{
		{"Households", householdRows(data.Households)},
		{"Mothers", motherRows(data.Mothers)},
		{"Children", childRows(data.Children)},
	}
	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sh.name, err)
		}
		if err := writeSheetRows(f, sh.name, append([][]string{summaryHeader}, sh.rows...)); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx export: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheetRows(f *excelize.File, sheet string, rows [][]string) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("set %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
