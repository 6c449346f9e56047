package exporter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet  = "Sheet1"
	maxSheetName  = 31
	minColumnWide = 12
	maxColumnWide = 48
)

// ErrEmptyReport is returned when a report has no tables to write.
var ErrEmptyReport = errors.New("report has no tables")

// ReportWriter writes reports as XLSX workbooks
type ReportWriter struct {
	logger *slog.Logger
}

// NewReportWriter creates a workbook writer
func NewReportWriter(logger *slog.Logger) *ReportWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportWriter{logger: logger.With(slog.String("component", "report_writer"))}
}

// WriteWorkbook writes one sheet per table, in report order, to path.
// Cells that parse as numbers are stored as numbers.
func (w *ReportWriter) WriteWorkbook(path string, report Report) error {
	if len(report.Tables) == 0 {
		return ErrEmptyReport
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DCE6F1"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, table := range report.Tables {
		sheet := sheetName(table.Name)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %q: %w", sheet, err)
		}

		if err := writeSheet(f, sheet, table, header); err != nil {
			return fmt.Errorf("write sheet %q: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)

	if title := report.Title; title != "" {
		if err := f.SetDocProps(&excelize.DocProperties{
			Title:       title,
			Description: "load " + report.LoadID,
			Created:     report.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}); err != nil {
			return fmt.Errorf("set document properties: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info("KPI workbook written",
		slog.String("path", path),
		slog.String("load_id", report.LoadID),
		slog.Int("sheets", len(report.Tables)))
	return nil
}

func writeSheet(f *excelize.File, sheet string, table Table, headerStyle int) error {
	widths := make([]int, len(table.Headers))

	headers := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		headers[i] = h
		widths[i] = len(h)
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	if len(headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
		}); err != nil {
			return err
		}
	}

	for r, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for c, v := range row {
			cells[c] = cellValue(v)
			if c < len(widths) && len(v) > widths[c] {
				widths[c] = len(v)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(clamp(width+2, minColumnWide, maxColumnWide))); err != nil {
			return err
		}
	}
	return nil
}

// cellValue stores numeric text as a number so spreadsheets can sum it.
// Identifiers with leading zeros stay text.
func cellValue(s string) interface{} {
	if s == "" || strings.Trim(s, "0123456789.-") != "" {
		return s
	}
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return s
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}

// sheetName makes name a valid, at most 31 character, sheet name
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Sheet"
	}
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
