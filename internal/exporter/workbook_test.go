package exporter

import (
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"opsdash/internal/kpi"
	"opsdash/internal/shared/testutil"
)

func TestReportWriter_WriteWorkbook(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	w := NewReportWriter(logger)

	report := BuildReport(loadFixtureCache(t), kpi.DefaultThresholds(), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	path := filepath.Join(t.TempDir(), "reports", "kpi.xlsx")

	require.NoError(t, w.WriteWorkbook(path, report))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, len(report.Tables))
	assert.Equal(t, OverviewTable, sheets[0])
	assert.Equal(t, "NRW by Zone", sheets[4])

	header, err := f.GetCellValue(OverviewTable, "C1")
	require.NoError(t, err)
	assert.Equal(t, "Value", header)

	rows, err := f.GetRows("Stations")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	// readings are stored as numbers
	readings, err := excelize.CoordinatesToCellName(len(rows[0]), 2)
	require.NoError(t, err)
	typ, err := f.GetCellType("Stations", readings)
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
	assert.NotEqual(t, excelize.CellTypeInlineString, typ)

	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Equal(t, report.Title, props.Title)

	testutil.AssertLogContains(t, logs, slog.LevelInfo, "KPI workbook written")
}

func TestReportWriter_EmptyReport(t *testing.T) {
	w := NewReportWriter(nil)
	err := w.WriteWorkbook(filepath.Join(t.TempDir(), "empty.xlsx"), Report{})
	assert.ErrorIs(t, err, ErrEmptyReport)
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Overview", "Overview"},
		{"NRW/Zone [2024]", "NRW-Zone -2024-"},
		{"  ", "Sheet"},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sheetName(tt.in), tt.in)
	}
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		in   string
		want interface{}
	}{
		{"14.30", 14.3},
		{"-2", float64(-2)},
		{"0", float64(0)},
		{"0.5", 0.5},
		{"007", "007"},
		{"Zone-A-Central", "Zone-A-Central"},
		{"2024-01", "2024-01"},
		{"", ""},
		{"NaN", "NaN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cellValue(tt.in), tt.in)
	}
}
