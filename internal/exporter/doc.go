// Package exporter writes KPI reports to disk.
//
// BuildReport turns a dataset snapshot into a Report: an Overview table of
// headline figures followed by one table per breakdown. The report can be
// written as a directory of CSV files (CSVWriter.WriteReport) or as one
// XLSX workbook with a sheet per table (ReportWriter.WriteWorkbook).
//
// Example usage:
//
//	report := exporter.BuildReport(cache, kpi.DefaultThresholds(), time.Now())
//
//	csvWriter := exporter.NewCSVWriter(paths, logger)
//	files, err := csvWriter.WriteReport("kpi_20240301", report)
//
//	xlsx := exporter.NewReportWriter(logger)
//	err = xlsx.WriteWorkbook("data/reports/kpi.xlsx", report)
package exporter
