// Command kpireport loads the six operational datasets once and writes the
// KPI report as a directory of CSV files or a single XLSX workbook.
//
//	kpireport -source ./data/datasets -format xlsx -out kpi.xlsx
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"opsdash/internal/config"
	dp "opsdash/internal/dataprocessing"
	"opsdash/internal/exporter"
	"opsdash/internal/kpi"
	"opsdash/pkg/contracts"
)

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

var errNoData = errors.New("no dataset records loaded")

type options struct {
	source   string
	out      string
	format   string
	timeout  time.Duration
	location string
	verbose  bool
	version  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			slog.Error("KPI report failed", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("kpireport", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.source, "source", "", "dataset directory or http(s) base URL (defaults to data/datasets)")
	fs.StringVar(&opts.out, "out", "", "output directory for csv, or file for xlsx (defaults to data/reports)")
	fs.StringVar(&opts.format, "format", formatCSV, "report format: csv or xlsx")
	fs.DurationVar(&opts.timeout, "timeout", config.DefaultFetchTimeout, "per-file fetch timeout")
	fs.StringVar(&opts.location, "location", "Local", "time zone for timestamps without an offset")
	fs.BoolVar(&opts.verbose, "v", false, "log parse warnings and debug output")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.format = strings.ToLower(opts.format)
	switch opts.format {
	case formatCSV, formatXLSX:
	default:
		return opts, fmt.Errorf("unsupported format %q, want csv or xlsx", opts.format)
	}
	if opts.timeout <= 0 {
		return opts, fmt.Errorf("timeout must be positive")
	}
	if opts.out != "" {
		abs, err := filepath.Abs(opts.out)
		if err != nil {
			return opts, fmt.Errorf("invalid output path %q: %w", opts.out, err)
		}
		opts.out = abs
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stderr, contracts.GetFullVersionString())
		return nil
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	paths, err := config.GetPaths()
	if err != nil {
		return fmt.Errorf("failed to initialize paths: %w", err)
	}
	if opts.source == "" {
		opts.source = paths.DatasetsDir
	}

	datasets := config.DatasetsConfig{
		Source:         opts.source,
		FetchTimeout:   opts.timeout,
		Location:       opts.location,
		MaxConcurrency: config.DefaultMaxConcurrency,
		MaxWarnings:    config.DefaultMaxParseWarnings,
	}
	if err := datasets.Validate(); err != nil {
		return err
	}
	loc, err := datasets.TimeLocation()
	if err != nil {
		return err
	}

	logger.Info("Loading datasets", slog.String("source", opts.source))
	loader := dp.NewLoader(
		dp.NewSource(datasets.Source, datasets.FetchTimeout),
		dp.WithLocation(loc),
		dp.WithLogger(logger),
		dp.WithMaxWarnings(datasets.MaxWarnings),
	)
	cache := dp.LoadAll(ctx, loader, datasets.MaxConcurrency)
	for _, st := range cache.Status() {
		if st.Error != "" {
			logger.Warn("Dataset failed to load",
				slog.String("dataset", st.Name),
				slog.String("error", st.Error))
			continue
		}
		logger.Info("Dataset loaded",
			slog.String("dataset", st.Name),
			slog.Int("records", st.Records),
			slog.Int("warnings", st.Warnings))
	}
	if cache.Empty() {
		return errNoData
	}

	report := exporter.BuildReport(cache, kpi.DefaultThresholds(), time.Now().In(loc))

	switch opts.format {
	case formatXLSX:
		out := opts.out
		if out == "" {
			out = paths.GetDatedReportPath("kpi_report", formatXLSX, report.GeneratedAt)
		}
		if err := exporter.NewReportWriter(logger).WriteWorkbook(out, report); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		fmt.Fprintln(stderr, out)
	default:
		out := opts.out
		if out == "" {
			out = paths.GetReportPath("kpi_report_" + report.GeneratedAt.Format("20060102"))
		}
		files, err := exporter.NewCSVWriter(paths, logger).WriteReport(out, report)
		if err != nil {
			return fmt.Errorf("failed to write csv report: %w", err)
		}
		if len(files) > 0 {
			fmt.Fprintln(stderr, filepath.Dir(files[0]))
		}
	}
	return nil
}
