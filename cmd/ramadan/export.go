package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ramadan/internal/fsutil"
	"ramadan/internal/reports"
	"ramadan/internal/state"
)

type exportOptions struct {
	weekly bool
	format string
	output string
}

func newExportCmd() *cobra.Command {
	var (
		opts  exportOptions
		daily bool
	)
	cmd := &cobra.Command{
		Use:   "export [DATE]",
		Short: "Generate a daily or weekly report",
		Long: `Generate a report of your progress as Markdown or JSON.

DATE is YYYY-MM-DD and defaults to today. A weekly report covers the
Sunday-to-Saturday week containing DATE.`,
		Example: `  ramadan export
  ramadan export 2026-03-01
  ramadan export --weekly --format json --output week.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if daily && opts.weekly {
				return fmt.Errorf("--daily and --weekly are mutually exclusive")
			}
			format, err := normalizeFormat(opts.format)
			if err != nil {
				return err
			}
			opts.format = format

			var date string
			if len(args) > 0 {
				date = args[0]
				if !state.IsValidDate(date) {
					return fmt.Errorf("invalid date %q, use YYYY-MM-DD", date)
				}
			}
			return runExport(cmd, date, opts)
		},
	}
	cmd.Flags().BoolVarP(&daily, "daily", "d", false, "generate a daily report (default)")
	cmd.Flags().BoolVarP(&opts.weekly, "weekly", "w", false, "generate a weekly report")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "markdown", "output format: markdown or json")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func normalizeFormat(format string) (string, error) {
	switch format {
	case "markdown", "md":
		return "markdown", nil
	case "json":
		return "json", nil
	default:
		return "", fmt.Errorf("invalid format %q, use markdown or json", format)
	}
}

func runExport(cmd *cobra.Command, date string, opts exportOptions) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, m, err := openMachine(cfg, logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("failed to close storage", zap.Error(cerr))
		}
	}()

	if date == "" {
		date = m.Clock().Today()
	}
	output, err := renderReport(cmd, reports.NewGenerator(store, m.State()), date, opts)
	if err != nil {
		return err
	}

	if opts.output == "" {
		fmt.Fprint(cmd.OutOrStdout(), output)
		return nil
	}
	if dir := filepath.Dir(opts.output); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := fsutil.WriteFileAtomic(opts.output, []byte(output), 0600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", opts.output)
	return nil
}

func renderReport(cmd *cobra.Command, gen *reports.Generator, date string, opts exportOptions) (string, error) {
	if opts.weekly {
		report, err := gen.GenerateWeekly(cmd.Context(), date)
		if err != nil {
			return "", fmt.Errorf("failed to generate weekly report: %w", err)
		}
		if opts.format == "json" {
			data, err := reports.FormatWeeklyJSON(report)
			return string(data) + "\n", err
		}
		return reports.FormatWeeklyMarkdown(report), nil
	}

	report, err := gen.GenerateDaily(cmd.Context(), date)
	if err != nil {
		return "", fmt.Errorf("failed to generate daily report: %w", err)
	}
	if opts.format == "json" {
		data, err := reports.FormatDailyJSON(report)
		return string(data) + "\n", err
	}
	return reports.FormatDailyMarkdown(report), nil
}
