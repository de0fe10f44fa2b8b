package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ramadan/internal/importer"
)

func newImportCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import FORMAT FILE",
		Short: "Import past days and journal entries",
		Long: `Import progress recorded elsewhere. Days already in your history are kept,
the day in progress is never touched and journal entries are matched by id.

FORMATS:
  json   a state blob (state.json from another device or the phone app)
         or the output of 'ramadan history --json'
  csv    one row per day with a DATE column and optional PCT, QURAN,
         AZKAR, DHIKR, QIYAM and PAGES columns

Use - as FILE to read from stdin.`,
		Example: `  ramadan import json ~/Downloads/state.json
  ramadan import --dry-run csv ramadan-1446.csv`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			imp := importer.Get(args[0])
			if imp == nil {
				return fmt.Errorf("unknown format %q (supported: %s)", args[0], strings.Join(importer.SupportedFormats(), ", "))
			}
			return runImport(cmd, imp, args[1], dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview the import without saving")
	return cmd
}

func runImport(cmd *cobra.Command, imp importer.Importer, path string, dryRun bool) error {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		r = f
	}

	batch, err := imp.Parse(r)
	if err != nil {
		return fmt.Errorf("failed to read %s input: %w", imp.Name(), err)
	}

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

	out := cmd.OutOrStdout()
	var res importer.Result
	if dryRun {
		_, res = importer.Merge(m.State(), batch)
		fmt.Fprintln(out, "Dry run, nothing was saved.")
	} else {
		res = importer.Apply(m, batch)
		logger.Info("import",
			zap.String("format", imp.Name()),
			zap.Int("days", res.Days),
			zap.Int("journal", res.Journal),
			zap.Int("skipped", res.Skipped),
		)
	}

	fmt.Fprintf(out, "Days added:      %d\n", res.Days)
	fmt.Fprintf(out, "Journal added:   %d\n", res.Journal)
	fmt.Fprintf(out, "Skipped:         %d\n", res.Skipped)
	if res.Totals {
		fmt.Fprintln(out, "Totals raised:   pages read, best streak")
	}
	if len(res.Errors) > 0 {
		fmt.Fprintf(out, "Unreadable rows: %d\n", len(res.Errors))
		for _, e := range res.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", e)
		}
	}
	return nil
}
