package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ramadan/internal/state"
)

type resetOptions struct {
	today   bool
	quran   bool
	history bool
	all     bool
	yes     bool
}

// resetAction maps the chosen flag to the action that performs it and a
// description for the prompt.
func resetAction(opts resetOptions) (state.Action, string, error) {
	chosen := 0
	for _, b := range []bool{opts.today, opts.quran, opts.history, opts.all} {
		if b {
			chosen++
		}
	}
	if chosen != 1 {
		return nil, "", fmt.Errorf("choose exactly one of --today, --quran, --history or --all")
	}

	switch {
	case opts.today:
		return state.ResetTodayReading{}, "clear today's reading slots", nil
	case opts.quran:
		return state.ResetQuranProgress{}, "set the total pages read back to zero", nil
	case opts.history:
		return state.ClearHistory{}, "delete every archived day", nil
	default:
		return state.ResetAll{}, "erase all data and start over", nil
	}
}

func newResetCmd() *cobra.Command {
	var opts resetOptions
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset part or all of your progress",
		Long: `Reset part of your progress. Take a backup first with 'ramadan backup'
if you may want it back.`,
		Example: `  ramadan reset --today
  ramadan reset --all --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			action, desc, err := resetAction(opts)
			if err != nil {
				return err
			}
			return runReset(cmd, action, desc, opts.yes)
		},
	}
	cmd.Flags().BoolVar(&opts.today, "today", false, "clear today's reading slots")
	cmd.Flags().BoolVar(&opts.quran, "quran", false, "reset the total pages read")
	cmd.Flags().BoolVar(&opts.history, "history", false, "delete the daily history")
	cmd.Flags().BoolVar(&opts.all, "all", false, "reset everything to first-run state")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func runReset(cmd *cobra.Command, action state.Action, desc string, yes bool) error {
	if !yes {
		ok, err := confirm(cmd, fmt.Sprintf("This will %s. Continue?", desc))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Reset canceled.")
			return nil
		}
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

	t, changed := m.Apply(action)
	if !changed {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to reset.")
		return nil
	}
	logger.Info("reset", zap.String("action", action.Kind()), zap.String("summary", t.Summary))
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", t.Summary)
	return nil
}
