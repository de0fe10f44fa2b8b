package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ramadan/internal/reports"
	"ramadan/internal/state"
)

const defaultHistoryDays = 7

func newStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show today's progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the live report as JSON")
	return cmd
}

func runStatus(cmd *cobra.Command, asJSON bool) error {
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

	s := m.State()
	gen := reports.NewGenerator(store, s)
	report, err := gen.GenerateDaily(cmd.Context(), m.Clock().Today())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		data, err := reports.FormatDailyJSON(report)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	printStatus(out, s, report)
	return nil
}

func printStatus(w io.Writer, s *state.AppState, r *reports.DailyReport) {
	p := state.TodayProgress(s)

	fmt.Fprintf(w, "%s %s\n\n", r.DayOfWeek, r.Date)
	fmt.Fprintf(w, "Today       %3d%%  %s\n", r.Snapshot.Pct, meter(r.Snapshot.Pct, 20))
	fmt.Fprintf(w, "Quran       %d/%d pages (%d%%)\n", p.PagesRead, s.DailyPages, p.QuranPct)
	for _, slot := range r.Slots {
		fmt.Fprintf(w, "  %s %-22s %d pages\n", checkMark(slot.Done), slot.Label, slot.Pages)
	}
	if len(r.Challenges) > 0 {
		fmt.Fprintf(w, "Challenges  %d/%d\n", p.ChallengesDone, p.ChallengesOn)
		for _, c := range r.Challenges {
			fmt.Fprintf(w, "  %s %s\n", checkMark(c.Done), c.Label)
		}
	}
	fmt.Fprintf(w, "Dhikr       %d\n", s.SubhaTotal())
	fmt.Fprintf(w, "Streak      %d (best %d)\n", s.Streak, s.BestStreak)
	fmt.Fprintf(w, "Total       %d pages read\n", s.TotalPages)
}

func newHistoryCmd() *cobra.Command {
	var (
		last   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if last < 1 {
				return fmt.Errorf("--last must be at least 1")
			}
			return runHistory(cmd, last, asJSON)
		},
	}
	cmd.Flags().IntVarP(&last, "last", "n", defaultHistoryDays, "number of days to show, ending yesterday")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func runHistory(cmd *cobra.Command, last int, asJSON bool) error {
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

	today, err := state.ParseDate(m.Clock().Today())
	if err != nil {
		return err
	}
	from := state.DateString(today.AddDate(0, 0, -last))
	to := state.DateString(today.AddDate(0, 0, -1))

	entries, err := store.History(cmd.Context(), from, to)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No archived days between %s and %s.\n", from, to)
		return nil
	}
	fmt.Fprintf(out, "%-10s  %4s  %-5s %-5s %-5s %-5s %5s\n", "DATE", "PCT", "QURAN", "AZKAR", "DHIKR", "QIYAM", "PAGES")
	for _, e := range entries {
		snap := e.Snapshot
		fmt.Fprintf(out, "%-10s  %3d%%  %-5s %-5s %-5s %-5s %5d\n",
			e.Date, snap.Pct, yesNo(snap.Quran), yesNo(snap.Azkar), yesNo(snap.Subha), yesNo(snap.Qiyam), snap.PagesRead)
	}
	return nil
}

func meter(pct, width int) string {
	filled := min(width, max(0, pct*width/100))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func checkMark(done bool) string {
	if done {
		return "[✓]"
	}
	return "[ ]"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
