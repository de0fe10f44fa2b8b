package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ramadan/internal/backup"
	"ramadan/internal/config"
)

func newBackupCmd() *cobra.Command {
	var (
		list bool
		keep int
	)
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create or list backups of the data directory",
		Long: `Create a timestamped backup of your data. Backups are stored in
<data_dir>/backups/ and can be restored with 'ramadan restore'.`,
		Example: `  ramadan backup
  ramadan backup --list
  ramadan backup --keep 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			manager := backup.NewManager(cfg.GetDataDir(), version)
			if list {
				return listBackups(cmd.OutOrStdout(), manager, time.Now())
			}
			return createBackup(cmd.OutOrStdout(), manager, keep)
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list available backups")
	cmd.Flags().IntVar(&keep, "keep", 0, "after creating, delete all but the newest N backups (0 keeps all)")
	return cmd
}

func createBackup(w io.Writer, manager *backup.Manager, keep int) error {
	name, err := manager.Create()
	if err != nil {
		return err
	}
	info, err := manager.Get(name)
	if err != nil {
		return fmt.Errorf("failed to read backup info: %w", err)
	}

	fmt.Fprintf(w, "✓ Backup created: %s\n", name)
	fmt.Fprintf(w, "  %s\n", backupStats(info))
	fmt.Fprintf(w, "  Location: %s\n", info.Path)

	if keep > 0 {
		deleted, err := manager.Prune(keep)
		if err != nil {
			return fmt.Errorf("failed to prune backups: %w", err)
		}
		if deleted > 0 {
			fmt.Fprintf(w, "  Pruned %d old backup(s)\n", deleted)
		}
	}
	return nil
}

func listBackups(w io.Writer, manager *backup.Manager, now time.Time) error {
	backups, err := manager.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Fprintln(w, "No backups available.")
		fmt.Fprintln(w, "Run 'ramadan backup' to create one.")
		return nil
	}

	fmt.Fprintln(w, "Available backups:")
	for _, b := range backups {
		fmt.Fprintf(w, "  %s  (%s)   %s\n", b.Name, formatAge(b.CreatedAt, now), backupStats(&b))
	}
	return nil
}

func backupStats(info *backup.Info) string {
	return fmt.Sprintf("Days: %d, Pages: %d, Streak: %d, Duas: %d",
		info.Stats["history_days"], info.Stats["total_pages"], info.Stats["streak"], info.Stats["duas"])
}

func newRestoreCmd() *cobra.Command {
	var latest, force bool
	cmd := &cobra.Command{
		Use:   "restore [BACKUP_NAME]",
		Short: "Restore the data directory from a backup",
		Long: `Restore your data from a backup. A safety backup of the current data is
taken first. Use 'ramadan backup --list' to see available backups.`,
		Example: `  ramadan restore 2026-03-04_213000_000
  ramadan restore --latest --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if latest == (len(args) > 0) {
				return fmt.Errorf("specify either a backup name or --latest")
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			manager := backup.NewManager(cfg.GetDataDir(), version)

			var name string
			if latest {
				backups, err := manager.List()
				if err != nil {
					return err
				}
				if len(backups) == 0 {
					return backup.ErrNoBackups
				}
				name = backups[0].Name
			} else {
				name = args[0]
			}
			return runRestore(cmd, manager, name, force)
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "restore the most recent backup")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

func runRestore(cmd *cobra.Command, manager *backup.Manager, name string, force bool) error {
	info, err := manager.Get(name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Restoring from backup: %s\n", info.Name)
	fmt.Fprintf(out, "  Created: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  %s\n\n", backupStats(info))

	if !force {
		ok, err := confirm(cmd, "⚠ This will overwrite your current data. Continue?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Restore canceled.")
			return nil
		}
	}

	if err := manager.Restore(info.Name); err != nil {
		return err
	}
	fmt.Fprintln(out, "✓ Restore complete.")
	return nil
}

// confirm asks a yes/no question on the command's input. Anything but an
// explicit yes is a no, including end of input.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

// formatAge renders how long ago t was, relative to now.
func formatAge(t, now time.Time) string {
	d := now.Sub(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	case d < 7*24*time.Hour:
		return plural(int(d.Hours()/24), "day")
	default:
		return plural(int(d.Hours()/24/7), "week")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
