// Package main is the entry point for ramadan, a terminal companion for the
// month of Ramadan. Without a subcommand it starts the TUI; the subcommands
// inspect and maintain the data directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ramadan/internal/config"
	"ramadan/internal/logging"
	"ramadan/internal/notify"
	"ramadan/internal/state"
	"ramadan/internal/storage"
	"ramadan/internal/sync"
	"ramadan/internal/ui"
	"ramadan/internal/watch"
)

// Version information, set by the release build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ramadan",
		Short: "Daily Quran reading, challenges and dhikr in your terminal",
		Long: `ramadan tracks the month in a keyboard-driven terminal UI.

Split today's Quran portion across your reading times, tick off the daily
challenges and count your dhikr. Every day is archived at midnight and
feeds your streak. Data lives in ~/.ramadan/ (see data_dir in
~/.config/ramadan/config.yaml).`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTUI,
	}
	root.SetVersionTemplate(fmt.Sprintf("ramadan version %s\n  commit: %s\n  built:  %s\n", version, commit, date))

	root.AddCommand(newStatusCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newBackupCmd())
	root.AddCommand(newRestoreCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newResetCmd())
	root.AddCommand(newImportCmd())

	return root
}

// loadConfig reads the configuration and builds the file logger. The
// returned logger is never nil.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, File: cfg.LogFile()})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openMachine opens the configured backend, loads the state and applies the
// day rollover. A recovered corrupt state is reported on stderr and used.
func openMachine(cfg *config.Config, logger *zap.Logger, stderr io.Writer) (storage.Backend, *state.Machine, error) {
	store, err := storage.Open(cfg.GetDataDir(), cfg.Storage.Backend)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	s, err := store.LoadState()
	if err != nil {
		if !errors.Is(err, storage.ErrCorrupt) {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to load state: %w", err)
		}
		logger.Warn("state recovered", zap.Error(err))
		fmt.Fprintf(stderr, "Warning: %v\n", err)
	}

	m := state.NewMachine(s, store, state.NewSystemClock(nil), logging.Named(logger, "state"))
	m.CheckDay()
	return store, m, nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Pull before loading so the TUI opens on the merged state.
	var gitSync *sync.GitSync
	if cfg.Sync.Enabled && sync.IsGitInstalled() {
		gitSync = sync.New(cfg.GetDataDir(), cfg.Sync, logging.Named(logger, "sync"))
		if cfg.Sync.PullOnStartup && gitSync.IsRepo() {
			if err := gitSync.Pull(ctx); err != nil {
				logger.Warn("sync pull failed", zap.Error(err))
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: sync pull failed: %v\n", err)
			}
		}
	}

	store, m, err := openMachine(cfg, logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Warn("failed to close storage", zap.Error(cerr))
		}
	}()

	if gitSync != nil && cfg.Sync.AutoCommit && gitSync.IsRepo() {
		store.SetOnSaveWithContext(gitSync.OnSave)
		defer func() {
			if cerr := gitSync.Close(); cerr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: final sync commit failed: %v\n", cerr)
			}
		}()
	}

	scheduler := notify.NewScheduler(notify.New(), cfg.Notifications, logging.Named(logger, "notify"))
	app := ui.NewApp(m, scheduler, ui.NewStyles(cfg), ui.AppConfigFrom(cfg))

	// Only the JSON backend has a file another process can replace.
	if src, ok := store.(watch.Source); ok {
		w, err := watch.New(src, app, logging.Named(logger, "watch"))
		if err != nil {
			logger.Warn("file watcher unavailable", zap.Error(err))
		} else if err := w.Start(ctx); err != nil {
			logger.Warn("file watcher unavailable", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	logger.Info("starting", zap.String("version", version), zap.String("backend", cfg.Storage.Backend))
	if err := ui.Run(app); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
