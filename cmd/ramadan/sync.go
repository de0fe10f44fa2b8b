package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"ramadan/internal/config"
	"ramadan/internal/sync"
)

type syncOptions struct {
	init   bool
	status bool
	pull   bool
	push   bool
	remote string
}

func newSyncCmd() *cobra.Command {
	var opts syncOptions
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the data directory with git",
		Long: `Keep your data in a git repository so it can follow you across machines.
Without flags, sync commits all changes and pushes when a remote exists.

Enable automatic commits in ~/.config/ramadan/config.yaml:

  sync:
    enabled: true
    auto_commit: true
    auto_push: false
    pull_on_startup: false`,
		Example: `  ramadan sync --init
  ramadan sync --remote git@github.com:me/ramadan-data.git
  ramadan sync --status
  ramadan sync`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !sync.IsGitInstalled() {
				return fmt.Errorf("git is not installed, install git to use sync")
			}
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			gs := sync.New(cfg.GetDataDir(), cfg.Sync, logger.Named("sync"))
			return runSync(cmd, gs, cfg, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.init, "init", false, "initialize a git repository in the data directory")
	cmd.Flags().BoolVar(&opts.status, "status", false, "show sync status")
	cmd.Flags().BoolVar(&opts.pull, "pull", false, "pull the latest changes from the remote")
	cmd.Flags().BoolVar(&opts.push, "push", false, "push local commits to the remote")
	cmd.Flags().StringVar(&opts.remote, "remote", "", "set the origin remote to `URL`")
	cmd.MarkFlagsMutuallyExclusive("init", "status", "pull", "push")
	return cmd
}

func runSync(cmd *cobra.Command, gs *sync.GitSync, cfg *config.Config, opts syncOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if opts.init {
		if gs.IsRepo() {
			fmt.Fprintf(out, "Git repository already initialized in %s\n", cfg.GetDataDir())
		} else {
			fmt.Fprintf(out, "Initializing git repository in %s...\n", cfg.GetDataDir())
			if err := gs.Init(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "✓ Repository initialized")
		}
	}

	if opts.remote != "" {
		if err := gs.AddRemote(ctx, "origin", opts.remote); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Remote origin set to %s\n", opts.remote)
	}

	switch {
	case opts.init:
		if opts.remote == "" {
			printNextSteps(out)
		}
		return nil
	case opts.status:
		return printSyncStatus(cmd, gs, cfg)
	case opts.pull:
		fmt.Fprintln(out, "Pulling latest changes...")
		if err := gs.Pull(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Pull complete.")
		return nil
	case opts.push:
		fmt.Fprintln(out, "Pushing local changes...")
		if err := gs.Push(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Push complete.")
		return nil
	case opts.remote != "":
		return nil
	}

	if !gs.IsRepo() {
		return sync.ErrNotRepo
	}
	fmt.Fprintln(out, "Committing changes...")
	if err := gs.CommitAll(ctx, ""); err != nil {
		return err
	}
	status, err := gs.Status(ctx)
	if err != nil {
		return err
	}
	if !status.HasRemote {
		fmt.Fprintln(out, "Changes committed locally.")
		fmt.Fprintln(out, "(No remote configured, add one with 'ramadan sync --remote URL')")
		return nil
	}
	fmt.Fprintln(out, "Pushing to remote...")
	if err := gs.Push(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: push failed: %v\n", err)
		fmt.Fprintln(out, "Changes committed locally.")
		return nil
	}
	fmt.Fprintln(out, "Sync complete.")
	return nil
}

func printNextSteps(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintln(w, "  1. Add a remote repository:")
	fmt.Fprintln(w, "     ramadan sync --remote <your-repo-url>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  2. Enable sync in your config (~/.config/ramadan/config.yaml):")
	fmt.Fprintln(w, "     sync:")
	fmt.Fprintln(w, "       enabled: true")
}

func printSyncStatus(cmd *cobra.Command, gs *sync.GitSync, cfg *config.Config) error {
	status, err := gs.Status(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Git Sync Status")
	fmt.Fprintln(w, "───────────────")
	if cfg.Sync.Enabled {
		fmt.Fprintln(w, "Sync:        enabled")
	} else {
		fmt.Fprintln(w, "Sync:        disabled")
	}
	fmt.Fprintf(w, "Data dir:    %s\n", cfg.GetDataDir())

	if !status.IsRepo {
		fmt.Fprintln(w, "Repository:  not initialized")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Run 'ramadan sync --init' to initialize.")
		return nil
	}

	fmt.Fprintln(w, "Repository:  initialized")
	fmt.Fprintf(w, "Branch:      %s\n", status.Branch)
	if status.HasRemote {
		fmt.Fprintf(w, "Remote:      %s (%s)\n", status.RemoteName, status.RemoteURL)
		if status.Ahead > 0 || status.Behind > 0 {
			fmt.Fprintf(w, "Status:      %d ahead, %d behind\n", status.Ahead, status.Behind)
		} else {
			fmt.Fprintln(w, "Status:      up to date")
		}
	} else {
		fmt.Fprintln(w, "Remote:      not configured")
	}
	if status.HasChanges {
		fmt.Fprintln(w, "Changes:     uncommitted changes present")
	} else {
		fmt.Fprintln(w, "Changes:     clean")
	}
	if status.LastCommitAt != nil {
		fmt.Fprintf(w, "Last commit: %s\n", formatAge(*status.LastCommitAt, time.Now()))
	}
	return nil
}
