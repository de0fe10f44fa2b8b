// Package sync keeps the data directory in a git repository. Saves are
// batched into commits whose messages describe what changed ("Toggle slot:
// After Fajr", "Dhikr: SubhanAllah x33"), and the repository can be pulled
// from and pushed to a remote.
package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"ramadan/internal/config"
	"ramadan/internal/fsutil"
	"ramadan/internal/storage"
)

const (
	defaultGitTimeout  = 10 * time.Second
	pullPushGitTimeout = 60 * time.Second
	commitGitTimeout   = 15 * time.Second

	defaultDebounce = 5 * time.Second
)

var (
	// ErrNotRepo is returned by operations that need an initialized repository.
	ErrNotRepo = errors.New("not a git repository - run 'ramadan sync --init' first")
	// ErrNoRemote is returned by Pull and Push when no remote is configured.
	ErrNoRemote = errors.New("no remote configured - add one with 'ramadan sync --remote <url>'")
)

const gitignoreContent = `# ramadan tracker - git sync ignore file
backups/
*.bak
*.corrupt.*
.*.tmp-*
ramadan.log
ramadan.db-wal
ramadan.db-shm
`

// Status describes the repository backing the data directory.
type Status struct {
	IsRepo       bool       `json:"is_repo"`
	HasRemote    bool       `json:"has_remote"`
	RemoteName   string     `json:"remote_name,omitempty"`
	RemoteURL    string     `json:"remote_url,omitempty"`
	Branch       string     `json:"branch,omitempty"`
	Ahead        int        `json:"ahead"`
	Behind       int        `json:"behind"`
	HasChanges   bool       `json:"has_changes"`
	LastCommitAt *time.Time `json:"last_commit_at,omitempty"`
}

// GitSync runs git in the data directory. All git invocations are
// serialized so the index lock is never contended by this process.
type GitSync struct {
	dataDir string
	cfg     config.SyncConfig
	logger  *zap.Logger

	opMu gosync.Mutex

	mu       gosync.Mutex
	pending  []storage.SaveContext
	timer    *time.Timer
	debounce time.Duration
	closed   bool
	inflight gosync.WaitGroup
}

// New returns a GitSync for dataDir. A nil logger discards log output.
func New(dataDir string, cfg config.SyncConfig, logger *zap.Logger) *GitSync {
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &GitSync{
		dataDir:  dataDir,
		cfg:      cfg,
		logger:   logger,
		debounce: debounce,
	}
}

// IsGitInstalled reports whether a git binary is on PATH.
func IsGitInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// IsRepo reports whether the data directory has a .git directory.
func (g *GitSync) IsRepo() bool {
	info, err := os.Stat(filepath.Join(g.dataDir, ".git"))
	return err == nil && info.IsDir()
}

// Init creates the repository, writes .gitignore and commits whatever data
// files already exist. Running it on an existing repository is harmless.
func (g *GitSync) Init(ctx context.Context) error {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	if !IsGitInstalled() {
		return fmt.Errorf("git is not installed")
	}
	if err := os.MkdirAll(g.dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if _, err := g.git(ctx, commitGitTimeout, "init"); err != nil {
		return fmt.Errorf("failed to initialize git repository: %w", err)
	}

	if err := fsutil.WriteFileAtomic(filepath.Join(g.dataDir, ".gitignore"), []byte(gitignoreContent), 0600); err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}
	if _, err := g.git(ctx, defaultGitTimeout, "add", "-A"); err != nil {
		return fmt.Errorf("failed to stage files: %w", err)
	}
	if err := g.commit(ctx, "Initialize ramadan data repository"); err != nil {
		return fmt.Errorf("failed to create initial commit: %w", err)
	}
	return nil
}

// Status inspects the repository. A data dir without .git yields a zero
// Status with IsRepo false rather than an error.
func (g *GitSync) Status(ctx context.Context) (*Status, error) {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	st := &Status{IsRepo: g.IsRepo()}
	if !st.IsRepo {
		return st, nil
	}

	if out, err := g.git(ctx, defaultGitTimeout, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		st.Branch = trimOutput(out)
	}

	if out, err := g.git(ctx, defaultGitTimeout, "remote", "-v"); err == nil {
		// first line: "origin\tgit@host:me/data.git (fetch)"
		first, _, _ := strings.Cut(trimOutput(out), "\n")
		if fields := strings.Fields(first); len(fields) >= 2 {
			st.HasRemote = true
			st.RemoteName, st.RemoteURL = fields[0], fields[1]
		}
	}

	if out, err := g.git(ctx, defaultGitTimeout, "status", "--porcelain"); err == nil {
		st.HasChanges = trimOutput(out) != ""
	}

	if st.HasRemote && st.Branch != "" && st.Branch != "HEAD" {
		upstream := st.RemoteName + "/" + st.Branch
		if out, err := g.git(ctx, defaultGitTimeout, "rev-list", "--left-right", "--count", st.Branch+"..."+upstream); err == nil {
			fmt.Sscanf(trimOutput(out), "%d\t%d", &st.Ahead, &st.Behind)
		}
	}

	if out, err := g.git(ctx, defaultGitTimeout, "log", "-1", "--format=%ci"); err == nil && trimOutput(out) != "" {
		if t, err := time.Parse("2006-01-02 15:04:05 -0700", trimOutput(out)); err == nil {
			st.LastCommitAt = &t
		}
	}
	return st, nil
}

// CommitAll stages everything in the data dir and commits it with message.
// It is a no-op when nothing changed.
func (g *GitSync) CommitAll(ctx context.Context, message string) error {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	if !g.IsRepo() {
		return ErrNotRepo
	}
	if message == "" {
		message = "Update ramadan data"
	}
	if _, err := g.git(ctx, defaultGitTimeout, "add", "-A"); err != nil {
		return fmt.Errorf("failed to stage files: %w", err)
	}
	return g.commit(ctx, message)
}

// Pull rebases local commits onto the remote.
func (g *GitSync) Pull(ctx context.Context) error {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	if err := g.requireRemote(ctx); err != nil {
		return err
	}
	if _, err := g.git(ctx, pullPushGitTimeout, "pull", "--rebase"); err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}
	return nil
}

// Push sends local commits to the remote, setting the upstream on first use.
func (g *GitSync) Push(ctx context.Context) error {
	g.opMu.Lock()
	defer g.opMu.Unlock()
	return g.push(ctx)
}

func (g *GitSync) push(ctx context.Context) error {
	if err := g.requireRemote(ctx); err != nil {
		return err
	}
	if _, err := g.git(ctx, pullPushGitTimeout, "push", "-u", "origin", "HEAD"); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}
	return nil
}

// AddRemote points the named remote at url, adding it if missing.
func (g *GitSync) AddRemote(ctx context.Context, name, url string) error {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	if !g.IsRepo() {
		return ErrNotRepo
	}
	if name == "" {
		return fmt.Errorf("remote name is required")
	}
	if url == "" {
		return fmt.Errorf("remote URL is required")
	}

	out, _ := g.git(ctx, defaultGitTimeout, "remote")
	verb := "add"
	for _, line := range strings.Split(trimOutput(out), "\n") {
		if strings.TrimSpace(line) == name {
			verb = "set-url"
			break
		}
	}
	if _, err := g.git(ctx, defaultGitTimeout, "remote", verb, name, url); err != nil {
		return fmt.Errorf("failed to %s remote: %w", verb, err)
	}
	return nil
}

func (g *GitSync) requireRemote(ctx context.Context) error {
	if !g.IsRepo() {
		return ErrNotRepo
	}
	out, err := g.git(ctx, defaultGitTimeout, "remote")
	if err != nil || trimOutput(out) == "" {
		return ErrNoRemote
	}
	return nil
}

// commit records the staged changes. Caller holds opMu and has staged.
func (g *GitSync) commit(ctx context.Context, message string) error {
	staged, err := g.git(ctx, defaultGitTimeout, "diff", "--cached", "--name-only")
	if err != nil {
		return fmt.Errorf("failed to check staged changes: %w", err)
	}
	if trimOutput(staged) == "" {
		return nil
	}
	if _, err := g.git(ctx, commitGitTimeout, "-c", "commit.gpgsign=false", "commit", "-m", message); err != nil {
		if isGitNothingToCommit(err) {
			return nil
		}
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// git runs one git command in the data dir with prompts disabled.
func (g *GitSync) git(ctx context.Context, timeout time.Duration, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dataDir
	cmd.Env = envWithOverrides(os.Environ(), map[string]string{
		"GIT_TERMINAL_PROMPT": "0",
		"GIT_ASKPASS":         "",
		"SSH_ASKPASS":         "",
	})
	cmd.Stdin = bytes.NewReader(nil)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("git %s timed out after %s", args[0], timeout)
		}
		msg := trimOutput(stderr.String())
		if msg == "" {
			msg = trimOutput(stdout.String())
		}
		if msg == "" {
			msg = err.Error()
		}
		return "", errors.New(msg)
	}
	return stdout.String(), nil
}

func envWithOverrides(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))
	for _, kv := range base {
		k, _, ok := strings.Cut(kv, "=")
		if v, override := overrides[k]; ok && override {
			out = append(out, k+"="+v)
			seen[k] = true
			continue
		}
		out = append(out, kv)
	}
	for k, v := range overrides {
		if !seen[k] {
			out = append(out, k+"="+v)
		}
	}
	return out
}

func isGitNothingToCommit(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nothing to commit") ||
		strings.Contains(msg, "nothing added to commit") ||
		strings.Contains(msg, "no changes added to commit")
}

func trimOutput(s string) string {
	return strings.TrimSpace(s)
}
