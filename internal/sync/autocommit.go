package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ramadan/internal/storage"
)

// OnSave queues a save for the next auto-commit. Saves arriving within the
// debounce window are folded into one commit, so a run of dhikr taps
// produces a single "Dhikr: SubhanAllah x33" commit.
func (g *GitSync) OnSave(sc storage.SaveContext) {
	if !g.cfg.Enabled || !g.cfg.AutoCommit || !g.IsRepo() {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.pending = append(g.pending, sc)
	if g.timer != nil {
		g.timer.Stop()
	}
	g.timer = time.AfterFunc(g.debounce, g.fire)
}

// SetDebounce changes the quiet period before queued saves are committed.
func (g *GitSync) SetDebounce(d time.Duration) {
	if d <= 0 {
		d = defaultDebounce
	}
	g.mu.Lock()
	g.debounce = d
	g.mu.Unlock()
}

// Pending returns the number of saves waiting for a commit.
func (g *GitSync) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// Flush commits queued saves now instead of waiting for the timer.
func (g *GitSync) Flush(ctx context.Context) error {
	saves := g.take()
	if len(saves) == 0 {
		return nil
	}
	return g.commitSaves(ctx, saves)
}

// Close stops the debounce timer, waits for a running auto-commit and
// commits whatever is still queued. Later saves are ignored.
func (g *GitSync) Close() error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	saves := g.take()
	g.inflight.Wait()
	if len(saves) == 0 {
		return nil
	}
	return g.commitSaves(context.Background(), saves)
}

func (g *GitSync) take() []storage.SaveContext {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	saves := g.pending
	g.pending = nil
	return saves
}

func (g *GitSync) fire() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	saves := g.pending
	g.pending = nil
	g.timer = nil
	g.inflight.Add(1)
	g.mu.Unlock()
	defer g.inflight.Done()

	if len(saves) == 0 {
		return
	}
	if err := g.commitSaves(context.Background(), saves); err != nil {
		g.logger.Warn("auto-commit failed", zap.Int("changes", len(saves)), zap.Error(err))
	}
}

// commitSaves stages the files named by saves and commits them with a
// message built from their summaries. A failed push is logged; the commit
// stands either way.
func (g *GitSync) commitSaves(ctx context.Context, saves []storage.SaveContext) error {
	g.opMu.Lock()
	defer g.opMu.Unlock()

	if !g.IsRepo() {
		return ErrNotRepo
	}

	args := []string{"add", "--"}
	seen := map[string]bool{}
	for _, sc := range saves {
		if sc.Filename == "" || seen[sc.Filename] {
			continue
		}
		seen[sc.Filename] = true
		args = append(args, sc.Filename)
	}
	if len(args) == 2 {
		args = []string{"add", "-A"}
	}
	if _, err := g.git(ctx, defaultGitTimeout, args...); err != nil {
		return fmt.Errorf("failed to stage files: %w", err)
	}

	message := commitMessage(g.cfg.CommitMessage, saves)
	if err := g.commit(ctx, message); err != nil {
		return err
	}
	g.logger.Debug("committed changes", zap.String("message", firstLine(message)), zap.Int("changes", len(saves)))

	if g.cfg.AutoPush {
		if err := g.push(ctx); err != nil {
			g.logger.Warn("auto-push failed", zap.Error(err))
		}
	}
	return nil
}

// commitMessage builds the commit message for a batch of saves. A custom
// configured message wins unless it is "auto". Repeated summaries collapse
// into "<summary> xN"; mixed batches list each summary in the body.
func commitMessage(custom string, saves []storage.SaveContext) string {
	if custom != "" && custom != "auto" {
		return custom
	}
	if len(saves) == 0 {
		return "Update ramadan data"
	}

	type group struct {
		summary string
		count   int
	}
	var groups []*group
	index := map[string]*group{}
	for _, sc := range saves {
		s := summaryOf(sc)
		if g, ok := index[s]; ok {
			g.count++
			continue
		}
		g := &group{summary: s, count: 1}
		index[s] = g
		groups = append(groups, g)
	}

	label := func(g *group) string {
		if g.count == 1 {
			return g.summary
		}
		return fmt.Sprintf("%s x%d", g.summary, g.count)
	}
	if len(groups) == 1 {
		return label(groups[0])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Update: %d changes\n", len(saves))
	for _, g := range groups {
		b.WriteString("\n- ")
		b.WriteString(label(g))
	}
	return b.String()
}

func summaryOf(sc storage.SaveContext) string {
	if s := strings.TrimSpace(sc.Summary); s != "" {
		return s
	}
	if sc.Operation != "" {
		return "Update: " + sc.Operation
	}
	if sc.Filename != "" {
		return "Update " + sc.Filename
	}
	return "Update ramadan data"
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
