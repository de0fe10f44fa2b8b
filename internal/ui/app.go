package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ramadan/internal/config"
	"ramadan/internal/notify"
	"ramadan/internal/state"
)

// PaneID identifies each pane in the application.
type PaneID int

const (
	PaneReading PaneID = iota
	PaneChallenges
	PaneSubha
)

// LayoutMode determines how panes are arranged based on terminal width.
type LayoutMode int

const (
	// LayoutWide shows all three panes side-by-side.
	LayoutWide LayoutMode = iota
	// LayoutNarrow shows only the focused pane with a tab bar.
	LayoutNarrow
)

// AppConfig holds user configuration for the app behavior.
type AppConfig struct {
	Keys                  *config.KeysConfig
	ConfirmDeletions      bool
	ShowOnboarding        bool
	NarrowLayoutThreshold int
}

// AppConfigFrom extracts the TUI settings from the full config.
func AppConfigFrom(cfg *config.Config) *AppConfig {
	return &AppConfig{
		Keys:                  &cfg.Keys,
		ConfirmDeletions:      cfg.UX.ConfirmDeletions,
		ShowOnboarding:        cfg.UX.ShowOnboarding,
		NarrowLayoutThreshold: cfg.UX.NarrowLayoutThreshold,
	}
}

// App is the main application model that coordinates all panes.
type App struct {
	machine   *state.Machine
	scheduler *notify.Scheduler
	state     *state.AppState

	styles         *Styles
	config         *AppConfig
	readingPane    *ReadingPane
	challengesPane *ChallengesPane
	subhaPane      *SubhaPane
	helpOverlay    *HelpOverlay
	undoManager    *UndoManager
	undoBusy       bool
	confirm        *confirmState
	activePane     PaneID
	layoutMode     LayoutMode
	showHelp       bool
	showWelcome    bool
	width          int
	height         int
	status         string
	statusErr      bool
	statusUntil    time.Time
	quitting       bool

	keys     GlobalKeyMap
	helpKeys HelpKeyMap

	changes     chan struct{}
	reloads     chan struct{}
	unsubscribe func()
	now         func() time.Time

	// x ranges of the panes in wide layout, for mouse focus
	paneBounds [3][2]int
	contentTop int
}

type confirmState struct {
	title string
	body  string
	cmd   tea.Cmd
}

// NewApp creates the application around a machine. The scheduler may be nil.
func NewApp(m *state.Machine, sched *notify.Scheduler, styles *Styles, cfg *AppConfig) *App {
	if cfg == nil {
		cfg = &AppConfig{
			Keys:                  &config.KeysConfig{},
			ConfirmDeletions:      true,
			ShowOnboarding:        true,
			NarrowLayoutThreshold: 80,
		}
	}
	if cfg.Keys == nil {
		cfg.Keys = &config.KeysConfig{}
	}

	a := &App{
		machine:        m,
		scheduler:      sched,
		styles:         styles,
		config:         cfg,
		readingPane:    NewReadingPane(m, styles, cfg.Keys),
		challengesPane: NewChallengesPane(m, styles, cfg.Keys),
		subhaPane:      NewSubhaPane(m, styles, cfg.Keys),
		undoManager:    NewUndoManager(),
		activePane:     PaneReading,
		keys:           NewGlobalKeyMap(cfg.Keys),
		helpKeys:       DefaultHelpKeyMap(),
		changes:        make(chan struct{}, 1),
		reloads:        make(chan struct{}, 1),
		now:            time.Now,
	}
	a.helpOverlay = NewHelpOverlay(styles, a.keys, a.readingPane.keys, a.challengesPane.keys, a.subhaPane.keys, NewInputKeyMap(cfg.Keys))
	a.unsubscribe = m.Subscribe(func(*state.AppState) { notifyLatest(a.changes) })

	a.refresh()
	a.showWelcome = cfg.ShowOnboarding && !a.state.SetupDone
	a.setActivePane(PaneReading)
	return a
}

// notifyLatest wakes one listener without blocking; pending wake-ups merge.
func notifyLatest(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Reload adopts a state written by another process. It satisfies the file
// watcher's target and clears the undo history, which no longer applies.
func (a *App) Reload(s *state.AppState) {
	a.machine.Reload(s)
	notifyLatest(a.reloads)
}

// Close detaches the app from the machine.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// refresh pulls the machine's current state into every pane.
func (a *App) refresh() {
	a.state = a.machine.State()
	a.readingPane.SetState(a.state)
	a.challengesPane.SetState(a.state)
	a.subhaPane.SetState(a.state)
}

// Init starts the clocks and the state listeners.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		dayCheckTickCmd(),
		checkDayCmd(a.machine, a.scheduler, a.now()),
		waitForChangeCmd(a.changes),
		waitForReloadCmd(a.reloads),
	)
}

// Update handles all messages and routes them appropriately.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dispatchedMsg:
		if msg.changed {
			if _, ok := msg.action.(state.FinishSetup); !ok {
				a.undoManager.Push(NewTransitionAction(a.machine, msg.transition))
			}
			if isDestructive(msg.action) {
				a.SetStatus(msg.transition.Summary+" (u to undo)", false)
			}
		}
		a.refresh()
		return a, nil

	case stateChangedMsg:
		a.refresh()
		return a, waitForChangeCmd(a.changes)

	case externalReloadMsg:
		a.undoManager.Clear()
		a.refresh()
		a.SetStatus("Loaded changes made outside this window", false)
		return a, waitForReloadCmd(a.reloads)

	case statusMsg:
		a.SetStatus(msg.text, msg.isErr)
		return a, nil

	case undoResultMsg:
		a.undoBusy = false
		switch {
		case msg.err != nil:
			a.SetStatus("Undo failed: "+msg.err.Error(), true)
		case msg.desc != "":
			a.SetStatus("Undid: "+msg.desc, false)
		default:
			a.SetStatus("Nothing to undo", false)
		}
		a.refresh()
		return a, nil

	case redoResultMsg:
		a.undoBusy = false
		switch {
		case msg.err != nil:
			a.SetStatus("Redo failed: "+msg.err.Error(), true)
		case msg.desc != "":
			a.SetStatus("Redid: "+msg.desc, false)
		default:
			a.SetStatus("Nothing to redo", false)
		}
		a.refresh()
		return a, nil

	case tickMsg:
		if a.status != "" && !a.statusUntil.IsZero() && time.Time(msg).After(a.statusUntil) {
			a.status = ""
			a.statusErr = false
			a.statusUntil = time.Time{}
		}
		return a, tickCmd()

	case dayCheckMsg:
		return a, tea.Batch(checkDayCmd(a.machine, a.scheduler, time.Time(msg)), dayCheckTickCmd())

	case dayCheckedMsg:
		if msg.rollover != nil {
			// undoing across midnight would bring yesterday back
			a.undoManager.Clear()
			a.SetStatus(fmt.Sprintf("New day. %s closed at %d%%", msg.rollover.ArchivedDate, msg.rollover.Snapshot.Pct), false)
			a.refresh()
		}
		return a, nil

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateLayout()
		return a, nil

	case tea.MouseMsg:
		return a, a.handleMouse(msg)

	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}

	return a, a.forward(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if a.showWelcome {
		a.showWelcome = false
		if !a.state.SetupDone {
			return dispatchCmd(a.machine, state.FinishSetup{})
		}
		return nil
	}

	if a.confirm != nil {
		switch msg.String() {
		case "y", "Y", "enter":
			cmd := a.confirm.cmd
			a.confirm = nil
			return cmd
		case "n", "N", "esc":
			a.confirm = nil
			a.SetStatus("Canceled", false)
		}
		return nil
	}

	if a.showHelp {
		if key.Matches(msg, a.helpKeys.Close) {
			a.showHelp = false
		}
		return nil
	}

	if a.inInputMode() {
		return a.forward(msg)
	}

	if a.config.ConfirmDeletions {
		if c := a.confirmFor(msg); c != nil {
			a.confirm = c
			return nil
		}
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.quitting = true
		return tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.showHelp = true
		return nil

	case key.Matches(msg, a.keys.NextPane):
		a.setActivePane((a.activePane + 1) % 3)
		return nil

	case key.Matches(msg, a.keys.Pane1):
		a.setActivePane(PaneReading)
		return nil

	case key.Matches(msg, a.keys.Pane2):
		a.setActivePane(PaneChallenges)
		return nil

	case key.Matches(msg, a.keys.Pane3):
		a.setActivePane(PaneSubha)
		return nil

	case key.Matches(msg, a.keys.Undo):
		if a.undoBusy {
			a.SetStatus("Undo: busy", true)
			return nil
		}
		a.undoBusy = true
		return undoCmd(a.undoManager)

	case key.Matches(msg, a.keys.Redo):
		if a.undoBusy {
			a.SetStatus("Redo: busy", true)
			return nil
		}
		a.undoBusy = true
		return redoCmd(a.undoManager)
	}

	return a.forward(msg)
}

// confirmFor returns a confirmation prompt when msg would remove data.
func (a *App) confirmFor(msg tea.KeyMsg) *confirmState {
	switch a.activePane {
	case PaneReading:
		if !key.Matches(msg, a.readingPane.keys.Delete) {
			return nil
		}
		i := a.readingPane.Selected()
		if i < 0 {
			return nil
		}
		slot := a.readingPane.slots[i]
		return &confirmState{
			title: "Remove reading time?",
			body:  truncateText(slot.Label, 60),
			cmd:   dispatchCmd(a.machine, state.RemoveReadingTime{Index: i}),
		}

	case PaneSubha:
		if !key.Matches(msg, a.subhaPane.keys.ResetAll) || a.state.SubhaTotal() == 0 {
			return nil
		}
		return &confirmState{
			title: "Reset all dhikr counters?",
			body:  fmt.Sprintf("%d counted today", a.state.SubhaTotal()),
			cmd:   dispatchCmd(a.machine, state.SubhaResetAll{}),
		}
	}
	return nil
}

// forward hands msg to the active pane.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	if a.showHelp {
		return nil
	}
	switch a.activePane {
	case PaneReading:
		return a.readingPane.Update(msg)
	case PaneChallenges:
		return a.challengesPane.Update(msg)
	case PaneSubha:
		return a.subhaPane.Update(msg)
	}
	return nil
}

func (a *App) inInputMode() bool {
	return a.readingPane.IsAdding() || a.challengesPane.IsAdding()
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress {
		return nil
	}
	switch {
	case a.showWelcome:
		a.showWelcome = false
		if !a.state.SetupDone {
			return dispatchCmd(a.machine, state.FinishSetup{})
		}
	case a.confirm != nil:
		a.confirm = nil
		a.SetStatus("Canceled", false)
	case a.showHelp:
		a.showHelp = false
	case a.layoutMode == LayoutNarrow && msg.Y == a.contentTop-1:
		if a.width > 0 {
			a.setActivePane(PaneID(min(2, msg.X*3/a.width)))
		}
	case a.layoutMode == LayoutWide && msg.Y >= a.contentTop:
		for id, b := range a.paneBounds {
			if msg.X >= b[0] && msg.X < b[1] {
				a.setActivePane(PaneID(id))
			}
		}
	}
	return nil
}

// isDestructive reports whether an action removes something worth an
// undo hint in the status line.
func isDestructive(a state.Action) bool {
	switch a.(type) {
	case state.RemoveReadingTime, state.SubhaReset, state.SubhaResetAll, state.ToggleGoal:
		return true
	}
	return false
}

func (a *App) setActivePane(pane PaneID) {
	a.activePane = pane
	a.readingPane.SetFocused(pane == PaneReading)
	a.challengesPane.SetFocused(pane == PaneChallenges)
	a.subhaPane.SetFocused(pane == PaneSubha)
}

// updateLayout recalculates pane sizes based on terminal dimensions.
func (a *App) updateLayout() {
	// title bar, blank line and help bar
	contentHeight := max(10, a.height-4)
	a.contentTop = 1
	a.helpOverlay.SetSize(a.width, a.height)

	totalWidth := a.width - 4
	threshold := a.config.NarrowLayoutThreshold
	if threshold <= 0 {
		threshold = 80
	}

	if a.width < threshold {
		a.layoutMode = LayoutNarrow
		narrowHeight := max(8, contentHeight-1)
		paneWidth := max(20, totalWidth)

		a.readingPane.SetSize(paneWidth, narrowHeight)
		a.challengesPane.SetSize(paneWidth, narrowHeight)
		a.subhaPane.SetSize(paneWidth, narrowHeight)
		for i := range a.paneBounds {
			a.paneBounds[i] = [2]int{0, a.width}
		}
		a.contentTop = 2
		return
	}

	a.layoutMode = LayoutWide
	var readingWidth, challengesWidth, subhaWidth int
	if totalWidth < 120 {
		readingWidth = (totalWidth * 34) / 100
		challengesWidth = (totalWidth * 30) / 100
		subhaWidth = totalWidth - readingWidth - challengesWidth - 2
	} else {
		readingWidth = min((totalWidth*34)/100, 48)
		challengesWidth = min((totalWidth*30)/100, 42)
		subhaWidth = min(totalWidth-readingWidth-challengesWidth-2, 52)
	}

	a.readingPane.SetSize(readingWidth, contentHeight)
	a.challengesPane.SetSize(challengesWidth, contentHeight)
	a.subhaPane.SetSize(subhaWidth, contentHeight)

	a.paneBounds[PaneReading] = [2]int{0, readingWidth}
	a.paneBounds[PaneChallenges] = [2]int{readingWidth + 1, readingWidth + 1 + challengesWidth}
	start := a.paneBounds[PaneChallenges][1] + 1
	a.paneBounds[PaneSubha] = [2]int{start, start + subhaWidth}
}

// View renders the entire app.
func (a *App) View() string {
	if a.quitting {
		return a.renderGoodbye()
	}
	if a.showWelcome {
		return a.renderWelcome()
	}
	if a.confirm != nil {
		return a.renderConfirm()
	}
	if a.showHelp {
		return a.helpOverlay.View()
	}

	var b strings.Builder
	b.WriteString(a.renderTitleBar())
	b.WriteString("\n")
	if a.layoutMode == LayoutNarrow {
		b.WriteString(a.renderNarrowContent())
	} else {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			a.readingPane.View(), " ", a.challengesPane.View(), " ", a.subhaPane.View()))
	}
	b.WriteString("\n")
	b.WriteString(a.renderHelpBar())
	return b.String()
}

func (a *App) overlay(border lipgloss.Color, title, body, hint string) string {
	overlayWidth := 60
	if a.width > 0 {
		overlayWidth = min(60, max(20, a.width-4))
	}
	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2).
		Width(overlayWidth)
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(border).
		MarginBottom(1)
	bodyStyle := lipgloss.NewStyle().Foreground(a.styles.ColorText)
	hintStyle := lipgloss.NewStyle().Foreground(a.styles.ColorTextMuted).Italic(true)

	content := titleStyle.Render(title) + "\n\n" + bodyStyle.Render(body) + "\n\n" + hintStyle.Render(hint)
	return RenderCentered(overlayStyle.Render(content), a.width, a.height)
}

func (a *App) renderWelcome() string {
	body := fmt.Sprintf(
		"Your goal is %d pages a day, split over %d reading times.\n"+
			"Check off challenges and count your dhikr as you go.\n"+
			"Tab switches panes. ? opens help.",
		a.state.DailyPages, len(a.state.ReadingTimes))
	return a.overlay(a.styles.ColorPrimary, "🌙 Ramadan Mubarak", body, "Press any key to begin")
}

func (a *App) renderConfirm() string {
	return a.overlay(a.styles.ColorDanger, a.confirm.title, a.confirm.body, "[y/enter] confirm    [n/esc] cancel")
}

// renderNarrowContent renders the focused pane with a tab bar.
func (a *App) renderNarrowContent() string {
	var b strings.Builder
	b.WriteString(a.renderPaneTabs())
	b.WriteString("\n")
	switch a.activePane {
	case PaneReading:
		b.WriteString(a.readingPane.View())
	case PaneChallenges:
		b.WriteString(a.challengesPane.View())
	case PaneSubha:
		b.WriteString(a.subhaPane.View())
	}
	return b.String()
}

func (a *App) renderPaneTabs() string {
	labels := []string{"Quran", "Challenges", "Dhikr"}
	activeTabStyle := lipgloss.NewStyle().Foreground(a.styles.ColorPrimary).Bold(true)
	inactiveTabStyle := lipgloss.NewStyle().Foreground(a.styles.ColorTextMuted)

	parts := make([]string, len(labels))
	for i, label := range labels {
		if PaneID(i) == a.activePane {
			parts[i] = activeTabStyle.Render("[" + label + "]")
		} else {
			parts[i] = inactiveTabStyle.Render(" " + label + " ")
		}
	}
	tabBar := strings.Join(parts, "  ")
	if padding := (a.width - lipgloss.Width(tabBar)) / 2; padding > 0 {
		tabBar = strings.Repeat(" ", padding) + tabBar
	}
	return tabBar
}

func (a *App) renderGoodbye() string {
	p := state.TodayProgress(a.state)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  May your fast be accepted.\n\n")
	b.WriteString("  Today's progress:\n")
	fmt.Fprintf(&b, "     Day:        %d%%\n", p.Pct)
	fmt.Fprintf(&b, "     Quran:      %d/%d pages\n", p.PagesRead, a.state.DailyPages)
	if p.ChallengesOn > 0 {
		fmt.Fprintf(&b, "     Challenges: %d/%d\n", p.ChallengesDone, p.ChallengesOn)
	}
	if total := a.state.SubhaTotal(); total > 0 {
		fmt.Fprintf(&b, "     Dhikr:      %d\n", total)
	}
	b.WriteString("\n")
	return b.String()
}

// renderTitleBar creates the top title bar with today's figures.
func (a *App) renderTitleBar() string {
	title := a.styles.TitleStyle.Render(" ramadan ")

	p := state.TodayProgress(a.state)
	stats := a.styles.StatLabelStyle.Render(fmt.Sprintf("Today %d%%  Quran %d/%d", p.Pct, p.PagesRead, a.state.DailyPages))

	var streak string
	if a.state.Streak > 0 || a.state.BestStreak > 0 {
		streak = a.styles.StreakStyle.Render(fmt.Sprintf("🔥 %d (best %d)", a.state.Streak, a.state.BestStreak))
	}

	date := a.styles.DateStyle.Render(a.now().Format("Mon Jan 2 · 15:04"))

	used := lipgloss.Width(title) + lipgloss.Width(stats) + lipgloss.Width(streak) + lipgloss.Width(date)
	spacer := max(2, a.width-used-6)

	return title + "  " + stats +
		strings.Repeat(" ", spacer/2) + streak +
		strings.Repeat(" ", spacer-spacer/2) + date
}

// renderHelpBar shows the status line or the active pane's keys.
func (a *App) renderHelpBar() string {
	if a.status != "" {
		if a.statusErr {
			return a.styles.ErrorStyle.Render(a.status)
		}
		return a.styles.StatusStyle.Render(a.status)
	}
	if a.inInputMode() {
		return a.styles.RenderHelp("enter", "save", "esc", "cancel")
	}

	var bindings []key.Binding
	switch a.activePane {
	case PaneReading:
		bindings = a.readingPane.keys.ShortHelp()
	case PaneChallenges:
		bindings = a.challengesPane.keys.ShortHelp()
		if a.challengesPane.IsEditing() {
			bindings = []key.Binding{a.challengesPane.keys.Toggle, a.challengesPane.keys.Edit}
		}
	case PaneSubha:
		bindings = a.subhaPane.keys.ShortHelp()
	}
	bindings = append(bindings, a.keys.NextPane, a.keys.Help)

	pairs := make([]string, 0, 2*len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		pairs = append(pairs, h.Key, h.Desc)
	}
	return a.styles.RenderHelp(pairs...)
}

// SetStatus sets a status message to display to the user.
func (a *App) SetStatus(msg string, isErr bool) {
	a.status = msg
	a.statusErr = isErr
	ttl := 5 * time.Second
	if isErr {
		ttl = 8 * time.Second
	}
	a.statusUntil = a.now().Add(ttl)
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(app *App) error {
	defer app.Close()
	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
