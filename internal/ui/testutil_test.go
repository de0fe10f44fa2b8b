package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"ramadan/internal/config"
	"ramadan/internal/state"
)

// setupTest disables colors so rendered output is plain text.
func setupTest(t *testing.T) {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
}

func createTestStyles() *Styles {
	return NewStylesFromTheme(&config.ThemeConfig{})
}

// createTestMachine returns a machine without persistence whose state has
// finished setup, so no welcome screen is shown.
func createTestMachine(t *testing.T) *state.Machine {
	t.Helper()
	s := state.Default()
	s.SetupDone = true
	s.LastSeenDate = "2026-03-04"
	return state.NewMachine(s, nil, fixedClock{}, nil)
}

type fixedClock struct{}

func (fixedClock) Now() time.Time {
	return time.Date(2026, 3, 4, 21, 0, 0, 0, time.Local)
}
func (fixedClock) Today() string     { return "2026-03-04" }
func (fixedClock) Yesterday() string { return "2026-03-03" }

func createTestApp(t *testing.T, cfg *AppConfig) (*App, *state.Machine) {
	t.Helper()
	setupTest(t)
	m := createTestMachine(t)
	app := NewApp(m, nil, createTestStyles(), cfg)
	app.now = fixedClock{}.Now
	t.Cleanup(app.Close)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return app, m
}

// keyMsg builds a key press the way Bubble Tea delivers it.
func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+z":
		return tea.KeyMsg{Type: tea.KeyCtrlZ}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// run executes cmd and feeds app messages back into the app. Other
// messages (cursor blinks, quit) are dropped so nothing loops on a timer.
func run(app *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case dispatchedMsg, undoResultMsg, redoResultMsg, statusMsg, dayCheckedMsg:
		_, next := app.Update(msg)
		run(app, next)
	}
}

// press sends a key to the app and runs whatever it triggers.
func press(app *App, k string) {
	_, cmd := app.Update(keyMsg(k))
	run(app, cmd)
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
