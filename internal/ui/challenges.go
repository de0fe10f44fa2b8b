package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"ramadan/internal/config"
	"ramadan/internal/state"
)

// ChallengesPane lists today's enabled challenges. In edit mode it lists
// the whole catalog so challenges can be switched on and off.
type ChallengesPane struct {
	machine *state.Machine
	state   *state.AppState
	cursor  int
	focused bool
	width   int
	height  int
	editing bool
	noting  state.GoalKey
	input   textinput.Model
	styles  *Styles

	keys      ChallengeKeyMap
	inputKeys InputKeyMap
}

// NewChallengesPane creates the challenges pane.
func NewChallengesPane(m *state.Machine, styles *Styles, keyCfg *config.KeysConfig) *ChallengesPane {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 30

	return &ChallengesPane{
		machine:   m,
		input:     ti,
		styles:    styles,
		keys:      NewChallengeKeyMap(keyCfg),
		inputKeys: NewInputKeyMap(keyCfg),
	}
}

// SetState updates the pane with the machine's current state.
func (p *ChallengesPane) SetState(s *state.AppState) {
	p.state = s
	p.clampCursor()
}

// SetSize sets the pane dimensions.
func (p *ChallengesPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(10, width-6)
}

// SetFocused sets whether this pane is focused.
func (p *ChallengesPane) SetFocused(focused bool) {
	p.focused = focused
}

// IsAdding reports whether the pane is reading a journal note.
func (p *ChallengesPane) IsAdding() bool {
	return p.noting != ""
}

// IsEditing reports whether the catalog is shown.
func (p *ChallengesPane) IsEditing() bool {
	return p.editing
}

// items returns the rows currently listed.
func (p *ChallengesPane) items() []state.GoalKey {
	if p.state == nil {
		return nil
	}
	if p.editing {
		return state.GoalCatalog
	}
	return p.state.EnabledGoals()
}

func (p *ChallengesPane) clampCursor() {
	if n := len(p.items()); p.cursor >= n {
		p.cursor = max(0, n-1)
	}
}

func (p *ChallengesPane) selected() (state.GoalKey, bool) {
	items := p.items()
	if p.cursor < 0 || p.cursor >= len(items) {
		return "", false
	}
	return items[p.cursor], true
}

// Update handles key input for the challenges pane.
func (p *ChallengesPane) Update(msg tea.Msg) tea.Cmd {
	if p.noting != "" {
		return p.updateNote(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !p.focused || p.state == nil {
		return nil
	}
	if cursor, moved := p.keys.moveCursor(keyMsg, p.cursor, len(p.items())); moved {
		p.cursor = cursor
		return nil
	}

	switch {
	case key.Matches(keyMsg, p.keys.Edit):
		p.editing = !p.editing
		p.cursor = 0
		return nil

	case key.Matches(keyMsg, p.inputKeys.Cancel):
		if p.editing {
			p.editing = false
			p.cursor = 0
		}
		return nil

	case key.Matches(keyMsg, p.keys.Toggle):
		k, ok := p.selected()
		if !ok {
			return nil
		}
		if p.editing {
			return dispatchCmd(p.machine, state.ToggleGoal{Key: k})
		}
		if k == state.GoalSubha {
			return statusCmd("Dhikr counts itself: use the counter pane", false)
		}
		return dispatchCmd(p.machine, state.ToggleCheck{Key: k})

	case key.Matches(keyMsg, p.keys.Note):
		k, ok := p.selected()
		if !ok || (k != state.GoalDua && k != state.GoalPodcast) {
			return statusCmd("Notes can be added to Dua and Podcast", true)
		}
		p.noting = k
		p.input.Placeholder = "Write your dua"
		if k == state.GoalPodcast {
			p.input.Placeholder = "What did you listen to?"
		}
		p.input.Focus()
		return textinput.Blink
	}
	return nil
}

func (p *ChallengesPane) updateNote(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, p.inputKeys.Confirm):
			text := strings.TrimSpace(p.input.Value())
			kind := p.noting
			p.noting = ""
			p.input.Reset()
			if text == "" || p.state == nil {
				return nil
			}
			day := p.state.LastSeenDate
			if kind == state.GoalPodcast {
				return dispatchCmd(p.machine, state.NewAddPodcast(text, day))
			}
			return dispatchCmd(p.machine, state.NewAddDua(text, day))

		case key.Matches(msg, p.inputKeys.Cancel):
			p.noting = ""
			p.input.Reset()
			return nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

// Stats returns how many enabled challenges are done today.
func (p *ChallengesPane) Stats() (done, total int) {
	if p.state == nil {
		return 0, 0
	}
	prog := state.TodayProgress(p.state)
	return prog.ChallengesDone, prog.ChallengesOn
}

// View renders the challenges pane.
func (p *ChallengesPane) View() string {
	var b strings.Builder

	title := "✨ CHALLENGES"
	if p.editing {
		title = "✨ CHOOSE CHALLENGES"
	}
	b.WriteString(p.styles.PaneTitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(p.styles.Separator(p.width))
	b.WriteString("\n")

	if p.state == nil {
		return p.styles.Frame(p.width, p.height, p.focused, b.String())
	}

	items := p.items()
	if len(items) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(p.styles.ColorTextMuted).Italic(true).Render("  No challenges. Press 'e' to pick some."))
		b.WriteString("\n")
	}

	textWidth := max(5, p.width-12)
	for i, k := range items {
		var done bool
		if p.editing {
			done = p.state.Goals[k]
		} else {
			done = p.state.GoalDone(k)
		}
		checkbox := p.styles.CheckboxPending
		if done {
			checkbox = p.styles.CheckboxDone
		}
		label := runewidth.Truncate(state.GoalLabels[k], textWidth, "..")

		switch {
		case i == p.cursor && p.focused && !p.IsAdding():
			b.WriteString(p.styles.ItemSelectedStyle.Render(" " + checkbox + " " + label + " "))
		case done && !p.editing:
			b.WriteString(" " + checkbox + " " + p.styles.ItemDoneStyle.Render(label))
		default:
			b.WriteString(" " + checkbox + " " + p.styles.ItemPendingStyle.Render(label))
		}
		b.WriteString("\n")
	}

	if !p.editing {
		done, total := p.Stats()
		b.WriteString("\n")
		b.WriteString(p.styles.StatLabelStyle.Render(fmt.Sprintf(" %d/%d done", done, total)))
		b.WriteString("\n")
		if n := len(p.state.Duas); n > 0 {
			last := runewidth.Truncate(p.state.Duas[n-1].Text, max(5, p.width-10), "..")
			b.WriteString(p.styles.StatLabelStyle.Render(fmt.Sprintf(" Duas: %d", n)))
			b.WriteString("\n")
			b.WriteString(p.styles.ItemDoneStyle.Render("  “" + last + "”"))
			b.WriteString("\n")
		}
		if n := len(p.state.Podcasts); n > 0 {
			b.WriteString(p.styles.StatLabelStyle.Render(fmt.Sprintf(" Podcast notes: %d", n)))
			b.WriteString("\n")
		}
	}

	if p.IsAdding() {
		b.WriteString("\n")
		b.WriteString(p.styles.InputPromptStyle.Render("+ ") + p.input.View())
		b.WriteString("\n")
	}
	return p.styles.Frame(p.width, p.height, p.focused, b.String())
}
