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

// defaultSlotIcon is used for reading times added from the TUI.
const defaultSlotIcon = "📖"

// ReadingPane shows today's Quran reading slots and the daily page goal.
type ReadingPane struct {
	machine *state.Machine
	state   *state.AppState
	slots   []state.Slot
	cursor  int
	focused bool
	width   int
	height  int
	adding  bool
	input   textinput.Model
	styles  *Styles

	keys      ReadingKeyMap
	inputKeys InputKeyMap
}

// NewReadingPane creates the reading pane.
func NewReadingPane(m *state.Machine, styles *Styles, keyCfg *config.KeysConfig) *ReadingPane {
	ti := textinput.New()
	ti.Placeholder = "When do you read? e.g. Before Maghrib"
	ti.CharLimit = 40
	ti.Width = 30

	return &ReadingPane{
		machine:   m,
		focused:   true,
		input:     ti,
		styles:    styles,
		keys:      NewReadingKeyMap(keyCfg),
		inputKeys: NewInputKeyMap(keyCfg),
	}
}

// SetState updates the pane with the machine's current state.
func (p *ReadingPane) SetState(s *state.AppState) {
	p.state = s
	p.slots = state.EffectiveSlots(s)
	if p.cursor >= len(p.slots) {
		p.cursor = max(0, len(p.slots)-1)
	}
}

// SetSize sets the pane dimensions.
func (p *ReadingPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.input.Width = max(10, width-6)
}

// SetFocused sets whether this pane is focused.
func (p *ReadingPane) SetFocused(focused bool) {
	p.focused = focused
}

// IsAdding reports whether the pane is reading a new slot label.
func (p *ReadingPane) IsAdding() bool {
	return p.adding
}

// Selected returns the index of the highlighted slot, or -1.
func (p *ReadingPane) Selected() int {
	if len(p.slots) == 0 {
		return -1
	}
	return p.cursor
}

// Update handles key input for the reading pane.
func (p *ReadingPane) Update(msg tea.Msg) tea.Cmd {
	if p.adding {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch {
			case key.Matches(msg, p.inputKeys.Confirm):
				label := strings.TrimSpace(p.input.Value())
				p.adding = false
				p.input.Reset()
				if label == "" {
					return nil
				}
				return dispatchCmd(p.machine, state.AddReadingTime{Label: label, Icon: defaultSlotIcon})

			case key.Matches(msg, p.inputKeys.Cancel):
				p.adding = false
				p.input.Reset()
				return nil
			}
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !p.focused || p.state == nil {
		return nil
	}
	if cursor, moved := p.keys.moveCursor(keyMsg, p.cursor, len(p.slots)); moved {
		p.cursor = cursor
		return nil
	}

	switch {
	case key.Matches(keyMsg, p.keys.Add):
		p.adding = true
		p.input.Focus()
		return textinput.Blink

	case key.Matches(keyMsg, p.keys.Toggle):
		if i := p.Selected(); i >= 0 {
			return dispatchCmd(p.machine, state.ToggleSlot{Index: i})
		}

	case key.Matches(keyMsg, p.keys.Delete):
		if i := p.Selected(); i >= 0 {
			return dispatchCmd(p.machine, state.RemoveReadingTime{Index: i})
		}

	case key.Matches(keyMsg, p.keys.MorePages):
		return dispatchCmd(p.machine, state.SetDailyPages{Pages: p.state.DailyPages + 1})

	case key.Matches(keyMsg, p.keys.FewerPages):
		if p.state.DailyPages > 1 {
			return dispatchCmd(p.machine, state.SetDailyPages{Pages: p.state.DailyPages - 1})
		}
	}
	return nil
}

// View renders the reading pane.
func (p *ReadingPane) View() string {
	var b strings.Builder

	b.WriteString(p.styles.PaneTitleStyle.Render("📖 QURAN"))
	b.WriteString("\n")
	b.WriteString(p.styles.Separator(p.width))
	b.WriteString("\n")

	if p.state == nil {
		return p.styles.Frame(p.width, p.height, p.focused, b.String())
	}

	prog := state.TodayProgress(p.state)
	barWidth := max(5, min(20, p.width-16))
	fmt.Fprintf(&b, " %s %s\n",
		p.styles.RenderProgress(prog.QuranPct, barWidth),
		p.styles.StatValueStyle.Render(fmt.Sprintf("%d/%d", prog.PagesRead, p.state.DailyPages)))
	b.WriteString(p.styles.StatLabelStyle.Render(fmt.Sprintf(" Goal: %d pages a day", p.state.DailyPages)))
	b.WriteString("\n\n")

	if len(p.slots) == 0 && !p.adding {
		b.WriteString(lipgloss.NewStyle().Foreground(p.styles.ColorTextMuted).Italic(true).Render("  No reading times. Press 'a' to add one."))
		b.WriteString("\n")
	}

	textWidth := max(5, p.width-14)
	for i, slot := range p.slots {
		checkbox := p.styles.CheckboxPending
		if slot.Done {
			checkbox = p.styles.CheckboxDone
		}
		label := runewidth.Truncate(strings.TrimSpace(slot.Icon+" "+slot.Label), textWidth, "..")
		pages := ""
		if slot.Done {
			pages = fmt.Sprintf(" %dp", slot.Pages)
		}

		switch {
		case i == p.cursor && p.focused && !p.adding:
			b.WriteString(p.styles.ItemSelectedStyle.Render(" " + checkbox + " " + label + pages + " "))
		case slot.Done:
			b.WriteString(" " + checkbox + " " + p.styles.ItemDoneStyle.Render(label+pages))
		default:
			b.WriteString(" " + checkbox + " " + p.styles.ItemPendingStyle.Render(label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(p.styles.StatLabelStyle.Render(fmt.Sprintf(" %d pages overall", p.state.TotalPages)))
	b.WriteString("\n")

	if p.adding {
		b.WriteString("\n")
		b.WriteString(p.styles.InputPromptStyle.Render("+ ") + p.input.View())
		b.WriteString("\n")
	}
	return p.styles.Frame(p.width, p.height, p.focused, b.String())
}
