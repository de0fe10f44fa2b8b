package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"ramadan/internal/config"
	"ramadan/internal/state"
)

// SubhaPane is the dhikr counter: one row per phrase of the catalog.
type SubhaPane struct {
	machine *state.Machine
	state   *state.AppState
	cursor  int
	focused bool
	width   int
	height  int
	styles  *Styles

	keys SubhaKeyMap
}

// NewSubhaPane creates the dhikr counter pane.
func NewSubhaPane(m *state.Machine, styles *Styles, keyCfg *config.KeysConfig) *SubhaPane {
	return &SubhaPane{
		machine: m,
		styles:  styles,
		keys:    NewSubhaKeyMap(keyCfg),
	}
}

// SetState updates the pane with the machine's current state.
func (p *SubhaPane) SetState(s *state.AppState) {
	p.state = s
}

// SetSize sets the pane dimensions.
func (p *SubhaPane) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetFocused sets whether this pane is focused.
func (p *SubhaPane) SetFocused(focused bool) {
	p.focused = focused
}

// Selected returns the phrase under the cursor.
func (p *SubhaPane) Selected() state.SubhaKey {
	return state.SubhaCatalog[p.cursor]
}

// Update handles key input for the dhikr pane.
func (p *SubhaPane) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !p.focused || p.state == nil {
		return nil
	}
	if cursor, moved := p.keys.moveCursor(keyMsg, p.cursor, len(state.SubhaCatalog)); moved {
		p.cursor = cursor
		return nil
	}

	switch {
	case key.Matches(keyMsg, p.keys.Increment):
		return dispatchCmd(p.machine, state.SubhaInc{Key: p.Selected()})
	case key.Matches(keyMsg, p.keys.Reset):
		if p.state.Subha[p.Selected()] == 0 {
			return nil
		}
		return dispatchCmd(p.machine, state.SubhaReset{Key: p.Selected()})
	case key.Matches(keyMsg, p.keys.ResetAll):
		if p.state.SubhaTotal() == 0 {
			return nil
		}
		return dispatchCmd(p.machine, state.SubhaResetAll{})
	}
	return nil
}

// View renders the dhikr pane.
func (p *SubhaPane) View() string {
	var b strings.Builder

	b.WriteString(p.styles.PaneTitleStyle.Render("📿 DHIKR"))
	b.WriteString("\n")
	b.WriteString(p.styles.Separator(p.width))
	b.WriteString("\n")

	if p.state == nil {
		return p.styles.Frame(p.width, p.height, p.focused, b.String())
	}

	countWidth := 5
	labelWidth := max(5, p.width-countWidth-8)
	for i, k := range state.SubhaCatalog {
		n := p.state.Subha[k]
		label := runewidth.FillRight(runewidth.Truncate(state.SubhaLabels[k], labelWidth, ".."), labelWidth)
		count := fmt.Sprintf("%*d", countWidth, n)

		switch {
		case i == p.cursor && p.focused:
			b.WriteString(p.styles.ItemSelectedStyle.Render(" " + label + count + " "))
		case n > 0:
			b.WriteString(" " + p.styles.ItemPendingStyle.Render(label) + p.styles.CounterStyle.Render(count))
		default:
			b.WriteString(" " + p.styles.ItemDoneStyle.Render(label+count))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(p.styles.StatLabelStyle.Render(" Total: "))
	b.WriteString(p.styles.StatValueStyle.Render(fmt.Sprint(p.state.SubhaTotal())))
	b.WriteString("\n")
	return p.styles.Frame(p.width, p.height, p.focused, b.String())
}
