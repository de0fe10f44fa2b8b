package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// HelpOverlay renders the full key reference.
type HelpOverlay struct {
	width  int
	height int
	styles *Styles

	global    GlobalKeyMap
	reading   ReadingKeyMap
	challenge ChallengeKeyMap
	subha     SubhaKeyMap
	input     InputKeyMap
}

// NewHelpOverlay creates a help overlay listing the given bindings.
func NewHelpOverlay(styles *Styles, global GlobalKeyMap, reading ReadingKeyMap, challenge ChallengeKeyMap, subha SubhaKeyMap, input InputKeyMap) *HelpOverlay {
	return &HelpOverlay{
		styles:    styles,
		global:    global,
		reading:   reading,
		challenge: challenge,
		subha:     subha,
		input:     input,
	}
}

// SetSize sets the overlay dimensions.
func (h *HelpOverlay) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// View renders the help overlay.
func (h *HelpOverlay) View() string {
	overlayWidth := 60
	if h.width > 0 {
		overlayWidth = min(60, max(20, h.width-4))
	}

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(h.styles.ColorPrimary).
		Padding(1, 2).
		Width(overlayWidth)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(h.styles.ColorPrimary).
		MarginBottom(1)

	mutedStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorTextMuted).
		Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("🌙 ramadan - Keyboard Shortcuts"))
	b.WriteString("\n")

	h.section(&b, "Global",
		h.global.NextPane, h.global.Pane1, h.global.Pane2, h.global.Pane3,
		h.global.Undo, h.global.Redo, h.global.Help, h.global.Quit)
	h.section(&b, "Quran", flatten(h.reading.FullHelp())...)
	h.section(&b, "Challenges", flatten(h.challenge.FullHelp())...)
	h.section(&b, "Dhikr", flatten(h.subha.FullHelp())...)
	h.section(&b, "Input Mode", h.input.Confirm, h.input.Cancel)

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Press ? or Esc to close"))

	return RenderCentered(overlayStyle.Render(b.String()), h.width, h.height)
}

func (h *HelpOverlay) section(b *strings.Builder, title string, bindings ...key.Binding) {
	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(h.styles.ColorAccent).
		MarginTop(1)
	keyStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorWarning).
		Width(12)
	descStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorText)

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(title))
	b.WriteString("\n")
	for _, kb := range bindings {
		if !kb.Enabled() {
			continue
		}
		hl := kb.Help()
		b.WriteString(keyStyle.Render(hl.Key) + descStyle.Render(hl.Desc) + "\n")
	}
}

func flatten(groups [][]key.Binding) []key.Binding {
	var out []key.Binding
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// RenderCentered centers content in the terminal.
func RenderCentered(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
