package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"ramadan/internal/config"
)

// parseKeys splits a comma-separated binding list from the config. An empty
// setting yields defaultKeys.
func parseKeys(customKeys string, defaultKeys ...string) []string {
	if customKeys == "" {
		return defaultKeys
	}
	var result []string
	for _, k := range strings.Split(customKeys, ",") {
		k = strings.TrimSpace(k)
		if k == "space" {
			k = " "
		}
		if k != "" {
			result = append(result, k)
		}
	}
	if len(result) == 0 {
		return defaultKeys
	}
	return result
}

func binding(custom, helpKey, helpDesc string, defaults ...string) key.Binding {
	return key.NewBinding(
		key.WithKeys(parseKeys(custom, defaults...)...),
		key.WithHelp(helpKey, helpDesc),
	)
}

// GlobalKeyMap holds keys that work in every pane.
type GlobalKeyMap struct {
	Quit     key.Binding
	Help     key.Binding
	NextPane key.Binding
	Pane1    key.Binding
	Pane2    key.Binding
	Pane3    key.Binding
	Undo     key.Binding
	Redo     key.Binding
}

// NewGlobalKeyMap creates global key bindings from config.
func NewGlobalKeyMap(cfg *config.KeysConfig) GlobalKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return GlobalKeyMap{
		Quit:     binding(cfg.Quit, "q", "quit", "q", "ctrl+c"),
		Help:     binding(cfg.Help, "?", "help", "?"),
		NextPane: binding(cfg.NextPane, "tab", "next pane", "tab"),
		Pane1:    binding(cfg.Pane1, "1", "reading", "1"),
		Pane2:    binding(cfg.Pane2, "2", "challenges", "2"),
		Pane3:    binding(cfg.Pane3, "3", "dhikr", "3"),
		Undo:     binding(cfg.Undo, "ctrl+z", "undo", "ctrl+z", "u"),
		Redo:     binding(cfg.Redo, "ctrl+y", "redo", "ctrl+y"),
	}
}

// NavigationKeyMap is shared by the list panes.
type NavigationKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
}

// NewNavigationKeyMap creates navigation key bindings from config.
func NewNavigationKeyMap(cfg *config.KeysConfig) NavigationKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return NavigationKeyMap{
		Up:     binding(cfg.Up, "k/↑", "up", "k", "up"),
		Down:   binding(cfg.Down, "j/↓", "down", "j", "down"),
		Top:    binding(cfg.Top, "g", "top", "g"),
		Bottom: binding(cfg.Bottom, "G", "bottom", "G"),
	}
}

// moveCursor applies a navigation key to cursor within a list of n items.
// It reports whether msg was a navigation key.
func (k NavigationKeyMap) moveCursor(msg tea.KeyMsg, cursor, n int) (int, bool) {
	if n <= 0 {
		return 0, key.Matches(msg, k.Up, k.Down, k.Top, k.Bottom)
	}
	switch {
	case key.Matches(msg, k.Down):
		return min(cursor+1, n-1), true
	case key.Matches(msg, k.Up):
		return max(cursor-1, 0), true
	case key.Matches(msg, k.Top):
		return 0, true
	case key.Matches(msg, k.Bottom):
		return n - 1, true
	}
	return cursor, false
}

// InputKeyMap holds the keys of text input mode.
type InputKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// NewInputKeyMap creates input key bindings from config.
func NewInputKeyMap(cfg *config.KeysConfig) InputKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return InputKeyMap{
		Confirm: binding(cfg.Confirm, "enter", "confirm", "enter"),
		Cancel:  binding(cfg.Cancel, "esc", "cancel", "esc"),
	}
}

// ReadingKeyMap holds the keys of the reading pane.
type ReadingKeyMap struct {
	Toggle     key.Binding
	Add        key.Binding
	Delete     key.Binding
	MorePages  key.Binding
	FewerPages key.Binding
	NavigationKeyMap
}

// NewReadingKeyMap creates reading pane key bindings from config.
func NewReadingKeyMap(cfg *config.KeysConfig) ReadingKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return ReadingKeyMap{
		Toggle:           binding(cfg.Toggle, "space", "read", "d", "enter", " "),
		Add:              binding(cfg.Add, "a", "add time", "a"),
		Delete:           binding(cfg.Delete, "x", "remove", "x"),
		MorePages:        binding("", "+", "more pages", "+", "="),
		FewerPages:       binding("", "-", "fewer pages", "-"),
		NavigationKeyMap: NewNavigationKeyMap(cfg),
	}
}

// ShortHelp implements help.KeyMap.
func (k ReadingKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Add, k.Delete, k.MorePages, k.FewerPages}
}

// FullHelp implements help.KeyMap.
func (k ReadingKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Add, k.Delete},
		{k.MorePages, k.FewerPages},
		{k.Up, k.Down, k.Top, k.Bottom},
	}
}

// ChallengeKeyMap holds the keys of the challenges pane.
type ChallengeKeyMap struct {
	Toggle key.Binding
	Edit   key.Binding
	Note   key.Binding
	NavigationKeyMap
}

// NewChallengeKeyMap creates challenge pane key bindings from config.
func NewChallengeKeyMap(cfg *config.KeysConfig) ChallengeKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return ChallengeKeyMap{
		Toggle:           binding(cfg.Toggle, "space", "check", "d", "enter", " "),
		Edit:             binding("", "e", "choose challenges", "e"),
		Note:             binding(cfg.Add, "a", "add dua or podcast note", "a"),
		NavigationKeyMap: NewNavigationKeyMap(cfg),
	}
}

// ShortHelp implements help.KeyMap.
func (k ChallengeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Edit, k.Note}
}

// FullHelp implements help.KeyMap.
func (k ChallengeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Edit, k.Note},
		{k.Up, k.Down, k.Top, k.Bottom},
	}
}

// SubhaKeyMap holds the keys of the dhikr counter pane.
type SubhaKeyMap struct {
	Increment key.Binding
	Reset     key.Binding
	ResetAll  key.Binding
	NavigationKeyMap
}

// NewSubhaKeyMap creates dhikr pane key bindings from config.
func NewSubhaKeyMap(cfg *config.KeysConfig) SubhaKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	return SubhaKeyMap{
		Increment:        binding(cfg.Increment, "space", "count", "+", "=", "enter", " "),
		Reset:            binding(cfg.Reset, "r", "reset", "r"),
		ResetAll:         binding(cfg.ResetAll, "R", "reset all", "R"),
		NavigationKeyMap: NewNavigationKeyMap(cfg),
	}
}

// ShortHelp implements help.KeyMap.
func (k SubhaKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Increment, k.Reset, k.ResetAll}
}

// FullHelp implements help.KeyMap.
func (k SubhaKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Increment, k.Reset, k.ResetAll},
		{k.Up, k.Down, k.Top, k.Bottom},
	}
}

// HelpKeyMap closes the help overlay.
type HelpKeyMap struct {
	Close key.Binding
}

// DefaultHelpKeyMap returns the help overlay key bindings.
func DefaultHelpKeyMap() HelpKeyMap {
	return HelpKeyMap{
		Close: key.NewBinding(
			key.WithKeys("?", "esc", "q", "enter", " "),
			key.WithHelp("any key", "close"),
		),
	}
}
