package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"ramadan/internal/config"
)

func TestNewStyles_UsesThemeColors(t *testing.T) {
	styles := NewStylesFromTheme(&config.ThemeConfig{
		Primary:    "#FF0000",
		Accent:     "#00FF00",
		Muted:      "#0000FF",
		Background: "#000000",
		Text:       "#FFFFFF",
	})

	tests := []struct {
		name string
		got  lipgloss.Color
		want lipgloss.Color
	}{
		{"primary", styles.ColorPrimary, "#FF0000"},
		{"accent", styles.ColorAccent, "#00FF00"},
		{"muted", styles.ColorMuted, "#0000FF"},
		{"background", styles.ColorBg, "#000000"},
		{"text", styles.ColorText, "#FFFFFF"},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestNewStyles_UsesDefaults(t *testing.T) {
	styles := NewStylesFromTheme(nil)
	if styles.ColorPrimary != lipgloss.Color("#0F766E") {
		t.Errorf("ColorPrimary = %v, want default teal", styles.ColorPrimary)
	}
	if styles.ColorAccent != lipgloss.Color("#D97706") {
		t.Errorf("ColorAccent = %v, want default amber", styles.ColorAccent)
	}
}

func TestNewStyles_ComponentStylesFollowPrimary(t *testing.T) {
	styles := NewStylesFromTheme(&config.ThemeConfig{Primary: "#FF0000"})

	if styles.TitleStyle.GetBackground() != lipgloss.Color("#FF0000") {
		t.Error("TitleStyle should use Primary color for background")
	}
	if styles.PaneFocusedStyle.GetBorderTopForeground() != lipgloss.Color("#FF0000") {
		t.Error("PaneFocusedStyle should use Primary color for border")
	}
	if styles.ProgressFullStyle.GetForeground() != lipgloss.Color("#FF0000") {
		t.Error("ProgressFullStyle should use Primary color")
	}
}

func TestNewStyles_FromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Theme.Primary = "#123456"
	if got := NewStyles(cfg).ColorPrimary; got != lipgloss.Color("#123456") {
		t.Errorf("ColorPrimary = %v, want #123456", got)
	}
}

func TestRenderHelp(t *testing.T) {
	setupTest(t)
	styles := createTestStyles()

	if got := styles.RenderHelp("a", "add", "x", "remove"); got != "[a] add  [x] remove" {
		t.Errorf("RenderHelp = %q", got)
	}
	if got := styles.RenderHelp("dangling"); got != "" {
		t.Errorf("odd argument count should be ignored, got %q", got)
	}
}

func TestRenderProgress(t *testing.T) {
	setupTest(t)
	styles := createTestStyles()

	tests := []struct {
		pct, width   int
		filled, rest int
	}{
		{0, 10, 0, 10},
		{50, 10, 5, 5},
		{100, 10, 10, 0},
		{150, 4, 4, 0},
		{-20, 4, 0, 4},
	}
	for _, tc := range tests {
		got := styles.RenderProgress(tc.pct, tc.width)
		want := strings.Repeat("█", tc.filled) + strings.Repeat("░", tc.rest)
		if got != want {
			t.Errorf("RenderProgress(%d, %d) = %q, want %q", tc.pct, tc.width, got, want)
		}
	}
	if styles.RenderProgress(50, 0) != "" {
		t.Error("zero width should render nothing")
	}
}
