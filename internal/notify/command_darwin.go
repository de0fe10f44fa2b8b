//go:build darwin

package notify

import (
	"strings"
)

func platformCommand(msg Message) (string, []string) {
	script := "display notification " + appleScriptString(msg.Body) + " with title " + appleScriptString(msg.Title)
	if msg.Sound {
		script += ` sound name "default"`
	}
	return "osascript", []string{"-e", script}
}

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
