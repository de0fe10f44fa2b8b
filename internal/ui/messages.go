// Package ui is the terminal interface of ramadan. It renders the state held
// by a state.Machine and turns key presses into state actions.
//
// Every call into the machine or the scheduler happens inside a tea.Cmd so
// the event loop never blocks on disk or git. The messages below carry the
// results back.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ramadan/internal/state"
)

// dispatchedMsg is sent after an action went through the machine.
type dispatchedMsg struct {
	action     state.Action
	transition state.Transition
	changed    bool
}

// stateChangedMsg is sent when a machine subscriber saw a new state.
type stateChangedMsg struct{}

// externalReloadMsg is sent when the state file was changed by another
// process and adopted by the machine.
type externalReloadMsg struct{}

// undoResultMsg is sent when an undo operation completes.
type undoResultMsg struct {
	desc string
	err  error
}

// redoResultMsg is sent when a redo operation completes.
type redoResultMsg struct {
	desc string
	err  error
}

// tickMsg is sent every second for the clock and status expiry.
type tickMsg time.Time

// dayCheckMsg triggers the rollover check and reminder delivery.
type dayCheckMsg time.Time

// dayCheckedMsg reports the outcome of a day check.
type dayCheckedMsg struct {
	rollover  *state.ArchiveAndRollover
	reminders int
}

// statusMsg asks the app to show a transient status line.
type statusMsg struct {
	text  string
	isErr bool
}

func statusCmd(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isErr: isErr} }
}
