package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ramadan/internal/notify"
	"ramadan/internal/state"
)

// dayCheckInterval is how often the rollover and reminders are checked.
const dayCheckInterval = 30 * time.Second

// dispatchCmd applies a to the machine off the event loop.
func dispatchCmd(m *state.Machine, a state.Action) tea.Cmd {
	if a == nil {
		return nil
	}
	return func() tea.Msg {
		t, changed := m.Apply(a)
		return dispatchedMsg{action: a, transition: t, changed: changed}
	}
}

func undoCmd(manager *UndoManager) tea.Cmd {
	return func() tea.Msg {
		desc, err := manager.Undo()
		return undoResultMsg{desc: desc, err: err}
	}
}

func redoCmd(manager *UndoManager) tea.Cmd {
	return func() tea.Msg {
		desc, err := manager.Redo()
		return redoResultMsg{desc: desc, err: err}
	}
}

// waitForChangeCmd blocks until the machine broadcasts a new state.
func waitForChangeCmd(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

// waitForReloadCmd blocks until an external change has been adopted.
func waitForReloadCmd(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return externalReloadMsg{}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func dayCheckTickCmd() tea.Cmd {
	return tea.Tick(dayCheckInterval, func(t time.Time) tea.Msg {
		return dayCheckMsg(t)
	})
}

// checkDayCmd rolls the machine over to a new day if needed and delivers
// due reminders against the resulting state.
func checkDayCmd(m *state.Machine, sched *notify.Scheduler, now time.Time) tea.Cmd {
	return func() tea.Msg {
		var out dayCheckedMsg
		if ar, ok := m.CheckDay().(state.ArchiveAndRollover); ok {
			out.rollover = &ar
		}
		if sched != nil {
			out.reminders = sched.Tick(context.Background(), now, m.State())
		}
		return out
	}
}
