// Package notify sends desktop notifications and decides when the daily
// reminders are due. macOS uses osascript, Linux uses notify-send, and every
// other platform gets a notifier that reports itself unsupported.
package notify

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

const sendTimeout = 5 * time.Second

// Message is one desktop notification.
type Message struct {
	Title string
	Body  string
	Sound bool
}

// Notifier delivers desktop notifications.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
	IsSupported() bool
}

// New returns the notifier for this platform, or a no-op notifier when the
// platform tool is missing.
func New() Notifier {
	name, _ := platformCommand(Message{})
	if name == "" {
		return Noop{}
	}
	if _, err := exec.LookPath(name); err != nil {
		return Noop{}
	}
	return commandNotifier{}
}

// Noop discards notifications.
type Noop struct{}

func (Noop) Notify(context.Context, Message) error { return nil }
func (Noop) IsSupported() bool                     { return false }

// commandNotifier runs the platform notification tool.
type commandNotifier struct{}

func (commandNotifier) IsSupported() bool { return true }

func (commandNotifier) Notify(ctx context.Context, msg Message) error {
	name, args := platformCommand(msg)
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if out, err := exec.CommandContext(ctx, name, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w (%s)", name, err, out)
	}
	return nil
}
