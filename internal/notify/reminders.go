package notify

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"ramadan/internal/config"
	"ramadan/internal/state"
)

// Reminder IDs.
const (
	ReminderDua     = "dua"
	ReminderReading = "reading"
)

// Reminder is a notification that fires once a day at Time (HH:MM).
type Reminder struct {
	ID   string
	Time string
	Message
}

// Plan lists the reminders the current state asks for. The dua reminder
// follows the in-app toggle and time. The reading reminder comes from the
// config and is only planned while today's page goal is unmet.
func Plan(s *state.AppState, cfg config.NotificationConfig) []Reminder {
	if s == nil {
		return nil
	}
	var out []Reminder

	if s.NotificationsEnabled && state.IsClockTime(s.DuaNotifTime) {
		body := "Take a moment for dua."
		if n := len(s.Duas); n > 0 {
			body = s.Duas[n-1].Text
		}
		out = append(out, Reminder{
			ID:      ReminderDua,
			Time:    s.DuaNotifTime,
			Message: Message{Title: "Dua time", Body: body, Sound: cfg.Sound},
		})
	}

	if cfg.Enabled && state.IsClockTime(cfg.ReadingReminder) {
		p := state.TodayProgress(s)
		if goal := max(1, s.DailyPages); p.PagesRead < goal {
			out = append(out, Reminder{
				ID:   ReminderReading,
				Time: cfg.ReadingReminder,
				Message: Message{
					Title: "Quran reading",
					Body:  fmt.Sprintf("%d of %d pages read today.", p.PagesRead, goal),
					Sound: cfg.Sound,
				},
			})
		}
	}
	return out
}

// Scheduler delivers planned reminders once per day each. A reminder whose
// time has passed fires on the first tick after it, so starting the app late
// still delivers it.
type Scheduler struct {
	notifier Notifier
	cfg      config.NotificationConfig
	logger   *zap.Logger

	mu   gosync.Mutex
	sent map[string]string // reminder ID -> date last delivered
}

// NewScheduler creates a Scheduler. A nil notifier or logger is replaced by
// a no-op.
func NewScheduler(n Notifier, cfg config.NotificationConfig, logger *zap.Logger) *Scheduler {
	if n == nil {
		n = Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{notifier: n, cfg: cfg, logger: logger, sent: map[string]string{}}
}

// Due returns the reminders that should fire at now and have not fired
// today. It does not mark them sent.
func (sc *Scheduler) Due(now time.Time, s *state.AppState) []Reminder {
	today := state.DateString(now)
	clock := now.Format("15:04")

	sc.mu.Lock()
	defer sc.mu.Unlock()
	var due []Reminder
	for _, r := range Plan(s, sc.cfg) {
		if r.Time <= clock && sc.sent[r.ID] != today {
			due = append(due, r)
		}
	}
	return due
}

// Tick sends every due reminder and returns how many were delivered.
// Failed deliveries are logged and retried on the next tick.
func (sc *Scheduler) Tick(ctx context.Context, now time.Time, s *state.AppState) int {
	today := state.DateString(now)
	delivered := 0
	for _, r := range sc.Due(now, s) {
		if err := sc.notifier.Notify(ctx, r.Message); err != nil {
			sc.logger.Warn("reminder failed", zap.String("reminder", r.ID), zap.Error(err))
			continue
		}
		sc.mu.Lock()
		sc.sent[r.ID] = today
		sc.mu.Unlock()
		sc.logger.Info("reminder sent", zap.String("reminder", r.ID), zap.String("at", r.Time))
		delivered++
	}
	return delivered
}
