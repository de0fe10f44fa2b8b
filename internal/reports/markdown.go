package reports

import (
	"fmt"
	"strings"
)

const barWidth = 20

// FormatDailyMarkdown renders a daily report as Markdown.
func FormatDailyMarkdown(r *DailyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Daily report: %s (%s)\n\n", r.Date, r.DayOfWeek)
	if r.Live {
		b.WriteString("_Day in progress._\n\n")
	}
	fmt.Fprintf(&b, "**Completion:** %s %d%%\n\n", bar(r.Snapshot.Pct), r.Snapshot.Pct)

	b.WriteString("## Quran\n\n")
	if r.DailyPages > 0 {
		fmt.Fprintf(&b, "Pages read: %d of %d\n\n", r.Snapshot.PagesRead, r.DailyPages)
	} else {
		fmt.Fprintf(&b, "Pages read: %d\n\n", r.Snapshot.PagesRead)
	}
	for _, s := range r.Slots {
		fmt.Fprintf(&b, "- %s %s (%d pages)\n", checkbox(s.Done), s.Label, s.Pages)
	}
	if len(r.Slots) > 0 {
		b.WriteString("\n")
	}

	b.WriteString("## Challenges\n\n")
	if len(r.Challenges) > 0 {
		for _, c := range r.Challenges {
			fmt.Fprintf(&b, "- %s %s\n", checkbox(c.Done), c.Label)
		}
	} else {
		fmt.Fprintf(&b, "- %s Quran goal\n", checkbox(r.Snapshot.Quran))
		fmt.Fprintf(&b, "- %s Adhkar\n", checkbox(r.Snapshot.Azkar))
		fmt.Fprintf(&b, "- %s Dhikr\n", checkbox(r.Snapshot.Subha))
		fmt.Fprintf(&b, "- %s Qiyam\n", checkbox(r.Snapshot.Qiyam))
	}
	b.WriteString("\n")

	if len(r.Dhikr) > 0 {
		b.WriteString("## Dhikr\n\n")
		for _, d := range r.Dhikr {
			fmt.Fprintf(&b, "- %s: %d\n", d.Label, d.Count)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Streak\n\n")
	fmt.Fprintf(&b, "Current: %d days, best: %d days, pages overall: %d\n", r.Streak, r.BestStreak, r.TotalPages)
	return b.String()
}

// FormatWeeklyMarkdown renders a weekly report as Markdown.
func FormatWeeklyMarkdown(r *WeeklyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Weekly report: %s to %s\n\n", r.StartDate, r.EndDate)
	if r.RecordedDays == 0 {
		b.WriteString("Nothing recorded this week.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "**Average completion:** %s %d%%\n\n", bar(r.AveragePct), r.AveragePct)
	fmt.Fprintf(&b, "- Days recorded: %d\n", r.RecordedDays)
	fmt.Fprintf(&b, "- Full days: %d\n", r.FullDays)
	fmt.Fprintf(&b, "- Pages read: %d\n", r.PagesRead)
	fmt.Fprintf(&b, "- Streak: %d (best %d)\n\n", r.Streak, r.BestStreak)

	b.WriteString("| Day | Date | Done | Pages | Quran | Adhkar | Dhikr | Qiyam |\n")
	b.WriteString("|-----|------|------|-------|-------|--------|-------|-------|\n")
	for _, d := range r.Days {
		if !d.Recorded {
			fmt.Fprintf(&b, "| %s | %s | - | - | - | - | - | - |\n", d.DayOfWeek, d.Date)
			continue
		}
		day := d.DayOfWeek
		if d.Live {
			day += "*"
		}
		fmt.Fprintf(&b, "| %s | %s | %d%% | %d | %s | %s | %s | %s |\n",
			day, d.Date, d.Pct, d.PagesRead, mark(d.Quran), mark(d.Azkar), mark(d.Subha), mark(d.Qiyam))
	}
	fmt.Fprintf(&b, "| | **Days** | | | %d | %d | %d | %d |\n", r.QuranDays, r.AzkarDays, r.SubhaDays, r.QiyamDays)
	return b.String()
}

func bar(pct int) string {
	pct = max(0, min(100, pct))
	filled := pct * barWidth / 100
	return "`" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "`"
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func mark(done bool) string {
	if done {
		return "✓"
	}
	return "·"
}
