package state

// PagesPerSlot is the even share of the daily goal credited to one slot,
// rounded up. The sum over all slots may exceed dailyPages when the goal is
// not evenly divisible; that matches how completed days were always scored.
func PagesPerSlot(dailyPages, slotCount int) int {
	if slotCount < 1 {
		slotCount = 1
	}
	if dailyPages < 1 {
		dailyPages = 1
	}
	return (dailyPages + slotCount - 1) / slotCount
}

// DeriveSlots builds one slot per reading time. Slots are matched to the
// existing list by (label, icon), first match wins, and keep their done
// flag and page count; unmatched reading times start undone with the full
// per-slot share. The result never aliases existing.
func DeriveSlots(times []ReadingTime, existing []Slot, dailyPages int) []Slot {
	share := PagesPerSlot(dailyPages, len(times))
	out := make([]Slot, 0, len(times))
	for _, rt := range times {
		slot := Slot{Label: rt.Label, Icon: rt.Icon, Pages: share}
		for _, prev := range existing {
			if prev.Matches(rt) {
				slot.Done = prev.Done
				slot.Pages = prev.Pages
				break
			}
		}
		out = append(out, slot)
	}
	return out
}

// EffectiveSlots returns today's slots, re-deriving them when they drifted
// out of step with the configured reading times.
func EffectiveSlots(s *AppState) []Slot {
	if len(s.TodaySlots) == len(s.ReadingTimes) {
		return s.TodaySlots
	}
	return DeriveSlots(s.ReadingTimes, s.TodaySlots, s.DailyPages)
}

// freshSlots starts a clean checklist: nothing done, full share each.
func freshSlots(times []ReadingTime, dailyPages int) []Slot {
	return DeriveSlots(times, nil, dailyPages)
}

// resharedSlots keeps done flags of matched slots and reassigns every slot
// the share for the current number of reading times.
func resharedSlots(times []ReadingTime, existing []Slot, dailyPages int) []Slot {
	share := PagesPerSlot(dailyPages, len(times))
	slots := DeriveSlots(times, existing, dailyPages)
	for i := range slots {
		slots[i].Pages = share
	}
	return slots
}
