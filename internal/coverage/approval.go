package coverage

// markApproved runs stage 5: counts positive-balance days inside the primary
// window, caps the pre-window padding, and flags the approved date set on
// each timeline.
//
// The approved set is every in-window date with a positive end-of-day
// balance, plus the preRunCapped most recent pre-window dates with a
// positive balance. The recency bias is deliberate: a thin window is
// backfilled from the immediate past, not from an arbitrary sample or from
// the oldest history.
func markApproved(lines map[int64]*timeline, cfg Config) {
	days := cfg.historyDays()
	windowStart := days - cfg.WindowDays
	target := cfg.preWindowTarget()

	for _, tl := range lines {
		for i := windowStart; i < days; i++ {
			if tl.eod[i].IsPositive() {
				tl.approved[i] = true
				tl.daysInWindow++
			}
		}

		for i := 0; i < windowStart; i++ {
			if tl.eod[i].IsPositive() {
				tl.preHave++
			}
		}

		tl.preRunCapped = tl.preHave
		if tl.preRunCapped > target {
			tl.preRunCapped = target
		}
		tl.daysApproved = tl.daysInWindow + tl.preRunCapped

		// Walk backwards from the day before the window so the padding
		// takes the most recent qualifying days first.
		remaining := tl.preRunCapped
		for i := windowStart - 1; i >= 0 && remaining > 0; i-- {
			if tl.eod[i].IsPositive() {
				tl.approved[i] = true
				remaining--
			}
		}
	}
}
