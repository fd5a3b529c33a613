package coverage

import "time"

// DefaultWindowDays is the primary look-back window used when Config leaves
// WindowDays unset.
const DefaultWindowDays = 60

// DefaultPackUnitLabels lists the unit names recognized as a pack/carton
// semantic. Matching is case-insensitive and substring-based, so the Arabic
// entries also catch inflected forms. Deployments can override the list.
var DefaultPackUnitLabels = []string{"عبوة", "علبة", "pack", "carton"}

// Config holds the fixed per-run knobs of the estimator.
type Config struct {
	// WindowDays is the primary look-back window ending on End.
	WindowDays int

	// PackUnitLabels are the localized unit names that identify an explicit
	// pack-size declaration. Empty means DefaultPackUnitLabels.
	PackUnitLabels []string

	// End is the last calendar day of the window ("today"). The zero value
	// means the current date.
	End time.Time
}

func (c Config) withDefaults() Config {
	if c.WindowDays <= 0 {
		c.WindowDays = DefaultWindowDays
	}
	if len(c.PackUnitLabels) == 0 {
		c.PackUnitLabels = DefaultPackUnitLabels
	}
	if c.End.IsZero() {
		c.End = time.Now()
	}
	c.End = dateOnly(c.End)
	return c
}

// preWindowTarget caps how many pre-window days may pad a thin window.
func (c Config) preWindowTarget() int {
	return c.WindowDays / 2
}

// historyDays is the total span fetched, sized so enough pre-window
// candidates exist when padding is needed.
func (c Config) historyDays() int {
	return c.WindowDays + c.preWindowTarget() + 30
}

func (c Config) historyStart() time.Time {
	return c.End.AddDate(0, 0, -(c.historyDays() - 1))
}

// dateOnly collapses a timestamp to its calendar date in UTC so day-index
// arithmetic is exact regardless of the feed's time components.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
