package coverage

import (
	"time"

	"github.com/shopspring/decimal"
)

// timeline holds one product's reconstructed day-by-day state across the
// dense history calendar. Index 0 is historyStart, the last index is End.
type timeline struct {
	product    Product
	packFactor decimal.Decimal

	opening   decimal.Decimal   // sum of movements strictly before the calendar, in packs
	net       []decimal.Decimal // daily net movement per day, in packs
	eod       []decimal.Decimal // end-of-day balance per day, in packs
	salesBase []decimal.Decimal // daily sales per day, in base units

	daysInWindow int
	preHave      int
	preRunCapped int
	daysApproved int
	approved     []bool
}

// buildTimelines runs stages 2–4: calendar materialization, daily net
// aggregation with opening-balance collapse, and prefix-sum balance
// reconstruction. Movements for unknown products, or dated after End, are
// skipped.
func buildTimelines(in Input, cfg Config, factors map[int64]decimal.Decimal) map[int64]*timeline {
	days := cfg.historyDays()
	start := cfg.historyStart()

	lines := make(map[int64]*timeline, len(in.Products))
	for _, p := range in.Products {
		lines[p.ID] = &timeline{
			product:    p,
			packFactor: factors[p.ID],
			net:        make([]decimal.Decimal, days),
			eod:        make([]decimal.Decimal, days),
			salesBase:  make([]decimal.Decimal, days),
			approved:   make([]bool, days),
		}
	}

	for _, m := range in.Movements {
		tl, ok := lines[m.ProductID]
		if !ok {
			continue
		}
		idx := dayIndex(m.Date, start)
		packs := m.Qty.Div(tl.packFactor)
		switch {
		case idx < 0:
			// Movements before the calendar collapse into one scalar;
			// their individual dates are discarded.
			tl.opening = tl.opening.Add(packs)
		case idx < days:
			tl.net[idx] = tl.net[idx].Add(packs)
		}
	}

	for _, tl := range lines {
		running := tl.opening
		for i := 0; i < days; i++ {
			running = running.Add(tl.net[i])
			tl.eod[i] = running
		}
	}

	return lines
}

// dayIndex returns the offset in whole days of t's calendar date from start.
func dayIndex(t time.Time, start time.Time) int {
	return int(dateOnly(t).Sub(start) / (24 * time.Hour))
}
