package coverage

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEnd = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

// day returns the calendar date at the given offset from history start for
// the supplied config.
func day(cfg Config, offset int) time.Time {
	return cfg.withDefaults().historyStart().AddDate(0, 0, offset)
}

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBalanceReconstruction(t *testing.T) {
	cfg := Config{WindowDays: 10, End: testEnd}
	full := cfg.withDefaults()
	days := full.historyDays()

	product := Product{ID: 1, Name: "Widget", Code: "W-1"}
	in := Input{
		Products: []Product{product},
		Movements: []Movement{
			// Before the calendar: collapses into the opening balance.
			{ProductID: 1, Date: day(cfg, -3), Qty: dec("7")},
			{ProductID: 1, Date: day(cfg, -1), Qty: dec("5")},
			// Inside the calendar, including two same-day movements that
			// must be summed, not overwritten.
			{ProductID: 1, Date: day(cfg, 0), Qty: dec("10")},
			{ProductID: 1, Date: day(cfg, 2), Qty: dec("-4")},
			{ProductID: 1, Date: day(cfg, 2), Qty: dec("-1")},
			{ProductID: 1, Date: day(cfg, 5), Qty: dec("3")},
		},
	}

	factors := resolvePackFactors(in, full.PackUnitLabels)
	lines := buildTimelines(in, full, factors)
	tl := lines[1]
	require.NotNil(t, tl)

	assert.True(t, tl.opening.Equal(dec("12")))

	// Recompute the prefix sum directly and compare every day.
	running := tl.opening
	for i := 0; i < days; i++ {
		running = running.Add(tl.net[i])
		assert.True(t, tl.eod[i].Equal(running), "eod mismatch at day %d", i)
	}

	assert.True(t, tl.eod[0].Equal(dec("22")))
	assert.True(t, tl.eod[2].Equal(dec("17")))
	assert.True(t, tl.eod[days-1].Equal(dec("20")))
}

func TestNoPositiveBalanceExcluded(t *testing.T) {
	est := NewEstimator(Config{WindowDays: 10, End: testEnd})

	in := Input{
		Products: []Product{
			{ID: 1, Name: "Never stocked", Code: "N-1"},
			{ID: 2, Name: "Always negative", Code: "N-2"},
		},
		Movements: []Movement{
			{ProductID: 2, Date: day(est.cfg, 0), Qty: dec("-5")},
		},
		Sales: []Sale{
			{ProductID: 1, Date: day(est.cfg, 40), Qty: dec("3"), UnitBaseQty: dec("1")},
		},
	}

	out := est.Run(in)
	assert.Empty(t, out)
}

func TestPreWindowPaddingPrefersMostRecent(t *testing.T) {
	cfg := Config{WindowDays: 60, End: testEnd}
	full := cfg.withDefaults()
	require.Equal(t, 30, full.preWindowTarget())
	require.Equal(t, 120, full.historyDays())

	windowStart := full.historyDays() - full.WindowDays // index 60

	// Positive balance from day 20 through day 64, zero afterwards:
	// 40 qualifying pre-window days (20..59) and 5 in-window days (60..64).
	in := Input{
		Products: []Product{{ID: 1, Name: "Thin window", Code: "T-1"}},
		Movements: []Movement{
			{ProductID: 1, Date: day(cfg, 20), Qty: dec("1")},
			{ProductID: 1, Date: day(cfg, 65), Qty: dec("-1")},
		},
	}

	factors := resolvePackFactors(in, full.PackUnitLabels)
	lines := buildTimelines(in, full, factors)
	markApproved(lines, full)
	tl := lines[1]

	assert.Equal(t, 5, tl.daysInWindow)
	assert.Equal(t, 40, tl.preHave)
	assert.Equal(t, 30, tl.preRunCapped)
	assert.Equal(t, 35, tl.daysApproved)

	// The padding must be the 30 most recent qualifying days (30..59),
	// never the oldest.
	for i := 20; i < 30; i++ {
		assert.False(t, tl.approved[i], "day %d should not be approved", i)
	}
	for i := 30; i < windowStart; i++ {
		assert.True(t, tl.approved[i], "day %d should be approved", i)
	}
}

func TestZeroDemandYieldsNullNotExclusion(t *testing.T) {
	est := NewEstimator(Config{WindowDays: 10, End: testEnd})

	in := Input{
		Products: []Product{
			{ID: 1, Name: "Sells daily", Code: "A-1"},
			{ID: 2, Name: "Never sold", Code: "B-1"},
		},
		Movements: []Movement{
			{ProductID: 1, Date: day(est.cfg, 35), Qty: dec("100")},
			{ProductID: 2, Date: day(est.cfg, 35), Qty: dec("100")},
		},
		Sales: []Sale{
			{ProductID: 1, Date: day(est.cfg, 40), Qty: dec("10"), UnitBaseQty: dec("1")},
		},
	}

	out := est.Run(in)
	require.Len(t, out, 2)

	// Finite estimates first, the "cannot estimate" product trails.
	assert.Equal(t, "A-1", out[0].Code)
	require.NotNil(t, out[0].DaysOfCover)

	assert.Equal(t, "B-1", out[1].Code)
	assert.Nil(t, out[1].DaysOfCover)
}

func TestUnitScaleInvariance(t *testing.T) {
	build := func(scale int64) Input {
		k := decimal.NewFromInt(scale)
		return Input{
			Products: []Product{{ID: 1, Name: "Scaled", Code: "S-1"}},
			UOMHints: []UOMHint{
				{ProductID: 1, UnitName: "Pack", BaseUnitQty: dec("2").Mul(k)},
			},
			Movements: []Movement{
				{ProductID: 1, Date: day(Config{WindowDays: 10, End: testEnd}, 35), Qty: dec("100").Mul(k)},
			},
			Sales: []Sale{
				{ProductID: 1, Date: day(Config{WindowDays: 10, End: testEnd}, 40), Qty: dec("10").Mul(k), UnitBaseQty: dec("1")},
				{ProductID: 1, Date: day(Config{WindowDays: 10, End: testEnd}, 44), Qty: dec("30").Mul(k), UnitBaseQty: dec("1")},
			},
		}
	}

	est := NewEstimator(Config{WindowDays: 10, End: testEnd})

	base := est.Run(build(1))
	scaled := est.Run(build(7))
	require.Len(t, base, 1)
	require.Len(t, scaled, 1)
	require.NotNil(t, base[0].DaysOfCover)
	require.NotNil(t, scaled[0].DaysOfCover)
	assert.True(t, base[0].DaysOfCover.Equal(*scaled[0].DaysOfCover),
		"expected %s, got %s", base[0].DaysOfCover, scaled[0].DaysOfCover)
}

func TestOrderingAscendingNullsLastAndDeterministic(t *testing.T) {
	est := NewEstimator(Config{WindowDays: 10, End: testEnd})

	in := Input{
		Products: []Product{
			{ID: 1, Name: "Slow mover", Code: "C-3"},
			{ID: 2, Name: "Fast mover", Code: "C-1"},
			{ID: 3, Name: "Never sold", Code: "C-9"},
			{ID: 4, Name: "Also never sold", Code: "C-2"},
		},
		Movements: []Movement{
			{ProductID: 1, Date: day(est.cfg, 35), Qty: dec("100")},
			{ProductID: 2, Date: day(est.cfg, 35), Qty: dec("100")},
			{ProductID: 3, Date: day(est.cfg, 35), Qty: dec("100")},
			{ProductID: 4, Date: day(est.cfg, 35), Qty: dec("100")},
		},
		Sales: []Sale{
			{ProductID: 1, Date: day(est.cfg, 40), Qty: dec("10"), UnitBaseQty: dec("1")},
			{ProductID: 2, Date: day(est.cfg, 40), Qty: dec("50"), UnitBaseQty: dec("1")},
		},
	}

	first := est.Run(in)
	second := est.Run(in)

	require.Len(t, first, 4)
	assert.Equal(t, first, second)

	// Smallest finite cover first, nulls trail ordered by code.
	assert.Equal(t, "C-1", first[0].Code)
	assert.Equal(t, "C-3", first[1].Code)
	assert.Equal(t, "C-2", first[2].Code)
	assert.Equal(t, "C-9", first[3].Code)
	assert.Nil(t, first[2].DaysOfCover)
	assert.Nil(t, first[3].DaysOfCover)
	assert.True(t, first[0].DaysOfCover.LessThan(*first[1].DaysOfCover))
}

func TestEndToEndScenario(t *testing.T) {
	cfg := Config{WindowDays: 10, End: testEnd}
	est := NewEstimator(cfg)
	windowStart := est.cfg.historyDays() - est.cfg.WindowDays // index 35

	in := Input{
		Products: []Product{{ID: 1, Name: "Product P", Code: "P-1"}},
		UOMHints: []UOMHint{
			{ProductID: 1, UnitName: "Pack", BaseUnitQty: dec("2")},
		},
		Movements: []Movement{
			{ProductID: 1, Date: day(cfg, windowStart), Qty: dec("100")},
		},
	}
	for i := 0; i < 10; i++ {
		in.Sales = append(in.Sales, Sale{
			ProductID:   1,
			Date:        day(cfg, windowStart+i),
			Qty:         dec("10"),
			UnitBaseQty: dec("1"),
		})
	}

	// Sanity on the intermediate stages: +100 base on day one of the
	// window is +50 packs, carried flat through the window.
	factors := resolvePackFactors(in, est.cfg.PackUnitLabels)
	lines := buildTimelines(in, est.cfg, factors)
	markApproved(lines, est.cfg)
	tl := lines[1]
	require.True(t, tl.packFactor.Equal(dec("2")))
	require.True(t, tl.net[windowStart].Equal(dec("50")))
	for i := windowStart; i < est.cfg.historyDays(); i++ {
		assert.True(t, tl.eod[i].Equal(dec("50")), "eod at day %d", i)
	}
	assert.Equal(t, 10, tl.daysInWindow)
	assert.Equal(t, 10, tl.daysApproved)

	out := est.Run(in)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].DaysOfCover)
	assert.True(t, out[0].DaysOfCover.Equal(dec("10.0")),
		"expected 10.0 days of cover, got %s", out[0].DaysOfCover)
}

func TestUnknownProductTransactionsIgnored(t *testing.T) {
	est := NewEstimator(Config{WindowDays: 10, End: testEnd})

	in := Input{
		Products: []Product{{ID: 1, Name: "Known", Code: "K-1"}},
		Movements: []Movement{
			{ProductID: 1, Date: day(est.cfg, 35), Qty: dec("10")},
			{ProductID: 999, Date: day(est.cfg, 35), Qty: dec("500")},
		},
		Sales: []Sale{
			{ProductID: 1, Date: day(est.cfg, 40), Qty: dec("1"), UnitBaseQty: dec("1")},
			{ProductID: 999, Date: day(est.cfg, 40), Qty: dec("50"), UnitBaseQty: dec("1")},
		},
	}

	out := est.Run(in)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].ProductID)
}

func TestPackFactorResolution(t *testing.T) {
	in := Input{
		Products: []Product{
			{ID: 1, Name: "Declared", Code: "D-1"},
			{ID: 2, Name: "Inferred", Code: "I-1"},
			{ID: 3, Name: "Bare", Code: "B-1"},
			{ID: 4, Name: "Bad hint", Code: "X-1"},
		},
		UOMHints: []UOMHint{
			// Inflected Arabic name still matches the pack labels.
			{ProductID: 1, UnitName: "عبوة كبيرة", BaseUnitQty: dec("12")},
			// A non-pack unit must not short-circuit inference.
			{ProductID: 2, UnitName: "حبة", BaseUnitQty: dec("99")},
			{ProductID: 4, UnitName: "PACK", BaseUnitQty: dec("0")},
		},
		Sales: []Sale{
			{ProductID: 2, Date: testEnd, Qty: dec("1"), UnitBaseQty: dec("6")},
			{ProductID: 2, Date: testEnd, Qty: dec("1"), UnitBaseQty: dec("6")},
			{ProductID: 2, Date: testEnd, Qty: dec("1"), UnitBaseQty: dec("4")},
		},
	}

	factors := resolvePackFactors(in, DefaultPackUnitLabels)

	assert.True(t, factors[1].Equal(dec("12")))
	// Modal per-unit base quantity wins for products without a declaration.
	assert.True(t, factors[2].Equal(dec("6")))
	assert.True(t, factors[3].Equal(dec("1")))
	// A declared factor of zero is unusable and falls back to 1.
	assert.True(t, factors[4].Equal(dec("1")))
}

func TestPackFactorInferenceTieBreaksTowardLargerQty(t *testing.T) {
	in := Input{
		Products: []Product{{ID: 1, Name: "Tied", Code: "T-1"}},
		Sales: []Sale{
			{ProductID: 1, Date: testEnd, Qty: dec("1"), UnitBaseQty: dec("4")},
			{ProductID: 1, Date: testEnd, Qty: dec("1"), UnitBaseQty: dec("12")},
		},
	}

	factors := resolvePackFactors(in, DefaultPackUnitLabels)
	assert.True(t, factors[1].Equal(dec("12")))
}
