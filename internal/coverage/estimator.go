// Package coverage implements the stock-coverage estimator: given a product
// catalog and a window of historical inventory and sales transactions, it
// computes for each product a projected number of days until on-hand stock
// runs out, based on an "approved" subset of historical days judged
// representative of normal availability.
//
// The computation is a pure, idempotent batch transform — a linear pipeline
// of in-memory stages (pack-factor resolution, calendar materialization,
// balance reconstruction, approval-set construction, demand aggregation)
// with no shared mutable state. All quantity arithmetic is decimal; the
// one-decimal rounding of the result happens only at output assembly.
package coverage

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Estimator computes days-of-cover estimates for a fixed configuration.
// It carries no per-run state and is safe to share across goroutines.
type Estimator struct {
	cfg Config
}

// NewEstimator creates an estimator, filling unset Config fields with
// defaults.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{cfg: cfg.withDefaults()}
}

// Run executes the full pipeline over the input feeds and returns one
// estimate per product with at least one approved day, sorted ascending by
// days of cover with "cannot estimate" (nil) entries last.
func (e *Estimator) Run(in Input) []Estimate {
	cfg := e.cfg

	factors := resolvePackFactors(in, cfg.PackUnitLabels)
	lines := buildTimelines(in, cfg, factors)
	markApproved(lines, cfg)
	aggregateSales(lines, in.Sales, cfg)

	estimates := make([]Estimate, 0, len(lines))
	for _, tl := range lines {
		if tl.daysApproved == 0 {
			// No representative days anywhere in history: the product is
			// excluded rather than shown with a meaningless estimate.
			continue
		}
		estimates = append(estimates, e.estimate(tl))
	}

	sortEstimates(estimates)
	return estimates
}

// aggregateSales runs stage 6's first half: daily sales totals in base
// units. Sales for unknown products or outside the calendar are skipped;
// same-day lines accumulate.
func aggregateSales(lines map[int64]*timeline, sales []Sale, cfg Config) {
	days := cfg.historyDays()
	start := cfg.historyStart()

	for _, s := range sales {
		tl, ok := lines[s.ProductID]
		if !ok {
			continue
		}
		idx := dayIndex(s.Date, start)
		if idx < 0 || idx >= days {
			continue
		}
		unitBase := s.UnitBaseQty
		if !unitBase.IsPositive() {
			unitBase = decimal.NewFromInt(1)
		}
		tl.salesBase[idx] = tl.salesBase[idx].Add(s.Qty.Mul(unitBase))
	}
}

// estimate finishes stages 6–8 for one product: demand over exactly the
// approved date set (absent days contribute zero, not a skip), current
// stock from the final calendar day, and the coverage ratio.
func (e *Estimator) estimate(tl *timeline) Estimate {
	totalBase := decimal.Decimal{}
	for i, ok := range tl.approved {
		if ok {
			totalBase = totalBase.Add(tl.salesBase[i])
		}
	}

	totalPacks := totalBase.Div(tl.packFactor)
	avgDaily := totalPacks.Div(decimal.NewFromInt(int64(tl.daysApproved)))
	stock := tl.eod[len(tl.eod)-1]

	est := Estimate{
		ProductID: tl.product.ID,
		Name:      tl.product.Name,
		Code:      tl.product.Code,
	}
	if avgDaily.IsPositive() {
		cover := stock.Div(avgDaily).Round(1)
		est.DaysOfCover = &cover
	}
	// Zero (or negative) average demand leaves DaysOfCover nil: "cannot
	// estimate", which must stay distinct from "will never run out".
	return est
}

// sortEstimates orders most-urgent first: ascending days of cover, nil
// values last, ties broken by product code so runs are deterministic.
func sortEstimates(estimates []Estimate) {
	sort.Slice(estimates, func(i, j int) bool {
		a, b := estimates[i].DaysOfCover, estimates[j].DaysOfCover
		switch {
		case a == nil && b == nil:
			return estimates[i].Code < estimates[j].Code
		case a == nil:
			return false
		case b == nil:
			return true
		}
		if c := a.Cmp(*b); c != 0 {
			return c < 0
		}
		return estimates[i].Code < estimates[j].Code
	})
}
