package coverage

import (
	"strings"

	"github.com/shopspring/decimal"
)

// resolvePackFactors determines the base-unit-to-pack conversion factor for
// every catalog product. An explicit UOM hint whose unit name carries a
// pack/carton semantic wins; otherwise the factor is inferred as the most
// frequent per-unit base quantity seen in the product's sales lines;
// otherwise 1. Non-positive factors are coerced to 1 so later divisions are
// always defined.
func resolvePackFactors(in Input, labels []string) map[int64]decimal.Decimal {
	factors := make(map[int64]decimal.Decimal, len(in.Products))

	known := make(map[int64]bool, len(in.Products))
	for _, p := range in.Products {
		known[p.ID] = true
	}

	// Explicit declarations, first matching hint per product wins.
	for _, h := range in.UOMHints {
		if !known[h.ProductID] {
			continue
		}
		if _, ok := factors[h.ProductID]; ok {
			continue
		}
		if matchesPackLabel(h.UnitName, labels) {
			factors[h.ProductID] = normalizeFactor(h.BaseUnitQty)
		}
	}

	// Inference from sales lines for products without a declaration:
	// count occurrences of each distinct per-unit base quantity.
	type modal struct {
		counts map[string]int
		values map[string]decimal.Decimal
	}
	observed := make(map[int64]*modal)
	for _, s := range in.Sales {
		if !known[s.ProductID] {
			continue
		}
		if _, ok := factors[s.ProductID]; ok {
			continue
		}
		qty := s.UnitBaseQty
		if !qty.IsPositive() {
			qty = decimal.NewFromInt(1)
		}
		m := observed[s.ProductID]
		if m == nil {
			m = &modal{counts: make(map[string]int), values: make(map[string]decimal.Decimal)}
			observed[s.ProductID] = m
		}
		key := qty.String()
		m.counts[key]++
		m.values[key] = qty
	}

	for id, m := range observed {
		best := decimal.Decimal{}
		bestCount := 0
		for key, count := range m.counts {
			v := m.values[key]
			// Most frequent wins; ties resolve toward the larger quantity
			// so the pick is deterministic.
			if count > bestCount || (count == bestCount && v.GreaterThan(best)) {
				best = v
				bestCount = count
			}
		}
		if bestCount > 0 {
			factors[id] = normalizeFactor(best)
		}
	}

	one := decimal.NewFromInt(1)
	for _, p := range in.Products {
		if _, ok := factors[p.ID]; !ok {
			factors[p.ID] = one
		}
	}

	return factors
}

// matchesPackLabel reports whether a unit name matches any configured pack
// label, by case-insensitive equality or by containing the label as a
// substring (catches inflected forms like "عبوة كبيرة").
func matchesPackLabel(unitName string, labels []string) bool {
	name := strings.ToLower(strings.TrimSpace(unitName))
	if name == "" {
		return false
	}
	for _, label := range labels {
		l := strings.ToLower(strings.TrimSpace(label))
		if l == "" {
			continue
		}
		if name == l || strings.Contains(name, l) {
			return true
		}
	}
	return false
}

func normalizeFactor(f decimal.Decimal) decimal.Decimal {
	if !f.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return f
}
