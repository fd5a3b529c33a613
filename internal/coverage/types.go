package coverage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Only active products should be supplied;
// transactions referencing products outside the catalog are ignored.
type Product struct {
	ID   int64
	Name string
	Code string
}

// Movement is a signed stock change in base units. Multiple movements for
// the same product and date are summed during aggregation, never overwritten.
type Movement struct {
	ProductID int64
	Date      time.Time
	Qty       decimal.Decimal // base units, signed
}

// Sale is a single sales line: Qty sold units, each worth UnitBaseQty base
// units. A non-positive UnitBaseQty is treated as 1.
type Sale struct {
	ProductID   int64
	Date        time.Time
	Qty         decimal.Decimal
	UnitBaseQty decimal.Decimal
}

// UOMHint is an optional per-product unit-of-measure declaration.
// BaseUnitQty is the number of base units per named unit.
type UOMHint struct {
	ProductID   int64
	UnitName    string
	BaseUnitQty decimal.Decimal
}

// Input bundles the feeds for one estimator run. All feeds are read-only;
// the estimator never mutates them.
type Input struct {
	Products  []Product
	Movements []Movement
	Sales     []Sale
	UOMHints  []UOMHint
}

// Estimate is the per-product result. DaysOfCover is nil when the product
// had approved days but zero average demand ("cannot estimate"), which is
// distinct from exclusion.
type Estimate struct {
	ProductID   int64            `json:"product_id"`
	Name        string           `json:"name"`
	Code        string           `json:"code"`
	DaysOfCover *decimal.Decimal `json:"days_of_cover"`
}
