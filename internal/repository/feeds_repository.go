package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/mizanhq/reports-backend/internal/coverage"
)

// FeedsRepository pulls the estimator's input feeds from a tenant database:
// the active product catalog, daily-aggregated inventory movements with the
// pre-history opening balance, raw sales lines, and unit-of-measure hints.
type FeedsRepository interface {
	FetchCoverageInput(ctx context.Context, db *sqlx.DB, historyStart, end time.Time) (coverage.Input, error)
}

type feedsRepository struct{}

func NewFeedsRepository() FeedsRepository {
	return &feedsRepository{}
}

type productRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	Code string `db:"code"`
}

type movementRow struct {
	ProductID int64           `db:"product_id"`
	Date      time.Time       `db:"d"`
	Qty       decimal.Decimal `db:"qty"`
}

type openingRow struct {
	ProductID int64           `db:"product_id"`
	Qty       decimal.Decimal `db:"qty"`
}

type saleRow struct {
	ProductID   int64           `db:"product_id"`
	Date        time.Time       `db:"d"`
	Qty         decimal.Decimal `db:"qty"`
	UnitBaseQty decimal.Decimal `db:"unit_base_qty"`
}

type uomRow struct {
	ProductID   int64           `db:"product_id"`
	UnitName    string          `db:"unit_name"`
	BaseUnitQty decimal.Decimal `db:"base_unit_qty"`
}

func (r *feedsRepository) FetchCoverageInput(ctx context.Context, db *sqlx.DB, historyStart, end time.Time) (coverage.Input, error) {
	var in coverage.Input

	var products []productRow
	if err := db.SelectContext(ctx, &products, `
		SELECT p.ProductID_PK AS id,
		       p.ProductName  AS name,
		       p.ProductCode  AS code
		FROM Inventory.Data_Products p
		WHERE p.IsInActive = 0`,
	); err != nil {
		return in, fmt.Errorf("fetch product catalog: %w", err)
	}
	for _, p := range products {
		in.Products = append(in.Products, coverage.Product(p))
	}

	// Daily net movements inside the history calendar. Same-day movements
	// collapse to one row per (product, date) here; the estimator sums any
	// remaining duplicates anyway.
	var movements []movementRow
	if err := db.SelectContext(ctx, &movements, `
		SELECT t.ProductID_FK                     AS product_id,
		       CAST(t.TransactionDate AS DATE)    AS d,
		       SUM(CAST(t.TransactionQYT AS DECIMAL(18,6))) AS qty
		FROM Inventory.Data_InventoryTransactions t
		WHERE CAST(t.TransactionDate AS DATE) BETWEEN @p1 AND @p2
		GROUP BY t.ProductID_FK, CAST(t.TransactionDate AS DATE)`,
		historyStart, end,
	); err != nil {
		return in, fmt.Errorf("fetch inventory movements: %w", err)
	}
	for _, m := range movements {
		in.Movements = append(in.Movements, coverage.Movement{
			ProductID: m.ProductID,
			Date:      m.Date,
			Qty:       m.Qty,
		})
	}

	// Movements strictly before the calendar collapse to one opening
	// scalar per product, delivered as a movement dated the day before
	// history start.
	var openings []openingRow
	if err := db.SelectContext(ctx, &openings, `
		SELECT t.ProductID_FK AS product_id,
		       SUM(CAST(t.TransactionQYT AS DECIMAL(18,6))) AS qty
		FROM Inventory.Data_InventoryTransactions t
		WHERE CAST(t.TransactionDate AS DATE) < @p1
		GROUP BY t.ProductID_FK`,
		historyStart,
	); err != nil {
		return in, fmt.Errorf("fetch opening balances: %w", err)
	}
	openingDate := historyStart.AddDate(0, 0, -1)
	for _, o := range openings {
		in.Movements = append(in.Movements, coverage.Movement{
			ProductID: o.ProductID,
			Date:      openingDate,
			Qty:       o.Qty,
		})
	}

	// Sales lines stay unaggregated: the pack-factor inference counts how
	// often each per-unit base quantity occurs per line.
	var sales []saleRow
	if err := db.SelectContext(ctx, &sales, `
		SELECT sii.ProductID_FK                        AS product_id,
		       CAST(si.SalesInvoiceDate AS DATE)       AS d,
		       CAST(sii.QYT AS DECIMAL(18,6))          AS qty,
		       CAST(COALESCE(sii.UnitBaseQYT, 1) AS DECIMAL(18,6)) AS unit_base_qty
		FROM SALES.Data_SalesInvoiceItems sii
		JOIN SALES.Data_SalesInvoices si ON si.SalesInvoiceID_PK = sii.SalesInvoiceID_FK
		WHERE CAST(si.SalesInvoiceDate AS DATE) BETWEEN @p1 AND @p2`,
		historyStart, end,
	); err != nil {
		return in, fmt.Errorf("fetch sales observations: %w", err)
	}
	for _, s := range sales {
		in.Sales = append(in.Sales, coverage.Sale{
			ProductID:   s.ProductID,
			Date:        s.Date,
			Qty:         s.Qty,
			UnitBaseQty: s.UnitBaseQty,
		})
	}

	var uoms []uomRow
	if err := db.SelectContext(ctx, &uoms, `
		SELECT pu.ProductID_FK                         AS product_id,
		       u.UOMName                               AS unit_name,
		       CAST(pu.BaseUnitQYT AS DECIMAL(18,6))   AS base_unit_qty
		FROM Inventory.Data_ProductUOMs pu
		JOIN Inventory.RefUOMs u ON u.UOMID_PK = pu.UomID_FK`,
	); err != nil {
		return in, fmt.Errorf("fetch unit-of-measure hints: %w", err)
	}
	for _, u := range uoms {
		in.UOMHints = append(in.UOMHints, coverage.UOMHint{
			ProductID:   u.ProductID,
			UnitName:    u.UnitName,
			BaseUnitQty: u.BaseUnitQty,
		})
	}

	return in, nil
}
