package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mizanhq/reports-backend/internal/domain"
)

// LowStockRepository lists active products whose stock on hand is at or
// below their configured minimum level, most depleted first.
type LowStockRepository interface {
	FetchLowStock(ctx context.Context, db *sqlx.DB) ([]domain.LowStockRow, error)
}

type lowStockRepository struct{}

func NewLowStockRepository() LowStockRepository {
	return &lowStockRepository{}
}

func (r *lowStockRepository) FetchLowStock(ctx context.Context, db *sqlx.DB) ([]domain.LowStockRow, error) {
	query := `
		SELECT
		    p.ProductID_PK,
		    p.ProductCode,
		    p.ProductName,
		    p.MinStockLevel,
		    ISNULL(SUM(pi.StockOnHand), 0) AS StockOnHand,
		    (ISNULL(SUM(pi.StockOnHand), 0) - p.MinStockLevel) AS Difference
		FROM Inventory.Data_Products p
		LEFT JOIN Inventory.Data_ProductInventories pi
		    ON p.ProductID_PK = pi.ProductID_FK
		WHERE p.MinStockLevel > 0
		    AND p.IsInActive = 0
		GROUP BY p.ProductID_PK, p.ProductCode, p.ProductName, p.MinStockLevel
		HAVING ISNULL(SUM(pi.StockOnHand), 0) <= p.MinStockLevel
		ORDER BY StockOnHand ASC, p.ProductName
	`

	rows := make([]domain.LowStockRow, 0)
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("fetch low stock products: %w", err)
	}
	return rows, nil
}
