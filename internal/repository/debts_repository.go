package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mizanhq/reports-backend/internal/domain"
)

// DebtsRepository lists customer payment appointments (the debts / payment
// schedule report), optionally filtered. All filters are parameterized.
type DebtsRepository interface {
	FetchDebts(ctx context.Context, db *sqlx.DB, filter domain.DebtsFilter) ([]domain.DebtRow, error)
}

type debtsRepository struct{}

func NewDebtsRepository() DebtsRepository {
	return &debtsRepository{}
}

func (r *debtsRepository) FetchDebts(ctx context.Context, db *sqlx.DB, filter domain.DebtsFilter) ([]domain.DebtRow, error) {
	query := `
		SELECT
		    cpa.CustomerPAppointmentID_PK,
		    COALESCE(cpa.SalesInvoiceNumber, '')       AS SalesInvoiceNumber,
		    cpa.PAppointmentDate,
		    cpa.PaymentAmount,
		    COALESCE(c.CustomerName, '')               AS CustomerName,
		    cpa.IsDone,
		    COALESCE(cpa.PAppointmentDescription, '')  AS PAppointmentDescription,
		    COALESCE(cpa.CreatedByUserName, '')        AS CreatedByUserName,
		    cpa.CreatedDate
		FROM SALES.Data_CustomerPaymentAppointments cpa
		LEFT JOIN SALES.Data_Customers c ON cpa.CustomerID_FK = c.CustomerID_PK
		WHERE 1=1
	`

	var args []interface{}
	argCounter := 1

	if filter.UnpaidOnly {
		query += " AND cpa.IsDone = 0"
	}

	if filter.DueToday {
		query += " AND CAST(cpa.PAppointmentDate AS DATE) = CAST(GETDATE() AS DATE)"
	}

	if filter.DateFrom != "" {
		query += fmt.Sprintf(" AND CAST(cpa.PAppointmentDate AS DATE) >= @p%d", argCounter)
		args = append(args, filter.DateFrom)
		argCounter++
	}

	if filter.DateTo != "" {
		query += fmt.Sprintf(" AND CAST(cpa.PAppointmentDate AS DATE) <= @p%d", argCounter)
		args = append(args, filter.DateTo)
		argCounter++
	}

	query += " ORDER BY cpa.PAppointmentDate ASC, cpa.CustomerPAppointmentID_PK ASC"

	rows := make([]domain.DebtRow, 0)
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("fetch payment appointments: %w", err)
	}
	return rows, nil
}
