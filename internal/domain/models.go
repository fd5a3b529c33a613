package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConnectionConfig identifies one user's registered external SQL Server
// database. Exactly one active connection is resolved per user, the most
// recently connected first.
type ConnectionConfig struct {
	ID              int64      `json:"id" db:"id"`
	UserID          string     `json:"user_id" db:"user_id"`
	ServerAddress   string     `json:"server_address" db:"server_address"`
	DatabaseName    string     `json:"database_name" db:"database_name"`
	Username        string     `json:"username" db:"username"`
	Password        string     `json:"-" db:"password_encrypted"`
	IsActive        bool       `json:"is_active" db:"is_active"`
	LastConnectedAt *time.Time `json:"last_connected_at" db:"last_connected_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// RequiredItemRow is one line of the required-items report: projected days
// until the product's stock runs out. DaysOfCover is null when demand over
// the approved days was zero ("cannot estimate").
type RequiredItemRow struct {
	ProductName string           `json:"product_name"`
	ProductCode string           `json:"product_code"`
	DaysOfCover *decimal.Decimal `json:"days_of_cover"`
}

// LowStockRow is one line of the low-stock report: a product at or below
// its configured minimum stock level.
type LowStockRow struct {
	ProductID     int64           `json:"product_id" db:"ProductID_PK"`
	ProductCode   string          `json:"product_code" db:"ProductCode"`
	ProductName   string          `json:"product_name" db:"ProductName"`
	MinStockLevel decimal.Decimal `json:"min_stock_level" db:"MinStockLevel"`
	StockOnHand   decimal.Decimal `json:"stock_on_hand" db:"StockOnHand"`
	Difference    decimal.Decimal `json:"difference" db:"Difference"`
}

// DebtRow is one line of the customer debts / payment-schedule report.
type DebtRow struct {
	AppointmentID int64           `json:"appointment_id" db:"CustomerPAppointmentID_PK"`
	InvoiceNumber string          `json:"invoice_number" db:"SalesInvoiceNumber"`
	DueDate       time.Time       `json:"due_date" db:"PAppointmentDate"`
	Amount        decimal.Decimal `json:"amount" db:"PaymentAmount"`
	CustomerName  string          `json:"customer_name" db:"CustomerName"`
	IsPaid        bool            `json:"is_paid" db:"IsDone"`
	Note          string          `json:"note" db:"PAppointmentDescription"`
	CreatedBy     string          `json:"created_by" db:"CreatedByUserName"`
	CreatedAt     time.Time       `json:"created_at" db:"CreatedDate"`
}

// DebtsFilter narrows the debts report. Zero values mean "no filter";
// dates are inclusive YYYY-MM-DD bounds on the due date.
type DebtsFilter struct {
	UnpaidOnly bool   `json:"unpaid_only"`
	DueToday   bool   `json:"due_today"`
	DateFrom   string `json:"date_from"`
	DateTo     string `json:"date_to"`
}
