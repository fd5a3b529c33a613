package export

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizanhq/reports-backend/internal/domain"
)

func TestRequiredItemsWorkbookLeavesNullCoverBlank(t *testing.T) {
	cover := decimal.NewFromFloat(12.5)
	rows := []domain.RequiredItemRow{
		{ProductName: "Paracetamol", ProductCode: "P-001", DaysOfCover: &cover},
		{ProductName: "Ibuprofen", ProductCode: "P-002", DaysOfCover: nil},
	}

	f, err := RequiredItemsWorkbook(rows)
	require.NoError(t, err)

	name, err := f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Product Name", name)

	v, err := f.GetCellValue("Sheet1", "C2")
	require.NoError(t, err)
	assert.Equal(t, "12.5", v)

	blank, err := f.GetCellValue("Sheet1", "C3")
	require.NoError(t, err)
	assert.Equal(t, "", blank)
}

func TestDebtsWorkbookFormatsPaidFlagAndDates(t *testing.T) {
	rows := []domain.DebtRow{
		{
			InvoiceNumber: "INV-9",
			CustomerName:  "ACME Pharmacy",
			DueDate:       time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
			Amount:        decimal.NewFromInt(250),
			IsPaid:        true,
			CreatedAt:     time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
		},
	}

	f, err := DebtsWorkbook(rows)
	require.NoError(t, err)

	due, err := f.GetCellValue("Sheet1", "C2")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-15", due)

	paid, err := f.GetCellValue("Sheet1", "E2")
	require.NoError(t, err)
	assert.Equal(t, "Yes", paid)
}

func TestBytesRoundTrips(t *testing.T) {
	f, err := LowStockWorkbook([]domain.LowStockRow{
		{ProductCode: "P-1", ProductName: "X", MinStockLevel: decimal.NewFromInt(10), StockOnHand: decimal.NewFromInt(4), Difference: decimal.NewFromInt(6)},
	})
	require.NoError(t, err)

	data, err := Bytes(f)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	// xlsx files are zip archives.
	assert.Equal(t, []byte{'P', 'K'}, data[:2])
}
