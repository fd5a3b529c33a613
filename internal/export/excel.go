// Package export renders report rows into xlsx workbooks.
package export

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mizanhq/reports-backend/internal/domain"
)

const sheetName = "Sheet1"

// ContentType is the MIME type for xlsx attachments.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RequiredItemsWorkbook renders the required-items report. Products with no
// estimate get an empty cell, not a zero.
func RequiredItemsWorkbook(rows []domain.RequiredItemRow) (*excelize.File, error) {
	f := excelize.NewFile()

	headers := []string{"Product Name", "Product Code", "Days Of Cover"}
	if err := writeHeader(f, headers); err != nil {
		return nil, err
	}

	for i, row := range rows {
		r := i + 2
		f.SetCellValue(sheetName, cell("A", r), row.ProductName)
		f.SetCellValue(sheetName, cell("B", r), row.ProductCode)
		if row.DaysOfCover != nil {
			v, _ := row.DaysOfCover.Float64()
			f.SetCellValue(sheetName, cell("C", r), v)
		}
	}

	return f, nil
}

// LowStockWorkbook renders the low-stock report.
func LowStockWorkbook(rows []domain.LowStockRow) (*excelize.File, error) {
	f := excelize.NewFile()

	headers := []string{"Product Code", "Product Name", "Min Stock Level", "Stock On Hand", "Difference"}
	if err := writeHeader(f, headers); err != nil {
		return nil, err
	}

	for i, row := range rows {
		r := i + 2
		f.SetCellValue(sheetName, cell("A", r), row.ProductCode)
		f.SetCellValue(sheetName, cell("B", r), row.ProductName)
		setDecimal(f, cell("C", r), row.MinStockLevel)
		setDecimal(f, cell("D", r), row.StockOnHand)
		setDecimal(f, cell("E", r), row.Difference)
	}

	return f, nil
}

// DebtsWorkbook renders the customer debts / payment schedule report.
func DebtsWorkbook(rows []domain.DebtRow) (*excelize.File, error) {
	f := excelize.NewFile()

	headers := []string{"Invoice Number", "Customer", "Due Date", "Amount", "Paid", "Note", "Created By", "Created At"}
	if err := writeHeader(f, headers); err != nil {
		return nil, err
	}

	for i, row := range rows {
		r := i + 2
		f.SetCellValue(sheetName, cell("A", r), row.InvoiceNumber)
		f.SetCellValue(sheetName, cell("B", r), row.CustomerName)
		f.SetCellValue(sheetName, cell("C", r), row.DueDate.Format("2006-01-02"))
		setDecimal(f, cell("D", r), row.Amount)
		paid := "No"
		if row.IsPaid {
			paid = "Yes"
		}
		f.SetCellValue(sheetName, cell("E", r), paid)
		f.SetCellValue(sheetName, cell("F", r), row.Note)
		f.SetCellValue(sheetName, cell("G", r), row.CreatedBy)
		f.SetCellValue(sheetName, cell("H", r), row.CreatedAt.Format("2006-01-02 15:04"))
	}

	return f, nil
}

// Bytes serializes a workbook, for archiving.
func Bytes(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, headers []string) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	for i, h := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheetName, cell(col, 1), h)
	}
	return nil
}

func setDecimal(f *excelize.File, axis string, d decimal.Decimal) {
	v, _ := d.Float64()
	f.SetCellValue(sheetName, axis, v)
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
