// Package feeds loads estimator input from CSV files, for running the
// coverage report offline against exported data.
package feeds

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mizanhq/reports-backend/internal/coverage"
)

// Expected files inside the feed directory. uoms.csv is optional.
const (
	productsFile  = "products.csv"
	movementsFile = "movements.csv"
	salesFile     = "sales.csv"
	uomsFile      = "uoms.csv"
)

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// LoadDir reads an estimator input from a directory of CSV exports.
func LoadDir(dir string) (coverage.Input, error) {
	var input coverage.Input

	if err := readCSV(filepath.Join(dir, productsFile), func(row rowReader) error {
		p := coverage.Product{
			ID:   row.int64("product_id", "id"),
			Name: row.str("name", "product_name"),
			Code: row.str("code", "product_code"),
		}
		if p.ID == 0 {
			return nil
		}
		input.Products = append(input.Products, p)
		return nil
	}); err != nil {
		return coverage.Input{}, err
	}

	if err := readCSV(filepath.Join(dir, movementsFile), func(row rowReader) error {
		date, err := row.date("date", "movement_date")
		if err != nil {
			return err
		}
		input.Movements = append(input.Movements, coverage.Movement{
			ProductID: row.int64("product_id"),
			Date:      date,
			Qty:       row.dec("qty", "quantity"),
		})
		return nil
	}); err != nil {
		return coverage.Input{}, err
	}

	if err := readCSV(filepath.Join(dir, salesFile), func(row rowReader) error {
		date, err := row.date("date", "sale_date")
		if err != nil {
			return err
		}
		input.Sales = append(input.Sales, coverage.Sale{
			ProductID:   row.int64("product_id"),
			Date:        date,
			Qty:         row.dec("qty", "quantity"),
			UnitBaseQty: row.dec("unit_base_qty", "base_qty"),
		})
		return nil
	}); err != nil {
		return coverage.Input{}, err
	}

	uomsPath := filepath.Join(dir, uomsFile)
	if _, err := os.Stat(uomsPath); err == nil {
		if err := readCSV(uomsPath, func(row rowReader) error {
			input.UOMHints = append(input.UOMHints, coverage.UOMHint{
				ProductID:   row.int64("product_id"),
				UnitName:    row.str("unit_name", "uom"),
				BaseUnitQty: row.dec("base_unit_qty", "base_qty"),
			})
			return nil
		}); err != nil {
			return coverage.Input{}, err
		}
	}

	if len(input.Products) == 0 {
		return coverage.Input{}, fmt.Errorf("%s in %s contains no products", productsFile, dir)
	}

	return input, nil
}

// rowReader resolves values by any of several header spellings, so exports
// from different tools all load.
type rowReader struct {
	header map[string]int
	record []string
}

func (r rowReader) str(names ...string) string {
	for _, name := range names {
		if idx, ok := r.header[normalizeColumnName(name)]; ok && idx < len(r.record) {
			return strings.TrimSpace(r.record[idx])
		}
	}
	return ""
}

func (r rowReader) int64(names ...string) int64 {
	v, _ := strconv.ParseInt(r.str(names...), 10, 64)
	return v
}

func (r rowReader) dec(names ...string) decimal.Decimal {
	v := strings.ReplaceAll(r.str(names...), ",", "")
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (r rowReader) date(names ...string) (time.Time, error) {
	v := r.str(names...)
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", v)
}

func readCSV(path string, each func(rowReader) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	rawHeader, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", path, err)
	}
	header := make(map[string]int, len(rawHeader))
	for i, h := range rawHeader {
		header[normalizeColumnName(h)] = i
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		line++
		if err := each(rowReader{header: header, record: record}); err != nil {
			return fmt.Errorf("%s line %d: %w", path, line, err)
		}
	}

	return nil
}
