package feeds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFeed(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	writeFeed(t, dir, "products.csv",
		"product_id,name,code\n"+
			"1,Paracetamol 500mg,P-001\n"+
			"2,Ibuprofen 200mg,P-002\n")
	writeFeed(t, dir, "movements.csv",
		"product_id,date,qty\n"+
			"1,2026-08-01,120\n"+
			"1,2026-08-10,-30.5\n")
	writeFeed(t, dir, "sales.csv",
		"product_id,date,qty,unit_base_qty\n"+
			"1,2026-08-02,3,12\n")
	writeFeed(t, dir, "uoms.csv",
		"product_id,unit_name,base_unit_qty\n"+
			"1,pack,12\n")

	input, err := LoadDir(dir)
	require.NoError(t, err)

	require.Len(t, input.Products, 2)
	assert.Equal(t, int64(1), input.Products[0].ID)
	assert.Equal(t, "Paracetamol 500mg", input.Products[0].Name)
	assert.Equal(t, "P-001", input.Products[0].Code)

	require.Len(t, input.Movements, 2)
	assert.Equal(t, "120", input.Movements[0].Qty.String())
	assert.Equal(t, "-30.5", input.Movements[1].Qty.String())
	assert.Equal(t, "2026-08-10", input.Movements[1].Date.Format("2006-01-02"))

	require.Len(t, input.Sales, 1)
	assert.Equal(t, "12", input.Sales[0].UnitBaseQty.String())

	require.Len(t, input.UOMHints, 1)
	assert.Equal(t, "pack", input.UOMHints[0].UnitName)
}

func TestLoadDirHeaderSpellingsAreFlexible(t *testing.T) {
	dir := t.TempDir()

	// Exported headers vary: spaces, capitals, alternate names.
	writeFeed(t, dir, "products.csv",
		"ID,Product Name,Product Code\n"+
			"5,Amoxicillin,AMX-1\n")
	writeFeed(t, dir, "movements.csv",
		"Product_ID,Movement Date,Quantity\n"+
			"5,2026-08-03,\"1,200\"\n")
	writeFeed(t, dir, "sales.csv",
		"Product_ID,Sale Date,Quantity,Base Qty\n"+
			"5,2026-08-04,2,1\n")

	input, err := LoadDir(dir)
	require.NoError(t, err)

	require.Len(t, input.Products, 1)
	assert.Equal(t, int64(5), input.Products[0].ID)
	assert.Equal(t, "AMX-1", input.Products[0].Code)

	require.Len(t, input.Movements, 1)
	assert.Equal(t, "1200", input.Movements[0].Qty.String())

	assert.Empty(t, input.UOMHints)
}

func TestLoadDirRejectsEmptyProducts(t *testing.T) {
	dir := t.TempDir()

	writeFeed(t, dir, "products.csv", "product_id,name,code\n")
	writeFeed(t, dir, "movements.csv", "product_id,date,qty\n")
	writeFeed(t, dir, "sales.csv", "product_id,date,qty,unit_base_qty\n")

	_, err := LoadDir(dir)
	assert.Error(t, err)
}

func TestLoadDirRejectsBadDate(t *testing.T) {
	dir := t.TempDir()

	writeFeed(t, dir, "products.csv", "product_id,name,code\n1,X,C\n")
	writeFeed(t, dir, "movements.csv", "product_id,date,qty\n1,03/08/2026,10\n")
	writeFeed(t, dir, "sales.csv", "product_id,date,qty,unit_base_qty\n")

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unparseable date")
}
