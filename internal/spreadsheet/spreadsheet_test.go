package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"couponly/internal/normalize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFormatFromName(t *testing.T) {
	f, err := FormatFromName("stores.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = FormatFromName("coupons.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = FormatFromName("notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestParseCSVKeepsLegacyHeaders(t *testing.T) {
	in := "\ufeffStore  Id,Store Name,Store Logo\n" +
		"ST-1,Acme,acme.com/logo.png\n" +
		",,\n" +
		"ST-2,Globex,\n"

	rows, err := Parse(strings.NewReader(in), FormatCSV)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, normalize.Row{"Store  Id": "ST-1", "Store Name": "Acme", "Store Logo": "acme.com/logo.png"}, rows[0])
	assert.NotContains(t, rows[1], "Store Logo")

	s := normalize.Store(rows[0])
	assert.Equal(t, "ST-1", s.StoreID)
	assert.Equal(t, "acme", s.Slug)
}

func TestParseXLSXFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Coupon Id", "Coupon Code", "Discount"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"C-1", "SAVE10", "10%"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"C-2", "", 5}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := Parse(bytes.NewReader(buf.Bytes()), FormatXLSX)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	c := normalize.Coupon(rows[0])
	assert.Equal(t, "C-1", c.CouponID)
	require.NotNil(t, c.DiscountValue)
	assert.Equal(t, 10.0, *c.DiscountValue)

	assert.Equal(t, "5", rows[1]["Discount"])
	assert.NotContains(t, rows[1], "Coupon Code")
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse(strings.NewReader("\n\n"), FormatCSV)
	assert.ErrorIs(t, err, ErrNoHeader)
}
