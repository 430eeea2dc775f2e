package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
)

func TestParseCSV_Basic(t *testing.T) {
	data := []byte("Mfr, Model_SKU ,Watts\nAcme,AC-400,400\nBolt,,410\n")

	res, err := ParseCSV(data)
	require.NoError(t, err)

	assert.Equal(t, EncodingUTF8, res.Encoding)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, []string{"Mfr", "Model_SKU", "Watts"}, res.Table.Names())
	assert.Equal(t, 2, res.Table.RowCount())
	assert.Equal(t, []any{"Bolt", nil, "410"}, res.Table.Row(1))
}

func TestParseCSV_RaggedRows(t *testing.T) {
	data := []byte("a,b,c\n1,2\n4,5,6,7\n\n8,9,10\n")

	res, err := ParseCSV(data)
	require.NoError(t, err)

	require.Len(t, res.Warnings, 2)
	assert.Equal(t, 2, res.Warnings[0].Row)
	assert.Contains(t, res.Warnings[0].Message, "padding")
	assert.Equal(t, 3, res.Warnings[1].Row)
	assert.Contains(t, res.Warnings[1].Message, "truncating")
	assert.Equal(t, 3, res.Table.RowCount())
	assert.Equal(t, []any{"1", "2", nil}, res.Table.Row(0))
	assert.Equal(t, []any{"4", "5", "6"}, res.Table.Row(1))
}

func TestParseCSV_BlankHeader(t *testing.T) {
	res, err := ParseCSV([]byte("a,,c\n1,2,3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "Unnamed: 1", "c"}, res.Table.Names())
}

func TestParseCSV_Errors(t *testing.T) {
	_, err := ParseCSV(nil)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = ParseCSV([]byte("a,b\n"))
	assert.ErrorIs(t, err, ErrNoDataRows)
}

func TestParseCSV_RepeatedHeaders(t *testing.T) {
	res, err := ParseCSV([]byte("Manufacturer,Notes,Notes,Notes.1,Notes\nAcme,a,b,c,d\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Manufacturer", "Notes", "Notes.1", "Notes.1.1", "Notes.2"}, res.Table.Names())
	assert.Equal(t, []any{"Acme", "a", "b", "c", "d"}, res.Table.Row(0))
}

func TestDetectAndDecode(t *testing.T) {
	out, enc, err := DetectAndDecode([]byte("\xEF\xBB\xBFMfr\n"))
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8BOM, enc)
	assert.Equal(t, "Mfr\n", string(out))

	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte("Mfr,Société\n"))
	require.NoError(t, err)
	out, enc, err = DetectAndDecode(utf16)
	require.NoError(t, err)
	assert.Equal(t, "utf-16le", enc)
	assert.Equal(t, "Mfr,Société\n", string(out))

	out, enc, err = DetectAndDecode([]byte("Soci\xe9t\xe9"))
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", enc)
	assert.Equal(t, "Société", string(out))
}

func TestParseCSV_UTF16BE(t *testing.T) {
	data, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().Bytes([]byte("Manufacturer\nAcme\n"))
	require.NoError(t, err)

	res, err := ParseCSV(data)
	require.NoError(t, err)
	assert.Equal(t, "utf-16be", res.Encoding)
	assert.Equal(t, []any{"Acme"}, res.Table.Row(0))
}

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Equipment Category", "Manufacturer", "Model SKU"},
		{"PV Module", "Acme", "AC-400"},
		{"Inverter", "", "INV-7"},
	})

	res, err := ParseXLSX(data, "")
	require.NoError(t, err)

	assert.Equal(t, EncodingXLSX, res.Encoding)
	assert.Equal(t, []string{"Equipment Category", "Manufacturer", "Model SKU"}, res.Table.Names())
	assert.Equal(t, 2, res.Table.RowCount())
	assert.Equal(t, []any{"Inverter", nil, "INV-7"}, res.Table.Row(1))
}

func TestParseXLSX_RepeatedHeaders(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Notes", "Manufacturer", "Notes"},
		{"x", "Acme", "y"},
	})

	res, err := ParseXLSX(data, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Notes", "Manufacturer", "Notes.1"}, res.Table.Names())
	assert.Equal(t, []any{"x", "Acme", "y"}, res.Table.Row(0))
}

func TestParseXLSX_MissingSheet(t *testing.T) {
	data := buildWorkbook(t, [][]any{{"a"}, {"1"}})
	_, err := ParseXLSX(data, "Nope")
	assert.Error(t, err)
}

func TestParse_DispatchByExtension(t *testing.T) {
	res, err := Parse("vendors.CSV", []byte("a\n1\n"), "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Table.RowCount())

	_, err = Parse("vendors.pdf", []byte("a\n1\n"), "")
	assert.ErrorIs(t, err, ErrUnsupported)
}
