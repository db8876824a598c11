package loader

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"tabular-reconciliation-backend/internal/table"
)

func load(t *testing.T, name, content string) *table.Table {
	t.Helper()
	tbl, err := Load(name, strings.NewReader(content), DefaultOptions())
	require.NoError(t, err)
	return tbl
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatSpreadsheet, FormatOf("Book1.XLSX"))
	assert.Equal(t, FormatCSV, FormatOf("bank.csv"))
	assert.Equal(t, FormatCSV, FormatOf("export.txt"))
}

func TestLoadCSV_Basic(t *testing.T) {
	tbl := load(t, "a.csv", "id,name\nA1,Bob\nA2,\n")

	assert.Equal(t, []string{"id", "name"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Bob", tbl.Cell(0, "name").Text())
	assert.True(t, tbl.Cell(1, "name").IsMissing())
	assert.Equal(t, EncodingUTF8, tbl.Encoding)
	assert.Equal(t, 0, tbl.SkippedRows)
}

func TestLoadCSV_TrimsAndDedupesHeaders(t *testing.T) {
	tbl := load(t, "a.csv", " id , name,name,\n1,2,3,4\n")

	assert.Equal(t, []string{"id", "name", "name.1", "Unnamed: 3"}, tbl.Columns)
}

func TestLoadCSV_SniffsDelimiter(t *testing.T) {
	tbl := load(t, "a.csv", "\nid;amount\n1;2,50\n")

	assert.Equal(t, []string{"id", "amount"}, tbl.Columns)
	assert.Equal(t, "2,50", tbl.Cell(0, "amount").Text())

	tbl = load(t, "b.tsv", "id\tname\n7\tAnn\n")
	assert.Equal(t, "Ann", tbl.Cell(0, "name").Text())
}

func TestLoadCSV_SkipsMalformedRows(t *testing.T) {
	tbl := load(t, "a.csv", "a,b\n1,2\n3,4,5\n\n6\n")

	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, 1, tbl.SkippedRows)
	assert.Equal(t, "6", tbl.Cell(1, "a").Text())
	assert.True(t, tbl.Cell(1, "b").IsMissing())
}

func TestLoadCSV_StripsBOM(t *testing.T) {
	tbl := load(t, "a.csv", "\xEF\xBB\xBFid,name\n1,x\n")

	assert.Equal(t, "id", tbl.Columns[0])
	assert.Equal(t, EncodingUTF8, tbl.Encoding)
}

func TestLoadCSV_Windows1252FallbackMatchesUTF8(t *testing.T) {
	content := "id,name,price\nA1,Café,€5\n"
	encoded, err := charmap.Windows1252.NewEncoder().String(content)
	require.NoError(t, err)

	utf := load(t, "utf.csv", content)
	cp := load(t, "cp.csv", encoded)

	assert.Equal(t, EncodingWindows1252, cp.Encoding)
	assert.Equal(t, utf.Columns, cp.Columns)
	assert.Equal(t, utf.Rows, cp.Rows)
}

func TestLoadCSV_Latin1Fallback(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String("id,name\n1,Zoë\n")
	require.NoError(t, err)

	tbl := load(t, "l.csv", encoded)

	assert.Equal(t, EncodingLatin1, tbl.Encoding)
	assert.Equal(t, "Zoë", tbl.Cell(0, "name").Text())
}

func TestLoadCSV_LossyDropsUndecodableBytes(t *testing.T) {
	tbl := load(t, "x.csv", "id\nA\x81B\n")

	assert.Equal(t, EncodingUTF8Lossy, tbl.Encoding)
	assert.Equal(t, "AB", tbl.Cell(0, "id").Text())
}

func TestLoadCSV_DamagedUTF8KeepsValidCharacters(t *testing.T) {
	tbl := load(t, "x.csv", "id,name\n1,Café\n2,Zo\xe9\n")

	assert.Equal(t, EncodingUTF8Lossy, tbl.Encoding)
	assert.Equal(t, "Café", tbl.Cell(0, "name").Text())
	assert.Equal(t, "Zo", tbl.Cell(1, "name").Text())
}

func TestMostlyUTF8(t *testing.T) {
	assert.True(t, mostlyUTF8([]byte("Café \xe9")))
	assert.False(t, mostlyUTF8([]byte("Caf\xe9 Zo\xeb")))
	assert.False(t, mostlyUTF8([]byte("plain ascii")))
}

func TestLoadCSV_Unreadable(t *testing.T) {
	_, err := Load("empty.csv", strings.NewReader(""), DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadable))

	var lerr *LoadError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, "empty.csv", lerr.File)
	assert.Equal(t, DefaultEncodings(), lerr.Attempted)
}

func TestLoadCSV_CustomEncodingOrder(t *testing.T) {
	opts := Options{Encodings: []string{"cp1252", "bogus"}}
	tbl, err := Load("a.csv", strings.NewReader("id\nx\n"), opts)
	require.NoError(t, err)
	assert.Equal(t, EncodingWindows1252, tbl.Encoding)

	_, err = Load("a.csv", strings.NewReader("id\nA\x81B\n"), Options{Encodings: []string{"latin1"}})
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestCanonicalEncoding(t *testing.T) {
	n, ok := CanonicalEncoding(" Latin-1 ")
	assert.True(t, ok)
	assert.Equal(t, EncodingLatin1, n)

	_, ok = CanonicalEncoding("ebcdic")
	assert.False(t, ok)
}

func TestLoadSpreadsheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	cells := map[string]interface{}{
		"A1": " ref ", "B1": "person", "C1": "amount",
		"A2": "a1", "B2": "BOB", "C2": 42,
		"A3": "007", "B3": "", "C3": 1.5,
	}
	for cell, v := range cells {
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := Load("book.xlsx", bytes.NewReader(buf.Bytes()), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"ref", "person", "amount"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, table.Str("a1"), tbl.Cell(0, "ref"))
	assert.Equal(t, table.Num(42), tbl.Cell(0, "amount"))
	assert.Equal(t, "42", tbl.Cell(0, "amount").Text())
	assert.Equal(t, table.Str("007"), tbl.Cell(1, "ref"))
	assert.True(t, tbl.Cell(1, "person").IsMissing())
	assert.Equal(t, table.Num(1.5), tbl.Cell(1, "amount"))
}

func TestLoadSpreadsheet_KeepsRowsWiderThanHeader(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"id", "name"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"1", "x", "note"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"2", "y"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := Load("book.xlsx", bytes.NewReader(buf.Bytes()), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "Unnamed: 2"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, 0, tbl.SkippedRows)
	assert.Equal(t, "note", tbl.Cell(0, "Unnamed: 2").Text())
	assert.Equal(t, "y", tbl.Cell(1, "name").Text())
	assert.True(t, tbl.Cell(1, "Unnamed: 2").IsMissing())
}

func TestLoadSpreadsheet_Corrupt(t *testing.T) {
	_, err := Load("book.xlsx", strings.NewReader("not a zip"), DefaultOptions())
	assert.ErrorIs(t, err, ErrUnreadable)
}
