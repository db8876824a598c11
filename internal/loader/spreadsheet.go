package loader

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"tabular-reconciliation-backend/internal/table"
)

// loadSpreadsheet reads the first sheet; its first non-blank row is the header.
func loadSpreadsheet(name string, data []byte) (*table.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &LoadError{File: name, Err: fmt.Errorf("%w: open spreadsheet: %v", ErrUnreadable, err)}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &LoadError{File: name, Err: fmt.Errorf("%w: workbook has no sheets", ErrUnreadable)}
	}

	formatted, err := f.GetRows(sheet)
	if err != nil {
		return nil, &LoadError{File: name, Err: fmt.Errorf("%w: read rows: %v", ErrUnreadable, err)}
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &LoadError{File: name, Err: fmt.Errorf("%w: read rows: %v", ErrUnreadable, err)}
	}

	headerAt := -1
	for i, row := range formatted {
		if !isBlank(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, &LoadError{File: name, Err: fmt.Errorf("%w: sheet %q is empty", ErrUnreadable, sheet)}
	}
	// Values right of the header row get positional "Unnamed: i" columns.
	header := formatted[headerAt]
	width := len(header)
	for _, values := range formatted[headerAt+1:] {
		if w := usedWidth(values); w > width {
			width = w
		}
	}
	padded := make([]string, width)
	copy(padded, header)
	columns := cleanHeaders(padded)

	var rows [][]table.Cell
	for i := headerAt + 1; i < len(formatted); i++ {
		values := formatted[i]
		if isBlank(values) {
			continue
		}
		row := make([]table.Cell, len(columns))
		for j := 0; j < len(columns) && j < len(values); j++ {
			var rawValue string
			if i < len(raw) && j < len(raw[i]) {
				rawValue = raw[i][j]
			}
			row[j] = spreadsheetCell(f, sheet, i, j, values[j], rawValue)
		}
		rows = append(rows, row)
	}

	return table.New(name, columns, rows), nil
}

// spreadsheetCell keeps numbers numeric only when the displayed value is a
// plain number, so dates and currency formats stay as shown.
func spreadsheetCell(f *excelize.File, sheet string, row, col int, shown, raw string) table.Cell {
	if shown == "" {
		return table.Null()
	}
	cellName, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return table.Str(shown)
	}
	typ, err := f.GetCellType(sheet, cellName)
	if err != nil || (typ != excelize.CellTypeNumber && typ != excelize.CellTypeUnset) {
		return table.Str(shown)
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(shown), 64); err != nil {
		return table.Str(shown)
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return table.Str(shown)
	}
	return table.Num(n)
}

// usedWidth is the position after the last non-blank value.
func usedWidth(values []string) int {
	for i := len(values); i > 0; i-- {
		if strings.TrimSpace(values[i-1]) != "" {
			return i
		}
	}
	return 0
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
