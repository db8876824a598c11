package table

import (
	"math"
	"strconv"
)

type CellKind int

const (
	Missing CellKind = iota
	String
	Number
)

// Cell is a single value read from an uploaded file.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
}

func Str(s string) Cell { return Cell{Kind: String, Str: s} }

func Num(f float64) Cell { return Cell{Kind: Number, Num: f} }

func Null() Cell { return Cell{Kind: Missing} }

func (c Cell) IsMissing() bool { return c.Kind == Missing }

// Text renders the cell the way it appears in exports. Missing renders as "".
func (c Cell) Text() string {
	switch c.Kind {
	case String:
		return c.Str
	case Number:
		return FormatNumber(c.Num)
	default:
		return ""
	}
}

// Value is the JSON form of the cell: string, float64 or nil.
func (c Cell) Value() interface{} {
	switch c.Kind {
	case String:
		return c.Str
	case Number:
		return c.Num
	default:
		return nil
	}
}

// maxExactInt is the largest magnitude below which every integer is exact.
const maxExactInt = 1 << 53

// FormatNumber prints integral values without a fractional part.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) <= maxExactInt {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Table is an immutable, ordered set of rows sharing one header.
type Table struct {
	Name        string
	Encoding    string
	Columns     []string
	Rows        [][]Cell
	SkippedRows int

	index map[string]int
}

// New builds a table, padding short rows with Missing cells.
func New(name string, columns []string, rows [][]Cell) *Table {
	t := &Table{
		Name:    name,
		Columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		t.index[c] = i
	}
	for _, r := range rows {
		if len(r) < len(columns) {
			padded := make([]Cell, len(columns))
			copy(padded, r)
			r = padded
		}
		t.Rows = append(t.Rows, r[:len(columns)])
	}
	return t
}

// ColumnIndex returns the position of a column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

func (t *Table) Len() int { return len(t.Rows) }

func (t *Table) Cell(row int, col string) Cell {
	i := t.ColumnIndex(col)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return Null()
	}
	return t.Rows[row][i]
}
