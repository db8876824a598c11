package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"tabular-reconciliation-backend/internal/services/matching"
	"tabular-reconciliation-backend/internal/table"
)

const (
	FileName = "Reconciliation_Result.csv"
	// NoMatchMarker stands in for the absent side of a record.
	NoMatchMarker = "No Match"

	StatusColumn = "Status"
	File1Column  = "File1 Record"
	File2Column  = "File2 Record"

	file1Suffix = "_file1"
	file2Suffix = "_file2"
)

var markers = map[matching.Status]string{
	matching.StatusMatched:   "#d4edda",
	matching.StatusUnmatched: "#f8d7da",
	matching.StatusUnknown:   "#fff3cd",
}

// RowObject is a source row that marshals with its columns in table order.
type RowObject struct {
	Columns []string
	Cells   []table.Cell
}

func (o RowObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range o.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(o.Cells[i].Value())
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DisplayRow is one row of the result table shown to the user. File1 and
// File2 hold either a RowObject or NoMatchMarker.
type DisplayRow struct {
	Status matching.Status `json:"Status"`
	File1  interface{}     `json:"File1 Record"`
	File2  interface{}     `json:"File2 Record"`
	Marker string          `json:"marker"`
}

func Display(res *matching.Result) []DisplayRow {
	rows := make([]DisplayRow, len(res.Records))
	for i, rec := range res.Records {
		rows[i] = DisplayRow{
			Status: rec.Status,
			File1:  side(res.Left, rec.Left),
			File2:  side(res.Right, rec.Right),
			Marker: markers[rec.Status],
		}
	}
	return rows
}

func side(t *table.Table, row int) interface{} {
	if row == matching.NoMatch {
		return NoMatchMarker
	}
	return RowObject{Columns: t.Columns, Cells: t.Rows[row]}
}

// Header returns the flattened column names. Names present in both tables
// are suffixed with the side they came from; a name that is still taken gets
// a counter.
func Header(res *matching.Result) []string {
	inLeft := make(map[string]bool, len(res.Left.Columns))
	for _, c := range res.Left.Columns {
		inLeft[c] = true
	}
	inRight := make(map[string]bool, len(res.Right.Columns))
	for _, c := range res.Right.Columns {
		inRight[c] = true
	}

	header := make([]string, 0, 1+len(res.Left.Columns)+len(res.Right.Columns))
	header = append(header, StatusColumn)
	taken := map[string]bool{StatusColumn: true}
	add := func(name string) {
		unique := name
		for n := 2; taken[unique]; n++ {
			unique = fmt.Sprintf("%s_%d", name, n)
		}
		taken[unique] = true
		header = append(header, unique)
	}
	for _, c := range res.Left.Columns {
		if inRight[c] || c == StatusColumn {
			c += file1Suffix
		}
		add(c)
	}
	for _, c := range res.Right.Columns {
		if inLeft[c] || c == StatusColumn {
			c += file2Suffix
		}
		add(c)
	}
	return header
}

// Flatten returns one string row per record; the absent side is left blank.
func Flatten(res *matching.Result) [][]string {
	nl, nr := len(res.Left.Columns), len(res.Right.Columns)
	out := make([][]string, len(res.Records))
	for i, rec := range res.Records {
		row := make([]string, 1+nl+nr)
		row[0] = string(rec.Status)
		if rec.Left != matching.NoMatch {
			for j, c := range res.Left.Rows[rec.Left] {
				row[1+j] = c.Text()
			}
		}
		if rec.Right != matching.NoMatch {
			for j, c := range res.Right.Rows[rec.Right] {
				row[1+nl+j] = c.Text()
			}
		}
		out[i] = row
	}
	return out
}

func WriteCSV(w io.Writer, res *matching.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(res)); err != nil {
		return err
	}
	if err := cw.WriteAll(Flatten(res)); err != nil {
		return err
	}
	return cw.Error()
}

func CSV(res *matching.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, res); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
