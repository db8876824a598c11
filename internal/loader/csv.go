package loader

import (
	"encoding/csv"
	"errors"
	"io"
	"log"
	"strings"

	"tabular-reconciliation-backend/internal/table"
)

var delimiters = []rune{',', ';', '\t', '|'}

func loadCSV(name string, data []byte, opts Options) (*table.Table, error) {
	encodings := opts.Encodings
	if len(encodings) == 0 {
		encodings = DefaultEncodings()
	}

	var attempted []string
	for _, enc := range encodings {
		canonical, ok := CanonicalEncoding(enc)
		if !ok {
			log.Printf("loader: skipping unsupported encoding %q", enc)
			continue
		}
		attempted = append(attempted, canonical)

		text, ok := decoders[canonical](data)
		if !ok && canonical == EncodingUTF8 && mostlyUTF8(data) {
			log.Printf("loader: %s: dropping invalid UTF-8 bytes", name)
			text, ok = decodeUTF8Lossy(data)
			canonical = EncodingUTF8Lossy
		}
		if !ok {
			continue
		}
		t, ok := parseCSV(name, text)
		if !ok {
			continue
		}
		t.Encoding = canonical
		if t.SkippedRows > 0 {
			log.Printf("loader: %s: skipped %d malformed rows", name, t.SkippedRows)
		}
		return t, nil
	}

	return nil, &LoadError{File: name, Attempted: attempted, Err: ErrUnreadable}
}

// parseCSV fails only when no header row can be read. Malformed data rows are
// dropped and counted.
func parseCSV(name, text string) (*table.Table, bool) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, false
	}
	columns := cleanHeaders(header)

	var rows [][]table.Cell
	skipped := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped++
				continue
			}
			return nil, false
		}
		if len(record) > len(columns) {
			skipped++
			continue
		}
		row := make([]table.Cell, len(record))
		for i, v := range record {
			if v == "" {
				row[i] = table.Null()
			} else {
				row[i] = table.Str(v)
			}
		}
		rows = append(rows, row)
	}

	t := table.New(name, columns, rows)
	t.SkippedRows = skipped
	return t, true
}

// sniffDelimiter counts candidate separators on the first non-blank line.
func sniffDelimiter(text string) rune {
	var line string
	for rest := text; rest != ""; {
		line, rest, _ = strings.Cut(rest, "\n")
		if strings.TrimSpace(line) != "" {
			break
		}
	}

	best, bestCount := ',', 0
	for _, d := range delimiters {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
