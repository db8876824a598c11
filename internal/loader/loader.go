package loader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"tabular-reconciliation-backend/internal/table"
)

// ErrUnreadable is returned when no supported encoding yields a header row.
var ErrUnreadable = errors.New("file could not be read with any supported encoding")

type LoadError struct {
	File      string
	Attempted []string
	Err       error
}

func (e *LoadError) Error() string {
	if len(e.Attempted) == 0 {
		return fmt.Sprintf("%s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("%s: %v (tried %s)", e.File, e.Err, strings.Join(e.Attempted, ", "))
}

func (e *LoadError) Unwrap() error { return e.Err }

type Format int

const (
	FormatCSV Format = iota
	FormatSpreadsheet
)

func (f Format) String() string {
	if f == FormatSpreadsheet {
		return "xlsx"
	}
	return "csv"
}

// FormatOf picks the parser from the file name. Anything that is not a
// spreadsheet extension is treated as delimited text.
func FormatOf(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FormatSpreadsheet
	default:
		return FormatCSV
	}
}

type Options struct {
	// Encodings is the CSV decoding fallback order.
	Encodings []string
}

func DefaultOptions() Options {
	return Options{Encodings: DefaultEncodings()}
}

// Load reads a whole upload into a Table.
func Load(name string, r io.Reader, opts Options) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{File: name, Err: fmt.Errorf("read upload: %w", err)}
	}

	var t *table.Table
	switch FormatOf(name) {
	case FormatSpreadsheet:
		t, err = loadSpreadsheet(name, data)
	default:
		t, err = loadCSV(name, data, opts)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}
